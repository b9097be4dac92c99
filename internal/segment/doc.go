// Package segment splits a word raster into character-sized column slices.
//
// The algorithm works on the vertical projection profile of the binarized
// word:
//
//  1. Project: sum the intensities of every column
//  2. Binarize: columns above a noise floor become On, the rest Off
//  3. Peaks: maximal runs of On columns are character candidates
//  4. Flags: peaks narrower than a fraction of the mean width are suspect
//     fragments of one character
//  5. Merge: each suspect peak is joined to a neighbour, computed from an
//     unmodified snapshot and then applied to a copy of the profile
//  6. Troughs: the midpoints of the gaps between corrected peaks
//  7. PSC: troughs with (almost) no ink in the raw profile become cut
//     columns, and the word is sliced at each of them
//
// The slices of a word with ink always partition its full width. A word
// without ink yields no slices and no error.
package segment
