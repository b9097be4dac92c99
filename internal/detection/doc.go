// Package detection finds the lines and words of a page in reading order.
//
// # Algorithm Overview
//
//  1. Dilation: the prepared binary page is dilated so the strokes of one
//     word merge into a single region
//  2. Contours: every 8-connected foreground region is labelled and its outer
//     boundary traced; holes inside a region are ignored
//  3. Filtering: contours enclosing less than a minimum area are noise
//  4. Lines: each contour falls into band (y + h/2) / LineBand, and bands are
//     ordered top to bottom
//  5. Words: contours within a band are ordered by x + w/2
//
// Word ROIs are cropped from the rescaled intensity raster, not the dilated
// one, so the character segmenter sees the original strokes.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Boxes cover [X, X+W) x [Y, Y+H)
//
// # Limitations
//
// Line clustering is a fixed-band quantisation. Skewed pages, or lines whose
// centroids straddle a band boundary, can split one visual line in two.
package detection
