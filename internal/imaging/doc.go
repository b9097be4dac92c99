// Package imaging provides the raster plumbing shared by every segmentation
// stage: decoding and caching pages, the preparation filter chain, binary
// morphology, cropping, and diagnostic overlays.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward. Every function returns a newly allocated raster
// anchored at (0,0); inputs are never modified.
//
// # Preparation Chain
//
// Prepare converts an arbitrary raster into a clean binary raster:
//
//  1. Grayscale: multi-channel input is reduced to intensity
//  2. Rescale: height is set to a reference value, width follows the aspect
//     ratio, using cubic interpolation
//  3. Smooth: a fixed-radius Gaussian blur suppresses scan noise
//  4. Threshold: local-adaptive Gaussian thresholding with inverted polarity,
//     so ink becomes Foreground (255) and paper becomes Background (0)
//
// # Morphology
//
// Dilate, Erode and Open operate on binary rasters with a neighbourhood of a
// given radius. Dilation merges the characters of a word into one blob;
// opening thins ink bridges between adjacent characters.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual raster operations
// are stateless and can be called concurrently.
//
// # Error Handling
//
// Decoding failures are reported as segerr.KindPageNotFound or
// segerr.KindWordNotFound. Nil or zero-area rasters are reported as
// segerr.KindInvalidImage.
package imaging
