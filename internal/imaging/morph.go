package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
)

// binaryLevel re-binarizes morphology output; anything at or above it is ink.
const binaryLevel = 128

// Dilate grows the foreground of a binary raster by radius pixels in every
// direction (a structuring element of side 2*radius+1). One pass.
//
// A binary square dilation is a separable box sum: any ink inside the
// window saturates the channel. Pixels outside the raster repeat the edge.
func Dilate(bin *image.Gray, radius int) *image.Gray {
	if radius <= 0 {
		return cloneGray(bin)
	}
	return grayFrom(segment.Threshold(boxSum(bin, radius), binaryLevel))
}

// Erode shrinks the foreground of a binary raster by radius pixels. One pass.
// It is the dilation of the background.
func Erode(bin *image.Gray, radius int) *image.Gray {
	if radius <= 0 {
		return cloneGray(bin)
	}
	bg := boxSum(effect.Invert(bin), radius)
	return grayFrom(segment.Threshold(effect.Invert(bg), binaryLevel))
}

// Open applies one erosion followed by one dilation, thinning ink bridges
// narrower than the structuring element.
func Open(bin *image.Gray, radius int) *image.Gray {
	return Dilate(Erode(bin, radius), radius)
}

// boxSum convolves img with an unnormalized (2*radius+1)-square box of ones,
// as a horizontal then a vertical pass. Sums clamp at 255.
func boxSum(img image.Image, radius int) *image.RGBA {
	n := 2*radius + 1
	k := convolution.NewKernel(n, 1)
	for i := range k.Matrix {
		k.Matrix[i] = 1
	}

	opts := convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true}
	rows := convolution.Convolve(img, k, &opts)
	return convolution.Convolve(rows, k.Transposed(), &opts)
}
