package segment

import (
	"image"
)

// Binarized profile levels.
const (
	On  = 1000
	Off = 0
)

// Profile holds one value per column of a word raster.
type Profile []int

// Project sums the pixel intensities of every column of bin. A column with
// n foreground pixels of value 255 projects to 255*n.
func Project(bin *image.Gray) Profile {
	b := bin.Bounds()
	p := make(Profile, b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := bin.Pix[bin.PixOffset(b.Min.X, y):]
		for x := range p {
			p[x] += int(row[x])
		}
	}
	return p
}

// Binarize maps every value above noise to On and everything else to Off.
func Binarize(p Profile, noise int) Profile {
	out := make(Profile, len(p))
	for i, v := range p {
		if v > noise {
			out[i] = On
		} else {
			out[i] = Off
		}
	}
	return out
}
