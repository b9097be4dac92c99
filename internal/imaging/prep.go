package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/handseg-mcp/internal/segerr"
)

// Foreground and Background are the pixel values of a prepared binary raster.
// Ink is foreground (inverted polarity relative to the scanned page).
const (
	Foreground uint8 = 255
	Background uint8 = 0
)

// PrepOptions controls the raster preparation filter chain.
type PrepOptions struct {
	// Height is the reference height the raster is rescaled to, preserving
	// aspect ratio. Zero or negative disables rescaling.
	Height int

	// BlurRadius is the Gaussian smoothing radius applied before
	// thresholding. A radius of 2 gives a 5-tap kernel. Zero disables it.
	BlurRadius float64

	// AdaptiveRadius is the radius of the Gaussian-weighted neighbourhood
	// used as the local threshold. A radius of 5 gives an 11-pixel block.
	AdaptiveRadius float64

	// AdaptiveOffset is subtracted from the local mean; a pixel is ink when
	// its value is at most mean - AdaptiveOffset.
	AdaptiveOffset float64
}

// Prepared is the output of Prepare.
type Prepared struct {
	// Rescaled is the single-channel intensity raster at the reference
	// height, before smoothing. Word and character crops are taken from it.
	Rescaled *image.Gray

	// Binary is the thresholded raster: Foreground for ink, Background otherwise.
	Binary *image.Gray
}

// Prepare turns an arbitrary raster into a clean binary raster.
//
// The chain is: grayscale, rescale to opts.Height with cubic interpolation,
// Gaussian smoothing, then local-adaptive Gaussian thresholding with
// inverted polarity. The input image is never modified.
//
// # Errors
//
//   - segerr.KindInvalidImage if img is nil or has zero width or height
//   - segerr.KindDegenerateProfile if rescaling leaves zero columns
func Prepare(img image.Image, opts PrepOptions) (*Prepared, error) {
	if err := CheckRaster(img, "prepare"); err != nil {
		return nil, err
	}

	gray := ToGray(img)

	rescaled, err := Rescale(gray, opts.Height)
	if err != nil {
		return nil, err
	}

	smoothed := rescaled
	if opts.BlurRadius > 0 {
		smoothed = grayFrom(blur.Gaussian(rescaled, opts.BlurRadius))
	}

	return &Prepared{
		Rescaled: rescaled,
		Binary:   AdaptiveThreshold(smoothed, opts.AdaptiveRadius, opts.AdaptiveOffset),
	}, nil
}

// CheckRaster rejects nil and zero-area rasters with an InvalidImage error
// attributed to stage.
func CheckRaster(img image.Image, stage string) error {
	if img == nil {
		return segerr.New(segerr.KindInvalidImage, stage, "nil raster")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return segerr.New(segerr.KindInvalidImage, stage, "raster has zero area (%dx%d)", b.Dx(), b.Dy())
	}
	return nil
}

// ToGray converts img to a single-channel raster anchored at (0,0).
// A raster that is already single-channel is copied, not converted.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return cloneGray(g)
	}
	return grayFrom(effect.Grayscale(img))
}

// Rescale resizes gray so its height equals height, scaling the width to
// preserve the aspect ratio. Cubic (Catmull-Rom) interpolation is used.
func Rescale(gray *image.Gray, height int) (*image.Gray, error) {
	b := gray.Bounds()
	if height <= 0 || height == b.Dy() {
		return cloneGray(gray), nil
	}

	width := int(math.Round(float64(b.Dx()) * float64(height) / float64(b.Dy())))
	if width <= 0 {
		return nil, segerr.New(segerr.KindDegenerateProfile, "prepare",
			"%dx%d raster has zero width at height %d", b.Dx(), b.Dy(), height)
	}

	return grayFrom(imaging.Resize(gray, width, height, imaging.CatmullRom)), nil
}

// AdaptiveThreshold binarizes gray against a Gaussian-weighted local mean.
//
// A pixel becomes Foreground when value <= mean - offset and Background
// otherwise, so dark ink on a light page turns into high values.
func AdaptiveThreshold(gray *image.Gray, radius, offset float64) *image.Gray {
	b := gray.Bounds()
	mean := grayFrom(blur.Gaussian(gray, radius))
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := float64(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			m := float64(mean.GrayAt(x, y).Y)
			if v <= m-offset {
				out.Pix[y*out.Stride+x] = Foreground
			}
		}
	}
	return out
}

// grayFrom copies the red channel of img into a new origin-anchored Gray.
// Callers only pass rasters whose channels are equal.
func grayFrom(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	switch src := img.(type) {
	case *image.RGBA:
		for y := 0; y < b.Dy(); y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < b.Dx(); x++ {
				out.Pix[y*out.Stride+x] = row[x*4]
			}
		}
	case *image.NRGBA:
		for y := 0; y < b.Dy(); y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < b.Dx(); x++ {
				out.Pix[y*out.Stride+x] = row[x*4]
			}
		}
	case *image.Gray:
		for y := 0; y < b.Dy(); y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], src.Pix[y*src.Stride:])
		}
	default:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				out.Pix[y*out.Stride+x] = uint8(r >> 8)
			}
		}
	}
	return out
}

// cloneGray returns an origin-anchored copy of g.
func cloneGray(g *image.Gray) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		off := g.PixOffset(b.Min.X, b.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], g.Pix[off:off+b.Dx()])
	}
	return out
}
