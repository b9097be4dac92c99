package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// createPage creates a white RGBA page of the given size.
func createPage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

// fillRect paints r black on img.
func fillRect(img *image.RGBA, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, color.Black)
		}
	}
}

// binaryWith returns a Background raster with the listed pixels set to Foreground.
func binaryWith(width, height int, pts ...image.Point) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, width, height))
	for _, p := range pts {
		g.SetGray(p.X, p.Y, color.Gray{Y: Foreground})
	}
	return g
}

// writePNG saves img into a temp dir and returns its path.
func writePNG(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func countForeground(g *image.Gray) int {
	n := 0
	for _, v := range g.Pix {
		if v == Foreground {
			n++
		}
	}
	return n
}

func writeBytes(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
