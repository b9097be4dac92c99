package imaging

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/handseg-mcp/internal/segerr"
)

func pageOpts(height int) PrepOptions {
	return PrepOptions{Height: height, BlurRadius: 2, AdaptiveRadius: 5, AdaptiveOffset: 2}
}

func TestPrepare_InvalidImage(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
	}{
		{"nil", nil},
		{"zero width", image.NewRGBA(image.Rect(0, 0, 0, 10))},
		{"zero height", image.NewGray(image.Rect(0, 0, 10, 0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prepare(tt.img, pageOpts(64))
			require.Error(t, err)
			assert.True(t, errors.Is(err, segerr.ErrInvalidImage))
		})
	}
}

func TestPrepare_RescalesToReferenceHeight(t *testing.T) {
	prep, err := Prepare(createPage(200, 100), pageOpts(50))
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 100, 50), prep.Rescaled.Bounds())
	assert.Equal(t, image.Rect(0, 0, 100, 50), prep.Binary.Bounds())
}

func TestPrepare_NoRescaleWhenHeightDisabled(t *testing.T) {
	prep, err := Prepare(createPage(37, 23), pageOpts(0))
	require.NoError(t, err)

	assert.Equal(t, 37, prep.Rescaled.Bounds().Dx())
	assert.Equal(t, 23, prep.Rescaled.Bounds().Dy())
}

func TestPrepare_BlankPageHasNoInk(t *testing.T) {
	prep, err := Prepare(createPage(120, 80), pageOpts(80))
	require.NoError(t, err)

	assert.Zero(t, countForeground(prep.Binary))
}

func TestPrepare_InkBecomesForeground(t *testing.T) {
	page := createPage(100, 60)
	fillRect(page, image.Rect(48, 10, 52, 50))

	prep, err := Prepare(page, pageOpts(60))
	require.NoError(t, err)

	inkCols := map[int]bool{}
	for y := 0; y < 60; y++ {
		for x := 0; x < 100; x++ {
			if prep.Binary.GrayAt(x, y).Y == Foreground {
				inkCols[x] = true
			}
		}
	}

	assert.True(t, inkCols[49] || inkCols[50], "stroke columns should carry ink")
	assert.False(t, inkCols[5], "far background stays clear")
	assert.False(t, inkCols[95], "far background stays clear")
}

func TestPrepare_DoesNotMutateInput(t *testing.T) {
	page := createPage(40, 40)
	fillRect(page, image.Rect(10, 10, 20, 30))
	before := append([]uint8(nil), page.Pix...)

	_, err := Prepare(page, pageOpts(80))
	require.NoError(t, err)

	assert.Equal(t, before, page.Pix)
}

func TestToGray_CopiesGrayInput(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	src.SetGray(1, 1, color.Gray{Y: 77})

	out := ToGray(src)
	out.SetGray(1, 1, color.Gray{Y: 0})

	assert.Equal(t, uint8(77), src.GrayAt(1, 1).Y)
}

func TestToGray_SubImageIsReanchored(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 10, 10))
	src.SetGray(5, 5, color.Gray{Y: 200})
	sub := src.SubImage(image.Rect(4, 4, 8, 8))

	out := ToGray(sub)
	assert.Equal(t, image.Rect(0, 0, 4, 4), out.Bounds())
	assert.Equal(t, uint8(200), out.GrayAt(1, 1).Y)
}

func TestRescale_Degenerate(t *testing.T) {
	_, err := Rescale(image.NewGray(image.Rect(0, 0, 1, 100)), 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, segerr.ErrDegenerateProfile))
}

func TestAdaptiveThreshold_UniformIsBackground(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 30, 30))
	for i := range g.Pix {
		g.Pix[i] = 180
	}

	out := AdaptiveThreshold(g, 5, 2)
	assert.Zero(t, countForeground(out))
}

func TestCheckRaster(t *testing.T) {
	assert.NoError(t, CheckRaster(image.NewGray(image.Rect(0, 0, 1, 1)), "test"))

	err := CheckRaster(nil, "extract")
	kind, ok := segerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, segerr.KindInvalidImage, kind)
}
