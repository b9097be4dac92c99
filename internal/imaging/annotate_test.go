package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotate_DrawsBoxesAndColumns(t *testing.T) {
	page := createPage(60, 40)

	out, err := Annotate(page,
		[]OverlayBox{{Rect: image.Rect(5, 5, 25, 20), Group: 0}},
		[]OverlayColumn{{X: 40, Y1: 0, Y2: 40}},
		AnnotateOptions{BoxColor: "#ff0000"},
	)
	require.NoError(t, err)

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, out.RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, out.RGBAAt(24, 19))
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, out.RGBAAt(40, 30))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, out.RGBAAt(15, 12), "box interior untouched")

	r, g, b, _ := page.At(5, 5).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, b}, "source untouched")
}

func TestAnnotate_LabelsAndClipping(t *testing.T) {
	out, err := Annotate(createPage(30, 30),
		[]OverlayBox{{Rect: image.Rect(-5, -5, 50, 50), Label: "12", Group: 3}},
		nil,
		AnnotateOptions{Labels: true},
	)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 30), out.Bounds())
}

func TestAnnotate_InvalidColour(t *testing.T) {
	_, err := Annotate(createPage(10, 10), nil, nil, AnnotateOptions{BoxColor: "red"})
	assert.Error(t, err)

	_, err = Annotate(createPage(10, 10), nil, nil, AnnotateOptions{ColumnColor: "#12"})
	assert.Error(t, err)
}

func TestGroupColor(t *testing.T) {
	a := GroupColor(0)
	b := GroupColor(1)

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, GroupColor(0), "stable per group")
	assert.Equal(t, uint8(255), a.A)
}
