package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// OverlayBox is a rectangle drawn on a diagnostic overlay.
type OverlayBox struct {
	// Rect is the box in the annotated raster's coordinates.
	Rect image.Rectangle

	// Label is drawn at the top-left corner when labels are enabled.
	Label string

	// Group selects the palette colour (for example the line index) when
	// no fixed box colour is configured.
	Group int
}

// OverlayColumn is a vertical segment, typically an accepted split column.
type OverlayColumn struct {
	X      int
	Y1, Y2 int
}

// AnnotateOptions controls overlay rendering.
type AnnotateOptions struct {
	// BoxColor is a "#RRGGBB" colour for every box. Empty means one hue per Group.
	BoxColor string

	// ColumnColor is a "#RRGGBB" colour for split columns. Default green.
	ColumnColor string

	// Labels enables reading-order labels next to boxes.
	Labels bool
}

// Annotate draws boxes and split columns over a copy of src.
//
// This replaces interactive display of contours and segmentation lines: the
// result is an ordinary raster the caller can encode or save.
func Annotate(src image.Image, boxes []OverlayBox, columns []OverlayColumn, opts AnnotateOptions) (*image.RGBA, error) {
	bounds := src.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), src, bounds.Min, draw.Src)

	var fixedBox *color.RGBA
	if opts.BoxColor != "" {
		c, err := parseHexColor(opts.BoxColor)
		if err != nil {
			return nil, err
		}
		fixedBox = &c
	}

	columnColor := color.RGBA{0, 255, 0, 255}
	if opts.ColumnColor != "" {
		c, err := parseHexColor(opts.ColumnColor)
		if err != nil {
			return nil, err
		}
		columnColor = c
	}

	for _, col := range columns {
		for y := col.Y1; y < col.Y2; y++ {
			setClipped(result, col.X, y, columnColor)
		}
	}

	for _, b := range boxes {
		c := GroupColor(b.Group)
		if fixedBox != nil {
			c = *fixedBox
		}
		drawRect(result, b.Rect, c)
		if opts.Labels && b.Label != "" {
			drawLabel(result, b.Rect.Min.X+1, b.Rect.Min.Y+1, b.Label, c)
		}
	}

	return result, nil
}

// GroupColor returns a stable, well-separated colour for a group index by
// stepping the hue by the golden angle in HCL space.
func GroupColor(group int) color.RGBA {
	hue := math.Mod(float64(group)*137.508, 360)
	r, g, b := colorful.Hcl(hue, 0.6, 0.55).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// parseHexColor parses a "#RRGGBB" string.
func parseHexColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

func drawRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for x := r.Min.X; x < r.Max.X; x++ {
		setClipped(img, x, r.Min.Y, c)
		setClipped(img, x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		setClipped(img, r.Min.X, y, c)
		setClipped(img, r.Max.X-1, y, c)
	}
}

func setClipped(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

// drawLabel draws text on a solid background whose colour matches the box.
func drawLabel(img *image.RGBA, x, y int, text string, bg color.RGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	height := face.Metrics().Height.Ceil()

	bgRect := image.Rect(x, y, x+width+2, y+height).Intersect(img.Bounds())
	draw.Draw(img, bgRect, image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x + 1), Y: fixed.I(y + face.Metrics().Ascent.Ceil())},
	}
	d.DrawString(text)
}
