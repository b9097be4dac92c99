package detection

import (
	"image"
	"sort"

	"go.uber.org/zap"

	"github.com/ironsheep/handseg-mcp/internal/config"
	"github.com/ironsheep/handseg-mcp/internal/imaging"
	"github.com/ironsheep/handseg-mcp/internal/segerr"
)

// Word is one word region of a page.
type Word struct {
	Contour Contour `json:"-"`
	Box     Box     `json:"box"`

	// ROI is the crop of the rescaled, non-dilated intensity raster to Box.
	ROI *image.Gray `json:"-"`
}

// Line is one horizontal band of words, left to right.
type Line struct {
	Band  int    `json:"band"`
	Words []Word `json:"words"`
}

// LineGroup is the unordered set of contours that fell into one band.
type LineGroup struct {
	Band     int
	Contours []Contour
}

// Options configures an Extractor.
type Options struct {
	Prep           imaging.PrepOptions
	DilateRadius   int
	MinContourArea float64
	LineBand       int
}

// OptionsFromConfig maps the page tunables of cfg onto extractor options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Prep: imaging.PrepOptions{
			Height:         cfg.PageHeight,
			BlurRadius:     cfg.BlurRadius,
			AdaptiveRadius: cfg.AdaptiveRadius,
			AdaptiveOffset: cfg.AdaptiveOffset,
		},
		DilateRadius:   cfg.DilateRadius,
		MinContourArea: cfg.EffectiveMinContourArea(),
		LineBand:       cfg.EffectiveLineBand(),
	}
}

// Extractor finds the lines and words of a page in reading order.
type Extractor struct {
	opts   Options
	logger *zap.Logger
}

// NewExtractor creates an Extractor. A nil logger disables logging.
func NewExtractor(opts Options, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LineBand < 1 {
		opts.LineBand = 1
	}
	return &Extractor{opts: opts, logger: logger}
}

// Extract prepares page and returns its lines top to bottom, each with its
// words left to right.
//
// A page without any surviving ink region yields an empty slice and a nil
// error.
//
// # Errors
//
//   - segerr.KindInvalidImage if page is nil or has zero area
func (e *Extractor) Extract(page image.Image) ([]Line, error) {
	if err := imaging.CheckRaster(page, "extract"); err != nil {
		return nil, err
	}
	prep, err := imaging.Prepare(page, e.opts.Prep)
	if err != nil {
		return nil, err
	}
	return e.ExtractPrepared(prep)
}

// ExtractPrepared runs extraction on an already prepared page.
func (e *Extractor) ExtractPrepared(prep *imaging.Prepared) ([]Line, error) {
	return e.ExtractFromBinary(prep.Binary, prep.Rescaled)
}

// ExtractFromBinary runs extraction on a binary raster, cropping word ROIs
// from source. Both rasters must have the same dimensions.
func (e *Extractor) ExtractFromBinary(binary, source *image.Gray) ([]Line, error) {
	if err := imaging.CheckRaster(binary, "extract"); err != nil {
		return nil, err
	}
	if source == nil || source.Bounds().Size() != binary.Bounds().Size() {
		return nil, segerr.New(segerr.KindInvalidImage, "extract", "source raster does not match binary raster")
	}

	dilated := imaging.Dilate(binary, e.opts.DilateRadius)
	found := FindContours(dilated)
	kept := FilterContours(found, e.opts.MinContourArea)
	groups := GroupLines(kept, e.opts.LineBand)

	e.logger.Debug("contours",
		zap.Int("found", len(found)),
		zap.Int("kept", len(kept)),
		zap.Int("lines", len(groups)))

	lines := make([]Line, 0, len(groups))
	for li, g := range groups {
		ordered := OrderWords(g.Contours)
		words := make([]Word, 0, len(ordered))
		for wi, c := range ordered {
			box := c.Box()
			roi, err := imaging.CropRegion(source, box.Rect())
			if err != nil {
				return nil, segerr.Wrap(segerr.KindInvalidImage, "extract", err).At(li, wi)
			}
			words = append(words, Word{Contour: c, Box: box, ROI: roi})
		}
		lines = append(lines, Line{Band: g.Band, Words: words})
	}
	return lines, nil
}

// FilterContours drops contours whose enclosed area is below minArea.
func FilterContours(contours []Contour, minArea float64) []Contour {
	kept := make([]Contour, 0, len(contours))
	for _, c := range contours {
		if c.Area() >= minArea {
			kept = append(kept, c)
		}
	}
	return kept
}

// GroupLines clusters contours by band = (y + h/2) / band and returns the
// groups in ascending band order. Contours keep their input order within a
// group.
func GroupLines(contours []Contour, band int) []LineGroup {
	if band < 1 {
		band = 1
	}
	index := make(map[int]int)
	groups := make([]LineGroup, 0)

	for _, c := range contours {
		key := c.Box().MidY() / band
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, LineGroup{Band: key})
		}
		groups[i].Contours = append(groups[i].Contours, c)
	}

	sort.Slice(groups, func(a, b int) bool { return groups[a].Band < groups[b].Band })
	return groups
}

// OrderWords sorts contours left to right by x + w/2. Ties are broken by
// the box top, then by input order, so every contour is kept.
func OrderWords(contours []Contour) []Contour {
	out := make([]Contour, len(contours))
	copy(out, contours)
	sort.SliceStable(out, func(a, b int) bool {
		ba, bb := out[a].Box(), out[b].Box()
		if ba.MidX() != bb.MidX() {
			return ba.MidX() < bb.MidX()
		}
		return ba.Y < bb.Y
	})
	return out
}
