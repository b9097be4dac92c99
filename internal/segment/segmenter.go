package segment

import (
	"image"

	"go.uber.org/zap"

	"github.com/ironsheep/handseg-mcp/internal/config"
	"github.com/ironsheep/handseg-mcp/internal/imaging"
	"github.com/ironsheep/handseg-mcp/internal/segerr"
)

// Options configures a Segmenter.
type Options struct {
	Prep         imaging.PrepOptions
	OpenRadius   int
	ProfileNoise int
	PeakRatio    float64
	PSCMaxInk    int
}

// OptionsFromConfig maps the word tunables of cfg onto segmenter options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Prep: imaging.PrepOptions{
			Height:         cfg.WordHeight,
			BlurRadius:     cfg.BlurRadius,
			AdaptiveRadius: cfg.AdaptiveRadius,
			AdaptiveOffset: cfg.AdaptiveOffset,
		},
		OpenRadius:   cfg.OpenRadius,
		ProfileNoise: cfg.ProfileNoise,
		PeakRatio:    cfg.PeakRatio,
		PSCMaxInk:    cfg.PSCMaxInk,
	}
}

// Result is the outcome of segmenting one word, with every intermediate
// kept for diagnostics.
type Result struct {
	// Width is the column count of the rescaled word raster.
	Width int `json:"width"`

	Raw       Profile `json:"raw"`
	Binarized Profile `json:"binarized"`
	Peaks     []Peak  `json:"peaks"`
	Flags     []bool  `json:"flags"`
	Merges    []Merge `json:"merges"`
	Corrected []Peak  `json:"corrected"`
	Troughs   []int   `json:"troughs"`
	PSC       []int   `json:"psc"`

	// Slices partition [0, Width) unless the word has no ink at all, in
	// which case there are none.
	Slices []Slice `json:"slices"`
}

// Segmenter splits word rasters into character slices by vertical
// projection with oversegmentation correction.
type Segmenter struct {
	opts   Options
	logger *zap.Logger
}

// NewSegmenter creates a Segmenter. A nil logger disables logging.
func NewSegmenter(opts Options, logger *zap.Logger) *Segmenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Segmenter{opts: opts, logger: logger}
}

// Segment prepares a word raster, opens it to thin ink bridges between
// characters, and slices it.
//
// # Errors
//
//   - segerr.KindInvalidImage if word is nil or has zero area
//   - segerr.KindDegenerateProfile if the rescaled word has zero width
func (s *Segmenter) Segment(word image.Image) (*Result, error) {
	if err := imaging.CheckRaster(word, "segment"); err != nil {
		return nil, err
	}
	prep, err := imaging.Prepare(word, s.opts.Prep)
	if err != nil {
		return nil, err
	}
	return s.SegmentBinary(prep.Rescaled, imaging.Open(prep.Binary, s.opts.OpenRadius))
}

// SegmentBinary runs the projection steps on an already binarized word.
// Slices are cropped from source, which must match binary's dimensions.
func (s *Segmenter) SegmentBinary(source, binary *image.Gray) (*Result, error) {
	if err := imaging.CheckRaster(binary, "segment"); err != nil {
		return nil, err
	}
	if source == nil || source.Bounds().Size() != binary.Bounds().Size() {
		return nil, segerr.New(segerr.KindInvalidImage, "segment", "source raster does not match binary raster")
	}

	res := &Result{Width: binary.Bounds().Dx()}
	res.Raw = Project(binary)
	res.Binarized = Binarize(res.Raw, s.opts.ProfileNoise)
	res.Peaks = FindPeaks(res.Binarized)
	res.Flags = FlagPeaks(res.Peaks, s.opts.PeakRatio)
	res.Merges = MergeCandidates(res.Peaks, res.Flags)
	res.Corrected = FindPeaks(ApplyMerges(res.Binarized, res.Peaks, res.Merges))
	res.Troughs = Troughs(res.Corrected)
	res.PSC = AcceptPSC(res.Troughs, res.Raw, s.opts.PSCMaxInk)

	if len(res.Corrected) == 0 {
		res.Slices = []Slice{}
		s.logger.Debug("word has no ink", zap.Int("width", res.Width))
		return res, nil
	}

	slices, err := Cut(source, SliceRanges(res.PSC, res.Width))
	if err != nil {
		return nil, err
	}
	res.Slices = slices

	s.logger.Debug("segmented word",
		zap.Int("width", res.Width),
		zap.Int("peaks", len(res.Peaks)),
		zap.Int("merges", len(res.Merges)),
		zap.Ints("psc", res.PSC))
	return res, nil
}

// Ranges returns the column range of every slice.
func (r *Result) Ranges() []Range {
	out := make([]Range, len(r.Slices))
	for i, s := range r.Slices {
		out[i] = Range{Start: s.Start, End: s.End}
	}
	return out
}
