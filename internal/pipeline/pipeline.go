package pipeline

import (
	"context"
	"image"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/ironsheep/handseg-mcp/internal/config"
	"github.com/ironsheep/handseg-mcp/internal/detection"
	"github.com/ironsheep/handseg-mcp/internal/ocr"
	"github.com/ironsheep/handseg-mcp/internal/segerr"
	"github.com/ironsheep/handseg-mcp/internal/segment"
)

// PageWord is a word of a segmented page with its character slices.
type PageWord struct {
	Box    detection.Box   `json:"box"`
	ROI    *image.Gray     `json:"-"`
	Slices []segment.Slice `json:"slices"`
}

// PageLine is a line of a segmented page.
type PageLine struct {
	Band  int        `json:"band"`
	Words []PageWord `json:"words"`
}

// Page is the full line, word and character hierarchy of one page.
type Page struct {
	RunID string     `json:"run_id"`
	Lines []PageLine `json:"lines"`
}

// Empty reports whether no word was found on the page.
func (p *Page) Empty() bool {
	return len(p.Lines) == 0
}

// Characters returns every character slice in reading order.
func (p *Page) Characters() []image.Image {
	out := make([]image.Image, 0)
	for _, l := range p.Lines {
		for _, w := range l.Words {
			for _, s := range w.Slices {
				out = append(out, s.Image)
			}
		}
	}
	return out
}

// Reading is a segmented page with the classifier's letters.
type Reading struct {
	ID      string     `json:"id,omitempty"`
	Page    *Page      `json:"page"`
	Letters [][][]rune `json:"-"`
	Text    string     `json:"text"`
}

// Loader resolves a page identifier to a decoded raster.
type Loader func(id string) (image.Image, error)

// Pipeline runs extraction and segmentation with one configuration.
//
// A Pipeline with more than one worker owns a goroutine pool; call Close
// when done with it.
type Pipeline struct {
	cfg       config.Config
	extractor *detection.Extractor
	segmenter *segment.Segmenter
	pool      *ants.PoolWithFunc
	logger    *zap.Logger
}

// New creates a Pipeline. A nil logger disables logging.
func New(cfg config.Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:       cfg,
		extractor: detection.NewExtractor(detection.OptionsFromConfig(cfg), logger.Named("extract")),
		segmenter: segment.NewSegmenter(segment.OptionsFromConfig(cfg), logger.Named("segment")),
		logger:    logger,
	}
	if cfg.Workers > 1 {
		pool, err := createWordPool(cfg.Workers)
		if err != nil {
			return nil, err
		}
		p.pool = pool
	}
	return p, nil
}

// Close releases the worker pool.
func (p *Pipeline) Close() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() config.Config {
	return p.cfg
}

// Extractor returns the line and word extractor.
func (p *Pipeline) Extractor() *detection.Extractor {
	return p.extractor
}

// Segmenter returns the word segmenter.
func (p *Pipeline) Segmenter() *segment.Segmenter {
	return p.segmenter
}

// Segment extracts the lines and words of page and splits every word into
// character slices.
func (p *Pipeline) Segment(page image.Image) (*Page, error) {
	lines, err := p.extractor.Extract(page)
	if err != nil {
		return nil, err
	}
	return p.SegmentLines(lines)
}

// SegmentLines splits the words of already extracted lines. Words are
// segmented concurrently when the pipeline has workers; results keep their
// reading order. When several words fail, the first failure in reading
// order is returned.
func (p *Pipeline) SegmentLines(lines []detection.Line) (*Page, error) {
	runID := uuid.NewString()
	results := make([][]wordResult, len(lines))
	for i, l := range lines {
		results[i] = make([]wordResult, len(l.Words))
	}

	var wg sync.WaitGroup
	for li := range lines {
		for wi := range lines[li].Words {
			task := wordTaskPool.Get().(*wordTask)
			task.line, task.word = li, wi
			task.roi = &lines[li].Words[wi]
			task.seg = p.segmenter
			task.results = results

			if p.pool == nil {
				task.run()
				task.reset()
				wordTaskPool.Put(task)
				continue
			}

			wg.Add(1)
			task.wg = &wg
			if err := p.pool.Invoke(task); err != nil {
				p.logger.Warn("word pool rejected task, running inline", zap.Error(err))
				task.run()
				task.reset()
				wordTaskPool.Put(task)
				wg.Done()
			}
		}
	}
	wg.Wait()

	page := &Page{RunID: runID, Lines: make([]PageLine, 0, len(lines))}
	for li, l := range lines {
		pl := PageLine{Band: l.Band, Words: make([]PageWord, 0, len(l.Words))}
		for wi, w := range l.Words {
			r := results[li][wi]
			if r.err != nil {
				return nil, locate(r.err, li, wi)
			}
			pl.Words = append(pl.Words, PageWord{Box: w.Box, ROI: w.ROI, Slices: r.res.Slices})
		}
		page.Lines = append(page.Lines, pl)
	}

	p.logger.Debug("segmented page",
		zap.String("run_id", runID),
		zap.Int("lines", len(page.Lines)))
	return page, nil
}

// Read segments page and classifies every character slice.
func (p *Pipeline) Read(ctx context.Context, page image.Image, clf ocr.Classifier) (*Reading, error) {
	seg, err := p.Segment(page)
	if err != nil {
		return nil, err
	}
	return p.Classify(ctx, seg, clf)
}

// Classify sends the characters of a segmented page to clf in reading
// order and reassembles the letters into lines and words.
func (p *Pipeline) Classify(ctx context.Context, page *Page, clf ocr.Classifier) (*Reading, error) {
	chars := page.Characters()
	letters, err := clf.Classify(ctx, chars)
	if err != nil {
		if _, ok := segerr.KindOf(err); ok {
			return nil, err
		}
		return nil, segerr.Wrap(segerr.KindClassifierFailed, "classify", err)
	}
	if len(letters) != len(chars) {
		return nil, segerr.New(segerr.KindClassifierFailed, "classify",
			"classifier returned %d letters for %d characters", len(letters), len(chars))
	}

	nested := make([][][]rune, len(page.Lines))
	next := 0
	for li, l := range page.Lines {
		nested[li] = make([][]rune, len(l.Words))
		for wi, w := range l.Words {
			nested[li][wi] = letters[next : next+len(w.Slices)]
			next += len(w.Slices)
		}
	}

	text := Text(nested)
	p.logger.Debug("read page",
		zap.String("run_id", page.RunID),
		zap.Int("characters", len(chars)))
	return &Reading{Page: page, Letters: nested, Text: text}, nil
}

// ReadAll reads each page identifier in turn. Processing stops at the first
// failure, which is returned with the readings completed so far.
func (p *Pipeline) ReadAll(ctx context.Context, ids []string, load Loader, clf ocr.Classifier) ([]*Reading, error) {
	out := make([]*Reading, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		img, err := load(id)
		if err != nil {
			return out, err
		}
		r, err := p.Read(ctx, img, clf)
		if err != nil {
			return out, err
		}
		r.ID = id
		p.logger.Info("page read", zap.String("page", id), zap.String("run_id", r.Page.RunID))
		out = append(out, r)
	}
	return out, nil
}

// locate attaches the line and word position to a segmentation error.
func locate(err error, line, word int) error {
	if se, ok := err.(*segerr.Error); ok {
		return se.At(line, word)
	}
	return segerr.Wrap(segerr.KindDegenerateProfile, "segment", err).At(line, word)
}
