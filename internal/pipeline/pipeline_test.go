package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/handseg-mcp/internal/config"
	"github.com/ironsheep/handseg-mcp/internal/detection"
	"github.com/ironsheep/handseg-mcp/internal/segerr"
)

// sequenceClassifier returns A, B, C, ... for the characters it sees.
type sequenceClassifier struct {
	calls int
	err   error
	short bool
}

func (c *sequenceClassifier) Classify(_ context.Context, batch []image.Image) ([]rune, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	n := len(batch)
	if c.short && n > 0 {
		n--
	}
	out := make([]rune, n)
	for i := range out {
		out[i] = rune('A' + i%26)
	}
	return out, nil
}

// drawnPage renders two lines of two words each. Every word is three 3px
// bars 3px apart, so each word dilates into one region.
func drawnPage() *image.RGBA {
	page := image.NewRGBA(image.Rect(0, 0, 400, 512))
	for i := range page.Pix {
		page.Pix[i] = 255
	}
	for _, origin := range []image.Point{{50, 100}, {200, 100}, {50, 300}, {200, 300}} {
		for bar := 0; bar < 3; bar++ {
			for y := origin.Y; y < origin.Y+30; y++ {
				for x := origin.X + bar*6; x < origin.X+bar*6+3; x++ {
					page.Set(x, y, color.Black)
				}
			}
		}
	}
	return page
}

func newPipeline(t *testing.T, workers int) *Pipeline {
	t.Helper()
	cfg := config.Default()
	cfg.Workers = workers
	p, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestText(t *testing.T) {
	letters := [][][]rune{
		{[]rune("HELLO"), []rune("WORLD")},
		{[]rune("GO")},
	}
	assert.Equal(t, "HELLO WORLD\nGO", Text(letters))
	assert.Equal(t, "", Text(nil))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Workers = 0

	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestSegment_DrawnPage(t *testing.T) {
	page, err := newPipeline(t, 1).Segment(drawnPage())
	require.NoError(t, err)

	assert.False(t, page.Empty())
	assert.NotEmpty(t, page.RunID)
	require.Len(t, page.Lines, 2)
	for _, l := range page.Lines {
		require.Len(t, l.Words, 2)
		assert.Less(t, l.Words[0].Box.X, l.Words[1].Box.X)
		for _, w := range l.Words {
			require.NotEmpty(t, w.Slices)
			assert.Equal(t, 0, w.Slices[0].Start)
			for i := 1; i < len(w.Slices); i++ {
				assert.Equal(t, w.Slices[i-1].End, w.Slices[i].Start)
			}
		}
	}
}

func TestSegment_WorkersKeepReadingOrder(t *testing.T) {
	serial, err := newPipeline(t, 1).Segment(drawnPage())
	require.NoError(t, err)
	parallel, err := newPipeline(t, 4).Segment(drawnPage())
	require.NoError(t, err)

	require.Len(t, parallel.Lines, len(serial.Lines))
	for li := range serial.Lines {
		require.Len(t, parallel.Lines[li].Words, len(serial.Lines[li].Words))
		for wi, w := range serial.Lines[li].Words {
			pw := parallel.Lines[li].Words[wi]
			assert.Equal(t, w.Box, pw.Box)
			require.Len(t, pw.Slices, len(w.Slices))
			for si := range w.Slices {
				assert.Equal(t, w.Slices[si].Start, pw.Slices[si].Start)
				assert.Equal(t, w.Slices[si].End, pw.Slices[si].End)
			}
		}
	}
}

func TestSegment_EmptyPage(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 200, 100))
	for i := range blank.Pix {
		blank.Pix[i] = 255
	}

	page, err := newPipeline(t, 2).Segment(blank)
	require.NoError(t, err)
	assert.True(t, page.Empty())
	assert.Empty(t, page.Characters())
}

func TestSegment_InvalidImage(t *testing.T) {
	_, err := newPipeline(t, 1).Segment(nil)
	assert.True(t, errors.Is(err, segerr.ErrInvalidImage))
}

func TestSegmentLines_FirstErrorInReadingOrder(t *testing.T) {
	good := image.NewGray(image.Rect(0, 0, 20, 20))
	degenerate := image.NewGray(image.Rect(0, 0, 1, 1000))
	empty := image.NewGray(image.Rect(0, 0, 0, 0))

	lines := []detection.Line{
		{Band: 0, Words: []detection.Word{{ROI: good}, {ROI: good}}},
		{Band: 1, Words: []detection.Word{{ROI: good}, {ROI: degenerate}}},
		{Band: 2, Words: []detection.Word{{ROI: empty}}},
	}

	for _, workers := range []int{1, 3} {
		_, err := newPipeline(t, workers).SegmentLines(lines)
		require.Error(t, err)

		var se *segerr.Error
		require.True(t, errors.As(err, &se))
		assert.Equal(t, segerr.KindDegenerateProfile, se.Kind)
		assert.Equal(t, 1, se.Line)
		assert.Equal(t, 1, se.Word)
	}
}

func TestRead(t *testing.T) {
	p := newPipeline(t, 2)
	clf := &sequenceClassifier{}

	r, err := p.Read(context.Background(), drawnPage(), clf)
	require.NoError(t, err)
	assert.Equal(t, 1, clf.calls)

	lines := strings.Split(r.Text, "\n")
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.Len(t, strings.Fields(l), 2)
	}
	assert.True(t, strings.HasPrefix(r.Text, "A"))
	require.Len(t, r.Letters, 2)
	assert.Len(t, r.Letters[0][0], len(r.Page.Lines[0].Words[0].Slices))
}

func TestRead_ClassifierErrors(t *testing.T) {
	p := newPipeline(t, 1)

	_, err := p.Read(context.Background(), drawnPage(), &sequenceClassifier{err: errors.New("model offline")})
	assert.True(t, errors.Is(err, segerr.ErrClassifierFailed))

	_, err = p.Read(context.Background(), drawnPage(), &sequenceClassifier{short: true})
	assert.True(t, errors.Is(err, segerr.ErrClassifierFailed))
}

func TestReadAll(t *testing.T) {
	p := newPipeline(t, 1)
	pages := map[string]image.Image{"a.png": drawnPage(), "b.png": drawnPage()}
	load := func(id string) (image.Image, error) {
		img, ok := pages[id]
		if !ok {
			return nil, segerr.New(segerr.KindPageNotFound, "load", "no page %s", id)
		}
		return img, nil
	}

	readings, err := p.ReadAll(context.Background(), []string{"a.png", "b.png"}, load, &sequenceClassifier{})
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, "a.png", readings[0].ID)
	assert.Equal(t, "b.png", readings[1].ID)
	assert.NotEqual(t, readings[0].Page.RunID, readings[1].Page.RunID)

	readings, err = p.ReadAll(context.Background(), []string{"a.png", "missing.png", "b.png"}, load, &sequenceClassifier{})
	assert.True(t, errors.Is(err, segerr.ErrPageNotFound))
	assert.Len(t, readings, 1)
}

func TestReadAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	readings, err := newPipeline(t, 1).ReadAll(ctx, []string{"a.png"}, func(string) (image.Image, error) {
		t.Fatal("loader must not be called")
		return nil, nil
	}, &sequenceClassifier{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, readings)
}
