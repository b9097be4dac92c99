package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/ironsheep/handseg-mcp/internal/detection"
	"github.com/ironsheep/handseg-mcp/internal/segerr"
	"github.com/ironsheep/handseg-mcp/internal/segment"
)

// wordTask is one word segmentation job. Its result lands in a slot
// preallocated for its (line, word) position.
type wordTask struct {
	line, word int
	roi        *detection.Word
	seg        *segment.Segmenter
	results    [][]wordResult
	wg         *sync.WaitGroup
}

type wordResult struct {
	res *segment.Result
	err error
}

func (t *wordTask) reset() {
	t.line, t.word = 0, 0
	t.roi = nil
	t.seg = nil
	t.results = nil
	t.wg = nil
}

func (t *wordTask) run() {
	if t.roi.ROI == nil {
		t.results[t.line][t.word] = wordResult{err: segerr.New(segerr.KindInvalidImage, "segment", "word has no raster")}
		return
	}
	res, err := t.seg.Segment(t.roi.ROI)
	t.results[t.line][t.word] = wordResult{res: res, err: err}
}

var wordTaskPool = &sync.Pool{
	New: func() any { return new(wordTask) },
}

func createWordPool(size int) (*ants.PoolWithFunc, error) {
	if size <= 0 {
		return nil, errors.New("pool size must be greater than 0")
	}
	pool, err := ants.NewPoolWithFunc(size, func(args any) {
		task, ok := args.(*wordTask)
		if !ok {
			panic("word pool args type error")
		}
		wg := task.wg
		defer func() {
			wg.Done()
			task.reset()
			wordTaskPool.Put(task)
		}()
		task.run()
	})
	if err != nil {
		return nil, fmt.Errorf("create word pool: %w", err)
	}
	return pool, nil
}
