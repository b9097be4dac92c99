package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/handseg-mcp/internal/segerr"
)

// Letters is the classifier output alphabet; index i maps to Letters[i].
const Letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Classifier turns character rasters into letters, one per input, in order.
type Classifier interface {
	Classify(ctx context.Context, batch []image.Image) ([]rune, error)
}

// IndexToLetter maps a class index 0..25 to 'A'..'Z'.
func IndexToLetter(i int) (rune, error) {
	if i < 0 || i >= len(Letters) {
		return 0, fmt.Errorf("class index %d out of range [0, %d)", i, len(Letters))
	}
	return rune(Letters[i]), nil
}

// Argmax returns the index of the largest value, the first one on ties,
// or -1 for an empty slice.
func Argmax(v []float64) int {
	best := -1
	for i, x := range v {
		if best < 0 || x > v[best] {
			best = i
		}
	}
	return best
}

// Tensor is a Size x Size x 3 image in row-major HWC order with values in [0, 1].
type Tensor struct {
	Size int
	Data []float32
}

// At returns channel c of pixel (x, y).
func (t Tensor) At(x, y, c int) float32 {
	return t.Data[(y*t.Size+x)*3+c]
}

// Normalize resizes img to size x size and scales its RGB channels to [0, 1].
// Single-channel input is replicated into all three channels.
func Normalize(img image.Image, size int) Tensor {
	resized := imaging.Resize(img, size, size, imaging.Linear)
	t := Tensor{Size: size, Data: make([]float32, size*size*3)}

	for y := 0; y < size; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < size; x++ {
			for c := 0; c < 3; c++ {
				t.Data[(y*size+x)*3+c] = float32(row[x*4+c]) / 255
			}
		}
	}
	return t
}

// Model scores a batch of normalised tensors, returning one probability
// vector of len(Letters) per input.
type Model interface {
	Predict(ctx context.Context, batch []Tensor) ([][]float64, error)
}

// ModelClassifier adapts a Model to the Classifier contract.
type ModelClassifier struct {
	Model     Model
	Size      int
	BatchSize int
}

// NewModelClassifier wraps model with the given input size and batch size.
func NewModelClassifier(model Model, size, batchSize int) *ModelClassifier {
	return &ModelClassifier{Model: model, Size: size, BatchSize: batchSize}
}

// Classify normalises every raster, scores them in batches of BatchSize,
// and returns the argmax letter of each.
func (m *ModelClassifier) Classify(ctx context.Context, batch []image.Image) ([]rune, error) {
	size, step := m.Size, m.BatchSize
	if size < 1 {
		size = 224
	}
	if step < 1 {
		step = 32
	}

	out := make([]rune, 0, len(batch))
	for start := 0; start < len(batch); start += step {
		end := start + step
		if end > len(batch) {
			end = len(batch)
		}

		tensors := make([]Tensor, 0, end-start)
		for i, img := range batch[start:end] {
			if img == nil || img.Bounds().Empty() {
				return nil, segerr.New(segerr.KindInvalidImage, "classify", "character %d has no pixels", start+i)
			}
			tensors = append(tensors, Normalize(img, size))
		}

		scores, err := m.Model.Predict(ctx, tensors)
		if err != nil {
			return nil, segerr.Wrap(segerr.KindClassifierFailed, "classify", err)
		}
		if len(scores) != len(tensors) {
			return nil, segerr.New(segerr.KindClassifierFailed, "classify",
				"model returned %d predictions for %d inputs", len(scores), len(tensors))
		}

		for _, s := range scores {
			letter, err := IndexToLetter(Argmax(s))
			if err != nil {
				return nil, segerr.Wrap(segerr.KindClassifierFailed, "classify", err)
			}
			out = append(out, letter)
		}
	}
	return out, nil
}
