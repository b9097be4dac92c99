package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"unicode"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/handseg-mcp/internal/segerr"
)

// DefaultFallback is returned for a character Tesseract cannot read as a letter.
const DefaultFallback = '?'

// TesseractClassifier classifies character rasters with Tesseract in
// single-character mode, restricted to upper-case letters.
type TesseractClassifier struct {
	// Language is the Tesseract language code, e.g. "eng".
	Language string

	// TessdataPrefix overrides the directory holding the language data.
	// Empty uses the system default.
	TessdataPrefix string

	// Fallback is returned when Tesseract reads no letter.
	Fallback rune
}

// NewTesseractClassifier creates a classifier for language.
func NewTesseractClassifier(language string) *TesseractClassifier {
	return &TesseractClassifier{Language: language, Fallback: DefaultFallback}
}

// Classify runs Tesseract on each raster in turn. One client is shared
// across the batch.
func (t *TesseractClassifier) Classify(ctx context.Context, batch []image.Image) ([]rune, error) {
	if len(batch) == 0 {
		return []rune{}, nil
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.TessdataPrefix); err != nil {
			return nil, segerr.Wrap(segerr.KindClassifierFailed, "classify", fmt.Errorf("failed to set tessdata path: %w", err))
		}
	}
	if err := client.SetLanguage(t.Language); err != nil {
		return nil, segerr.Wrap(segerr.KindClassifierFailed, "classify", fmt.Errorf("failed to set language: %w", err))
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_CHAR); err != nil {
		return nil, segerr.Wrap(segerr.KindClassifierFailed, "classify", fmt.Errorf("failed to set page segmentation mode: %w", err))
	}
	if err := client.SetWhitelist(Letters); err != nil {
		return nil, segerr.Wrap(segerr.KindClassifierFailed, "classify", fmt.Errorf("failed to set whitelist: %w", err))
	}

	out := make([]rune, 0, len(batch))
	for i, img := range batch {
		if err := ctx.Err(); err != nil {
			return nil, segerr.Wrap(segerr.KindClassifierFailed, "classify", err)
		}
		if img == nil || img.Bounds().Empty() {
			return nil, segerr.New(segerr.KindInvalidImage, "classify", "character %d has no pixels", i)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, padded(img)); err != nil {
			return nil, segerr.Wrap(segerr.KindClassifierFailed, "classify", fmt.Errorf("failed to encode character %d: %w", i, err))
		}
		if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
			return nil, segerr.Wrap(segerr.KindClassifierFailed, "classify", fmt.Errorf("failed to set image: %w", err))
		}

		text, err := client.Text()
		if err != nil {
			return nil, segerr.Wrap(segerr.KindClassifierFailed, "classify", fmt.Errorf("OCR failed: %w", err))
		}
		out = append(out, ToLetter(text, t.Fallback))
	}
	return out, nil
}

// ToLetter returns the first letter of text upper-cased, or fallback when
// text holds no ASCII letter.
func ToLetter(text string, fallback rune) rune {
	for _, r := range strings.TrimSpace(text) {
		r = unicode.ToUpper(r)
		if r >= 'A' && r <= 'Z' {
			return r
		}
	}
	return fallback
}

// padded surrounds a character crop with a white margin; Tesseract misses
// glyphs that touch the image border.
func padded(img image.Image) *image.NRGBA {
	const margin = 8
	b := img.Bounds()
	bg := imaging.New(b.Dx()+2*margin, b.Dy()+2*margin, color.White)
	return imaging.Grayscale(imaging.Paste(bg, img, image.Pt(margin, margin)))
}
