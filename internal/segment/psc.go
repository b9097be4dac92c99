package segment

import (
	"image"

	"github.com/ironsheep/handseg-mcp/internal/imaging"
	"github.com/ironsheep/handseg-mcp/internal/segerr"
)

// Slice is one character-sized column range of a word raster.
type Slice struct {
	Start int         `json:"start"`
	End   int         `json:"end"`
	Image *image.Gray `json:"-"`
}

// Range is a half-open column range.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Troughs returns the midpoint of every gap between consecutive peaks.
func Troughs(peaks []Peak) []int {
	if len(peaks) < 2 {
		return []int{}
	}
	out := make([]int, 0, len(peaks)-1)
	for i := 0; i+1 < len(peaks); i++ {
		out = append(out, (peaks[i].End+peaks[i+1].Start)/2)
	}
	return out
}

// AcceptPSC keeps the troughs whose raw projection is at most maxInk. The
// survivors are the potential segmentation columns.
func AcceptPSC(troughs []int, raw Profile, maxInk int) []int {
	out := make([]int, 0, len(troughs))
	for _, t := range troughs {
		if t >= 0 && t < len(raw) && raw[t] <= maxInk {
			out = append(out, t)
		}
	}
	return out
}

// SliceRanges cuts [0, width) at every PSC: [0,p1), [p1,p2), ..., [pn,width).
func SliceRanges(psc []int, width int) []Range {
	out := make([]Range, 0, len(psc)+1)
	start := 0
	for _, p := range psc {
		out = append(out, Range{Start: start, End: p})
		start = p
	}
	return append(out, Range{Start: start, End: width})
}

// Cut crops img to each column range.
func Cut(img *image.Gray, ranges []Range) ([]Slice, error) {
	out := make([]Slice, 0, len(ranges))
	for _, r := range ranges {
		col, err := imaging.ColumnRange(img, r.Start, r.End)
		if err != nil {
			return nil, segerr.Wrap(segerr.KindDegenerateProfile, "slice", err)
		}
		out = append(out, Slice{Start: r.Start, End: r.End, Image: col})
	}
	return out, nil
}
