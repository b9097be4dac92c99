package segment

// Peak is a maximal run [Start, End) of On columns in a binarized profile.
type Peak struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Width is the number of columns in the peak.
func (p Peak) Width() int {
	return p.End - p.Start
}

// Merge asks for peaks Left and Right (adjacent indices) to be joined.
type Merge struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// FindPeaks returns the maximal runs of On in a binarized profile, left to
// right. A run that reaches the last column ends at len(binary).
func FindPeaks(binary Profile) []Peak {
	peaks := make([]Peak, 0)
	start := -1
	for i, v := range binary {
		switch {
		case v == On && start < 0:
			start = i
		case v != On && start >= 0:
			peaks = append(peaks, Peak{Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		peaks = append(peaks, Peak{Start: start, End: len(binary)})
	}
	return peaks
}

// FlagPeaks marks each peak wider than k times the mean peak width. A false
// flag marks a suspect fragment of an oversegmented character.
func FlagPeaks(peaks []Peak, k float64) []bool {
	flags := make([]bool, len(peaks))
	if len(peaks) == 0 {
		return flags
	}

	total := 0
	for _, p := range peaks {
		total += p.Width()
	}
	limit := float64(total) / float64(len(peaks)) * k

	for i, p := range peaks {
		flags[i] = float64(p.Width()) > limit
	}
	return flags
}

// MergeCandidates decides which adjacent peaks to join, reading peaks and
// flags without modifying them.
//
// Each suspect peak other than the last is joined once: with its right
// neighbour when that is also suspect (the neighbour is then consumed),
// otherwise with whichever neighbour is separated by the narrower gap. The
// first peak has no left neighbour, and ties go right.
func MergeCandidates(peaks []Peak, flags []bool) []Merge {
	merges := make([]Merge, 0)
	consumed := make([]bool, len(peaks))

	for i := 0; i < len(peaks)-1; i++ {
		if flags[i] || consumed[i] {
			continue
		}
		if !flags[i+1] {
			merges = append(merges, Merge{Left: i, Right: i + 1})
			consumed[i+1] = true
			continue
		}

		right := peaks[i+1].Start - peaks[i].End
		if i > 0 && peaks[i].Start-peaks[i-1].End < right {
			merges = append(merges, Merge{Left: i - 1, Right: i})
		} else {
			merges = append(merges, Merge{Left: i, Right: i + 1})
		}
	}
	return merges
}

// ApplyMerges returns a copy of binary with the gap between every merged
// pair filled with On. Running FindPeaks on the result gives the corrected
// peak set.
func ApplyMerges(binary Profile, peaks []Peak, merges []Merge) Profile {
	out := make(Profile, len(binary))
	copy(out, binary)
	for _, m := range merges {
		for c := peaks[m.Left].End; c < peaks[m.Right].Start; c++ {
			out[c] = On
		}
	}
	return out
}
