package pipeline

import "strings"

// Text joins letters into words, words into space-separated lines, and
// lines with newlines.
func Text(letters [][][]rune) string {
	lines := make([]string, len(letters))
	for i, words := range letters {
		ws := make([]string, len(words))
		for j, w := range words {
			ws[j] = string(w)
		}
		lines[i] = strings.Join(ws, " ")
	}
	return strings.Join(lines, "\n")
}
