// Package segerr defines the error taxonomy shared by every segmentation stage.
//
// Geometry and signal-processing failures are structural: they describe a bad
// input shape and are never retried, because every stage is deterministic.
// An Error carries the failing stage and, when known, the line and word index
// so callers can localize the faulty unit on the page.
//
// An empty result (a blank page, a blank word) is NOT an error. Stages return
// an empty slice with a nil error in that case.
package segerr

import (
	"errors"
	"fmt"
)

// Kind classifies a segmentation failure.
type Kind string

const (
	// KindInvalidImage means a nil or zero-area raster was handed to a stage.
	KindInvalidImage Kind = "INVALID_IMAGE"

	// KindPageNotFound means the page could not be located or decoded.
	KindPageNotFound Kind = "PAGE_NOT_FOUND"

	// KindWordNotFound means a word image could not be located or decoded.
	KindWordNotFound Kind = "WORD_NOT_FOUND"

	// KindDegenerateProfile means a word raster had zero width after rescaling.
	KindDegenerateProfile Kind = "DEGENERATE_PROFILE"

	// KindClassifierFailed means the external character classifier failed.
	KindClassifierFailed Kind = "CLASSIFIER_FAILED"
)

// Sentinels for errors.Is matching. Every *Error matches the sentinel of its Kind.
var (
	ErrInvalidImage      = errors.New("invalid image")
	ErrPageNotFound      = errors.New("page not found")
	ErrWordNotFound      = errors.New("word not found")
	ErrDegenerateProfile = errors.New("degenerate profile")
	ErrClassifierFailed  = errors.New("classifier failed")
)

var sentinels = map[Kind]error{
	KindInvalidImage:      ErrInvalidImage,
	KindPageNotFound:      ErrPageNotFound,
	KindWordNotFound:      ErrWordNotFound,
	KindDegenerateProfile: ErrDegenerateProfile,
	KindClassifierFailed:  ErrClassifierFailed,
}

// NoIndex marks a Line or Word position that does not apply.
const NoIndex = -1

// Error is a structured segmentation failure.
type Error struct {
	Kind    Kind
	Stage   string
	Line    int
	Word    int
	Message string
	Err     error
}

// New creates an Error for a stage with no line/word position.
func New(kind Kind, stage, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Stage:   stage,
		Line:    NoIndex,
		Word:    NoIndex,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error of the given kind caused by err.
func Wrap(kind Kind, stage string, err error) *Error {
	return &Error{
		Kind:  kind,
		Stage: stage,
		Line:  NoIndex,
		Word:  NoIndex,
		Err:   err,
	}
}

// At returns a copy of e located at the given line and word.
// Pass NoIndex for a coordinate that does not apply.
func (e *Error) At(line, word int) *Error {
	c := *e
	c.Line = line
	c.Word = word
	return &c
}

func (e *Error) Error() string {
	loc := ""
	switch {
	case e.Line != NoIndex && e.Word != NoIndex:
		loc = fmt.Sprintf(" [line %d, word %d]", e.Line, e.Word)
	case e.Line != NoIndex:
		loc = fmt.Sprintf(" [line %d]", e.Line)
	}

	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s: %s%s: %s", e.Stage, e.Kind, loc, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's Kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// KindOf extracts the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

// ToMap flattens the error for JSON responses.
func (e *Error) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"error_code": string(e.Kind),
		"stage":      e.Stage,
		"message":    e.Error(),
	}
	if e.Line != NoIndex {
		m["line"] = e.Line
	}
	if e.Word != NoIndex {
		m["word"] = e.Word
	}
	return m
}
