package proof

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned for empty or whitespace-only proof text.
	ErrEmptyInput = errors.New("proof text is empty")

	// ErrModelUnavailable is returned when the classifier bundle failed to
	// load or failed during inference.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrMalformedRecord marks a dataset record that could not be turned
	// into a proof.
	ErrMalformedRecord = errors.New("malformed record")
)

// RecordError describes a malformed dataset record. It matches
// ErrMalformedRecord under errors.Is.
type RecordError struct {
	Line   int
	Reason string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %s: %s", e.Line, ErrMalformedRecord, e.Reason)
}

func (e *RecordError) Unwrap() error { return ErrMalformedRecord }
