package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a processing failure. Transports map kinds to status codes.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindDecode       Kind = "decode_error"
	KindPersistence  Kind = "persistence_error"
	KindOCRFailed    Kind = "ocr_failed"
	KindOCRTimeout   Kind = "ocr_timeout"
)

// Error is returned by Process.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a pipeline error, or "" for any other error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
