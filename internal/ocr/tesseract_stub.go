//go:build !cgo

package ocr

import "fmt"

// NewTesseract always fails: gosseract needs cgo and libtesseract.
func NewTesseract(cfg Config) (Engine, error) {
	return nil, fmt.Errorf("tesseract: %w: built without cgo", ErrEngineUnavailable)
}
