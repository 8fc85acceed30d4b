package ocr

import (
	"errors"
	"fmt"
)

// Common OCR errors
var (
	// ErrMalformedResult is returned by Normalize when the engine result has a
	// shape none of the known field names match. The accompanying Result is
	// empty and usable; callers should log and continue.
	ErrMalformedResult = errors.New("malformed OCR engine result")

	// ErrEngineUnavailable is returned when the configured engine cannot run
	// in this build or environment.
	ErrEngineUnavailable = errors.New("OCR engine unavailable")

	// ErrNoInput is returned by Predict when Input carries neither a path nor
	// an image.
	ErrNoInput = errors.New("no image path or raster given")

	// ErrEngineClosed is returned by Predict after Close.
	ErrEngineClosed = errors.New("OCR engine closed")

	// ErrMissingCredentials is returned when the vision engine is selected but
	// neither GOOGLE_CREDENTIALS nor GOOGLE_APPLICATION_CREDENTIALS is set and
	// no default credentials are found.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS")
)

// EngineError wraps a failure inside an engine with the operation that failed.
type EngineError struct {
	// Engine is the engine name ("tesseract", "vision").
	Engine string

	// Op is the operation that failed (e.g., "SetImage", "BatchAnnotateImages").
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("ocr: %s %s failed: %v", e.Engine, e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *EngineError) Unwrap() error {
	return e.Err
}

func engineError(engine, op string, err error) error {
	if err == nil {
		return nil
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		return err
	}
	return &EngineError{Engine: engine, Op: op, Err: err}
}
