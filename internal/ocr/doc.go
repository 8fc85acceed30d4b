// Package ocr runs text recognition and turns whatever the engine returns into
// a stable list of lines.
//
// # Engines
//
// An Engine is a long-lived OCR capability: opened once at startup, shared by
// every request, closed at shutdown. Two are built in:
//
//   - tesseract: gosseract/v2 bindings to libtesseract. Needs cgo and the
//     language data for OCR_LANGUAGE. Builds without cgo get a stub that
//     reports ErrEngineUnavailable.
//   - vision: Google Cloud Vision document text detection. Needs
//     GOOGLE_CREDENTIALS (inline JSON) or GOOGLE_APPLICATION_CREDENTIALS.
//
// Open wraps the engine with Limit so that at most OCR_CONCURRENCY predictions
// run at once; waiting callers give up when their context ends.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Other languages use their Tesseract codes, joined with "+" ("eng+rus").
//
// # Normalization
//
// Engine output is not a fixed schema. Depending on engine and version, the
// same data shows up as struct fields or map keys, under current or legacy
// names, wrapped in a one-element list, with float32 or json.Number values.
// Normalize probes the candidate names in TextFields, ScoreFields and
// PolygonFields in order and takes the first usable value. Everything the
// engine returned is converted to plain float64 and []any before use, so no
// engine type leaks into a Result.
//
// Normalization never fails a request. Nothing recognized is an empty Result;
// an unreadable shape is an empty Result plus ErrMalformedResult for logging.
//
// # Error Handling
//
// Engine failures are returned as *EngineError carrying the engine name and
// the failing operation.
package ocr
