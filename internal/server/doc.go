// Package server is the HTTP front end of focus-ocr, built on fiber.
//
// # Routes
//
//   - GET /check: liveness, always {"status":"ok"}
//   - GET /health: engine availability and version; 503 when the engine
//     cannot run
//   - POST /ocr: multipart/form-data with an "image" file and an optional
//     "focus" field ("full" or "highlight")
//
// # Errors
//
// Every failure is answered with
//
//	{"status": "error", "error": "<kind>", "detail": "<message>"}
//
// Kinds and status codes:
//   - invalid_input, decode_error: 400
//   - payload_too_large: 413
//   - persistence_error, ocr_failed: 500
//   - ocr_timeout: 504
//
// # Middleware
//
// Each request gets an X-Request-ID (generated with uuid when the client sends
// none). The access log and everything the pipeline logs for that request
// carry it as request_id.
package server
