// Package imaging turns uploaded bytes into the canonical raster every later
// stage works on.
//
// An upload may arrive as PNG, JPEG, GIF, BMP, TIFF or WEBP, with or without an
// EXIF orientation tag, and occasionally wrapped in a data URI or prefixed with
// junk. Decode handles all of these and produces a Raster: 8-bit RGB, row-major,
// no alpha. Raster.PNG re-encodes it losslessly so that the copy written to disk
// and the pixels handed to OCR are identical regardless of the upload format.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// # Thread Safety
//
// A Raster is immutable once returned by Decode and may be read from multiple
// goroutines. Rasters are owned by the request that decoded them.
//
// # Error Handling
//
// Decode returns a *DecodeError when no decode path succeeds, including for
// empty input. Use errors.As to tell bad input apart from I/O failures returned
// by LoadFile.
package imaging
