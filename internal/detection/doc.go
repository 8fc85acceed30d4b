// Package detection finds hand-drawn highlight annotations in an image and
// decides which OCR lines they point at.
//
// Reviewers mark documents by circling, underlining or boxing a field with a
// coloured pen or a heavy stroke. This package turns those marks into a binary
// mask and scores each OCR line against it.
//
// # Highlight Mask
//
// BuildHighlightMask combines two kinds of evidence:
//
//   - Colour: saturated red, blue or green pixels, thresholded in 8-bit HSV
//     (hue 0-180, saturation and value 0-255).
//   - Strokes: a morphological gradient of the greyscale image, binarized with
//     Otsu's threshold and thickened by one dilation.
//
// The union is closed and grown so that a circle drawn around a word becomes
// one coherent blob. The mask is a heuristic with fixed constants; there is no
// model and no per-deployment calibration.
//
// # Overlap Selection
//
// SelectHighlighted fills each line polygon, counts the mask pixels inside it,
// and divides by the polygon's bounding box area. Lines at or above the
// threshold (DefaultOverlapThreshold) are selected. If the mask has signal but
// no line qualifies, the single line nearest the highlight is returned so that
// a marked image always yields an answer when there is text to give.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounds are inclusive on both corners
//
// # Performance Considerations
//
// Mask construction is a handful of linear passes over the image; the
// rectangular filters are separable, so cost grows with k rather than k².
// Overlap scoring only visits rows of the mask that a polygon touches.
//
// # Thread Safety
//
// All functions are pure. Masks are not modified after they are returned and
// may be read concurrently.
package detection
