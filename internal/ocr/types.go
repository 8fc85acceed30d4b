package ocr

import "math"

// Point is an (x, y) coordinate in pixel space. Engines report either
// integers or floats; both are carried as float64.
type Point [2]float64

// Polygon is the 4-vertex quadrilateral bounding a recognized line, in the
// order the engine reported the vertices.
type Polygon [4]Point

// MaxCoordinate bounds polygon vertices. Anything beyond it is not a pixel
// position in any image we could decode.
const MaxCoordinate = 1 << 24

// ValidCoordinate reports whether f is finite and within ±MaxCoordinate.
func ValidCoordinate(f float64) bool {
	return !math.IsNaN(f) && f >= -MaxCoordinate && f <= MaxCoordinate
}

// Valid reports whether every vertex is a plausible pixel position.
func (p Polygon) Valid() bool {
	for _, v := range p {
		if !ValidCoordinate(v[0]) || !ValidCoordinate(v[1]) {
			return false
		}
	}
	return true
}

// Bounds returns the axis-aligned bounding box of the polygon with every
// vertex truncated to an integer pixel. Both corners are inclusive.
func (p Polygon) Bounds() (minX, minY, maxX, maxY int) {
	minX, minY = int(p[0][0]), int(p[0][1])
	maxX, maxY = minX, minY
	for _, v := range p[1:] {
		x, y := int(v[0]), int(v[1])
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	return minX, minY, maxX, maxY
}

// Centroid returns the mean of the four vertices.
func (p Polygon) Centroid() (float64, float64) {
	var cx, cy float64
	for _, v := range p {
		cx += v[0]
		cy += v[1]
	}
	return cx / 4, cy / 4
}

// Line is one recognized text line.
//
// Polygon is nil when the engine supplied no geometry for the line. Overlap is
// only set for lines selected under highlight focus.
type Line struct {
	Polygon    *Polygon `json:"box"`
	Text       string   `json:"text"`
	Confidence float64  `json:"conf"`
	Overlap    *float64 `json:"overlap,omitempty"`
}

// Result is the normalized output of an OCR engine.
type Result struct {
	// FullText is every kept line's text joined by single spaces, in engine order.
	FullText string `json:"full_text"`

	// Lines holds the kept lines in engine order. Never nil after Normalize.
	Lines []Line `json:"lines"`
}
