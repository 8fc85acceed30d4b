package detection

import (
	"math"
	"sort"
	"strings"

	"github.com/ironsheep/focus-ocr/internal/ocr"
)

// DefaultOverlapThreshold is the minimum overlap for a line to count as
// highlighted.
const DefaultOverlapThreshold = 0.28

// Match is one line picked by SelectHighlighted.
type Match struct {
	// Index is the line's position in the slice passed to SelectHighlighted.
	Index int `json:"index"`

	// Overlap is the fraction of the line's bounding box covered by the mask.
	Overlap float64 `json:"overlap"`

	// Fallback is true when no line cleared the threshold and this line was
	// picked as the one nearest the highlight.
	Fallback bool `json:"fallback,omitempty"`
}

// Selection is the outcome of matching OCR lines against a highlight mask.
type Selection struct {
	Matches         []Match `json:"matches"`
	HighlightedText string  `json:"highlighted_text"`
	MaskPresent     bool    `json:"mask_present"`
}

// SelectHighlighted picks the lines that fall inside highlighted regions.
//
// Lines whose overlap with the mask reaches threshold are selected, in line
// order. When the mask has signal but no line reaches threshold, exactly one
// line is selected: the one whose polygon centroid is nearest the centroid of
// all set mask pixels (the earliest line wins a tie). Lines without a valid
// polygon are never considered. An empty or nil mask selects nothing.
func SelectHighlighted(lines []ocr.Line, m *Mask, threshold float64) Selection {
	sel := Selection{Matches: []Match{}, MaskPresent: m.Any()}
	if !sel.MaskPresent {
		return sel
	}

	candidates := make([]Match, 0, len(lines))
	for i, line := range lines {
		if line.Polygon == nil || !line.Polygon.Valid() {
			continue
		}
		overlap := BoxOverlap(*line.Polygon, m)
		candidates = append(candidates, Match{Index: i, Overlap: overlap})
		if overlap >= threshold {
			sel.Matches = append(sel.Matches, Match{Index: i, Overlap: overlap})
		}
	}

	if len(sel.Matches) == 0 && len(candidates) > 0 {
		mx, my, _ := m.Centroid()
		best, bestDist := -1, math.Inf(1)
		for j, c := range candidates {
			cx, cy := lines[c.Index].Polygon.Centroid()
			if d := math.Hypot(cx-mx, cy-my); d < bestDist {
				best, bestDist = j, d
			}
		}
		fallback := candidates[best]
		fallback.Fallback = true
		sel.Matches = append(sel.Matches, fallback)
	}

	texts := make([]string, 0, len(sel.Matches))
	for _, match := range sel.Matches {
		texts = append(texts, lines[match.Index].Text)
	}
	sel.HighlightedText = strings.TrimSpace(strings.Join(texts, " "))
	return sel
}

// Annotate records each match's overlap on the corresponding line.
func (s Selection) Annotate(lines []ocr.Line) {
	for _, match := range s.Matches {
		if match.Index < 0 || match.Index >= len(lines) {
			continue
		}
		overlap := match.Overlap
		lines[match.Index].Overlap = &overlap
	}
}

// BoxOverlap returns the number of mask pixels inside the filled polygon
// divided by the area of the polygon's bounding box.
//
// Vertices are truncated to integer pixels and the polygon boundary counts as
// inside. Parts of the polygon outside the mask contribute area but no
// intersection. A polygon with a non-finite or out-of-range vertex has no
// overlap.
func BoxOverlap(p ocr.Polygon, m *Mask) float64 {
	if !p.Valid() {
		return 0
	}
	minX, minY, maxX, maxY := p.Bounds()
	area := float64(maxX-minX+1) * float64(maxY-minY+1)
	return float64(intersection(p, m)) / area
}

type span struct{ lo, hi int }

// intersection counts set mask pixels covered by the filled polygon. It works
// row by row over the part of the polygon inside the mask, so the cost is
// bounded by the mask size even for wild engine coordinates.
func intersection(p ocr.Polygon, m *Mask) int {
	if m == nil || m.Width == 0 || m.Height == 0 {
		return 0
	}

	var pts [4][2]int
	for i, v := range p {
		pts[i] = [2]int{int(v[0]), int(v[1])}
	}
	_, minY, _, maxY := p.Bounds()

	count := 0
	spans := make([]span, 0, 8)
	for y := max(minY, 0); y <= min(maxY, m.Height-1); y++ {
		spans = rowSpans(pts, y, spans[:0])
		for _, s := range mergeSpans(spans) {
			lo, hi := max(s.lo, 0), min(s.hi, m.Width-1)
			row := m.Pix[y*m.Width : (y+1)*m.Width]
			for x := lo; x <= hi; x++ {
				if row[x] != 0 {
					count++
				}
			}
		}
	}
	return count
}

// rowSpans returns the pixel spans covered by the polygon on row y: interior
// spans from an even-odd scanline, plus the pixels each edge passes through.
func rowSpans(pts [4][2]int, y int, spans []span) []span {
	fy := float64(y)
	var xs [4]float64
	n := 0

	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		if a[1] > b[1] {
			a, b = b, a
		}

		if a[1] == b[1] {
			if a[1] == y {
				spans = append(spans, span{min(a[0], b[0]), max(a[0], b[0])})
			}
			continue
		}

		if y >= a[1] && y < b[1] {
			xs[n] = edgeX(a, b, fy)
			n++
		}

		// Boundary pixels on this row.
		y0 := math.Max(fy-0.5, float64(a[1]))
		y1 := math.Min(fy+0.5, float64(b[1]))
		if y0 <= y1 {
			x0, x1 := edgeX(a, b, y0), edgeX(a, b, y1)
			if x0 > x1 {
				x0, x1 = x1, x0
			}
			spans = append(spans, span{int(math.Round(x0)), int(math.Round(x1))})
		}
	}

	crossings := xs[:n]
	sort.Float64s(crossings)
	for k := 0; k+1 < len(crossings); k += 2 {
		lo, hi := int(math.Ceil(crossings[k])), int(math.Floor(crossings[k+1]))
		if lo <= hi {
			spans = append(spans, span{lo, hi})
		}
	}
	return spans
}

func edgeX(a, b [2]int, y float64) float64 {
	return float64(a[0]) + (y-float64(a[1]))*float64(b[0]-a[0])/float64(b[1]-a[1])
}

func mergeSpans(spans []span) []span {
	if len(spans) < 2 {
		return spans
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].lo < spans[j].lo })
	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.lo <= last.hi+1 {
			last.hi = max(last.hi, s.hi)
			continue
		}
		out = append(out, s)
	}
	return out
}
