package detection

import (
	"math"
	"testing"

	"github.com/ironsheep/focus-ocr/internal/ocr"
)

// rectPolygon builds an axis-aligned polygon with corners (x1,y1) and (x2,y2).
func rectPolygon(x1, y1, x2, y2 float64) *ocr.Polygon {
	return &ocr.Polygon{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}}
}

func line(text string, p *ocr.Polygon) ocr.Line {
	return ocr.Line{Polygon: p, Text: text, Confidence: 0.9}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBoxOverlap_ExactRectangle(t *testing.T) {
	m := NewMask(100, 100)
	m.FillRect(10, 10, 40, 30)

	got := BoxOverlap(*rectPolygon(10, 10, 40, 30), m)
	if !almostEqual(got, 1.0) {
		t.Errorf("overlap = %v, want 1.0", got)
	}
}

func TestBoxOverlap_Partial(t *testing.T) {
	m := NewMask(100, 100)
	m.FillRect(0, 0, 24, 9)

	got := BoxOverlap(*rectPolygon(0, 0, 99, 9), m)
	if !almostEqual(got, 0.25) {
		t.Errorf("overlap = %v, want 0.25", got)
	}
}

func TestBoxOverlap_TruncatesCoordinates(t *testing.T) {
	m := NewMask(50, 50)
	m.FillRect(10, 10, 20, 20)

	got := BoxOverlap(*rectPolygon(10.9, 10.7, 20.99, 20.5), m)
	if !almostEqual(got, 1.0) {
		t.Errorf("overlap = %v, want 1.0 after truncation", got)
	}
}

func TestBoxOverlap_OutsideImage(t *testing.T) {
	m := NewMask(100, 100)
	m.FillRect(0, 0, 99, 99)

	// 20x20 box, only the 10x10 quarter inside the image can intersect.
	got := BoxOverlap(*rectPolygon(-10, -10, 9, 9), m)
	if !almostEqual(got, 0.25) {
		t.Errorf("overlap = %v, want 0.25", got)
	}
}

func TestBoxOverlap_Triangle(t *testing.T) {
	m := NewMask(20, 20)
	m.FillRect(0, 0, 19, 19)

	p := ocr.Polygon{{0, 0}, {10, 0}, {10, 10}, {10, 10}}
	got := BoxOverlap(p, m)
	if !almostEqual(got, 66.0/121.0) {
		t.Errorf("overlap = %v, want %v", got, 66.0/121.0)
	}
}

func TestBoxOverlap_DegeneratePolygon(t *testing.T) {
	m := NewMask(10, 10)
	m.FillRect(0, 0, 9, 9)

	p := ocr.Polygon{{3, 3}, {3, 3}, {3, 3}, {3, 3}}
	if got := BoxOverlap(p, m); !almostEqual(got, 1.0) {
		t.Errorf("single-pixel polygon overlap = %v, want 1.0", got)
	}
}

func TestBoxOverlap_ImplausibleVertices(t *testing.T) {
	m := NewMask(100, 100)
	m.FillRect(0, 0, 99, 99)

	cases := map[string]ocr.Polygon{
		"inf":  {{0, 0}, {math.Inf(1), 0}, {50, 50}, {0, 50}},
		"nan":  {{0, 0}, {50, 0}, {50, math.NaN()}, {0, 50}},
		"huge": {{0, 0}, {1e19, 0}, {50, 50}, {0, 50}},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			if got := BoxOverlap(p, m); got != 0 {
				t.Errorf("overlap = %v, want 0", got)
			}
		})
	}
}

func TestBoxOverlap_LargeBoxStaysBounded(t *testing.T) {
	m := NewMask(100, 100)
	m.FillRect(0, 0, 99, 99)

	lim := float64(ocr.MaxCoordinate)
	p := ocr.Polygon{{-lim, -lim}, {lim, -lim}, {lim, lim}, {-lim, lim}}
	got := BoxOverlap(p, m)
	if got <= 0 || got > 1e-6 {
		t.Errorf("overlap = %v, want a tiny positive fraction", got)
	}
}

func TestBoxOverlap_EmptyMask(t *testing.T) {
	if got := BoxOverlap(*rectPolygon(0, 0, 10, 10), NewMask(20, 20)); got != 0 {
		t.Errorf("overlap with empty mask = %v, want 0", got)
	}
	if got := BoxOverlap(*rectPolygon(0, 0, 10, 10), nil); got != 0 {
		t.Errorf("overlap with nil mask = %v, want 0", got)
	}
}

func TestSelectHighlighted_EmptyMask(t *testing.T) {
	lines := []ocr.Line{line("INVOICE", rectPolygon(0, 0, 50, 20))}

	sel := SelectHighlighted(lines, NewMask(100, 100), DefaultOverlapThreshold)

	if sel.MaskPresent {
		t.Error("expected mask_present false for empty mask")
	}
	if sel.HighlightedText != "" {
		t.Errorf("highlighted text = %q, want empty", sel.HighlightedText)
	}
	if len(sel.Matches) != 0 {
		t.Errorf("expected no matches, got %d", len(sel.Matches))
	}
}

func TestSelectHighlighted_ExactMatch(t *testing.T) {
	m := NewMask(100, 100)
	m.FillRect(10, 10, 40, 30)
	lines := []ocr.Line{
		line("other", rectPolygon(60, 60, 90, 80)),
		line("TOTAL", rectPolygon(10, 10, 40, 30)),
	}

	sel := SelectHighlighted(lines, m, DefaultOverlapThreshold)

	if !sel.MaskPresent {
		t.Error("expected mask_present true")
	}
	if len(sel.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(sel.Matches))
	}
	match := sel.Matches[0]
	if match.Index != 1 || match.Fallback || !almostEqual(match.Overlap, 1.0) {
		t.Errorf("unexpected match %+v", match)
	}
	if sel.HighlightedText != "TOTAL" {
		t.Errorf("highlighted text = %q, want TOTAL", sel.HighlightedText)
	}
}

func TestSelectHighlighted_MultipleInOrder(t *testing.T) {
	m := NewMask(100, 100)
	m.FillRect(0, 0, 99, 49)
	lines := []ocr.Line{
		line("first", rectPolygon(0, 0, 40, 10)),
		line("below", rectPolygon(0, 60, 40, 70)),
		line("second", rectPolygon(50, 20, 90, 30)),
	}

	sel := SelectHighlighted(lines, m, DefaultOverlapThreshold)

	if sel.HighlightedText != "first second" {
		t.Errorf("highlighted text = %q, want %q", sel.HighlightedText, "first second")
	}
	if len(sel.Matches) != 2 || sel.Matches[0].Index != 0 || sel.Matches[1].Index != 2 {
		t.Errorf("unexpected matches %+v", sel.Matches)
	}
}

func TestSelectHighlighted_ThresholdBoundary(t *testing.T) {
	m := NewMask(100, 10)
	m.FillRect(0, 0, 24, 9)
	lines := []ocr.Line{line("quarter", rectPolygon(0, 0, 99, 9))}

	if sel := SelectHighlighted(lines, m, 0.25); len(sel.Matches) != 1 || sel.Matches[0].Fallback {
		t.Errorf("overlap equal to threshold should be selected directly, got %+v", sel.Matches)
	}
	if sel := SelectHighlighted(lines, m, 0.26); len(sel.Matches) != 1 || !sel.Matches[0].Fallback {
		t.Errorf("overlap below threshold should only be a fallback, got %+v", sel.Matches)
	}
}

func TestSelectHighlighted_FallbackNearest(t *testing.T) {
	m := NewMask(100, 100)
	m.FillRect(80, 80, 90, 90)
	lines := []ocr.Line{
		line("far", rectPolygon(0, 0, 20, 10)),
		line("near", rectPolygon(60, 60, 75, 70)),
		line("middle", rectPolygon(30, 30, 50, 40)),
	}

	sel := SelectHighlighted(lines, m, DefaultOverlapThreshold)

	if len(sel.Matches) != 1 {
		t.Fatalf("expected exactly one fallback match, got %d", len(sel.Matches))
	}
	match := sel.Matches[0]
	if match.Index != 1 || !match.Fallback {
		t.Errorf("unexpected fallback match %+v", match)
	}
	if sel.HighlightedText != "near" {
		t.Errorf("highlighted text = %q, want near", sel.HighlightedText)
	}
}

func TestSelectHighlighted_FallbackTieKeepsFirst(t *testing.T) {
	m := NewMask(100, 100)
	m.FillRect(45, 45, 55, 55)
	lines := []ocr.Line{
		line("left", rectPolygon(0, 45, 10, 55)),
		line("right", rectPolygon(90, 45, 100, 55)),
	}

	sel := SelectHighlighted(lines, m, DefaultOverlapThreshold)

	if len(sel.Matches) != 1 || sel.Matches[0].Index != 0 {
		t.Errorf("expected first line on tie, got %+v", sel.Matches)
	}
}

func TestSelectHighlighted_SkipsAbsentPolygons(t *testing.T) {
	m := NewMask(100, 100)
	m.FillRect(0, 0, 99, 99)
	lines := []ocr.Line{
		line("no box", nil),
		line("boxed", rectPolygon(10, 10, 20, 20)),
	}

	sel := SelectHighlighted(lines, m, DefaultOverlapThreshold)

	if len(sel.Matches) != 1 || sel.Matches[0].Index != 1 {
		t.Errorf("unexpected matches %+v", sel.Matches)
	}
	if sel.HighlightedText != "boxed" {
		t.Errorf("highlighted text = %q, want boxed", sel.HighlightedText)
	}
}

func TestSelectHighlighted_OnlyAbsentPolygons(t *testing.T) {
	m := NewMask(10, 10)
	m.FillRect(0, 0, 4, 4)
	lines := []ocr.Line{line("no box", nil)}

	sel := SelectHighlighted(lines, m, DefaultOverlapThreshold)

	if !sel.MaskPresent {
		t.Error("expected mask_present true")
	}
	if len(sel.Matches) != 0 || sel.HighlightedText != "" {
		t.Errorf("expected no selection, got %+v", sel)
	}
}

func TestSelectHighlighted_SkipsImplausiblePolygons(t *testing.T) {
	m := NewMask(100, 100)
	m.FillRect(0, 0, 99, 99)
	lines := []ocr.Line{
		line("bogus", &ocr.Polygon{{0, 0}, {math.Inf(1), 0}, {50, 50}, {0, 50}}),
		line("nan", &ocr.Polygon{{0, 0}, {50, 0}, {50, math.NaN()}, {0, 50}}),
	}

	sel := SelectHighlighted(lines, m, DefaultOverlapThreshold)
	if len(sel.Matches) != 0 {
		t.Errorf("expected no matches, got %+v", sel.Matches)
	}
	if sel.HighlightedText != "" {
		t.Errorf("highlighted text = %q, want empty", sel.HighlightedText)
	}
}

func TestSelectHighlighted_NoLines(t *testing.T) {
	m := NewMask(100, 100)
	m.FillRect(10, 10, 40, 30)

	sel := SelectHighlighted(nil, m, DefaultOverlapThreshold)

	if !sel.MaskPresent {
		t.Error("expected mask_present true")
	}
	if sel.HighlightedText != "" {
		t.Errorf("highlighted text = %q, want empty", sel.HighlightedText)
	}
}

func TestSelection_Annotate(t *testing.T) {
	m := NewMask(100, 100)
	m.FillRect(80, 80, 90, 90)
	lines := []ocr.Line{
		line("far", rectPolygon(0, 0, 20, 10)),
		line("near", rectPolygon(70, 70, 85, 85)),
	}

	sel := SelectHighlighted(lines, m, DefaultOverlapThreshold)
	sel.Annotate(lines)

	if lines[0].Overlap != nil {
		t.Error("unselected line should not carry an overlap")
	}
	if lines[1].Overlap == nil {
		t.Fatal("selected line should carry its overlap")
	}
	if *lines[1].Overlap != sel.Matches[0].Overlap {
		t.Errorf("annotated overlap %v, want %v", *lines[1].Overlap, sel.Matches[0].Overlap)
	}
}
