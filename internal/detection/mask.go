package detection

import (
	"image"
	"sort"
)

// Bounds is an inclusive rectangle in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge (inclusive)
	Y2 int `json:"y2"` // Bottom edge (inclusive)
}

// Point is an integer pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Mask is a binary per-pixel map with the same size as the raster it was
// built from. Set pixels hold 255, clear pixels hold 0.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask allocates an empty mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

func (p *plane) mask() *Mask {
	return &Mask{Width: p.w, Height: p.h, Pix: p.pix}
}

// At reports whether (x, y) is set. Coordinates outside the mask are clear.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x] != 0
}

// Set marks (x, y). Coordinates outside the mask are ignored.
func (m *Mask) Set(x, y int) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = 255
}

// FillRect marks the inclusive rectangle (x1,y1)-(x2,y2), clipped to the mask.
func (m *Mask) FillRect(x1, y1, x2, y2 int) {
	for y := max(y1, 0); y <= min(y2, m.Height-1); y++ {
		for x := max(x1, 0); x <= min(x2, m.Width-1); x++ {
			m.Pix[y*m.Width+x] = 255
		}
	}
}

// Any reports whether at least one pixel is set.
func (m *Mask) Any() bool {
	if m == nil {
		return false
	}
	for _, v := range m.Pix {
		if v != 0 {
			return true
		}
	}
	return false
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Centroid returns the mean coordinate of all set pixels. ok is false for an
// empty mask.
func (m *Mask) Centroid() (x, y float64, ok bool) {
	if m == nil {
		return 0, 0, false
	}
	var sx, sy float64
	n := 0
	for py := 0; py < m.Height; py++ {
		row := m.Pix[py*m.Width : (py+1)*m.Width]
		for px, v := range row {
			if v != 0 {
				sx += float64(px)
				sy += float64(py)
				n++
			}
		}
	}
	if n == 0 {
		return 0, 0, false
	}
	return sx / float64(n), sy / float64(n), true
}

// Gray returns the mask as an 8-bit greyscale image.
func (m *Mask) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	copy(img.Pix, m.Pix)
	return img
}

// Region is one 8-connected blob of set pixels.
type Region struct {
	Bounds Bounds `json:"bounds"`
	Center Point  `json:"center"`
	Pixels int    `json:"pixels"`
}

// Regions groups set pixels into 8-connected components.
//
// Components smaller than minPixels are skipped. The result is sorted by pixel
// count, largest first, with ties in scan order.
func (m *Mask) Regions(minPixels int) []Region {
	visited := make([]bool, len(m.Pix))
	regions := make([]Region, 0)

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			i := y*m.Width + x
			if m.Pix[i] == 0 || visited[i] {
				continue
			}
			r := m.floodFill(visited, x, y)
			if r.Pixels >= minPixels {
				regions = append(regions, r)
			}
		}
	}

	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Pixels > regions[j].Pixels
	})
	return regions
}

// floodFill walks one component with an explicit stack so large highlights
// cannot overflow the goroutine stack.
func (m *Mask) floodFill(visited []bool, startX, startY int) Region {
	b := Bounds{X1: startX, Y1: startY, X2: startX, Y2: startY}
	count := 0
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= m.Width || p.Y < 0 || p.Y >= m.Height {
			continue
		}
		i := p.Y*m.Width + p.X
		if visited[i] || m.Pix[i] == 0 {
			continue
		}

		visited[i] = true
		count++
		b.X1, b.X2 = min(b.X1, p.X), max(b.X2, p.X)
		b.Y1, b.Y2 = min(b.Y1, p.Y), max(b.Y2, p.Y)

		// 8-connected neighbors
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}

	return Region{
		Bounds: b,
		Center: Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2},
		Pixels: count,
	}
}
