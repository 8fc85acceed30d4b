package detection

import "testing"

func TestMask_EmptyAndNil(t *testing.T) {
	var nilMask *Mask
	if nilMask.Any() || nilMask.Count() != 0 {
		t.Error("nil mask should be empty")
	}
	if _, _, ok := nilMask.Centroid(); ok {
		t.Error("nil mask should have no centroid")
	}

	m := NewMask(10, 10)
	if m.Any() {
		t.Error("new mask should be empty")
	}
	if _, _, ok := m.Centroid(); ok {
		t.Error("empty mask should have no centroid")
	}
}

func TestMask_SetAndAt(t *testing.T) {
	m := NewMask(5, 5)
	m.Set(2, 3)
	m.Set(-1, 0)
	m.Set(5, 5)

	if !m.At(2, 3) {
		t.Error("expected (2,3) to be set")
	}
	if m.At(-1, 0) || m.At(5, 5) {
		t.Error("out-of-range coordinates should read as clear")
	}
	if m.Count() != 1 {
		t.Errorf("count = %d, want 1", m.Count())
	}
}

func TestMask_Centroid(t *testing.T) {
	m := NewMask(100, 100)
	m.FillRect(10, 20, 30, 40)

	x, y, ok := m.Centroid()
	if !ok {
		t.Fatal("expected centroid")
	}
	if !almostEqual(x, 20) || !almostEqual(y, 30) {
		t.Errorf("centroid = (%v,%v), want (20,30)", x, y)
	}
}

func TestMask_Regions(t *testing.T) {
	m := NewMask(50, 50)
	m.FillRect(5, 5, 14, 14)   // 100 pixels
	m.FillRect(30, 30, 34, 34) // 25 pixels
	m.Set(45, 45)              // 1 pixel

	regions := m.Regions(2)
	if len(regions) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(regions))
	}

	big := regions[0]
	if big.Pixels != 100 {
		t.Errorf("largest region pixels = %d, want 100", big.Pixels)
	}
	if big.Bounds != (Bounds{X1: 5, Y1: 5, X2: 14, Y2: 14}) {
		t.Errorf("largest region bounds = %+v", big.Bounds)
	}
	if regions[1].Pixels != 25 || regions[1].Center != (Point{X: 32, Y: 32}) {
		t.Errorf("second region = %+v", regions[1])
	}
}

func TestMask_RegionsDiagonalConnectivity(t *testing.T) {
	m := NewMask(5, 5)
	m.Set(0, 0)
	m.Set(1, 1)
	m.Set(2, 2)

	regions := m.Regions(1)
	if len(regions) != 1 || regions[0].Pixels != 3 {
		t.Errorf("diagonal pixels should form one region, got %+v", regions)
	}
}

func TestMask_Gray(t *testing.T) {
	m := NewMask(4, 3)
	m.Set(1, 2)

	g := m.Gray()
	if g.Bounds().Dx() != 4 || g.Bounds().Dy() != 3 {
		t.Fatalf("gray bounds = %v", g.Bounds())
	}
	if g.GrayAt(1, 2).Y != 255 || g.GrayAt(0, 0).Y != 0 {
		t.Error("gray values do not match mask")
	}
}
