package detection

// plane is a single-channel 8-bit working buffer used by the mask pipeline.
type plane struct {
	w, h int
	pix  []uint8
}

func newPlane(w, h int) *plane {
	return &plane{w: w, h: h, pix: make([]uint8, w*h)}
}

func (p *plane) clone() *plane {
	c := newPlane(p.w, p.h)
	copy(c.pix, p.pix)
	return c
}

// dilate applies a k×k rectangular max filter the given number of times.
// Pixels outside the image never contribute.
func (p *plane) dilate(k, iterations int) *plane {
	out := p
	for i := 0; i < iterations; i++ {
		out = out.rankFilter(k, true)
	}
	return out
}

// erode applies a k×k rectangular min filter the given number of times.
// Pixels outside the image never contribute.
func (p *plane) erode(k, iterations int) *plane {
	out := p
	for i := 0; i < iterations; i++ {
		out = out.rankFilter(k, false)
	}
	return out
}

// rankFilter runs a separable max (or min) filter: one horizontal pass, then
// one vertical pass. A rectangular structuring element decomposes exactly.
func (p *plane) rankFilter(k int, takeMax bool) *plane {
	r := k / 2
	pick := func(a, b uint8) uint8 {
		if takeMax {
			return max(a, b)
		}
		return min(a, b)
	}

	tmp := newPlane(p.w, p.h)
	for y := 0; y < p.h; y++ {
		row := p.pix[y*p.w : (y+1)*p.w]
		dst := tmp.pix[y*p.w : (y+1)*p.w]
		for x := 0; x < p.w; x++ {
			v := row[x]
			for xx := max(x-r, 0); xx <= min(x+r, p.w-1); xx++ {
				v = pick(v, row[xx])
			}
			dst[x] = v
		}
	}

	out := newPlane(p.w, p.h)
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			v := tmp.pix[y*p.w+x]
			for yy := max(y-r, 0); yy <= min(y+r, p.h-1); yy++ {
				v = pick(v, tmp.pix[yy*p.w+x])
			}
			out.pix[y*p.w+x] = v
		}
	}
	return out
}

// gradient is the morphological gradient: dilation minus erosion.
func (p *plane) gradient(k int) *plane {
	d := p.dilate(k, 1)
	e := p.erode(k, 1)
	out := newPlane(p.w, p.h)
	for i := range out.pix {
		out.pix[i] = d.pix[i] - e.pix[i]
	}
	return out
}

// union sets every pixel that is set in either plane.
func (p *plane) union(o *plane) *plane {
	out := newPlane(p.w, p.h)
	for i := range out.pix {
		out.pix[i] = p.pix[i] | o.pix[i]
	}
	return out
}

// threshold sets pixels strictly greater than t to 255 and the rest to 0.
func (p *plane) threshold(t uint8) *plane {
	out := newPlane(p.w, p.h)
	for i, v := range p.pix {
		if v > t {
			out.pix[i] = 255
		}
	}
	return out
}

// otsu picks the threshold that maximizes between-class variance.
//
// Iteration order, the epsilon guard and the running mean update follow the
// 8-bit implementation common to vision toolkits, so that borderline
// histograms pick the same threshold. A single-valued histogram returns 0.
func (p *plane) otsu() uint8 {
	var hist [256]int
	for _, v := range p.pix {
		hist[v]++
	}

	scale := 1.0 / float64(len(p.pix))
	var mu float64
	for i, n := range hist {
		mu += float64(i) * float64(n)
	}
	mu *= scale

	var q1, mu1, maxSigma float64
	var maxVal int
	for i, n := range hist {
		pi := float64(n) * scale
		mu1 *= q1
		q1 += pi
		q2 := 1 - q1

		if min(q1, q2) < fltEpsilon || max(q1, q2) > 1-fltEpsilon {
			continue
		}

		mu1 = (mu1 + float64(i)*pi) / q1
		mu2 := (mu - q1*mu1) / q2
		sigma := q1 * q2 * (mu1 - mu2) * (mu1 - mu2)
		if sigma > maxSigma {
			maxSigma = sigma
			maxVal = i
		}
	}
	return uint8(maxVal)
}

// fltEpsilon is the single-precision machine epsilon.
const fltEpsilon = 1.1920928955078125e-07
