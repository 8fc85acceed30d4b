package detection

import (
	"math"

	"github.com/ironsheep/focus-ocr/internal/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// hsvBand is an inclusive range in 8-bit HSV space: hue 0-180, saturation and
// value 0-255.
type hsvBand struct {
	name   string
	lo, hi [3]uint8
}

// highlightBands are the pen colours treated as highlight annotations. Red
// straddles hue 0 and needs two bands.
var highlightBands = []hsvBand{
	{name: "red", lo: [3]uint8{0, 120, 70}, hi: [3]uint8{10, 255, 255}},
	{name: "red", lo: [3]uint8{170, 120, 70}, hi: [3]uint8{180, 255, 255}},
	{name: "blue", lo: [3]uint8{90, 80, 50}, hi: [3]uint8{130, 255, 255}},
	{name: "green", lo: [3]uint8{36, 80, 50}, hi: [3]uint8{86, 255, 255}},
}

func (b hsvBand) contains(hsv [3]uint8) bool {
	for i := range hsv {
		if hsv[i] < b.lo[i] || hsv[i] > b.hi[i] {
			return false
		}
	}
	return true
}

// Structuring element sizes for the mask pipeline.
const (
	gradientKernel = 3
	strokeKernel   = 3
	closeKernel    = 7
	closeRepeat    = 2
	growKernel     = 5
)

// BuildHighlightMask marks the pixels of r that look like hand-drawn
// highlight annotations.
//
// # Algorithm
//
//  1. Colour evidence: pixels whose HSV value falls in a red, blue or green
//     pen band.
//  2. Stroke evidence: greyscale morphological gradient (3×3), binarized with
//     Otsu's threshold, then dilated once (3×3) to thicken strokes.
//  3. Union of both, closed with a 7×7 element (two dilations, then two
//     erosions) to merge fragments, then dilated once with a 5×5 element.
//
// The result depends only on the pixels of r. A raster with no saturated
// colour and no intensity variation produces an empty mask.
func BuildHighlightMask(r *imaging.Raster) *Mask {
	colour := colourEvidence(r)

	gray := grayscale(r)
	grad := gray.gradient(gradientKernel)
	strokes := grad.threshold(grad.otsu()).dilate(strokeKernel, 1)

	combined := colour.union(strokes)
	closed := combined.dilate(closeKernel, closeRepeat).erode(closeKernel, closeRepeat)
	return closed.dilate(growKernel, 1).mask()
}

func colourEvidence(r *imaging.Raster) *plane {
	out := newPlane(r.Width, r.Height)
	for i, j := 0, 0; j < len(out.pix); i, j = i+imaging.Channels, j+1 {
		hsv := toHSV8(r.Pix[i], r.Pix[i+1], r.Pix[i+2])
		for _, band := range highlightBands {
			if band.contains(hsv) {
				out.pix[j] = 255
				break
			}
		}
	}
	return out
}

// toHSV8 converts an RGB pixel to 8-bit HSV with hue halved to fit 0-180.
func toHSV8(r, g, b uint8) [3]uint8 {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, v := c.Hsv()
	return [3]uint8{
		uint8(math.Round(h / 2)),
		uint8(math.Round(s * 255)),
		uint8(math.Round(v * 255)),
	}
}

// grayscale converts with the BT.601 luma weights in 14-bit fixed point.
func grayscale(r *imaging.Raster) *plane {
	const (
		shift = 14
		wr    = 4899
		wg    = 9617
		wb    = 1868
		round = 1 << (shift - 1)
	)
	out := newPlane(r.Width, r.Height)
	for i, j := 0, 0; j < len(out.pix); i, j = i+imaging.Channels, j+1 {
		v := int(r.Pix[i])*wr + int(r.Pix[i+1])*wg + int(r.Pix[i+2])*wb
		out.pix[j] = uint8((v + round) >> shift)
	}
	return out
}
