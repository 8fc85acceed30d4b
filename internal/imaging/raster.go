package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
)

// Channels is the number of bytes per pixel in a Raster.
const Channels = 3

// Raster is a decoded image in canonical form: 8-bit RGB, row-major, no alpha.
//
// A Raster is never modified after Decode returns it. Every request decodes its
// own Raster, so no synchronization is needed.
type Raster struct {
	Width  int
	Height int

	// Pix holds Width*Height*3 bytes in R, G, B order.
	Pix []uint8
}

// NewRaster allocates a black raster of the given size.
func NewRaster(width, height int) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}
}

// FromImage copies any image.Image into a Raster.
//
// Alpha is dropped without compositing, the same way the colour channels of a
// PNG with transparency are read by most OCR tooling.
func FromImage(img image.Image) *Raster {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	r := NewRaster(b.Dx(), b.Dy())
	for y := 0; y < r.Height; y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+r.Width*4]
		dst := r.Pix[y*r.Width*Channels : (y+1)*r.Width*Channels]
		for x := 0; x < r.Width; x++ {
			dst[x*3] = src[x*4]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
	return r
}

// RGB returns the colour at (x, y). No bounds checking is performed.
func (r *Raster) RGB(x, y int) (uint8, uint8, uint8) {
	i := (y*r.Width + x) * Channels
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}

// SetRGB sets the colour at (x, y). Only meant for building rasters
// before they are handed to the pipeline.
func (r *Raster) SetRGB(x, y int, red, green, blue uint8) {
	i := (y*r.Width + x) * Channels
	r.Pix[i], r.Pix[i+1], r.Pix[i+2] = red, green, blue
}

// FillRect paints the inclusive rectangle (x1,y1)-(x2,y2), clipped to the raster.
func (r *Raster) FillRect(x1, y1, x2, y2 int, c color.Color) {
	cr, cg, cb, _ := c.RGBA()
	for y := max(y1, 0); y <= min(y2, r.Height-1); y++ {
		for x := max(x1, 0); x <= min(x2, r.Width-1); x++ {
			r.SetRGB(x, y, uint8(cr>>8), uint8(cg>>8), uint8(cb>>8))
		}
	}
}

// Image returns an opaque NRGBA copy of the raster.
func (r *Raster) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for i, j := 0, 0; i < len(r.Pix); i, j = i+3, j+4 {
		img.Pix[j] = r.Pix[i]
		img.Pix[j+1] = r.Pix[i+1]
		img.Pix[j+2] = r.Pix[i+2]
		img.Pix[j+3] = 0xFF
	}
	return img
}

// PNG encodes the raster in the canonical lossless format.
//
// Decoding the returned bytes yields exactly the same width, height and RGB
// values, which is what makes the saved copy and the OCR input identical.
func (r *Raster) PNG() ([]byte, error) {
	return EncodePNG(r.Image())
}

// EncodePNG encodes any image as PNG with fast compression.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestSpeed))
	if err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
