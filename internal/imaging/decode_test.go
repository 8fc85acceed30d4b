package imaging

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

// createPatternImage creates a four-quadrant test image:
// red top-left, green top-right, blue bottom-left, white bottom-right.
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			if x < width/2 && y < height/2 {
				c = color.RGBA{255, 0, 0, 255}
			} else if x >= width/2 && y < height/2 {
				c = color.RGBA{0, 255, 0, 255}
			} else if x < width/2 && y >= height/2 {
				c = color.RGBA{0, 0, 255, 255}
			} else {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecode_PNG(t *testing.T) {
	data := encodePNG(t, createPatternImage(40, 20))

	r, format, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if format != "png" {
		t.Errorf("format: got %q, want png", format)
	}
	if r.Width != 40 || r.Height != 20 {
		t.Errorf("dimensions: got %dx%d, want 40x20", r.Width, r.Height)
	}
	if len(r.Pix) != 40*20*3 {
		t.Errorf("pix length: got %d, want %d", len(r.Pix), 40*20*3)
	}

	checks := []struct {
		x, y    int
		r, g, b uint8
	}{
		{5, 5, 255, 0, 0},
		{35, 5, 0, 255, 0},
		{5, 15, 0, 0, 255},
		{35, 15, 255, 255, 255},
	}
	for _, c := range checks {
		gr, gg, gb := r.RGB(c.x, c.y)
		if gr != c.r || gg != c.g || gb != c.b {
			t.Errorf("RGB(%d,%d) = (%d,%d,%d), want (%d,%d,%d)", c.x, c.y, gr, gg, gb, c.r, c.g, c.b)
		}
	}
}

func TestDecode_Formats(t *testing.T) {
	img := createPatternImage(32, 32)

	var jpegBuf, bmpBuf bytes.Buffer
	if err := jpeg.Encode(&jpegBuf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	if err := bmp.Encode(&bmpBuf, img); err != nil {
		t.Fatalf("failed to encode bmp: %v", err)
	}

	tests := []struct {
		name   string
		data   []byte
		format string
	}{
		{"png", encodePNG(t, img), "png"},
		{"jpeg", jpegBuf.Bytes(), "jpeg"},
		{"bmp", bmpBuf.Bytes(), "bmp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, format, err := Decode(tt.data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if format != tt.format {
				t.Errorf("format: got %q, want %q", format, tt.format)
			}
			if r.Width != 32 || r.Height != 32 {
				t.Errorf("dimensions: got %dx%d, want 32x32", r.Width, r.Height)
			}
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	_, _, err := Decode(nil)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
	if !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage cause, got %v", de.Cause)
	}
}

// pngHeaderOnly returns a PNG signature and IHDR chunk declaring an RGB image
// of the given size, with no pixel data behind it.
func pngHeaderOnly(width, height uint32) []byte {
	ihdr := make([]byte, 17)
	copy(ihdr, "IHDR")
	binary.BigEndian.PutUint32(ihdr[4:], width)
	binary.BigEndian.PutUint32(ihdr[8:], height)
	ihdr[12] = 8 // bit depth
	ihdr[13] = 2 // truecolor

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(13))
	buf.Write(ihdr)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(ihdr))
	return buf.Bytes()
}

func TestDecode_DeclaredSizeOverLimit(t *testing.T) {
	_, _, err := Decode(pngHeaderOnly(100000, 100000))
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
	if !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("expected ErrImageTooLarge cause, got %v", de.Cause)
	}
}

func TestDecodeLimit(t *testing.T) {
	data := encodePNG(t, createPatternImage(100, 50))

	if _, _, err := DecodeLimit(data, 4999); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("expected ErrImageTooLarge below the image size, got %v", err)
	}
	raster, _, err := DecodeLimit(data, 5000)
	if err != nil {
		t.Fatalf("DecodeLimit at the image size failed: %v", err)
	}
	if raster.Width != 100 || raster.Height != 50 {
		t.Errorf("size = %dx%d, want 100x50", raster.Width, raster.Height)
	}
	if _, _, err := DecodeLimit(data, 0); err != nil {
		t.Errorf("DecodeLimit without a limit failed: %v", err)
	}

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	if _, _, err := DecodeLimit([]byte(uri), 100); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("expected the limit to apply to wrapped payloads, got %v", err)
	}
}

func TestDecode_Garbage(t *testing.T) {
	_, _, err := Decode([]byte("this is definitely not an image"))
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
}

func TestDecode_DataURI(t *testing.T) {
	data := encodePNG(t, createPatternImage(10, 8))
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)

	r, format, err := Decode([]byte(uri))
	if err != nil {
		t.Fatalf("Decode failed on data URI: %v", err)
	}
	if format != "png" || r.Width != 10 || r.Height != 8 {
		t.Errorf("got %s %dx%d, want png 10x8", format, r.Width, r.Height)
	}
}

func TestDecode_BareBase64(t *testing.T) {
	data := encodePNG(t, createPatternImage(12, 6))
	encoded := base64.StdEncoding.EncodeToString(data)

	r, _, err := Decode([]byte(encoded + "\n"))
	if err != nil {
		t.Fatalf("Decode failed on base64 payload: %v", err)
	}
	if r.Width != 12 || r.Height != 6 {
		t.Errorf("dimensions: got %dx%d, want 12x6", r.Width, r.Height)
	}
}

func TestDecode_LeadingJunk(t *testing.T) {
	data := encodePNG(t, createPatternImage(16, 16))
	junk := append([]byte("--boundary\r\nContent-Type: image/png\r\n\r\n"), data...)

	r, format, err := Decode(junk)
	if err != nil {
		t.Fatalf("Decode failed with leading junk: %v", err)
	}
	if format != "png" || r.Width != 16 {
		t.Errorf("got %s width %d, want png width 16", format, r.Width)
	}
}

func TestRaster_PNGRoundTrip(t *testing.T) {
	src := NewRaster(23, 17)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			src.SetRGB(x, y, uint8(x*11), uint8(y*13), uint8((x+y)*7))
		}
	}

	data, err := src.PNG()
	if err != nil {
		t.Fatalf("PNG failed: %v", err)
	}

	got, format, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if format != "png" {
		t.Errorf("format: got %q, want png", format)
	}
	if got.Width != src.Width || got.Height != src.Height {
		t.Fatalf("dimensions: got %dx%d, want %dx%d", got.Width, got.Height, src.Width, src.Height)
	}
	if !bytes.Equal(got.Pix, src.Pix) {
		t.Error("pixel values changed across PNG round trip")
	}
}

func TestFromImage_DropsAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{200, 100, 50, 0})
	img.SetNRGBA(1, 0, color.NRGBA{10, 20, 30, 128})

	r := FromImage(img)
	if cr, cg, cb := r.RGB(0, 0); cr != 200 || cg != 100 || cb != 50 {
		t.Errorf("transparent pixel: got (%d,%d,%d), want (200,100,50)", cr, cg, cb)
	}
	if cr, cg, cb := r.RGB(1, 0); cr != 10 || cg != 20 || cb != 30 {
		t.Errorf("translucent pixel: got (%d,%d,%d), want (10,20,30)", cr, cg, cb)
	}
}

func TestRaster_FillRectClips(t *testing.T) {
	r := NewRaster(10, 10)
	r.FillRect(-5, -5, 2, 2, color.White)

	if cr, _, _ := r.RGB(0, 0); cr != 255 {
		t.Error("expected (0,0) to be filled")
	}
	if cr, _, _ := r.RGB(2, 2); cr != 255 {
		t.Error("expected (2,2) to be filled (inclusive corner)")
	}
	if cr, _, _ := r.RGB(3, 3); cr != 0 {
		t.Error("expected (3,3) to stay black")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pattern.png")
	if err := os.WriteFile(path, encodePNG(t, createPatternImage(8, 4)), 0644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}

	r, _, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if r.Width != 8 || r.Height != 4 {
		t.Errorf("dimensions: got %dx%d, want 8x4", r.Width, r.Height)
	}
}

func TestLoadFile_NonExistent(t *testing.T) {
	_, _, err := LoadFile("/nonexistent/image.png")
	if err == nil {
		t.Fatal("expected error for non-existent file")
	}
	var de *DecodeError
	if errors.As(err, &de) {
		t.Error("missing file should not be reported as a decode error")
	}
}

func TestEncodePNG_Gray(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 6, 4))
	g.Pix[0] = 255
	data, err := EncodePNG(g)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	r, format, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if format != "png" || r.Width != 6 || r.Height != 4 {
		t.Errorf("got %s %dx%d", format, r.Width, r.Height)
	}
	if red, _, _ := r.RGB(0, 0); red != 255 {
		t.Errorf("first pixel = %d, want 255", red)
	}
	if red, _, _ := r.RGB(1, 0); red != 0 {
		t.Errorf("second pixel = %d, want 0", red)
	}
}
