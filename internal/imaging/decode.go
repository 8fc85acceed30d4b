package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WEBP format decoder
)

// ErrEmptyImage is the cause reported when Decode is given no bytes.
var ErrEmptyImage = errors.New("empty image data")

// ErrImageTooLarge is the cause reported when an image declares more pixels
// than the decode limit allows.
var ErrImageTooLarge = errors.New("image too large")

// DefaultMaxPixels is the pixel limit Decode and LoadFile apply.
const DefaultMaxPixels = 1 << 30

// maxSniff bounds how far into the payload the recovery path looks for an
// image signature.
const maxSniff = 4096

// DecodeError reports bytes that no decode path could turn into an image.
//
// Retrying with the same bytes cannot succeed, so callers should treat it as
// bad input rather than an internal failure.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// signatures are the magic prefixes the recovery path scans for.
var signatures = [][]byte{
	[]byte("\x89PNG\r\n\x1a\n"),
	{0xFF, 0xD8, 0xFF},
	[]byte("GIF87a"),
	[]byte("GIF89a"),
	[]byte("II*\x00"),
	[]byte("MM\x00*"),
	[]byte("RIFF"),
	[]byte("BM"),
}

// Decode turns raw bytes of unknown encoding into a Raster.
//
// Returns:
//   - *Raster: the decoded pixels in canonical RGB order.
//   - string: the detected source format ("png", "jpeg", "gif", "bmp", "tiff",
//     "webp"), as reported by the registered decoder.
//   - error: a *DecodeError when every decode path fails.
//
// # Decode Paths
//
// The primary path uses the registered format decoders and applies the EXIF
// orientation tag, so phone photos come out upright. When it fails, a recovery
// path retries on payloads that wrap a valid image:
//   - data URIs ("data:image/png;base64,...") and bare base64 text
//   - a known image signature preceded by junk bytes (up to 4 KiB)
//
// The DecodeError returned when both fail carries the primary path's cause,
// unless a wrapped payload was rejected for its size.
// Images larger than DefaultMaxPixels are rejected; see DecodeLimit.
func Decode(data []byte) (*Raster, string, error) {
	return DecodeLimit(data, DefaultMaxPixels)
}

// DecodeLimit is Decode with a caller-chosen pixel limit. The declared
// dimensions are read from the header before any pixel data is decoded, and an
// image whose width times height exceeds maxPixels fails with a DecodeError
// wrapping ErrImageTooLarge. A maxPixels of zero or less means no limit.
func DecodeLimit(data []byte, maxPixels int) (*Raster, string, error) {
	if len(data) == 0 {
		return nil, "", &DecodeError{Cause: ErrEmptyImage}
	}

	raster, format, err := decodePrimary(data, maxPixels)
	if err == nil {
		return raster, format, nil
	}

	for _, candidate := range recoverPayloads(data) {
		raster, format, rerr := decodePrimary(candidate, maxPixels)
		if rerr == nil {
			return raster, format, nil
		}
		if errors.Is(rerr, ErrImageTooLarge) {
			err = rerr
		}
	}

	return nil, "", &DecodeError{Cause: err}
}

// LoadFile reads and decodes an image file.
func LoadFile(path string) (*Raster, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	return Decode(data)
}

func decodePrimary(data []byte, maxPixels int) (*Raster, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", err
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", fmt.Errorf("image has no pixels (%dx%d)", b.Dx(), b.Dy())
	}
	return FromImage(img), format, nil
}

// recoverPayloads returns the candidate byte slices the recovery path tries,
// in order of preference.
func recoverPayloads(data []byte) [][]byte {
	var candidates [][]byte

	text := strings.TrimSpace(string(data[:min(len(data), maxSniff*4)]))
	if strings.HasPrefix(text, "data:") {
		if comma := bytes.IndexByte(data, ','); comma > 0 {
			header := string(data[:comma])
			payload := bytes.TrimSpace(data[comma+1:])
			if strings.Contains(header, ";base64") {
				if decoded, err := decodeBase64(payload); err == nil {
					candidates = append(candidates, decoded)
				}
			} else {
				candidates = append(candidates, payload)
			}
		}
	} else if looksBase64(data) {
		if decoded, err := decodeBase64(bytes.TrimSpace(data)); err == nil {
			candidates = append(candidates, decoded)
		}
	}

	head := data[:min(len(data), maxSniff)]
	best := -1
	for _, sig := range signatures {
		if i := bytes.Index(head, sig); i > 0 && (best < 0 || i < best) {
			best = i
		}
	}
	if best > 0 {
		candidates = append(candidates, data[best:])
	}

	return candidates
}

func looksBase64(data []byte) bool {
	head := bytes.TrimSpace(data[:min(len(data), maxSniff)])
	if len(head) < 8 {
		return false
	}
	for _, c := range head {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '+', c == '/', c == '=', c == '\n', c == '\r':
		default:
			return false
		}
	}
	return true
}

func decodeBase64(payload []byte) ([]byte, error) {
	clean := strings.NewReplacer("\n", "", "\r", "", " ", "").Replace(string(payload))
	if decoded, err := base64.StdEncoding.DecodeString(clean); err == nil {
		return decoded, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(clean, "="))
}
