//go:build cgo

package ocr

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/transform"
	"github.com/ironsheep/focus-ocr/internal/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes text lines with a pool of warm gosseract clients.
//
// Each client is created once with its language and model path set, then
// reused. A client is used by one prediction at a time.
type Tesseract struct {
	language string
	maxSide  int
	version  string
	clients  *clientPool[*gosseract.Client]
}

// NewTesseract creates max(cfg.Concurrency, 1) clients for cfg.Language.
//
// Tesseract and the language data must be installed, or TessdataPrefix must
// point at a directory holding <lang>.traineddata.
func NewTesseract(cfg Config) (Engine, error) {
	n := max(cfg.Concurrency, 1)
	t := &Tesseract{
		language: cfg.Language,
		maxSide:  cfg.MaxSide,
		clients:  newClientPool[*gosseract.Client](n),
	}

	for i := 0; i < n; i++ {
		client := gosseract.NewClient()
		if cfg.TessdataPrefix != "" {
			if err := client.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
				client.Close()
				t.Close()
				return nil, engineError("tesseract", "SetTessdataPrefix", err)
			}
		}
		if err := client.SetLanguage(splitLanguages(cfg.Language)...); err != nil {
			client.Close()
			t.Close()
			return nil, engineError("tesseract", "SetLanguage", err)
		}
		if t.version == "" {
			t.version = client.Version()
		}
		t.clients.add(client)
	}

	return t, nil
}

// Name returns "tesseract".
func (t *Tesseract) Name() string { return "tesseract" }

// Info reports the Tesseract version and language.
func (t *Tesseract) Info() Info {
	return Info{
		Engine:    t.Name(),
		Available: true,
		Version:   t.version,
		Language:  t.language,
	}
}

// Predict recognizes text lines and returns []*Prediction with one element.
//
// The underlying call cannot be interrupted. When ctx ends first, Predict
// returns ctx.Err() and the client goes back to the pool once Tesseract
// finishes, or is closed then if Close ran in the meantime.
func (t *Tesseract) Predict(ctx context.Context, in Input) (any, error) {
	client, err := t.clients.acquire(ctx)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		pred *Prediction
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer t.clients.release(client)
		pred, err := t.recognize(client, in)
		done <- outcome{pred, err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return nil, o.err
		}
		return []*Prediction{o.pred}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Tesseract) recognize(client *gosseract.Client, in Input) (*Prediction, error) {
	scale := 1.0

	switch {
	case in.Path != "" && t.maxSide <= 0:
		if err := client.SetImage(in.Path); err != nil {
			return nil, engineError("tesseract", "SetImage", err)
		}
	case in.Path != "" || in.Image != nil:
		raster := in.Image
		if in.Path != "" {
			loaded, _, err := imaging.LoadFile(in.Path)
			if err != nil {
				return nil, engineError("tesseract", "LoadFile", err)
			}
			raster = loaded
		}

		var data []byte
		var err error
		raster, scale = t.downscale(raster)
		if data, err = raster.PNG(); err != nil {
			return nil, engineError("tesseract", "EncodePNG", err)
		}
		if err := client.SetImageFromBytes(data); err != nil {
			return nil, engineError("tesseract", "SetImageFromBytes", err)
		}
	default:
		return nil, ErrNoInput
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, engineError("tesseract", "GetBoundingBoxes", err)
	}

	pred := &Prediction{
		RecTexts:  make([]string, 0, len(boxes)),
		RecScores: make([]float32, 0, len(boxes)),
		RecPolys:  make([][8]int, 0, len(boxes)),
	}
	for _, box := range boxes {
		x1, y1 := rescale(box.Box.Min.X, scale), rescale(box.Box.Min.Y, scale)
		x2, y2 := rescale(box.Box.Max.X-1, scale), rescale(box.Box.Max.Y-1, scale)
		pred.RecTexts = append(pred.RecTexts, box.Word)
		pred.RecScores = append(pred.RecScores, float32(box.Confidence/100))
		pred.RecPolys = append(pred.RecPolys, [8]int{x1, y1, x2, y1, x2, y2, x1, y2})
	}
	return pred, nil
}

// downscale shrinks r so its longer side is at most maxSide and returns the
// factor that maps the smaller image's coordinates back onto r.
func (t *Tesseract) downscale(r *imaging.Raster) (*imaging.Raster, float64) {
	longer := max(r.Width, r.Height)
	if t.maxSide <= 0 || longer <= t.maxSide {
		return r, 1.0
	}
	ratio := float64(t.maxSide) / float64(longer)
	w := max(int(math.Round(float64(r.Width)*ratio)), 1)
	h := max(int(math.Round(float64(r.Height)*ratio)), 1)

	var src image.Image = r.Image()
	resized := transform.Resize(src, w, h, transform.Linear)
	return imaging.FromImage(resized), float64(r.Width) / float64(w)
}

func rescale(v int, scale float64) int {
	if scale == 1.0 {
		return v
	}
	return int(math.Round(float64(v) * scale))
}

// Close releases every idle client. A client still held by a running
// prediction is closed when that prediction finishes.
func (t *Tesseract) Close() error {
	if err := t.clients.close(); err != nil {
		return fmt.Errorf("tesseract: %w", err)
	}
	return nil
}
