// Package pipeline runs one upload through decode, persistence, OCR and
// highlight selection.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/focus-ocr/internal/detection"
	"github.com/ironsheep/focus-ocr/internal/imaging"
	"github.com/ironsheep/focus-ocr/internal/ocr"
	"github.com/ironsheep/focus-ocr/internal/storage"
)

// Focus selects how much of the recognized text a response highlights.
type Focus string

const (
	FocusFull      Focus = "full"
	FocusHighlight Focus = "highlight"
)

// ParseFocus accepts "full" and "highlight" in any case. Empty means full.
func ParseFocus(s string) (Focus, error) {
	switch Focus(strings.ToLower(strings.TrimSpace(s))) {
	case "", FocusFull:
		return FocusFull, nil
	case FocusHighlight:
		return FocusHighlight, nil
	}
	return "", fmt.Errorf("focus must be %q or %q, got %q", FocusFull, FocusHighlight, s)
}

// Saver persists the canonical PNG of an upload.
type Saver interface {
	Save(originalName string, png []byte) (*storage.Saved, error)
}

// Upload is one image submitted for processing.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
	Focus       string
}

// OCRPayload is the "ocr" object of a Response.
type OCRPayload struct {
	FullText        string     `json:"full_text"`
	HighlightedText string     `json:"highlighted_text"`
	MaskPresent     bool       `json:"mask_present"`
	Boxes           []ocr.Line `json:"boxes"`
}

// Response is the result of a successful Process call.
type Response struct {
	Status        string     `json:"status"`
	Filename      string     `json:"filename"`
	SavedFilename string     `json:"saved_filename"`
	SavedRelPath  string     `json:"saved_relpath"`
	ContentType   string     `json:"content_type"`
	SizeBytes     int        `json:"size_bytes"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	Focus         Focus      `json:"focus"`
	OCR           OCRPayload `json:"ocr"`
}

// Options tunes a Processor.
type Options struct {
	// ScoreThreshold drops lines the engine is less confident about.
	ScoreThreshold float64

	// OverlapThreshold is the minimum mask overlap for a highlighted line.
	OverlapThreshold float64

	// Timeout bounds a single OCR call, including the raster retry.
	Timeout time.Duration

	// MaxImagePixels rejects uploads whose declared width times height is
	// larger, before their pixels are decoded. Zero disables the check.
	MaxImagePixels int

	// Logger is used when the request context carries no logger.
	Logger zerolog.Logger
}

// DefaultOptions returns the thresholds and timeout the service ships with.
func DefaultOptions() Options {
	return Options{
		ScoreThreshold:   ocr.DefaultScoreThreshold,
		OverlapThreshold: detection.DefaultOverlapThreshold,
		Timeout:          60 * time.Second,
		MaxImagePixels:   imaging.DefaultMaxPixels,
		Logger:           zerolog.Nop(),
	}
}

// Processor turns uploads into responses. It is safe for concurrent use.
type Processor struct {
	engine ocr.Engine
	saver  Saver
	opts   Options
}

// New returns a Processor. saver may be nil, in which case nothing is written
// and the engine is given the raster directly.
func New(engine ocr.Engine, saver Saver, opts Options) *Processor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	return &Processor{engine: engine, saver: saver, opts: opts}
}

// Process validates, decodes, saves and recognizes an upload. Failures are
// returned as *Error.
func (p *Processor) Process(ctx context.Context, up Upload) (*Response, error) {
	log := zerolog.Ctx(ctx)
	if log.GetLevel() == zerolog.Disabled {
		log = &p.opts.Logger
	}

	focus, err := ParseFocus(up.Focus)
	if err != nil {
		return nil, newError(KindInvalidInput, "focus", err)
	}
	if !strings.HasPrefix(strings.ToLower(up.ContentType), "image/") {
		return nil, newError(KindInvalidInput, "content_type", fmt.Errorf("field \"image\" must be an image (image/*), got %q", up.ContentType))
	}
	if len(up.Data) == 0 {
		return nil, newError(KindInvalidInput, "read", imaging.ErrEmptyImage)
	}

	raster, format, err := imaging.DecodeLimit(up.Data, p.opts.MaxImagePixels)
	if err != nil {
		return nil, newError(KindDecode, "decode", err)
	}

	png, err := raster.PNG()
	if err != nil {
		return nil, newError(KindPersistence, "encode", err)
	}

	resp := &Response{
		Status:      "ok",
		Filename:    up.Filename,
		ContentType: "image/png",
		SizeBytes:   len(png),
		Width:       raster.Width,
		Height:      raster.Height,
		Focus:       focus,
	}

	input := ocr.Input{Image: raster}
	if p.saver != nil {
		saved, err := p.saver.Save(up.Filename, png)
		if err != nil {
			return nil, newError(KindPersistence, "save", err)
		}
		resp.SavedFilename = saved.Filename
		resp.SavedRelPath = saved.RelPath
		resp.SizeBytes = saved.Size
		input.Path = saved.Path
	}

	log.Debug().
		Str("format", format).
		Int("width", raster.Width).
		Int("height", raster.Height).
		Str("saved", resp.SavedFilename).
		Msg("image decoded")

	raw, err := p.predict(ctx, input, log)
	if err != nil {
		return nil, err
	}

	result, err := ocr.Normalize(raw, p.opts.ScoreThreshold)
	if err != nil {
		log.Warn().Err(err).Str("engine", p.engine.Name()).Msg("unusable OCR result, continuing with no text")
	}

	resp.OCR = OCRPayload{
		FullText: result.FullText,
		Boxes:    result.Lines,
	}

	if focus == FocusHighlight {
		mask := detection.BuildHighlightMask(raster)
		sel := detection.SelectHighlighted(result.Lines, mask, p.opts.OverlapThreshold)
		sel.Annotate(resp.OCR.Boxes)
		resp.OCR.HighlightedText = sel.HighlightedText
		resp.OCR.MaskPresent = sel.MaskPresent

		log.Debug().
			Bool("mask_present", sel.MaskPresent).
			Int("mask_pixels", mask.Count()).
			Int("selected", len(sel.Matches)).
			Msg("highlight selection")
	}

	return resp, nil
}

// predict runs the engine on the saved file and falls back to the in-memory
// raster when the path attempt fails for a reason other than the deadline.
func (p *Processor) predict(ctx context.Context, in ocr.Input, log *zerolog.Logger) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := p.engine.Predict(ctx, in)
	if err != nil && in.Path != "" && ctx.Err() == nil {
		log.Warn().Err(err).Str("path", in.Path).Msg("OCR on saved file failed, retrying with raster")
		raw, err = p.engine.Predict(ctx, ocr.Input{Image: in.Image})
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, newError(KindOCRTimeout, "predict", fmt.Errorf("OCR did not finish within %s: %w", p.opts.Timeout, err))
		}
		return nil, newError(KindOCRFailed, "predict", err)
	}

	log.Debug().Str("engine", p.engine.Name()).Dur("elapsed", time.Since(start)).Msg("OCR finished")
	return raw, nil
}

// Engine returns the engine the processor recognizes with.
func (p *Processor) Engine() ocr.Engine { return p.engine }
