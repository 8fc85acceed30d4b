package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/ironsheep/focus-ocr/internal/imaging"
)

// Input is what an engine recognizes: a path to a saved canonical image, or
// the raster itself. Engines use Path when it is set and fall back to Image.
type Input struct {
	Path  string
	Image *imaging.Raster
}

// Engine is an OCR capability. It is expensive to create, so one Engine is
// opened at startup, shared by all requests and closed at shutdown.
//
// Predict returns the engine's raw result; pass it to Normalize. Engines must
// honour ctx cancellation even if the underlying call cannot be interrupted.
type Engine interface {
	Name() string
	Predict(ctx context.Context, in Input) (any, error)
	Info() Info
	Close() error
}

// Info describes an engine for health reporting.
type Info struct {
	Engine    string `json:"engine"`
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Language  string `json:"language,omitempty"`
	Workers   int    `json:"workers,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Prediction is the line-level result produced by the built-in engines, named
// after the current field names Normalize looks for.
type Prediction struct {
	RecTexts  []string  `json:"rec_texts"`
	RecScores []float32 `json:"rec_scores"`
	RecPolys  [][8]int  `json:"rec_polys"`
}

// Config selects and configures an engine.
type Config struct {
	// Engine is "tesseract" (default) or "vision".
	Engine string

	// Language is the Tesseract language code, e.g. "eng" or "eng+rus".
	Language string

	// TessdataPrefix overrides the directory Tesseract loads models from.
	TessdataPrefix string

	// MaxSide downscales images whose longer side exceeds it before
	// recognition. Boxes are scaled back. 0 disables downscaling.
	MaxSide int

	// Concurrency is the number of predictions allowed in flight.
	Concurrency int

	// CredentialsJSON and CredentialsFile authenticate the vision engine.
	CredentialsJSON string
	CredentialsFile string
}

// Open creates the configured engine, bounded to cfg.Concurrency concurrent
// predictions.
func Open(ctx context.Context, cfg Config) (Engine, error) {
	var (
		engine Engine
		err    error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case "", "tesseract":
		engine, err = NewTesseract(cfg)
	case "vision":
		engine, err = NewVision(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.Engine)
	}
	if err != nil {
		return nil, err
	}
	return Limit(engine, cfg.Concurrency), nil
}

func splitLanguages(language string) []string {
	if language == "" {
		return []string{"eng"}
	}
	return strings.FieldsFunc(language, func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	})
}
