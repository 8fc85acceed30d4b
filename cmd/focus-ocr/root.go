package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ironsheep/focus-ocr/internal/config"
	"github.com/ironsheep/focus-ocr/internal/logger"
	"github.com/ironsheep/focus-ocr/internal/ocr"
	"github.com/ironsheep/focus-ocr/internal/pipeline"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "focus-ocr",
		Short: "OCR with hand-drawn highlight selection",
		Long: `focus-ocr recognizes text in uploaded images and, on request, returns only
the lines a reviewer marked with a coloured pen or a heavy stroke.

Configuration is read from the environment and from a .env file in the
working directory. See "focus-ocr serve --help" for the variables.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("env-file", ".env", "Path to a .env file to load")

	root.AddCommand(newServeCmd(), newScanCmd(), newMCPCmd(), newVersionCmd())
	return root
}

// app is what every command needs after startup.
type app struct {
	cfg       *config.Config
	logCloser io.Closer
}

// bootstrap loads .env and the configuration, then sets up logging. MCP and
// scan keep stdout for their own output, so they force logs to stderr when
// LOG_OUTPUT would have sent them to stdout.
func bootstrap(cmd *cobra.Command, forceStderr bool) (*app, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logCfg := cfg.GetLoggerConfig()
	if forceStderr && (logCfg.Output == "" || logCfg.Output == "stdout") {
		logCfg.Output = "stderr"
	}
	closer, err := logger.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Debug().
		Str("version", Version).
		Str("engine", cfg.OCREngine).
		Msg("configuration loaded")

	return &app{cfg: cfg, logCloser: closer}, nil
}

// openProcessor opens the configured engine and wraps it in a Processor.
// Callers close the engine.
func (a *app) openProcessor(ctx context.Context, saver pipeline.Saver) (*pipeline.Processor, ocr.Engine, error) {
	engine, err := ocr.Open(ctx, a.cfg.OCRConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("open OCR engine: %w", err)
	}

	info := engine.Info()
	ocrLog := logger.WithComponent("ocr")
	ocrLog.Info().
		Str("engine", info.Engine).
		Str("version", info.Version).
		Str("language", info.Language).
		Int("workers", info.Workers).
		Msg("OCR engine ready")

	proc := pipeline.New(engine, saver, pipeline.Options{
		ScoreThreshold:   a.cfg.ScoreThreshold,
		OverlapThreshold: a.cfg.OverlapThreshold,
		Timeout:          a.cfg.OCRTimeout,
		MaxImagePixels:   a.cfg.MaxImagePixels,
		Logger:           logger.WithComponent("pipeline"),
	})
	return proc, engine, nil
}

func (a *app) close() {
	a.logCloser.Close()
}
