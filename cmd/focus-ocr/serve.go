package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/focus-ocr/internal/logger"
	"github.com/ironsheep/focus-ocr/internal/server"
	"github.com/ironsheep/focus-ocr/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long: `Run the HTTP service: POST /ocr, GET /check and GET /health.

Environment variables:
  HOST, PORT                      listen address (0.0.0.0:8000)
  DOWNLOAD_DIR                    where uploaded images are saved (downloads)
  MAX_UPLOAD_MB                   largest accepted image (20)
  OCR_ENGINE                      tesseract or vision (tesseract)
  OCR_LANGUAGE                    Tesseract language, e.g. eng+deu (eng)
  OCR_SCORE_THRESHOLD             minimum line confidence (0.5)
  OCR_OVERLAP_THRESHOLD           minimum highlight overlap (0.28)
  OCR_CONCURRENCY                 OCR calls in flight (1)
  OCR_TIMEOUT                     per-request OCR limit (60s)
  OCR_MAX_SIDE                    downscale larger images before OCR (0 = off)
  OCR_TESSDATA_PREFIX             Tesseract model directory
  GOOGLE_CREDENTIALS              inline service account JSON (vision)
  GOOGLE_APPLICATION_CREDENTIALS  service account file (vision)
  RETENTION_MAX_AGE               delete saved images older than this (0 = keep)
  RETENTION_SCHEDULE              when to sweep (@hourly)
  LOG_LEVEL, LOG_FORMAT, LOG_TIME_FORMAT, LOG_OUTPUT`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()
	log := logger.WithComponent("serve")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(a.cfg.DownloadDir)
	if err != nil {
		return err
	}

	proc, engine, err := a.openProcessor(ctx, store)
	if err != nil {
		return err
	}
	defer engine.Close()

	if a.cfg.RetentionMaxAge > 0 {
		retention, err := storage.NewRetention(store, a.cfg.RetentionMaxAge, a.cfg.RetentionSchedule, logger.WithComponent("retention"))
		if err != nil {
			return err
		}
		retention.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			retention.Stop(stopCtx)
		}()
	}

	srv := server.New(proc, server.Options{
		MaxUploadBytes: a.cfg.MaxUploadBytes(),
		Version:        Version,
		Logger:         logger.WithComponent("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(a.cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}
	return nil
}
