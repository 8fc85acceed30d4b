package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/focus-ocr/internal/logger"
	"github.com/ironsheep/focus-ocr/internal/pipeline"
	"github.com/ironsheep/focus-ocr/internal/storage"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Recognize one local image and print the JSON response",
		Example: `  # All text
  focus-ocr scan receipt.jpg

  # Only the lines marked with a highlighter, keeping a copy in DOWNLOAD_DIR
  focus-ocr scan receipt.jpg --focus highlight --save`,
		Args: cobra.ExactArgs(1),
		RunE: runScan,
	}
	cmd.Flags().String("focus", "full", "full or highlight")
	cmd.Flags().Float64("threshold", -1, "Minimum line confidence (default OCR_SCORE_THRESHOLD)")
	cmd.Flags().Bool("save", false, "Save the canonical PNG to DOWNLOAD_DIR")
	cmd.Flags().Bool("compact", false, "Print JSON on one line")
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	focus, _ := cmd.Flags().GetString("focus")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	save, _ := cmd.Flags().GetBool("save")
	compact, _ := cmd.Flags().GetBool("compact")

	up, err := pipeline.UploadFromFile(args[0], focus)
	if err != nil {
		return err
	}

	var saver pipeline.Saver
	if save {
		store, err := storage.New(a.cfg.DownloadDir)
		if err != nil {
			return err
		}
		saver = store
	}

	proc, engine, err := a.openProcessor(cmd.Context(), saver)
	if err != nil {
		return err
	}
	defer engine.Close()

	if threshold >= 0 {
		if threshold > 1 {
			return fmt.Errorf("--threshold must be within [0, 1], got %g", threshold)
		}
		proc = proc.WithScoreThreshold(threshold)
	}

	ctx := logger.WithComponent("scan").WithContext(cmd.Context())
	resp, err := proc.Process(ctx, up)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(resp)
}
