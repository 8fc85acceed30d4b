package main

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/focus-ocr/internal/logger"
	"github.com/ironsheep/focus-ocr/internal/mcp"
	"github.com/ironsheep/focus-ocr/internal/pipeline"
	"github.com/ironsheep/focus-ocr/internal/storage"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve MCP tools over stdin/stdout",
		Long: `Serve image_ocr, image_highlight_mask and image_dimensions as MCP tools.

The server communicates via MCP protocol over stdin/stdout; logs go to stderr.
Configure it in your MCP client with the command "focus-ocr mcp".`,
		Args: cobra.NoArgs,
		RunE: runMCP,
	}
	cmd.Flags().Bool("save", false, "Save the canonical PNG of every image_ocr call to DOWNLOAD_DIR")
	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	var saver pipeline.Saver
	if save, _ := cmd.Flags().GetBool("save"); save {
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

	srv := mcp.New(proc, Version, logger.WithComponent("mcp"))
	return srv.Run(cmd.Context())
}
