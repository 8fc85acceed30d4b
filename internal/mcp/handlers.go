package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/focus-ocr/internal/detection"
	"github.com/ironsheep/focus-ocr/internal/imaging"
	"github.com/ironsheep/focus-ocr/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_ocr").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000. A
// result that cannot be encoded returns -32603.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	text, err := marshalResult(result)
	if err != nil {
		s.logger.Error().Err(err).Str("tool", params.Name).Msg("tool result not encodable")
		return s.errorResponse(req.ID, -32603, "Internal error", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": text,
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_ocr":
		return s.handleImageOCR(ctx, args)
	case "image_highlight_mask":
		return s.handleImageHighlightMask(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// marshalResult converts a tool result to a pretty-printed JSON string.
func marshalResult(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// unmarshalArgs decodes tool arguments and checks the common path argument.
func unmarshalArgs(args json.RawMessage, v interface{ path() string }) error {
	if len(args) == 0 {
		return fmt.Errorf("missing arguments")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return err
	}
	if v.path() == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

type imageOCRArgs struct {
	Path           string   `json:"path"`
	Focus          string   `json:"focus"`
	ScoreThreshold *float64 `json:"score_threshold"`
}

func (a *imageOCRArgs) path() string { return a.Path }

func (s *Server) handleImageOCR(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageOCRArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	up, err := pipeline.UploadFromFile(a.Path, a.Focus)
	if err != nil {
		return nil, err
	}

	proc := s.proc
	if a.ScoreThreshold != nil {
		if *a.ScoreThreshold < 0 || *a.ScoreThreshold > 1 {
			return nil, fmt.Errorf("score_threshold must be within [0, 1], got %g", *a.ScoreThreshold)
		}
		proc = proc.WithScoreThreshold(*a.ScoreThreshold)
	}

	ctx = s.logger.WithContext(ctx)
	return proc.Process(ctx, up)
}

type highlightMaskArgs struct {
	Path            string `json:"path"`
	MinRegionPixels *int   `json:"min_region_pixels"`
	IncludeImage    bool   `json:"include_image"`
}

func (a *highlightMaskArgs) path() string { return a.Path }

// HighlightMaskResult describes the highlight mask of an image.
type HighlightMaskResult struct {
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	MaskPresent bool               `json:"mask_present"`
	PixelCount  int                `json:"pixel_count"`
	Coverage    float64            `json:"coverage"`
	Centroid    *[2]float64        `json:"centroid,omitempty"`
	Regions     []detection.Region `json:"regions"`
	ImageBase64 string             `json:"image_base64,omitempty"`
}

func (s *Server) handleImageHighlightMask(args json.RawMessage) (interface{}, error) {
	var a highlightMaskArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	minPixels := 50
	if a.MinRegionPixels != nil {
		minPixels = max(*a.MinRegionPixels, 1)
	}

	raster, _, err := imaging.LoadFile(a.Path)
	if err != nil {
		return nil, err
	}
	mask := detection.BuildHighlightMask(raster)

	res := &HighlightMaskResult{
		Width:       mask.Width,
		Height:      mask.Height,
		MaskPresent: mask.Any(),
		PixelCount:  mask.Count(),
		Regions:     mask.Regions(minPixels),
	}
	if total := mask.Width * mask.Height; total > 0 {
		res.Coverage = float64(res.PixelCount) / float64(total)
	}
	if x, y, ok := mask.Centroid(); ok {
		res.Centroid = &[2]float64{x, y}
	}
	if a.IncludeImage {
		data, err := imaging.EncodePNG(mask.Gray())
		if err != nil {
			return nil, err
		}
		res.ImageBase64 = base64.StdEncoding.EncodeToString(data)
	}
	return res, nil
}

type imageDimensionsArgs struct {
	Path string `json:"path"`
}

func (a *imageDimensionsArgs) path() string { return a.Path }

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageDimensionsArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	raster, format, err := imaging.LoadFile(a.Path)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"width":  raster.Width,
		"height": raster.Height,
		"format": format,
	}, nil
}
