package mcp

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_ocr",
			Description: "Recognize text in an image. With focus \"highlight\", also report which lines were marked by hand with a coloured pen or heavy stroke.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"focus": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"full", "highlight"},
						"description": "full returns all text; highlight also selects the marked lines. Default full",
						"default":     "full",
					},
					"score_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Drop lines recognized with lower confidence (0-1). Default from OCR_SCORE_THRESHOLD",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_highlight_mask",
			Description: "Find hand-drawn highlight marks in an image and describe the marked regions.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"min_region_pixels": map[string]interface{}{
						"type":        "integer",
						"description": "Ignore marked regions smaller than this. Default 50",
						"default":     50,
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the mask as a base64-encoded PNG. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width, height and format of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
