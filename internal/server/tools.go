package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the page image file (PNG, JPEG or GIF)",
	}
}

func includeImagesProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": "Include base64 PNG crops in the response. Default false",
		"default":     false,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "page_load",
			Description: "Load a page image and return its dimensions, format, and size after rescaling to the reference height used for segmentation.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "page_extract_words",
			Description: "Find the lines and words of a page in reading order (lines top to bottom, words left to right). Coordinates are in the rescaled page.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":           pathProperty(),
					"include_images": includeImagesProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "word_segment",
			Description: "Split a single word into character slices by vertical projection. Returns the profile, peaks, merges, split columns and slice ranges. The word is either a standalone image or a region of a page.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to a word image, or to a page when a region is given",
					},
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Optional region left edge (0-based)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Optional region top edge (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Optional region right edge (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Optional region bottom edge (exclusive)",
					},
					"include_images": includeImagesProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "page_segment",
			Description: "Segment a full page into lines, words and character slices. Returns the slice column ranges of every word in reading order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":           pathProperty(),
					"include_images": includeImagesProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "page_read",
			Description: "Segment a page and classify every character slice as an upper-case letter. Returns the reassembled text, one line per text line.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Defaults to the configured language",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "page_annotate",
			Description: "Draw word boxes (numbered in reading order, coloured per line) and character split columns over the rescaled page. Returns a base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"box_color": map[string]interface{}{
						"type":        "string",
						"description": "Box colour as #RRGGBB. Default: one colour per line",
					},
					"column_color": map[string]interface{}{
						"type":        "string",
						"description": "Split column colour as #RRGGBB. Default #00FF00",
					},
					"labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw line.word labels next to boxes. Default true",
						"default":     true,
					},
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
