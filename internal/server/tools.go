package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// lotProperties returns the schema properties shared by tools that need a
// slot layout. Every property is optional and falls back to the server
// configuration.
func lotProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the frame image",
		},
		"slots_file": map[string]interface{}{
			"type":        "string",
			"description": "Slot positions file (.json [[x,y],...], .toml positions = [[x,y],...], or a pickled CarParkPos list). Defaults to the configured file",
		},
		"positions": map[string]interface{}{
			"type":        "array",
			"description": "Inline slot top-left corners as [[x,y],...]; takes precedence over slots_file",
			"items": map[string]interface{}{
				"type":     "array",
				"items":    map[string]interface{}{"type": "integer"},
				"minItems": 2,
				"maxItems": 2,
			},
		},
		"slot_width": map[string]interface{}{
			"type":        "integer",
			"description": "Slot width in pixels",
			"default":     107,
		},
		"slot_height": map[string]interface{}{
			"type":        "integer",
			"description": "Slot height in pixels",
			"default":     48,
		},
		"reserved": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "integer"},
			"description": "Indices of reserved slots",
		},
		"free_below": map[string]interface{}{
			"type":        "integer",
			"description": "Slots with fewer mask pixels are free",
			"default":     900,
		},
		"occupied_from": map[string]interface{}{
			"type":        "integer",
			"description": "Slots with at least this many mask pixels are occupied; counts in between are misaligned",
			"default":     1500,
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	renderProps := lotProperties()
	renderProps["timestamp"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Draw the current time in the top-left corner",
		"default":     false,
	}

	cropProps := lotProperties()
	cropProps["index"] = map[string]interface{}{
		"type":        "integer",
		"description": "Slot index (0-based, in layout order)",
	}
	cropProps["source"] = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"frame", "mask"},
		"description": "Crop from the color frame or from the binary mask",
		"default":     "frame",
	}
	cropProps["scale"] = map[string]interface{}{
		"type":        "number",
		"description": "Optional scale factor (e.g., 4.0 to enlarge a slot). Default 1.0",
		"default":     1.0,
	}

	return []Tool{
		{
			Name:        "frame_info",
			Description: "Load a frame and return its dimensions, format, and whether it has color channels (single-channel frames cannot be classified).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the frame image",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "frame_preprocess",
			Description: "Run the preprocessing pipeline (grayscale, blur, adaptive threshold, median, dilate) and return the binary mask as base64 PNG with its non-zero pixel count. Optionally returns every intermediate stage.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the frame image",
					},
					"block_size": map[string]interface{}{
						"type":        "integer",
						"description": "Adaptive threshold neighborhood size (odd)",
						"default":     25,
					},
					"offset": map[string]interface{}{
						"type":        "number",
						"description": "Adaptive threshold offset subtracted from the local mean",
						"default":     16.0,
					},
					"include_stages": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the gray, blurred, threshold and median stages",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "lot_classify",
			Description: "Classify every parking slot of a frame as reserved, free, misaligned, or occupied from the edge density inside the slot, and return the per-slot counts with the free total.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": lotProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "lot_render",
			Description: "Classify a frame and return the annotated overlay (slot rectangles colored by state, labels, free count banner) as base64 PNG together with the classification.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": renderProps,
				"required":   []string{"path"},
			},
		},
		{
			Name:        "slot_crop",
			Description: "Crop one slot from the frame or from its binary mask and return it as base64 PNG. Use this to inspect why a slot was classified the way it was.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": cropProps,
				"required":   []string{"path", "index"},
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
