package server

import "strings"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func prop(kind, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        kind,
		"description": description,
	}
}

func enumProp(description string, values ...string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
		"enum":        values,
	}
}

var matrixProp = map[string]interface{}{
	"type":        "array",
	"description": "Rows of pattern ids (1-16), e.g. [[6,10,9],[4,1,4],[1,1,1]]",
	"items": map[string]interface{}{
		"type":  "array",
		"items": map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 16},
	},
}

var symmetryProp = enumProp("Symmetry mode. Defaults to the preferred symmetry (mirror)",
	"none", "horizontal", "vertical", "mirror", "radial", "rotational2", "rotational", "diagonal")

var densityProp = enumProp("Curve density", "sparse", "medium", "dense")

// styleProperties are the customization and output options shared by the
// drawing tools.
func styleProperties() map[string]interface{} {
	return map[string]interface{}{
		"theme":          prop("string", "Theme name (see kolam_themes). Unknown themes fall back to the default with a warning"),
		"line_thickness": prop("number", "Stroke width in pattern units (a cell is 60 units)"),
		"dot_size":       prop("number", "Dot radius in pattern units"),
		"density":        densityProp,
		"stroke_color":   prop("string", "Override stroke colour as #RRGGBB"),
		"dot_color":      prop("string", "Override dot colour as #RRGGBB"),
		"width":          prop("integer", "Canvas width in pixels (64-4096). Default 500"),
		"height":         prop("integer", "Canvas height in pixels (64-4096). Default 500"),
		"include_dots":   prop("boolean", "Draw the dot grid. Default true"),
		"svg":            prop("boolean", "Also return the pattern as SVG text"),
	}
}

func withProps(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Pattern Generation
		{
			Name: "kolam_generate",
			Description: "Generate a symmetric kolam on a dot grid and render it as PNG (optionally SVG). " +
				"Returns the connectivity matrix of pattern ids, the structured pattern description and the seed used.",
			InputSchema: objectSchema(withProps(styleProperties(), map[string]interface{}{
				"dots":         prop("integer", "Square grid size (3-15). Defaults to the preferred grid size (9)"),
				"rows":         prop("integer", "Grid rows (3-15); overrides dots"),
				"cols":         prop("integer", "Grid columns (3-15); overrides dots"),
				"symmetry":     symmetryProp,
				"seed":         prop("integer", "Random seed for a reproducible pattern"),
				"connectivity": prop("number", "Chance (0-1) that a symmetric group of edges is connected. Default 0.55"),
				"save":         prop("boolean", "Save the result to the pattern library"),
				"name":         prop("string", "Name for the saved pattern"),
			})),
		},
		{
			Name:        "kolam_render",
			Description: "Render an existing connectivity matrix of pattern ids with a theme.",
			InputSchema: objectSchema(withProps(styleProperties(), map[string]interface{}{
				"matrix":   matrixProp,
				"symmetry": prop("string", "Symmetry label for the description. Detected from the matrix when omitted"),
			}), "matrix"),
		},
		{
			Name:        "kolam_check_symmetry",
			Description: "Validate a matrix and report which symmetry modes it satisfies.",
			InputSchema: objectSchema(map[string]interface{}{
				"matrix":   matrixProp,
				"symmetry": prop("string", "Mode to test. When omitted, all modes are reported"),
			}, "matrix"),
		},
		{
			Name:        "kolam_themes",
			Description: "List the available themes with their palettes.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},

		// Digitization
		{
			Name: "kolam_digitize",
			Description: "Digitize a photographed or scanned kolam: find the dot lattice, correct perspective, " +
				"classify each cell and re-render the pattern. Returns the matrix, a rectified analysis overlay and the clean rendering.",
			InputSchema: objectSchema(map[string]interface{}{
				"path":         prop("string", "Absolute path to the image file"),
				"image_base64": prop("string", "Image data as base64 (used when path is empty)"),
				"theme":        prop("string", "Theme for the re-rendered pattern"),
				"width":        prop("integer", "Width of the re-rendered image. Default 500"),
				"height":       prop("integer", "Height of the re-rendered image. Default 500"),
				"include_dots": prop("boolean", "Draw the dot grid in the re-rendered image. Default true"),
				"svg":          prop("boolean", "Also return the re-rendered pattern as SVG text"),
				"save":         prop("boolean", "Save the result to the pattern library"),
				"name":         prop("string", "Name for the saved pattern"),
			}),
		},
		{
			Name:        "kolam_compare",
			Description: "Compare the ink of two kolam images. Returns intersection-over-union and pixel agreement.",
			InputSchema: objectSchema(map[string]interface{}{
				"path_a":         prop("string", "Absolute path to the first image"),
				"path_b":         prop("string", "Absolute path to the second image"),
				"image_a_base64": prop("string", "First image as base64 (used when path_a is empty)"),
				"image_b_base64": prop("string", "Second image as base64 (used when path_b is empty)"),
				"crop_to_ink":    prop("boolean", "Trim each image to its inked area before comparing, so margins and framing are ignored"),
			}),
		},

		// Pattern Library
		{
			Name:        "pattern_save",
			Description: "Save a pattern description to the library.",
			InputSchema: objectSchema(map[string]interface{}{
				"name":          prop("string", "Pattern name"),
				"pattern":       prop("object", "Pattern description as returned by kolam_generate"),
				"preview_image": prop("string", "Base64 PNG preview"),
				"grid_size":     prop("integer", "Grid size (3-15)"),
				"theme":         prop("string", "Theme name. Default traditional"),
				"category":      enumProp("Library category", "generated", "digitized", "favorites"),
				"is_favorite":   prop("boolean", "Mark as favourite"),
			}, "name", "pattern", "grid_size"),
		},
		{
			Name:        "pattern_list",
			Description: "List saved patterns, newest first.",
			InputSchema: objectSchema(map[string]interface{}{
				"category":         enumProp("Only list this category", "generated", "digitized", "favorites"),
				"include_previews": prop("boolean", "Include base64 previews. Default false"),
			}),
		},
		{
			Name:        "pattern_get",
			Description: "Get a saved pattern by id.",
			InputSchema: objectSchema(map[string]interface{}{
				"id": prop("string", "Pattern id"),
			}, "id"),
		},
		{
			Name:        "pattern_update",
			Description: "Rename, recategorize or (un)favourite a saved pattern.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":          prop("string", "Pattern id"),
				"name":        prop("string", "New name"),
				"category":    enumProp("New category", "generated", "digitized", "favorites"),
				"is_favorite": prop("boolean", "Favourite flag"),
			}, "id"),
		},
		{
			Name:        "pattern_delete",
			Description: "Delete a saved pattern.",
			InputSchema: objectSchema(map[string]interface{}{
				"id": prop("string", "Pattern id"),
			}, "id"),
		},

		// Templates
		{
			Name:        "template_list",
			Description: "List pattern templates, featured first.",
			InputSchema: objectSchema(map[string]interface{}{
				"category":   enumProp("Template category", "daily", "festival", "wedding", "religious", "decorative", "traditional"),
				"difficulty": enumProp("Difficulty", "beginner", "intermediate", "advanced", "expert"),
				"featured":   prop("boolean", "Only featured (true) or non-featured (false) templates"),
			}),
		},
		{
			Name:        "template_get",
			Description: "Get a template by id, including its pattern description.",
			InputSchema: objectSchema(map[string]interface{}{
				"id": prop("string", "Template id"),
			}, "id"),
		},

		// Preferences
		{
			Name:        "preferences_get",
			Description: "Get the drawing preferences used as defaults by kolam_generate.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
		{
			Name:        "preferences_update",
			Description: "Update drawing preferences. Only the given fields change.",
			InputSchema: objectSchema(map[string]interface{}{
				"default_theme":     prop("string", "Default theme"),
				"default_grid_size": prop("integer", "Default grid size (3-15)"),
				"line_thickness":    prop("integer", "Default stroke width (1-10)"),
				"dot_size":          prop("integer", "Default dot radius (1-10)"),
				"pattern_density":   densityProp,
				"symmetry_type":     symmetryProp,
				"auto_save":         prop("boolean", "Client hint: save generated patterns automatically"),
			}),
		},
	}
}

// isLibraryTool reports whether a tool needs the pattern library.
func isLibraryTool(name string) bool {
	for _, prefix := range []string{"pattern_", "template_", "preferences_"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// handleToolsList returns the list of available tools. Library tools are
// listed only when a store is attached.
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	tools := GetToolDefinitions()
	if s.store == nil {
		core := tools[:0:0]
		for _, t := range tools {
			if !isLibraryTool(t.Name) {
				core = append(core, t)
			}
		}
		tools = core
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": tools,
		},
	}
}
