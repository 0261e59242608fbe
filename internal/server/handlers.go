package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/ironsheep/kolam-tools-mcp/internal/dataset"
	"github.com/ironsheep/kolam-tools-mcp/internal/digitize"
	"github.com/ironsheep/kolam-tools-mcp/internal/generator"
	"github.com/ironsheep/kolam-tools-mcp/internal/imaging"
	"github.com/ironsheep/kolam-tools-mcp/internal/kolam"
	"github.com/ironsheep/kolam-tools-mcp/internal/library"
)

// errNoLibrary is returned by library tools when no store is attached.
var errNoLibrary = errors.New("pattern library is disabled (set KOLAM_DB_PATH)")

// templatePreviewSize is the canvas size of seeded template previews.
const templatePreviewSize = 200

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "kolam_generate").
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
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Fills unset options from the stored preferences
//  3. Calls the generator, digitizer or library
//  4. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if isLibraryTool(name) && s.store == nil {
		return nil, errNoLibrary
	}

	switch name {
	// Pattern Generation
	case "kolam_generate":
		return s.handleKolamGenerate(ctx, args)
	case "kolam_render":
		return s.handleKolamRender(ctx, args)
	case "kolam_check_symmetry":
		return s.handleKolamCheckSymmetry(args)
	case "kolam_themes":
		return s.handleKolamThemes()

	// Digitization
	case "kolam_digitize":
		return s.handleKolamDigitize(ctx, args)
	case "kolam_compare":
		return s.handleKolamCompare(args)

	// Pattern Library
	case "pattern_save":
		return s.handlePatternSave(ctx, args)
	case "pattern_list":
		return s.handlePatternList(ctx, args)
	case "pattern_get":
		return s.handlePatternGet(ctx, args)
	case "pattern_update":
		return s.handlePatternUpdate(ctx, args)
	case "pattern_delete":
		return s.handlePatternDelete(ctx, args)

	// Templates
	case "template_list":
		return s.handleTemplateList(ctx, args)
	case "template_get":
		return s.handleTemplateGet(ctx, args)

	// Preferences
	case "preferences_get":
		return s.store.GetPreferences(ctx)
	case "preferences_update":
		return s.handlePreferencesUpdate(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments; absent arguments leave v unchanged.
func decodeArgs(args json.RawMessage, v interface{}) error {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// preferences returns the stored preferences, or the defaults when the
// library is disabled.
func (s *Server) preferences(ctx context.Context) (*library.Preferences, error) {
	if s.store == nil {
		p := library.DefaultPreferences()
		return &p, nil
	}
	return s.store.GetPreferences(ctx)
}

// === Pattern Generation Handlers ===

// styleArgs are the drawing options shared by kolam_generate and
// kolam_render.
type styleArgs struct {
	Theme         string  `json:"theme"`
	LineThickness float64 `json:"line_thickness"`
	DotSize       float64 `json:"dot_size"`
	Density       string  `json:"density"`
	StrokeColor   string  `json:"stroke_color"`
	DotColor      string  `json:"dot_color"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	IncludeDots   *bool   `json:"include_dots"`
	SVG           bool    `json:"svg"`
}

func (a *styleArgs) applyPreferences(p *library.Preferences) {
	if a.Theme == "" {
		a.Theme = p.DefaultTheme
	}
	if a.LineThickness == 0 {
		a.LineThickness = float64(p.LineThickness)
	}
	if a.DotSize == 0 {
		a.DotSize = float64(p.DotSize)
	}
	if a.Density == "" {
		a.Density = p.Density
	}
}

func (a styleArgs) customization() kolam.Customization {
	return kolam.Customization{
		LineThickness: a.LineThickness,
		DotSize:       a.DotSize,
		Density:       kolam.Density(a.Density),
		StrokeColor:   a.StrokeColor,
		DotColor:      a.DotColor,
	}
}

func (a styleArgs) output() generator.Output {
	return generator.Output{
		Width:    a.Width,
		Height:   a.Height,
		HideDots: a.IncludeDots != nil && !*a.IncludeDots,
		SVG:      a.SVG,
	}
}

type kolamGenerateArgs struct {
	styleArgs
	Dots         int     `json:"dots"`
	Rows         int     `json:"rows"`
	Cols         int     `json:"cols"`
	Symmetry     string  `json:"symmetry"`
	Seed         *uint64 `json:"seed"`
	Connectivity float64 `json:"connectivity"`
	Save         bool    `json:"save"`
	Name         string  `json:"name"`
}

type generateResult struct {
	*generator.Result
	SavedID string `json:"saved_id,omitempty"`
}

func (s *Server) handleKolamGenerate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a kolamGenerateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	prefs, err := s.preferences(ctx)
	if err != nil {
		return nil, err
	}
	a.applyPreferences(prefs)
	if a.Dots == 0 && a.Rows == 0 && a.Cols == 0 {
		a.Dots = prefs.DefaultGridSize
	}
	if a.Symmetry == "" {
		a.Symmetry = prefs.Symmetry
	}

	res, err := s.gen.Generate(ctx, generator.Request{
		Dots:          a.Dots,
		Rows:          a.Rows,
		Cols:          a.Cols,
		Symmetry:      a.Symmetry,
		Theme:         a.Theme,
		Seed:          a.Seed,
		Connectivity:  a.Connectivity,
		Customization: a.customization(),
		Output:        a.output(),
	})
	if err != nil {
		return nil, err
	}

	out := &generateResult{Result: res}
	if a.Save {
		out.SavedID, err = s.savePattern(ctx, a.Name, library.CategoryGenerated, res.Pattern, res.Image.ImageBase64)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

type kolamRenderArgs struct {
	styleArgs
	Matrix   [][]int `json:"matrix"`
	Symmetry string  `json:"symmetry"`
}

func (s *Server) handleKolamRender(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a kolamRenderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	m, err := kolam.MatrixFromPatternIDs(a.Matrix)
	if err != nil {
		return nil, err
	}
	prefs, err := s.preferences(ctx)
	if err != nil {
		return nil, err
	}
	a.applyPreferences(prefs)

	var warnings []string
	sym, ok := kolam.ParseSymmetry(a.Symmetry)
	switch {
	case !ok && a.Symmetry != "":
		warnings = append(warnings, fmt.Sprintf("unknown symmetry %q, detecting from the matrix", a.Symmetry))
	case ok && !kolam.Satisfies(m, sym):
		warnings = append(warnings, fmt.Sprintf("matrix is not %s symmetric, detecting from the matrix", sym))
		ok = false
	}
	if !ok {
		sym = kolam.SymmetryNone
		if found := kolam.Detect(m); len(found) > 0 {
			sym = found[0]
		}
	}

	res, err := s.gen.RenderMatrix(ctx, m, generator.RenderRequest{
		Symmetry:      sym,
		Theme:         a.Theme,
		Customization: a.customization(),
		Output:        a.output(),
	})
	if err != nil {
		return nil, err
	}
	res.Pattern.ID = fmt.Sprintf("rendered-%dx%d", m.Rows(), m.Cols())
	res.Warnings = append(warnings, res.Warnings...)
	return res, nil
}

type kolamCheckSymmetryArgs struct {
	Matrix   [][]int `json:"matrix"`
	Symmetry string  `json:"symmetry"`
}

type checkSymmetryResult struct {
	Rows      int              `json:"rows"`
	Cols      int              `json:"cols"`
	Symmetry  kolam.Symmetry   `json:"symmetry,omitempty"`
	Satisfied *bool            `json:"satisfied,omitempty"`
	Detected  []kolam.Symmetry `json:"detected"`
	Connected int              `json:"connected_edges"`
}

func (s *Server) handleKolamCheckSymmetry(args json.RawMessage) (interface{}, error) {
	var a kolamCheckSymmetryArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	m, err := kolam.MatrixFromPatternIDs(a.Matrix)
	if err != nil {
		return nil, err
	}

	res := &checkSymmetryResult{
		Rows:      m.Rows(),
		Cols:      m.Cols(),
		Detected:  kolam.Detect(m),
		Connected: m.Connected(),
	}
	if res.Detected == nil {
		res.Detected = []kolam.Symmetry{}
	}
	if a.Symmetry != "" {
		sym, ok := kolam.ParseSymmetry(a.Symmetry)
		if !ok {
			return nil, fmt.Errorf("unknown symmetry %q (known: %v)", a.Symmetry, kolam.Symmetries())
		}
		satisfied := kolam.Satisfies(m, sym)
		res.Symmetry = sym
		res.Satisfied = &satisfied
	}
	return res, nil
}

type themeInfo struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Palette     dataset.PaletteHex `json:"palette"`
	Default     bool               `json:"default,omitempty"`
}

type themesResult struct {
	Themes     []themeInfo      `json:"themes"`
	Default    string           `json:"default_theme"`
	Source     string           `json:"source"`
	Symmetries []kolam.Symmetry `json:"symmetries"`
}

func (s *Server) handleKolamThemes() (interface{}, error) {
	data := s.gen.Dataset()
	def := data.DefaultTheme().Name
	res := &themesResult{
		Default:    def,
		Source:     data.Source(),
		Symmetries: kolam.Symmetries(),
	}
	for _, t := range data.Themes() {
		res.Themes = append(res.Themes, themeInfo{
			Name:        t.Name,
			Description: t.Description,
			Palette:     t.Palette.Hex(),
			Default:     t.Name == def,
		})
	}
	return res, nil
}

// === Digitization Handlers ===

// readImage returns the bytes of an image given as a file path or base64.
func readImage(path, b64, field string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		return data, nil
	}
	if b64 == "" {
		return nil, fmt.Errorf("%s: either a path or base64 image data is required", field)
	}
	return imaging.DecodeBase64(b64)
}

type kolamDigitizeArgs struct {
	Path        string `json:"path"`
	ImageBase64 string `json:"image_base64"`
	Theme       string `json:"theme"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	IncludeDots *bool  `json:"include_dots"`
	SVG         bool   `json:"svg"`
	Save        bool   `json:"save"`
	Name        string `json:"name"`
}

type digitizeResult struct {
	*digitize.Result
	SavedID string `json:"saved_id,omitempty"`
}

func (s *Server) handleKolamDigitize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a kolamDigitizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	data, err := readImage(a.Path, a.ImageBase64, "image")
	if err != nil {
		return nil, err
	}
	if a.Theme == "" {
		prefs, err := s.preferences(ctx)
		if err != nil {
			return nil, err
		}
		a.Theme = prefs.DefaultTheme
	}

	res, err := s.dig.Digitize(ctx, digitize.Request{
		Image: data,
		Theme: a.Theme,
		Output: generator.Output{
			Width:    a.Width,
			Height:   a.Height,
			HideDots: a.IncludeDots != nil && !*a.IncludeDots,
			SVG:      a.SVG,
		},
	})
	if err != nil {
		return nil, err
	}

	out := &digitizeResult{Result: res}
	if a.Save {
		out.SavedID, err = s.savePattern(ctx, a.Name, library.CategoryDigitized, res.Pattern, res.DigitizedImage.ImageBase64)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

type kolamCompareArgs struct {
	PathA     string `json:"path_a"`
	PathB     string `json:"path_b"`
	ImageA    string `json:"image_a_base64"`
	ImageB    string `json:"image_b_base64"`
	CropToInk bool   `json:"crop_to_ink"`
}

// compareInkPad is the margin kept around the ink by crop_to_ink.
const compareInkPad = 2

func (s *Server) handleKolamCompare(args json.RawMessage) (interface{}, error) {
	var a kolamCompareArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	imgA, err := decodeImage(a.PathA, a.ImageA, "image_a")
	if err != nil {
		return nil, err
	}
	imgB, err := decodeImage(a.PathB, a.ImageB, "image_b")
	if err != nil {
		return nil, err
	}
	if a.CropToInk {
		imgA = imaging.CropToInk(imgA, compareInkPad)
		imgB = imaging.CropToInk(imgB, compareInkPad)
	}
	return imaging.CompareImages(imgA, imgB), nil
}

func decodeImage(path, b64, field string) (image.Image, error) {
	if path != "" {
		img, _, err := imaging.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		return img, nil
	}
	data, err := readImage("", b64, field)
	if err != nil {
		return nil, err
	}
	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return img, nil
}

// === Pattern Library Handlers ===

// savePattern stores p with its preview and returns the new id.
func (s *Server) savePattern(ctx context.Context, name, category string, p *kolam.Pattern, preview string) (string, error) {
	if s.store == nil {
		return "", errNoLibrary
	}
	body, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	if name == "" {
		name = p.Name
	}
	saved, err := s.store.SavePattern(ctx, library.NewPattern{
		Name:     name,
		Pattern:  body,
		Preview:  preview,
		GridSize: max(p.Grid.Rows, p.Grid.Cols),
		Theme:    p.Theme,
		Category: category,
	})
	if err != nil {
		return "", err
	}
	return saved.ID, nil
}

type patternSaveArgs struct {
	Name         string          `json:"name"`
	Pattern      json.RawMessage `json:"pattern"`
	PreviewImage string          `json:"preview_image"`
	GridSize     int             `json:"grid_size"`
	Theme        string          `json:"theme"`
	Category     string          `json:"category"`
	IsFavorite   bool            `json:"is_favorite"`
}

func (s *Server) handlePatternSave(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a patternSaveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.store.SavePattern(ctx, library.NewPattern{
		Name:     a.Name,
		Pattern:  a.Pattern,
		Preview:  a.PreviewImage,
		GridSize: a.GridSize,
		Theme:    a.Theme,
		Category: a.Category,
		Favorite: a.IsFavorite,
	})
}

type patternListArgs struct {
	Category        string `json:"category"`
	IncludePreviews bool   `json:"include_previews"`
}

func (s *Server) handlePatternList(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a patternListArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	patterns, err := s.store.ListPatterns(ctx, a.Category, a.IncludePreviews)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"patterns": patterns,
		"count":    len(patterns),
	}, nil
}

type idArgs struct {
	ID string `json:"id"`
}

func (a idArgs) check() error {
	if a.ID == "" {
		return errors.New("id is required")
	}
	return nil
}

func (s *Server) handlePatternGet(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a idArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.check(); err != nil {
		return nil, err
	}
	return s.store.GetPattern(ctx, a.ID)
}

type patternUpdateArgs struct {
	idArgs
	library.PatternUpdate
}

func (s *Server) handlePatternUpdate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a patternUpdateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.check(); err != nil {
		return nil, err
	}
	return s.store.UpdatePattern(ctx, a.ID, a.PatternUpdate)
}

func (s *Server) handlePatternDelete(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a idArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.check(); err != nil {
		return nil, err
	}
	if err := s.store.DeletePattern(ctx, a.ID); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"id":      a.ID,
		"deleted": true,
	}, nil
}

// === Template Handlers ===

func (s *Server) handleTemplateList(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var f library.TemplateFilter
	if err := decodeArgs(args, &f); err != nil {
		return nil, err
	}
	templates, err := s.store.ListTemplates(ctx, f)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"templates": templates,
		"count":     len(templates),
	}, nil
}

func (s *Server) handleTemplateGet(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a idArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.check(); err != nil {
		return nil, err
	}
	return s.store.GetTemplate(ctx, a.ID)
}

// SeedTemplates fills an empty template table with the built-in templates,
// each generated with mirror symmetry.
func (s *Server) SeedTemplates(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, errNoLibrary
	}
	return s.store.SeedDefaults(ctx, s.renderTemplate)
}

func (s *Server) renderTemplate(ctx context.Context, gridSize int) (json.RawMessage, string, error) {
	res, err := s.gen.Generate(ctx, generator.Request{
		Dots:     gridSize,
		Symmetry: string(kolam.SymmetryMirror),
		Output:   generator.Output{Width: templatePreviewSize, Height: templatePreviewSize},
	})
	if err != nil {
		return nil, "", err
	}
	body, err := json.Marshal(res.Pattern)
	if err != nil {
		return nil, "", err
	}
	return body, res.Image.ImageBase64, nil
}

// === Preference Handlers ===

func (s *Server) handlePreferencesUpdate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var u library.PreferencesUpdate
	if err := decodeArgs(args, &u); err != nil {
		return nil, err
	}
	return s.store.UpdatePreferences(ctx, u)
}
