package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/parkwatch/internal/imaging"
	"github.com/ironsheep/parkwatch/internal/occupancy"
	"github.com/ironsheep/parkwatch/internal/render"
	"github.com/ironsheep/parkwatch/internal/slots"
)

// errInvalidArgs marks tool calls whose arguments cannot be decoded.
var errInvalidArgs = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "lot_classify").
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
// Undecodable arguments return -32602; any other tool failure returns -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("Tool failed")
		if errors.Is(err, errInvalidArgs) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}
	s.log.Debug().Str("tool", params.Name).Dur("elapsed", time.Since(start)).Msg("Tool finished")

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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "frame_info":
		return s.handleFrameInfo(args)
	case "frame_preprocess":
		return s.handleFramePreprocess(args)
	case "lot_classify":
		return s.handleLotClassify(args)
	case "lot_render":
		return s.handleLotRender(args)
	case "slot_crop":
		return s.handleSlotCrop(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %w", errInvalidArgs, err)
	}
	return nil
}

// === Layout resolution ===

// lotArgs are the layout and threshold overrides shared by the lot tools.
type lotArgs struct {
	Path         string   `json:"path"`
	SlotsFile    string   `json:"slots_file"`
	Positions    [][]int  `json:"positions"`
	SlotWidth    int      `json:"slot_width"`
	SlotHeight   int      `json:"slot_height"`
	Reserved     *[]int   `json:"reserved"`
	FreeBelow    int      `json:"free_below"`
	OccupiedFrom int      `json:"occupied_from"`
}

// layout builds the slot layout for a call. Inline positions win over a
// slots file; anything not given comes from the server configuration.
func (s *Server) layout(a lotArgs) (*slots.Config, error) {
	w, h := s.defaults.SlotWidth, s.defaults.SlotHeight
	if a.SlotWidth > 0 {
		w = a.SlotWidth
	}
	if a.SlotHeight > 0 {
		h = a.SlotHeight
	}
	reserved := s.defaults.Reserved
	if a.Reserved != nil {
		reserved = *a.Reserved
	}

	if len(a.Positions) > 0 {
		pts := make([]image.Point, len(a.Positions))
		for i, p := range a.Positions {
			if len(p) != 2 {
				return nil, fmt.Errorf("%w: position %d has %d values, want 2", errInvalidArgs, i, len(p))
			}
			pts[i] = image.Pt(p[0], p[1])
		}
		return slots.New(pts, w, h, reserved)
	}

	file := a.SlotsFile
	if file == "" {
		file = s.defaults.SlotsFile
	}
	if file == "" {
		return nil, fmt.Errorf("no slot layout: pass positions or slots_file, or configure a slots file")
	}
	return slots.Load(file, w, h, reserved)
}

func (s *Server) classifier(a lotArgs) (*occupancy.Classifier, error) {
	t := s.defaults.Thresholds
	if a.FreeBelow > 0 {
		t.FreeBelow = a.FreeBelow
	}
	if a.OccupiedFrom > 0 {
		t.OccupiedFrom = a.OccupiedFrom
	}
	return occupancy.NewClassifier(t)
}

func (s *Server) preprocessor() (imaging.Preprocessor, error) {
	return imaging.NewPreprocessor(s.defaults.Backend, s.defaults.Preprocess)
}

// classify loads the frame of a and classifies it. The frame and layout are
// returned for tools that draw on the frame.
func (s *Server) classify(a lotArgs) (image.Image, *slots.Config, *occupancy.FrameResult, error) {
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	layout, err := s.layout(a)
	if err != nil {
		return nil, nil, nil, err
	}
	cls, err := s.classifier(a)
	if err != nil {
		return nil, nil, nil, err
	}
	pre, err := s.preprocessor()
	if err != nil {
		return nil, nil, nil, err
	}
	mask, err := pre.Preprocess(img)
	if err != nil {
		return nil, nil, nil, err
	}
	result, err := cls.Classify(mask, layout)
	if err != nil {
		return nil, nil, nil, err
	}
	return img, layout, result, nil
}

// === Frame handlers ===

type framePathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleFrameInfo(args json.RawMessage) (interface{}, error) {
	var a framePathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadFrameInfo(s.cache, a.Path)
}

type framePreprocessArgs struct {
	Path          string   `json:"path"`
	BlockSize     int      `json:"block_size"`
	Offset        *float64 `json:"offset"`
	IncludeStages bool     `json:"include_stages"`
}

// StageImage is one encoded preprocessing stage.
type StageImage struct {
	Name        string `json:"name"`
	ImageBase64 string `json:"image_base64"`
}

// PreprocessResult is returned by frame_preprocess.
type PreprocessResult struct {
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Backend    string         `json:"backend"`
	Params     imaging.Params `json:"params"`
	NonZero    int            `json:"nonzero"`
	MaskBase64 string         `json:"mask_base64"`
	MimeType   string         `json:"mime_type"`
	Stages     []StageImage   `json:"stages,omitempty"`
}

func (s *Server) handleFramePreprocess(args json.RawMessage) (interface{}, error) {
	var a framePreprocessArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	params := s.defaults.Preprocess
	if a.BlockSize > 0 {
		params.BlockSize = a.BlockSize
	}
	if a.Offset != nil {
		params.Offset = *a.Offset
	}
	pre, err := imaging.NewPreprocessor(s.defaults.Backend, params)
	if err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	stages, err := pre.Stages(img)
	if err != nil {
		return nil, err
	}

	mask := stages.Dilated
	nonzero, err := imaging.CountNonZero(mask, mask.Bounds())
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNG(mask)
	if err != nil {
		return nil, err
	}

	res := &PreprocessResult{
		Width:      mask.Bounds().Dx(),
		Height:     mask.Bounds().Dy(),
		Backend:    pre.Name(),
		NonZero:    nonzero,
		MaskBase64: encoded,
		MimeType:   "image/png",
		Params:     params,
	}
	if a.IncludeStages {
		for _, st := range stages.Named() {
			enc, err := imaging.EncodePNG(st.Image)
			if err != nil {
				return nil, err
			}
			res.Stages = append(res.Stages, StageImage{Name: st.Name, ImageBase64: enc})
		}
	}
	return res, nil
}

// === Lot handlers ===

// ClassifyResult is returned by lot_classify.
type ClassifyResult struct {
	*occupancy.FrameResult
	Counts occupancy.Tally `json:"tally"`
}

func (s *Server) handleLotClassify(args json.RawMessage) (interface{}, error) {
	var a lotArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, _, result, err := s.classify(a)
	if err != nil {
		return nil, err
	}
	return &ClassifyResult{FrameResult: result, Counts: result.Tally()}, nil
}

type lotRenderArgs struct {
	lotArgs
	Timestamp bool `json:"timestamp"`
}

// RenderResult is returned by lot_render.
type RenderResult struct {
	Width          int                    `json:"width"`
	Height         int                    `json:"height"`
	ImageBase64    string                 `json:"image_base64"`
	MimeType       string                 `json:"mime_type"`
	Classification *occupancy.FrameResult `json:"classification"`
}

func (s *Server) handleLotRender(args json.RawMessage) (interface{}, error) {
	var a lotRenderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, layout, result, err := s.classify(a.lotArgs)
	if err != nil {
		return nil, err
	}

	opts := render.DefaultOptions()
	if a.Timestamp {
		opts.Timestamp = time.Now()
	}
	out, err := render.Overlay(img, layout, result, opts)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNG(out)
	if err != nil {
		return nil, err
	}

	return &RenderResult{
		Width:          out.Bounds().Dx(),
		Height:         out.Bounds().Dy(),
		ImageBase64:    encoded,
		MimeType:       "image/png",
		Classification: result,
	}, nil
}

type slotCropArgs struct {
	lotArgs
	Index  *int    `json:"index"`
	Source string  `json:"source"`
	Scale  float64 `json:"scale"`
}

func (s *Server) handleSlotCrop(args json.RawMessage) (interface{}, error) {
	var a slotCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Index == nil {
		return nil, fmt.Errorf("%w: index is required", errInvalidArgs)
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	layout, err := s.layout(a.lotArgs)
	if err != nil {
		return nil, err
	}
	i := *a.Index
	if i < 0 || i >= layout.Len() {
		return nil, fmt.Errorf("slot index %d out of range [0,%d)", i, layout.Len())
	}

	var src image.Image
	switch a.Source {
	case "", "frame":
		src = img
	case "mask":
		pre, err := s.preprocessor()
		if err != nil {
			return nil, err
		}
		mask, err := pre.Preprocess(img)
		if err != nil {
			return nil, err
		}
		src = mask
	default:
		return nil, fmt.Errorf("%w: source must be \"frame\" or \"mask\", got %q", errInvalidArgs, a.Source)
	}

	if err := layout.Check(i, src.Bounds()); err != nil {
		return nil, err
	}
	return imaging.Crop(src, layout.Rect(i), a.Scale)
}
