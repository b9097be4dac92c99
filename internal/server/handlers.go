package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/ironsheep/handseg-mcp/internal/detection"
	"github.com/ironsheep/handseg-mcp/internal/imaging"
	"github.com/ironsheep/handseg-mcp/internal/ocr"
	"github.com/ironsheep/handseg-mcp/internal/pipeline"
	"github.com/ironsheep/handseg-mcp/internal/segerr"
	"github.com/ironsheep/handseg-mcp/internal/segment"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "page_load", "word_segment").
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
// Segmentation failures carry their error code, stage, line and word in data.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.logger.Info("tool failed", zap.String("tool", params.Name), zap.Error(err))
		var se *segerr.Error
		if errors.As(err, &se) {
			return s.errorResponse(req.ID, -32000, "Tool execution failed", se.ToMap())
		}
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "page_load":
		return s.handlePageLoad(args)
	case "page_extract_words":
		return s.handlePageExtractWords(args)
	case "word_segment":
		return s.handleWordSegment(args)
	case "page_segment":
		return s.handlePageSegment(args)
	case "page_read":
		return s.handlePageRead(args)
	case "page_annotate":
		return s.handlePageAnnotate(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
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

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return errors.New("missing arguments")
	}
	return json.Unmarshal(args, v)
}

// === Page Handlers ===

type pageArgs struct {
	Path          string `json:"path"`
	IncludeImages bool   `json:"include_images"`
}

func (s *Server) handlePageLoad(args json.RawMessage) (interface{}, error) {
	var a pageArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadPageInfo(s.cache, a.Path, s.pipe.Config().PageHeight)
}

type wordEntry struct {
	Index int                   `json:"index"`
	Box   detection.Box         `json:"box"`
	Image *imaging.EncodedImage `json:"image,omitempty"`
}

type lineEntry struct {
	Index int         `json:"index"`
	Band  int         `json:"band"`
	Words []wordEntry `json:"words"`
}

type extractResult struct {
	Path      string      `json:"path"`
	LineCount int         `json:"line_count"`
	WordCount int         `json:"word_count"`
	Lines     []lineEntry `json:"lines"`
}

func (s *Server) handlePageExtractWords(args json.RawMessage) (interface{}, error) {
	var a pageArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	lines, err := s.pipe.Extractor().Extract(img)
	if err != nil {
		return nil, err
	}

	res := &extractResult{Path: a.Path, Lines: make([]lineEntry, 0, len(lines))}
	for li, l := range lines {
		entry := lineEntry{Index: li, Band: l.Band, Words: make([]wordEntry, 0, len(l.Words))}
		for wi, w := range l.Words {
			we := wordEntry{Index: wi, Box: w.Box}
			if a.IncludeImages {
				if we.Image, err = imaging.Encode(w.ROI); err != nil {
					return nil, err
				}
			}
			entry.Words = append(entry.Words, we)
		}
		res.WordCount += len(l.Words)
		res.Lines = append(res.Lines, entry)
	}
	res.LineCount = len(res.Lines)
	return res, nil
}

// === Word Handlers ===

type wordSegmentArgs struct {
	Path          string `json:"path"`
	X1            *int   `json:"x1"`
	Y1            *int   `json:"y1"`
	X2            *int   `json:"x2"`
	Y2            *int   `json:"y2"`
	IncludeImages bool   `json:"include_images"`
}

type wordSegmentResult struct {
	*segment.Result
	Images []*imaging.EncodedImage `json:"images,omitempty"`
}

func (s *Server) handleWordSegment(args json.RawMessage) (interface{}, error) {
	var a wordSegmentArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	word, err := s.loadWord(a)
	if err != nil {
		return nil, err
	}

	res, err := s.pipe.Segmenter().Segment(word)
	if err != nil {
		return nil, err
	}

	out := &wordSegmentResult{Result: res}
	if a.IncludeImages {
		if out.Images, err = encodeSlices(res.Slices); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// loadWord returns the standalone word image at a.Path, or the region of
// the page at a.Path when all four region coordinates are given.
func (s *Server) loadWord(a wordSegmentArgs) (image.Image, error) {
	region := []*int{a.X1, a.Y1, a.X2, a.Y2}
	given := 0
	for _, v := range region {
		if v != nil {
			given++
		}
	}

	switch given {
	case 0:
		return s.cache.LoadWord(a.Path)
	case 4:
		page, err := s.cache.Load(a.Path)
		if err != nil {
			return nil, err
		}
		r := image.Rect(*a.X1, *a.Y1, *a.X2, *a.Y2)
		crop, err := imaging.CropRegion(imaging.ToGray(page), r)
		if err != nil {
			return nil, segerr.Wrap(segerr.KindInvalidImage, "load", err)
		}
		return crop, nil
	default:
		return nil, errors.New("a word region needs all of x1, y1, x2, y2")
	}
}

func encodeSlices(slices []segment.Slice) ([]*imaging.EncodedImage, error) {
	out := make([]*imaging.EncodedImage, 0, len(slices))
	for _, sl := range slices {
		enc, err := imaging.Encode(sl.Image)
		if err != nil {
			return nil, err
		}
		out = append(out, enc)
	}
	return out, nil
}

// === Segmentation Handlers ===

type sliceEntry struct {
	Start int                   `json:"start"`
	End   int                   `json:"end"`
	Image *imaging.EncodedImage `json:"image,omitempty"`
}

type segmentedWord struct {
	Index  int           `json:"index"`
	Box    detection.Box `json:"box"`
	Slices []sliceEntry  `json:"slices"`
}

type segmentedLine struct {
	Index int             `json:"index"`
	Band  int             `json:"band"`
	Words []segmentedWord `json:"words"`
}

type pageSegmentResult struct {
	Path           string          `json:"path"`
	RunID          string          `json:"run_id"`
	Empty          bool            `json:"empty"`
	CharacterCount int             `json:"character_count"`
	Lines          []segmentedLine `json:"lines"`
}

func (s *Server) handlePageSegment(args json.RawMessage) (interface{}, error) {
	var a pageArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	page, err := s.pipe.Segment(img)
	if err != nil {
		return nil, err
	}

	res := &pageSegmentResult{
		Path:  a.Path,
		RunID: page.RunID,
		Empty: page.Empty(),
		Lines: make([]segmentedLine, 0, len(page.Lines)),
	}
	for li, l := range page.Lines {
		sl := segmentedLine{Index: li, Band: l.Band, Words: make([]segmentedWord, 0, len(l.Words))}
		for wi, w := range l.Words {
			sw := segmentedWord{Index: wi, Box: w.Box, Slices: make([]sliceEntry, 0, len(w.Slices))}
			for _, c := range w.Slices {
				e := sliceEntry{Start: c.Start, End: c.End}
				if a.IncludeImages {
					if e.Image, err = imaging.Encode(c.Image); err != nil {
						return nil, err
					}
				}
				sw.Slices = append(sw.Slices, e)
			}
			res.CharacterCount += len(w.Slices)
			sl.Words = append(sl.Words, sw)
		}
		res.Lines = append(res.Lines, sl)
	}
	return res, nil
}

type pageReadArgs struct {
	Path     string `json:"path"`
	Language string `json:"language"`
}

type pageReadResult struct {
	Path           string `json:"path"`
	RunID          string `json:"run_id"`
	Text           string `json:"text"`
	LineCount      int    `json:"line_count"`
	CharacterCount int    `json:"character_count"`
}

func (s *Server) handlePageRead(args json.RawMessage) (interface{}, error) {
	var a pageReadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	r, err := s.pipe.Read(context.Background(), img, s.classifierFor(a.Language))
	if err != nil {
		return nil, err
	}
	return &pageReadResult{
		Path:           a.Path,
		RunID:          r.Page.RunID,
		Text:           r.Text,
		LineCount:      len(r.Page.Lines),
		CharacterCount: len(r.Page.Characters()),
	}, nil
}

// classifierFor returns the configured classifier, or a Tesseract classifier
// for language when none was configured.
func (s *Server) classifierFor(language string) ocr.Classifier {
	if s.classifier != nil {
		return s.classifier
	}
	if language == "" {
		language = s.pipe.Config().Language
	}
	return ocr.NewTesseractClassifier(language)
}

// === Overlay Handlers ===

type pageAnnotateArgs struct {
	Path        string `json:"path"`
	BoxColor    string `json:"box_color"`
	ColumnColor string `json:"column_color"`
	Labels      *bool  `json:"labels"`
}

type pageAnnotateResult struct {
	*imaging.EncodedImage
	LineCount   int `json:"line_count"`
	WordCount   int `json:"word_count"`
	ColumnCount int `json:"column_count"`
}

func (s *Server) handlePageAnnotate(args json.RawMessage) (interface{}, error) {
	var a pageAnnotateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	labels := true
	if a.Labels != nil {
		labels = *a.Labels
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	prep, err := imaging.Prepare(img, detection.OptionsFromConfig(s.pipe.Config()).Prep)
	if err != nil {
		return nil, err
	}
	lines, err := s.pipe.Extractor().ExtractPrepared(prep)
	if err != nil {
		return nil, err
	}
	page, err := s.pipe.SegmentLines(lines)
	if err != nil {
		return nil, err
	}

	boxes, columns := overlayFor(page)
	annotated, err := imaging.Annotate(prep.Rescaled, boxes, columns, imaging.AnnotateOptions{
		BoxColor:    a.BoxColor,
		ColumnColor: a.ColumnColor,
		Labels:      labels,
	})
	if err != nil {
		return nil, err
	}
	enc, err := imaging.Encode(annotated)
	if err != nil {
		return nil, err
	}
	return &pageAnnotateResult{
		EncodedImage: enc,
		LineCount:    len(page.Lines),
		WordCount:    len(boxes),
		ColumnCount:  len(columns),
	}, nil
}

// overlayFor maps word boxes and character cuts of a segmented page into
// page coordinates. Cuts are found in the rescaled word, so they are scaled
// back by the word's box width.
func overlayFor(page *pipeline.Page) ([]imaging.OverlayBox, []imaging.OverlayColumn) {
	boxes := make([]imaging.OverlayBox, 0)
	columns := make([]imaging.OverlayColumn, 0)

	for li, l := range page.Lines {
		for wi, w := range l.Words {
			boxes = append(boxes, imaging.OverlayBox{
				Rect:  w.Box.Rect(),
				Label: fmt.Sprintf("%d.%d", li+1, wi+1),
				Group: li,
			})
			if len(w.Slices) < 2 {
				continue
			}
			width := w.Slices[len(w.Slices)-1].End
			for _, c := range w.Slices[1:] {
				columns = append(columns, imaging.OverlayColumn{
					X:  w.Box.X + c.Start*w.Box.W/width,
					Y1: w.Box.Y,
					Y2: w.Box.Y + w.Box.H,
				})
			}
		}
	}
	return boxes, columns
}
