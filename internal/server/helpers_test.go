package server

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/handseg-mcp/internal/config"
	"github.com/ironsheep/handseg-mcp/internal/pipeline"
)

// letterClassifier answers 'X' for every character.
type letterClassifier struct{}

func (letterClassifier) Classify(_ context.Context, batch []image.Image) ([]rune, error) {
	out := make([]rune, len(batch))
	for i := range out {
		out[i] = 'X'
	}
	return out, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Workers = 2
	pipe, err := pipeline.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(pipe.Close)
	return New(pipe, nil, WithClassifier(letterClassifier{}), WithVersion("1.2.3"))
}

// writePage renders two lines of two words each at the reference height
// and returns the PNG path. Every word is three 3px bars 3px apart.
func writePage(t *testing.T) string {
	t.Helper()
	page := image.NewRGBA(image.Rect(0, 0, 400, 512))
	for i := range page.Pix {
		page.Pix[i] = 255
	}
	for _, origin := range []image.Point{{50, 100}, {200, 100}, {50, 300}, {200, 300}} {
		for bar := 0; bar < 3; bar++ {
			for y := origin.Y; y < origin.Y+30; y++ {
				for x := origin.X + bar*6; x < origin.X+bar*6+3; x++ {
					page.Set(x, y, color.Black)
				}
			}
		}
	}
	return writePNG(t, "page.png", page)
}

func writePNG(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

// callTool runs a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	require.NoError(t, err)
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params})
	require.NotNil(t, resp)
	return resp
}

// toolResult decodes the JSON text content of a successful tool response.
func toolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected error: %+v", resp.Error)
	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	content, ok := result["content"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, content, 1)
	text, ok := content[0]["text"].(string)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal([]byte(text), v))
}
