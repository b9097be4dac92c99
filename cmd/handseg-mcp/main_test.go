package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes rootCmd with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		for _, fs := range []*pflag.FlagSet{rootCmd.PersistentFlags(), segmentCmd.Flags(), readCmd.Flags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
	}()
	err := rootCmd.Execute()
	return buf.String(), err
}

func writePage(t *testing.T, dir string) string {
	t.Helper()
	page := image.NewRGBA(image.Rect(0, 0, 400, 512))
	for i := range page.Pix {
		page.Pix[i] = 255
	}
	for _, origin := range []image.Point{{50, 100}, {200, 100}} {
		for bar := 0; bar < 3; bar++ {
			for y := origin.Y; y < origin.Y+30; y++ {
				for x := origin.X + bar*6; x < origin.X+bar*6+3; x++ {
					page.Set(x, y, color.Black)
				}
			}
		}
	}

	path := filepath.Join(dir, "note.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, page))
	return path
}

func TestVersionCmd(t *testing.T) {
	original := Version
	Version = "test-1.0.0"
	defer func() { Version = original }()

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "handseg-mcp test-1.0.0")
}

func TestSegmentCmd(t *testing.T) {
	dir := t.TempDir()
	path := writePage(t, dir)
	outDir := filepath.Join(dir, "out")

	out, err := run(t, "segment", "--workers", "2", "--out", outDir, path)
	require.NoError(t, err)

	var doc struct {
		Path string `json:"path"`
		Page struct {
			RunID string `json:"run_id"`
			Lines []struct {
				Words []struct {
					Slices []struct {
						Start int `json:"start"`
						End   int `json:"end"`
					} `json:"slices"`
				} `json:"words"`
			} `json:"lines"`
		} `json:"page"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, path, doc.Path)
	assert.NotEmpty(t, doc.Page.RunID)
	require.Len(t, doc.Page.Lines, 1)
	require.Len(t, doc.Page.Lines[0].Words, 2)
	require.NotEmpty(t, doc.Page.Lines[0].Words[0].Slices)

	assert.FileExists(t, filepath.Join(outDir, "note", "1-1.png"))
	assert.FileExists(t, filepath.Join(outDir, "note", "1-2.png"))
	assert.FileExists(t, filepath.Join(outDir, "note", "1-1-1.png"))
}

func TestSegmentCmd_MissingPage(t *testing.T) {
	_, err := run(t, "segment", filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestSegmentCmd_NoArgs(t *testing.T) {
	_, err := run(t, "segment")
	assert.Error(t, err)
}

func TestSetup_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "handseg.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("line_band = 40\nworkers = 3\n"), 0o644))

	_, err := run(t, "--config", cfgPath, "version")
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.LineBand)
	assert.Equal(t, 3, cfg.Workers)

	_, err = run(t, "--config", cfgPath, "--workers", "5", "version")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Workers)
}

func TestSetup_BadConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("line_band = 0\n"), 0o644))

	_, err := run(t, "--config", cfgPath, "version")
	assert.Error(t, err)
}
