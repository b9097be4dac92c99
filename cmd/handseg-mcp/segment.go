package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/handseg-mcp/internal/imaging"
	"github.com/ironsheep/handseg-mcp/internal/pipeline"
)

var segmentCmd = &cobra.Command{
	Use:   "segment <page>...",
	Short: "Segment pages and print their geometry as JSON",
	Long: `Segment each page into lines, words and character slices and print one
JSON document per page.

With --out, every word is saved as <out>/<page>/<line>-<word>.png and every
character slice as <out>/<page>/<line>-<word>-<char>.png, all numbered from 1
in reading order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSegment,
}

func init() {
	segmentCmd.Flags().StringP("out", "o", "", "directory for word and character PNGs")
	rootCmd.AddCommand(segmentCmd)
}

type segmentOutput struct {
	Path string         `json:"path"`
	Page *pipeline.Page `json:"page"`
}

func runSegment(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")

	pipe, err := newPipeline()
	if err != nil {
		return err
	}
	defer pipe.Close()

	cache := imaging.NewImageCache()
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	for _, path := range args {
		img, err := cache.Load(path)
		if err != nil {
			return err
		}
		page, err := pipe.Segment(img)
		cache.Evict(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		if out != "" {
			if err := exportPage(filepath.Join(out, stem(path)), page); err != nil {
				return err
			}
		}
		if err := enc.Encode(segmentOutput{Path: path, Page: page}); err != nil {
			return err
		}
		logger.Debug("segmented", zap.String("page", path), zap.String("run_id", page.RunID))
	}
	return nil
}

// exportPage writes the word and character crops of page into dir.
func exportPage(dir string, page *pipeline.Page) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for li, l := range page.Lines {
		for wi, w := range l.Words {
			name := fmt.Sprintf("%d-%d", li+1, wi+1)
			if err := imaging.SavePNG(w.ROI, filepath.Join(dir, name+".png")); err != nil {
				return err
			}
			for ci, s := range w.Slices {
				if err := imaging.SavePNG(s.Image, filepath.Join(dir, fmt.Sprintf("%s-%d.png", name, ci+1))); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
