package main

import (
	"fmt"
	"image"

	"github.com/spf13/cobra"

	"github.com/ironsheep/handseg-mcp/internal/imaging"
	"github.com/ironsheep/handseg-mcp/internal/ocr"
)

var readCmd = &cobra.Command{
	Use:   "read <page>...",
	Short: "Read pages as upper-case text with Tesseract",
	Long: `Segment each page and classify every character slice with Tesseract in
single-character mode. Pages are processed one at a time in the order given;
processing stops at the first page that fails.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRead,
}

func init() {
	readCmd.Flags().String("lang", "", "Tesseract language (default: configured language)")
	readCmd.Flags().String("tessdata", "", "Tesseract language data directory")
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	lang, _ := cmd.Flags().GetString("lang")
	if lang == "" {
		lang = cfg.Language
	}
	clf := ocr.NewTesseractClassifier(lang)
	clf.TessdataPrefix, _ = cmd.Flags().GetString("tessdata")

	pipe, err := newPipeline()
	if err != nil {
		return err
	}
	defer pipe.Close()

	cache := imaging.NewImageCache()
	load := func(id string) (image.Image, error) {
		img, err := cache.Load(id)
		cache.Evict(id)
		return img, err
	}

	readings, err := pipe.ReadAll(cmd.Context(), args, load, clf)
	w := cmd.OutOrStdout()
	for _, r := range readings {
		if len(args) > 1 {
			fmt.Fprintf(w, "== %s ==\n", r.ID)
		}
		fmt.Fprintln(w, r.Text)
	}
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return nil
}
