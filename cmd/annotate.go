package cmd

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"

	"github.com/spf13/cobra"

	"github.com/user20357/screensage-cloud/internal/api"
	"github.com/user20357/screensage-cloud/internal/output"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <image>",
	Short: "Analyze an image and draw the detected elements onto it",
	Long: `Upload a screen image for analysis and write a copy with bounding boxes
and labels drawn on every detected element (and markers on suggested action
coordinates).

Examples:
  screensage annotate screenshot.png
  screensage annotate screenshot.png -o annotated.png --labels text`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

func init() {
	rootCmd.AddCommand(annotateCmd)
	annotateCmd.Flags().StringP("out", "o", "", "Output path (default: <image>.annotated.png)")
	annotateCmd.Flags().String("labels", "coords", "Label mode: coords, text")
	annotateCmd.Flags().Float64("min-confidence", 0, "Only draw elements at or above this confidence")
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	labelsStr, _ := cmd.Flags().GetString("labels")
	var mode LabelMode
	switch labelsStr {
	case "coords":
		mode = LabelCoords
	case "text":
		mode = LabelText
	default:
		return fmt.Errorf("unsupported label mode: %s (use coords or text)", labelsStr)
	}
	minConfidence, _ := cmd.Flags().GetFloat64("min-confidence")

	client := api.New(cfg.BaseURL, cfg.RequestTimeout)
	result, err := client.AnalyzeScreenshot(cmd.Context(), filepath.Base(path), data)
	if err != nil {
		return err
	}

	elements := result.Elements
	if minConfidence > 0 {
		filtered := elements[:0:0]
		for _, el := range elements {
			if el.Confidence >= minConfidence {
				filtered = append(filtered, el)
			}
		}
		elements = filtered
	}

	annotated := AnnotateImage(img, elements, result.SuggestedActions, mode)

	outPath, _ := cmd.Flags().GetString("out")
	if outPath == "" {
		ext := filepath.Ext(path)
		outPath = strings.TrimSuffix(path, ext) + ".annotated.png"
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer f.Close()
	if err := png.Encode(f, annotated); err != nil {
		return fmt.Errorf("encode %s: %w", outPath, err)
	}

	return output.Print(map[string]interface{}{
		"ok":       true,
		"out":      outPath,
		"elements": len(elements),
		"actions":  len(result.SuggestedActions),
	})
}
