package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/user20357/screensage-cloud/internal/api"
	"github.com/user20357/screensage-cloud/internal/output"
	"github.com/user20357/screensage-cloud/internal/project"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Upload a screen image for one-shot analysis",
	Long: `Upload a captured screen image to the backend and print the structured
analysis: extracted text, detected UI elements, and suggested actions.

Suggestions can be turned into tasks with 'screensage task create'.

Examples:
  screensage analyze screenshot.png
  screensage analyze screenshot.png --summary
  screensage analyze screenshot.png --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().Bool("summary", false, "Print a condensed summary instead of the full result")
	analyzeCmd.Flags().Bool("pretty", false, "Pretty-print JSON output")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	client := api.New(cfg.BaseURL, cfg.RequestTimeout)
	result, err := client.AnalyzeScreenshot(cmd.Context(), filepath.Base(path), image)
	if err != nil {
		return err
	}

	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		return output.Print(project.Summarize(result))
	}

	return output.Print(output.AnalyzeResult{
		Source:      filepath.Base(path),
		TS:          time.Now().Unix(),
		Analysis:    *result,
		Suggestions: project.Suggestions(result),
	})
}
