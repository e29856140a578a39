package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/user20357/screensage-cloud/internal/model"
	"gopkg.in/yaml.v3"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// AnalyzeResult is the top-level output of the `analyze` command.
type AnalyzeResult struct {
	Source      string               `yaml:"source,omitempty"      json:"source,omitempty"`
	TS          int64                `yaml:"ts"                    json:"ts"`
	Analysis    model.AnalysisResult `yaml:"analysis"              json:"analysis"`
	Suggestions []model.Action       `yaml:"suggestions,omitempty" json:"suggestions,omitempty"`
}

// TaskResult is the top-level output of task subcommands that return one task.
type TaskResult struct {
	OK    bool        `yaml:"ok"              json:"ok"`
	Op    string      `yaml:"op"              json:"op"`
	Error string      `yaml:"error,omitempty" json:"error,omitempty"`
	Task  *model.Task `yaml:"task,omitempty"  json:"task,omitempty"`
}

// TaskListResult is the top-level output of `task list`.
type TaskListResult struct {
	TS    int64         `yaml:"ts"    json:"ts"`
	Count int           `yaml:"count" json:"count"`
	Tasks []*model.Task `yaml:"tasks" json:"tasks"`
}

// Print serializes v to stdout in the current output format.
func Print(v interface{}) error {
	switch OutputFormat {
	case FormatJSON:
		if PrettyOutput {
			return PrintPrettyJSON(v)
		}
		return PrintJSON(v)
	case FormatYAML:
		return PrintYAML(v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}

// PrintJSON serializes v to stdout as compact single-line JSON.
func PrintJSON(v interface{}) error {
	return EncodeJSONL(os.Stdout, v)
}

// PrintPrettyJSON serializes v to stdout as indented JSON.
func PrintPrettyJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// PrintYAML serializes v to stdout as YAML.
func PrintYAML(v interface{}) error {
	enc := yaml.NewEncoder(os.Stdout)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}

// EncodeJSONL writes v to w as one line of JSON. Used by the watch event
// stream, which is always JSONL regardless of --format.
func EncodeJSONL(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
