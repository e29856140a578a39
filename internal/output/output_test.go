package output

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/user20357/screensage-cloud/internal/model"
	"gopkg.in/yaml.v3"
)

func TestPrintYAML(t *testing.T) {
	result := AnalyzeResult{
		Source: "login.png",
		TS:     1707500000,
		Analysis: model.AnalysisResult{
			ExtractedText:   "Welcome",
			ConfidenceScore: 0.9,
			Elements: []model.Element{
				{Text: "Login", Type: model.ElementButton, Confidence: 0.95, Center: model.Point{X: 120, Y: 340}},
			},
		},
	}

	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := PrintYAML(result)
	w.Close()
	os.Stdout = old

	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	buf.ReadFrom(r)
	out := buf.String()

	if bytes.Count([]byte(out), []byte("\n")) <= 1 {
		t.Errorf("YAML output should be multi-line, got:\n%s", out)
	}

	var decoded AnalyzeResult
	if err := yaml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if decoded.Source != "login.png" {
		t.Errorf("source: got %q, want %q", decoded.Source, "login.png")
	}
	if len(decoded.Analysis.Elements) != 1 {
		t.Errorf("elements: got %d, want 1", len(decoded.Analysis.Elements))
	}
}

func TestTaskResult_OmitEmpty(t *testing.T) {
	result := TaskResult{OK: true, Op: "delete"}
	data, err := yaml.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["error"]; ok {
		t.Error("empty error should be omitted")
	}
	if _, ok := m["task"]; ok {
		t.Error("nil task should be omitted")
	}
	if _, ok := m["ok"]; !ok {
		t.Error("ok should always be present")
	}
}

func TestEncodeJSONL(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeJSONL(&buf, map[string]interface{}{"type": "snapshot", "count": 3}); err != nil {
		t.Fatal(err)
	}
	line := buf.String()
	if bytes.Count([]byte(line), []byte("\n")) != 1 {
		t.Errorf("expected exactly one line, got:\n%s", line)
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("not valid JSON: %v", err)
	}
	if m["type"] != "snapshot" {
		t.Errorf("type: got %v", m["type"])
	}
}
