// Package project turns raw analysis results into UI-consumable summaries and
// actionable task suggestions. Pure transformations, no state.
package project

import (
	"strings"

	"github.com/user20357/screensage-cloud/internal/model"
)

// Summary condenses a result for display.
type Summary struct {
	Text         string  `yaml:"text,omitempty"  json:"text,omitempty"`
	ElementCount int     `yaml:"elements"        json:"elements"`
	ActionCount  int     `yaml:"actions"         json:"actions"`
	Confidence   float64 `yaml:"confidence"      json:"confidence"`
}

// Suggestions maps a result's suggested actions into validated suggestions
// ready for task creation. Degenerate results yield an empty list.
func Suggestions(r *model.AnalysisResult) []model.Action {
	if r == nil {
		return nil
	}
	var out []model.Action
	for _, a := range r.SuggestedActions {
		if a.Validate() != nil {
			continue
		}
		if a.Description == "" {
			a.Description = a.Action
		}
		out = append(out, a)
	}
	return out
}

// Summarize produces a display summary of a result.
func Summarize(r *model.AnalysisResult) Summary {
	if r == nil {
		return Summary{}
	}
	return Summary{
		Text:         firstLine(r.ExtractedText),
		ElementCount: len(r.Elements),
		ActionCount:  len(Suggestions(r)),
		Confidence:   r.ConfidenceScore,
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const max = 120
	if len(s) > max {
		s = s[:max]
	}
	return s
}
