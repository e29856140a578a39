package project

import (
	"testing"

	"github.com/user20357/screensage-cloud/internal/model"
)

func TestSuggestions_DropsDegenerate(t *testing.T) {
	r := &model.AnalysisResult{
		SuggestedActions: []model.Action{
			{Action: "click", Description: "Login button", Confidence: 0.92},
			{Action: "", Description: "no verb", Confidence: 0.5},
			{Action: "type", Description: "bad confidence", Confidence: 1.5},
		},
	}
	got := Suggestions(r)
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(got))
	}
	if got[0].Action != "click" {
		t.Errorf("action: got %q", got[0].Action)
	}
}

func TestSuggestions_EmptyResult(t *testing.T) {
	if got := Suggestions(&model.AnalysisResult{}); len(got) != 0 {
		t.Errorf("empty result should yield no suggestions, got %d", len(got))
	}
	if got := Suggestions(nil); got != nil {
		t.Errorf("nil result should yield nil, got %v", got)
	}
}

func TestSuggestions_FillsDescription(t *testing.T) {
	r := &model.AnalysisResult{
		SuggestedActions: []model.Action{{Action: "scroll", Confidence: 0.7}},
	}
	got := Suggestions(r)
	if len(got) != 1 || got[0].Description != "scroll" {
		t.Errorf("got %+v", got)
	}
}

func TestSummarize(t *testing.T) {
	r := &model.AnalysisResult{
		ExtractedText: "Welcome back\nPlease sign in",
		Elements: []model.Element{
			{Text: "Login", Type: model.ElementButton, Confidence: 0.9},
		},
		SuggestedActions: []model.Action{{Action: "click", Confidence: 0.9}},
		ConfidenceScore:  0.85,
	}
	s := Summarize(r)
	if s.Text != "Welcome back" {
		t.Errorf("text: got %q", s.Text)
	}
	if s.ElementCount != 1 || s.ActionCount != 1 {
		t.Errorf("counts: got %d elements, %d actions", s.ElementCount, s.ActionCount)
	}
	if s.Confidence != 0.85 {
		t.Errorf("confidence: got %g", s.Confidence)
	}
}
