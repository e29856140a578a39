package model

import (
	"encoding/json"
	"testing"
)

func TestAnalysisResult_DecodeWireFormat(t *testing.T) {
	payload := `{
		"extracted_text": "Welcome back",
		"detected_elements": [
			{"text": "Login", "element_type": "button", "confidence": 0.95, "center": {"x": 120, "y": 340}}
		],
		"suggested_actions": [
			{"action": "click", "description": "Login button", "confidence": 0.92, "coordinates": {"x": 120, "y": 340}}
		],
		"confidence_score": 0.9,
		"processing_time": 0.42
	}`

	var r AnalysisResult
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		t.Fatal(err)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
	if r.ExtractedText != "Welcome back" {
		t.Errorf("extracted_text: got %q", r.ExtractedText)
	}
	if len(r.Elements) != 1 || r.Elements[0].Type != ElementButton {
		t.Errorf("elements not decoded: %+v", r.Elements)
	}
	if r.Elements[0].Center.X != 120 || r.Elements[0].Center.Y != 340 {
		t.Errorf("center: got %+v", r.Elements[0].Center)
	}
	if len(r.SuggestedActions) != 1 || r.SuggestedActions[0].Action != "click" {
		t.Errorf("suggested_actions not decoded: %+v", r.SuggestedActions)
	}
}

func TestAnalysisResult_RejectsOutOfRangeConfidence(t *testing.T) {
	r := AnalysisResult{ConfidenceScore: 1.5}
	if err := r.Validate(); err == nil {
		t.Error("expected error for confidence_score > 1")
	}

	r = AnalysisResult{
		ConfidenceScore: 0.5,
		Elements:        []Element{{Text: "x", Confidence: -0.1}},
	}
	if err := r.Validate(); err == nil {
		t.Error("expected error for negative element confidence")
	}
}

func TestAnalysisResult_RejectsNegativeProcessingTime(t *testing.T) {
	r := AnalysisResult{ProcessingTime: -1}
	if err := r.Validate(); err == nil {
		t.Error("expected error for negative processing_time")
	}
}

func TestAction_Validate(t *testing.T) {
	a := Action{Action: "click", Confidence: 0.9}
	if err := a.Validate(); err != nil {
		t.Errorf("valid action rejected: %v", err)
	}

	a = Action{Action: "  ", Confidence: 0.9}
	if err := a.Validate(); err == nil {
		t.Error("expected error for empty action verb")
	}

	a = Action{Action: "click", Confidence: 2}
	if err := a.Validate(); err == nil {
		t.Error("expected error for out-of-range confidence")
	}
}
