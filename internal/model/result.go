package model

import (
	"fmt"
	"strings"
	"time"
)

// ElementType classifies a detected UI element.
type ElementType string

const (
	ElementText   ElementType = "text"
	ElementButton ElementType = "button"
	ElementField  ElementType = "field"
	ElementLink   ElementType = "link"
	ElementImage  ElementType = "image"
	ElementOther  ElementType = "other"
)

// Point is a screen coordinate pair.
type Point struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

// Element is a UI element detected in a screen image. Immutable once produced.
type Element struct {
	Text       string      `yaml:"text"                 json:"text"`
	Type       ElementType `yaml:"type"                 json:"element_type"`
	Confidence float64     `yaml:"confidence"           json:"confidence"`
	Center     Point       `yaml:"center"               json:"center"`
	Bounds     [4]int      `yaml:"bounds,omitempty"     json:"bbox,omitempty"` // [x, y, w, h]
}

// Action is a suggested automation action produced by analysis. Immutable.
type Action struct {
	Action      string                 `yaml:"action"                json:"action"`
	Description string                 `yaml:"description"           json:"description"`
	Parameters  map[string]interface{} `yaml:"parameters,omitempty"  json:"parameters,omitempty"`
	Coordinates *Point                 `yaml:"coordinates,omitempty" json:"coordinates,omitempty"`
	Confidence  float64                `yaml:"confidence"            json:"confidence"`
}

// AnalysisResult is the structured output of one screen analysis.
// Transient: consumed once, then discarded or projected into suggestions.
type AnalysisResult struct {
	ExtractedText    string    `yaml:"extracted_text"    json:"extracted_text"`
	Elements         []Element `yaml:"detected_elements" json:"detected_elements"`
	SuggestedActions []Action  `yaml:"suggested_actions" json:"suggested_actions"`
	ConfidenceScore  float64   `yaml:"confidence_score"  json:"confidence_score"`
	ProcessingTime   float64   `yaml:"processing_time"   json:"processing_time"`
	Timestamp        time.Time `yaml:"ts"                json:"timestamp"`
}

// Validate checks that a result decoded at the service boundary is safe to
// hand to the projector and task engine. Loosely-shaped payloads are rejected
// here so nothing downstream has to re-check ranges.
func (r *AnalysisResult) Validate() error {
	if err := checkUnit("confidence_score", r.ConfidenceScore); err != nil {
		return err
	}
	if r.ProcessingTime < 0 {
		return fmt.Errorf("processing_time must be >= 0, got %g", r.ProcessingTime)
	}
	for i, el := range r.Elements {
		if err := checkUnit("element confidence", el.Confidence); err != nil {
			return fmt.Errorf("detected_elements[%d]: %w", i, err)
		}
	}
	for i, a := range r.SuggestedActions {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("suggested_actions[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate checks a single suggestion.
func (a *Action) Validate() error {
	if strings.TrimSpace(a.Action) == "" {
		return fmt.Errorf("action verb is empty")
	}
	return checkUnit("confidence", a.Confidence)
}

func checkUnit(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be in [0,1], got %g", name, v)
	}
	return nil
}
