package cmd

import "testing"

func TestStringParam(t *testing.T) {
	params := map[string]interface{}{"action": "click", "count": 3.0}
	if got := StringParam(params, "action", ""); got != "click" {
		t.Errorf("got %q", got)
	}
	if got := StringParam(params, "missing", "fallback"); got != "fallback" {
		t.Errorf("got %q", got)
	}
	if got := StringParam(params, "count", "fallback"); got != "fallback" {
		t.Errorf("wrong type should fall back, got %q", got)
	}
}

func TestIntParam(t *testing.T) {
	params := map[string]interface{}{"x": 120.0, "y": 340}
	if got := IntParam(params, "x", -1); got != 120 {
		t.Errorf("float64: got %d", got)
	}
	if got := IntParam(params, "y", -1); got != 340 {
		t.Errorf("int: got %d", got)
	}
	if got := IntParam(params, "missing", -1); got != -1 {
		t.Errorf("default: got %d", got)
	}
}

func TestFloatParam(t *testing.T) {
	params := map[string]interface{}{"confidence": 0.92}
	if got := FloatParam(params, "confidence", 1); got != 0.92 {
		t.Errorf("got %g", got)
	}
	if got := FloatParam(params, "missing", 1); got != 1 {
		t.Errorf("default: got %g", got)
	}
}

func TestBoolParam(t *testing.T) {
	params := map[string]interface{}{"summary": true}
	if !BoolParam(params, "summary", false) {
		t.Error("expected true")
	}
	if BoolParam(params, "missing", false) {
		t.Error("expected default false")
	}
}
