package model

import "testing"

func TestNewTaskFromSuggestion(t *testing.T) {
	suggestion := Action{
		Action:      "click",
		Description: "Login button",
		Coordinates: &Point{X: 120, Y: 340},
		Confidence:  0.92,
	}

	task, err := NewTaskFromSuggestion(suggestion)
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != StatusPending {
		t.Errorf("status: got %s, want pending", task.Status)
	}
	if task.Progress != 0 {
		t.Errorf("progress: got %g, want 0", task.Progress)
	}
	if len(task.Steps) != 1 {
		t.Fatalf("steps: got %d, want 1", len(task.Steps))
	}
	step := task.Steps[0]
	if step.Action != "click" {
		t.Errorf("step action: got %q", step.Action)
	}
	if step.Coordinates == nil || step.Coordinates.X != 120 || step.Coordinates.Y != 340 {
		t.Errorf("step coordinates: got %+v", step.Coordinates)
	}
	if step.Status != StatusPending {
		t.Errorf("step status: got %s", step.Status)
	}
	if task.ID == "" || step.ID == "" {
		t.Error("ids must be generated at creation")
	}
	if task.Confidence == nil || *task.Confidence != 0.92 {
		t.Errorf("confidence: got %v", task.Confidence)
	}
}

func TestNewTaskFromSuggestion_RejectsInvalid(t *testing.T) {
	if _, err := NewTaskFromSuggestion(Action{Action: ""}); err == nil {
		t.Error("expected error for empty verb")
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	cases := map[Status]bool{
		StatusPending:    false,
		StatusProcessing: false,
		StatusRunning:    false,
		StatusCompleted:  true,
		StatusFailed:     true,
	}
	for status, want := range cases {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestTask_Validate(t *testing.T) {
	valid := Task{
		ID:     "t1",
		Status: StatusProcessing,
		Steps:  []Step{{ID: "s1", Action: "click"}},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid task rejected: %v", err)
	}

	zeroSteps := Task{ID: "t2", Status: StatusPending}
	if err := zeroSteps.Validate(); err == nil {
		t.Error("expected error for zero steps")
	}

	badProgress := valid
	badProgress.Progress = 1.2
	if err := badProgress.Validate(); err == nil {
		t.Error("expected error for progress > 1")
	}

	badStatus := valid
	badStatus.Status = "exploded"
	if err := badStatus.Validate(); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestParsePriority(t *testing.T) {
	if p, err := ParsePriority("high"); err != nil || p != PriorityHigh {
		t.Errorf("got %v, %v", p, err)
	}
	if _, err := ParsePriority("urgent"); err == nil {
		t.Error("expected error for unknown priority")
	}
}
