package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a task or step.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusRunning    Status = "running" // steps only
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var terminalStatuses = map[Status]bool{
	StatusCompleted: true,
	StatusFailed:    true,
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// Priority orders tasks for display.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority converts a flag value to a Priority.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	default:
		return PriorityMedium, fmt.Errorf("unknown priority: %q (expected low, medium, or high)", s)
	}
}

// Step is one executable sub-unit of a task. Steps are ordered within a task.
type Step struct {
	ID          string                 `yaml:"id"                    json:"id"`
	Description string                 `yaml:"description"           json:"description"`
	Action      string                 `yaml:"action"                json:"action"`
	Parameters  map[string]interface{} `yaml:"parameters,omitempty"  json:"parameters,omitempty"`
	Coordinates *Point                 `yaml:"coordinates,omitempty" json:"coordinates,omitempty"`
	Status      Status                 `yaml:"status"                json:"status"`
}

// Task is a user-facing unit of automation work, owned by the task engine
// for its session lifetime. A task never has zero steps.
type Task struct {
	ID          string    `yaml:"id"                   json:"id"`
	Title       string    `yaml:"title"                json:"title"`
	Description string    `yaml:"description"          json:"description"`
	Priority    Priority  `yaml:"priority"             json:"priority"`
	Status      Status    `yaml:"status"               json:"status"`
	Steps       []Step    `yaml:"steps"                json:"steps"`
	Progress    float64   `yaml:"progress"             json:"progress"`
	Confidence  *float64  `yaml:"confidence,omitempty" json:"confidence,omitempty"`
	CreatedAt   time.Time `yaml:"created_at"           json:"created_at"`

	// Execution detail reported by the remote backend.
	SuccessRate    *float64 `yaml:"success_rate,omitempty"    json:"success_rate,omitempty"`
	CompletedSteps int      `yaml:"completed_steps,omitempty" json:"completed_steps,omitempty"`
	FailedSteps    int      `yaml:"failed_steps,omitempty"    json:"failed_steps,omitempty"`
	Error          string   `yaml:"error,omitempty"           json:"error_message,omitempty"`
}

// NewTaskFromSuggestion builds a pending task with exactly one step derived
// 1:1 from the suggestion.
func NewTaskFromSuggestion(s Action) (*Task, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid suggestion: %w", err)
	}
	conf := s.Confidence
	title := s.Description
	if title == "" {
		title = s.Action
	}
	return &Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: s.Description,
		Priority:    PriorityMedium,
		Status:      StatusPending,
		Steps: []Step{{
			ID:          uuid.NewString(),
			Description: s.Description,
			Action:      s.Action,
			Parameters:  s.Parameters,
			Coordinates: s.Coordinates,
			Status:      StatusPending,
		}},
		Progress:   0,
		Confidence: &conf,
		CreatedAt:  time.Now(),
	}, nil
}

// Validate checks invariants on a task representation received from the
// execution boundary before it is merged into local state.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task id is empty")
	}
	if len(t.Steps) == 0 {
		return fmt.Errorf("task %s has zero steps", t.ID)
	}
	if t.Progress < 0 || t.Progress > 1 {
		return fmt.Errorf("task %s progress out of range: %g", t.ID, t.Progress)
	}
	switch t.Status {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
	default:
		return fmt.Errorf("task %s has unknown status %q", t.ID, t.Status)
	}
	return nil
}
