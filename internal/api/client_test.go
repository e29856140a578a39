package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/user20357/screensage-cloud/internal/model"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(srv.URL, 5*time.Second), srv
}

func TestAnalyzeScreenshot(t *testing.T) {
	var gotContentType string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze-screenshot" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("not a multipart form: %v", err)
		}
		json.NewEncoder(w).Encode(model.AnalysisResult{
			ExtractedText:   "Welcome",
			ConfidenceScore: 0.8,
			ProcessingTime:  0.2,
		})
	}))
	defer srv.Close()

	result, err := client.AnalyzeScreenshot(context.Background(), "shot.png", []byte("fake-png"))
	if err != nil {
		t.Fatal(err)
	}
	if result.ExtractedText != "Welcome" {
		t.Errorf("extracted_text: got %q", result.ExtractedText)
	}
	if !strings.HasPrefix(gotContentType, "multipart/form-data") {
		t.Errorf("content type: got %q", gotContentType)
	}
}

func TestAnalyzeScreenshot_RejectsInvalidPayload(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.AnalysisResult{ConfidenceScore: 3})
	}))
	defer srv.Close()

	if _, err := client.AnalyzeScreenshot(context.Background(), "shot.png", []byte("x")); err == nil {
		t.Error("expected validation error for confidence_score 3")
	}
}

func TestErrorDetail(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "File must be an image"})
	}))
	defer srv.Close()

	_, err := client.AnalyzeScreenshot(context.Background(), "shot.txt", []byte("x"))
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d", apiErr.StatusCode)
	}
	if apiErr.Detail != "File must be an image" {
		t.Errorf("detail: got %q", apiErr.Detail)
	}
}

func TestStartExecution(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/tasks/t1/execute" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(StartResponse{Status: "started", TaskID: "t1"})
	}))
	defer srv.Close()

	ack, err := client.StartExecution(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if ack.Status != "started" {
		t.Errorf("status: got %q", ack.Status)
	}
}

func TestExecutionStatus(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.Task{
			ID:       "t1",
			Status:   model.StatusProcessing,
			Progress: 0.5,
			Steps:    []model.Step{{ID: "s1", Action: "click", Status: model.StatusRunning}},
		})
	}))
	defer srv.Close()

	task, err := client.ExecutionStatus(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != model.StatusProcessing || task.Progress != 0.5 {
		t.Errorf("got status=%s progress=%g", task.Status, task.Progress)
	}
}

func TestExecutionStatus_RejectsZeroSteps(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.Task{ID: "t1", Status: model.StatusProcessing})
	}))
	defer srv.Close()

	if _, err := client.ExecutionStatus(context.Background(), "t1"); err == nil {
		t.Error("expected validation error for task with zero steps")
	}
}

func TestListTasks(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]*model.Task{
			{ID: "t1", Status: model.StatusPending, Steps: []model.Step{{ID: "s1"}}},
			{ID: "t2", Status: model.StatusCompleted, Steps: []model.Step{{ID: "s2"}}},
		})
	}))
	defer srv.Close()

	tasks, err := client.ListTasks(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
}
