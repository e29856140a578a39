// Package task owns the task/step lifecycle: creation from suggestions,
// remote execution start, per-task progress polling, and teardown.
package task

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/user20357/screensage-cloud/internal/api"
	"github.com/user20357/screensage-cloud/internal/model"
)

// DefaultPollInterval is the default execution polling period.
const DefaultPollInterval = 2 * time.Second

// Sentinel errors surfaced by engine operations.
var (
	ErrNotFound   = errors.New("task: not found")
	ErrNotPending = errors.New("task: not in pending state")
)

// ExecutionClient is the slice of the backend API the engine depends on.
// *api.Client satisfies it; tests substitute fakes.
type ExecutionClient interface {
	StartExecution(ctx context.Context, taskID string) (*api.StartResponse, error)
	ExecutionStatus(ctx context.Context, taskID string) (*model.Task, error)
	CancelExecution(ctx context.Context, taskID string) error
}

// poller is one registry entry: the owned timer resource for a task that is
// currently processing. Removed on terminal status or deletion.
type poller struct {
	stop chan struct{}
	done chan struct{}
}

// Engine owns all tasks for the session. Tasks are mutated only by the
// engine; callers get copies.
type Engine struct {
	client       ExecutionClient
	pollInterval time.Duration
	logger       *log.Logger

	// OnUpdate, if set, observes every local task mutation with a copy.
	// It runs on the engine's goroutines and must not call back into the
	// engine.
	OnUpdate func(model.Task)

	mu        sync.Mutex
	tasks     map[string]*model.Task
	order     []string
	pollers   map[string]*poller
	executing map[string]bool // start call issued, ack not yet received
	selected  string
}

// NewEngine creates an engine polling at the given interval. A non-positive
// interval falls back to DefaultPollInterval.
func NewEngine(client ExecutionClient, pollInterval time.Duration, logger *log.Logger) *Engine {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if logger == nil {
		logger = log.New(log.Writer(), "task: ", log.LstdFlags)
	}
	return &Engine{
		client:       client,
		pollInterval: pollInterval,
		logger:       logger,
		tasks:        make(map[string]*model.Task),
		pollers:      make(map[string]*poller),
		executing:    make(map[string]bool),
	}
}

// Create builds a pending task with exactly one step derived from the
// suggestion and registers it with the engine.
func (e *Engine) Create(suggestion model.Action) (*model.Task, error) {
	task, err := model.NewTaskFromSuggestion(suggestion)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.tasks[task.ID] = task
	e.order = append(e.order, task.ID)
	e.mu.Unlock()

	return copyTask(task), nil
}

// Adopt registers an externally built task (e.g. parsed from a steps file).
// The task must be pending and have at least one step.
func (e *Engine) Adopt(task *model.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if task.Status != model.StatusPending {
		return fmt.Errorf("can only adopt pending tasks, got %s", task.Status)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.tasks[task.ID]; exists {
		return fmt.Errorf("task %s already registered", task.ID)
	}
	e.tasks[task.ID] = copyTask(task)
	e.order = append(e.order, task.ID)
	return nil
}

// Get returns a copy of a task.
func (e *Engine) Get(id string) (*model.Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	task, ok := e.tasks[id]
	if !ok {
		return nil, false
	}
	return copyTask(task), true
}

// List returns copies of all tasks in creation order.
func (e *Engine) List() []*model.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*model.Task, 0, len(e.order))
	for _, id := range e.order {
		if task, ok := e.tasks[id]; ok {
			out = append(out, copyTask(task))
		}
	}
	return out
}

// Select marks a task as the currently displayed one.
func (e *Engine) Select(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.tasks[id]; !ok {
		return ErrNotFound
	}
	e.selected = id
	return nil
}

// Selected returns the id of the selected task, or "".
func (e *Engine) Selected() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// Execute transitions a pending task to processing: it issues the remote
// start call and, on acknowledgment, begins the single-instance poll loop.
// If the remote call fails the task stays pending and may be retried. Calling
// Execute on a task that is already processing is a no-op.
func (e *Engine) Execute(ctx context.Context, id string) error {
	e.mu.Lock()
	task, ok := e.tasks[id]
	if !ok {
		e.mu.Unlock()
		return ErrNotFound
	}
	switch {
	case task.Status == model.StatusProcessing:
		e.mu.Unlock()
		return nil // already executing, no duplicate start call
	case task.Status.IsTerminal():
		e.mu.Unlock()
		return fmt.Errorf("%w: task %s is %s", ErrNotPending, id, task.Status)
	case e.executing[id]:
		e.mu.Unlock()
		return nil // start call already on the wire
	}
	e.executing[id] = true
	e.mu.Unlock()

	ack, err := e.client.StartExecution(ctx, id)

	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.executing, id)

	task, ok = e.tasks[id]
	if !ok {
		return ErrNotFound // deleted while the start call was in flight
	}
	if err != nil {
		// The transition never committed: the task stays pending.
		return fmt.Errorf("start execution: %w", err)
	}
	if ack.Status != "started" {
		return fmt.Errorf("start execution: unexpected ack %q", ack.Status)
	}

	task.Status = model.StatusProcessing
	e.startPollerLocked(id)
	e.notifyLocked(task)
	return nil
}

// Delete removes a task regardless of status, clearing its selection and its
// poll timer. No cancellation is sent to the remote backend; a remote
// execution already in flight keeps running.
func (e *Engine) Delete(id string) error {
	e.mu.Lock()
	if _, ok := e.tasks[id]; !ok {
		e.mu.Unlock()
		return ErrNotFound
	}
	delete(e.tasks, id)
	if e.selected == id {
		e.selected = ""
	}
	p := e.pollers[id]
	if p != nil {
		delete(e.pollers, id)
	}
	e.mu.Unlock()

	if p != nil {
		close(p.stop)
		<-p.done
	}
	return nil
}

// Cancel asks the remote backend to cancel a running execution. The local
// task is not touched; the poll loop observes whatever terminal status the
// backend settles on. Delete never calls this.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	e.mu.Lock()
	_, ok := e.tasks[id]
	e.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return e.client.CancelExecution(ctx, id)
}

// Stop halts all poll loops. Tasks keep their current status.
func (e *Engine) Stop() {
	e.mu.Lock()
	pollers := e.pollers
	e.pollers = make(map[string]*poller)
	e.mu.Unlock()

	for _, p := range pollers {
		close(p.stop)
	}
	for _, p := range pollers {
		<-p.done
	}
}

func (e *Engine) startPollerLocked(id string) {
	if _, exists := e.pollers[id]; exists {
		return
	}
	p := &poller{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	e.pollers[id] = p
	go e.pollLoop(id, p)
}

// pollLoop fetches remote status on a fixed interval while the task is
// processing. Each poll waits for its own response before scheduling the
// next, so responses are consumed in request order for this task.
func (e *Engine) pollLoop(id string, p *poller) {
	defer close(p.done)

	timer := time.NewTimer(e.pollInterval)
	defer timer.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-timer.C:
		}

		remote, err := e.client.ExecutionStatus(context.Background(), id)
		if e.applyPoll(id, p, remote, err) {
			return
		}
		timer.Reset(e.pollInterval)
	}
}

// applyPoll merges one poll response and reports whether the loop is done.
func (e *Engine) applyPoll(id string, p *poller, remote *model.Task, err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	task, ok := e.tasks[id]
	if !ok || e.pollers[id] != p {
		return true // deleted or superseded while the poll was in flight
	}

	if err != nil {
		// A polling error halts this task's loop: locally terminal even
		// though the remote execution may still be running.
		e.logger.Printf("poll %s: %v", id, err)
		task.Status = model.StatusFailed
		if task.Error == "" {
			task.Error = err.Error()
		}
		delete(e.pollers, id)
		e.notifyLocked(task)
		return true
	}

	mergeRemote(task, remote)
	e.notifyLocked(task)

	if task.Status.IsTerminal() {
		delete(e.pollers, id)
		return true
	}
	return false
}

// mergeRemote folds the remote representation into the local task. Progress
// is monotonic non-decreasing while processing; a remote regression is
// ignored rather than replayed.
func mergeRemote(local, remote *model.Task) {
	if remote.Status == model.StatusProcessing || remote.Status.IsTerminal() {
		local.Status = remote.Status
	}
	if remote.Progress > local.Progress {
		local.Progress = remote.Progress
	}
	if local.Status == model.StatusCompleted && local.Progress < 1 {
		local.Progress = 1
	}

	byID := make(map[string]*model.Step, len(local.Steps))
	for i := range local.Steps {
		byID[local.Steps[i].ID] = &local.Steps[i]
	}
	for _, rs := range remote.Steps {
		if ls, ok := byID[rs.ID]; ok {
			ls.Status = rs.Status
		}
	}

	if remote.SuccessRate != nil {
		local.SuccessRate = remote.SuccessRate
	}
	local.CompletedSteps = remote.CompletedSteps
	local.FailedSteps = remote.FailedSteps
	if remote.Error != "" {
		local.Error = remote.Error
	}
}

func (e *Engine) notifyLocked(task *model.Task) {
	if e.OnUpdate != nil {
		e.OnUpdate(*copyTask(task))
	}
}

func copyTask(t *model.Task) *model.Task {
	out := *t
	out.Steps = make([]model.Step, len(t.Steps))
	copy(out.Steps, t.Steps)
	return &out
}
