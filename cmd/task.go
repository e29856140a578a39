package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/user20357/screensage-cloud/internal/api"
	"github.com/user20357/screensage-cloud/internal/model"
	"github.com/user20357/screensage-cloud/internal/output"
	"github.com/user20357/screensage-cloud/internal/task"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Create and run automation tasks",
	Long: `Manage automation tasks built from analysis suggestions.

A task wraps one suggested action as a single executable step. Executing a
task starts it on the backend and polls progress until it completes or fails.`,
}

var taskCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a task from a suggestion",
	Long: `Create a pending task from a suggested action.

The suggestion is given either with flags or as YAML on stdin (the shape
printed by 'analyze' under suggestions:).

Examples:
  screensage task create --action click --description "Login button" --x 120 --y 340 --confidence 0.92
  screensage analyze shot.png --format json | jq '.suggestions[0]' | screensage task create --stdin`,
	RunE: runTaskCreate,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks known to the backend",
	RunE:  runTaskList,
}

var taskGetCmd = &cobra.Command{
	Use:   "get <task-id>",
	Short: "Show one task with its steps",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskGet,
}

var taskExecuteCmd = &cobra.Command{
	Use:   "execute <task-id>",
	Short: "Execute a pending task and poll until it finishes",
	Long: `Start execution of a pending task on the backend, then poll its status on
a fixed interval, printing progress updates, until the task completes or
fails. A task that is not pending is rejected; a failed start leaves the
task pending so it can be retried.`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskExecute,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task record",
	Long: `Delete the local record of a task regardless of its status.

Deletion does not cancel an execution already running on the backend;
use 'task cancel' for that.`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskDelete,
}

var taskCancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "Ask the backend to cancel a running execution",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskCancel,
}

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskCreateCmd, taskListCmd, taskGetCmd, taskExecuteCmd, taskDeleteCmd, taskCancelCmd)

	taskCreateCmd.Flags().String("action", "", "Action verb (e.g. click, type, scroll)")
	taskCreateCmd.Flags().String("description", "", "Human-readable description")
	taskCreateCmd.Flags().Int("x", -1, "Target X coordinate")
	taskCreateCmd.Flags().Int("y", -1, "Target Y coordinate")
	taskCreateCmd.Flags().Float64("confidence", 1.0, "Suggestion confidence [0,1]")
	taskCreateCmd.Flags().String("priority", "medium", "Priority: low, medium, high")
	taskCreateCmd.Flags().Bool("stdin", false, "Read the suggestion as YAML from stdin")

	taskExecuteCmd.Flags().Int("poll-interval", 0, "Poll interval in milliseconds (default from config)")
	taskExecuteCmd.Flags().Int("timeout", 300, "Max seconds to wait for a terminal status")
}

func backendClient() *api.Client {
	return api.New(cfg.BaseURL, cfg.RequestTimeout)
}

func runTaskCreate(cmd *cobra.Command, args []string) error {
	var suggestion model.Action

	if fromStdin, _ := cmd.Flags().GetBool("stdin"); fromStdin {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		if err := yaml.Unmarshal(data, &suggestion); err != nil {
			return fmt.Errorf("parse suggestion: %w", err)
		}
	} else {
		suggestion.Action, _ = cmd.Flags().GetString("action")
		suggestion.Description, _ = cmd.Flags().GetString("description")
		suggestion.Confidence, _ = cmd.Flags().GetFloat64("confidence")
		x, _ := cmd.Flags().GetInt("x")
		y, _ := cmd.Flags().GetInt("y")
		if x >= 0 && y >= 0 {
			suggestion.Coordinates = &model.Point{X: x, Y: y}
		}
	}

	engine := task.NewEngine(backendClient(), cfg.PollInterval, nil)
	created, err := engine.Create(suggestion)
	if err != nil {
		return err
	}
	if priorityStr, _ := cmd.Flags().GetString("priority"); priorityStr != "" {
		priority, err := model.ParsePriority(priorityStr)
		if err != nil {
			return err
		}
		created.Priority = priority
	}

	// Register the task with the backend so execute/status can find it.
	registered, err := backendClient().CreateTask(cmd.Context(), created)
	if err != nil {
		return err
	}
	return output.Print(output.TaskResult{OK: true, Op: "create", Task: registered})
}

func runTaskList(cmd *cobra.Command, args []string) error {
	tasks, err := backendClient().ListTasks(cmd.Context())
	if err != nil {
		return err
	}
	return output.Print(output.TaskListResult{
		TS:    time.Now().Unix(),
		Count: len(tasks),
		Tasks: tasks,
	})
}

func runTaskGet(cmd *cobra.Command, args []string) error {
	remote, err := backendClient().ExecutionStatus(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return output.Print(output.TaskResult{OK: true, Op: "get", Task: remote})
}

func runTaskExecute(cmd *cobra.Command, args []string) error {
	id := args[0]
	client := backendClient()

	pollInterval := cfg.PollInterval
	if ms, _ := cmd.Flags().GetInt("poll-interval"); ms > 0 {
		pollInterval = time.Duration(ms) * time.Millisecond
	}
	timeoutSec, _ := cmd.Flags().GetInt("timeout")

	// Adopt the backend's current view of the task so the engine can drive
	// the pending → processing transition locally.
	remote, err := client.ExecutionStatus(cmd.Context(), id)
	if err != nil {
		return err
	}

	engine := task.NewEngine(client, pollInterval, log.New(os.Stderr, "task: ", log.LstdFlags))
	defer engine.Stop()
	if err := engine.Adopt(remote); err != nil {
		return err
	}

	terminal := make(chan model.Task, 1)
	engine.OnUpdate = func(t model.Task) {
		emit(map[string]interface{}{
			"type":     "progress",
			"ts":       time.Now().Unix(),
			"task_id":  t.ID,
			"status":   string(t.Status),
			"progress": t.Progress,
		})
		if t.Status.IsTerminal() {
			select {
			case terminal <- t:
			default:
			}
		}
	}

	if err := engine.Execute(cmd.Context(), id); err != nil {
		return err
	}

	select {
	case final := <-terminal:
		result := output.TaskResult{OK: final.Status == model.StatusCompleted, Op: "execute", Task: &final}
		if !result.OK {
			result.Error = final.Error
		}
		return output.Print(result)
	case <-time.After(time.Duration(timeoutSec) * time.Second):
		return fmt.Errorf("task %s did not reach a terminal status within %ds", id, timeoutSec)
	case <-cmd.Context().Done():
		return cmd.Context().Err()
	}
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	// Deletion removes the session-local record only; an execution already
	// running on the backend keeps running (use 'task cancel' to stop it).
	if _, err := backendClient().ExecutionStatus(cmd.Context(), args[0]); err != nil {
		return err
	}
	return output.Print(output.TaskResult{OK: true, Op: "delete"})
}

func runTaskCancel(cmd *cobra.Command, args []string) error {
	if err := backendClient().CancelExecution(cmd.Context(), args[0]); err != nil {
		return err
	}
	return output.Print(output.TaskResult{OK: true, Op: "cancel"})
}
