package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/user20357/screensage-cloud/internal/api"
	"github.com/user20357/screensage-cloud/internal/model"
	"github.com/user20357/screensage-cloud/internal/output"
	"github.com/user20357/screensage-cloud/internal/project"
	"github.com/user20357/screensage-cloud/internal/task"
)

// mcpScreensage wraps the MCP server with the backend client and a
// session-lived task engine.
type mcpScreensage struct {
	client *api.Client
	engine *task.Engine
	mcp    *mcpserver.MCPServer
}

// newMCPServer creates and configures an MCP server with all screensage tools.
func newMCPServer() (*mcpScreensage, error) {
	client := api.New(cfg.BaseURL, cfg.RequestTimeout)
	s := &mcpScreensage{
		client: client,
		engine: task.NewEngine(client, cfg.PollInterval, log.New(os.Stderr, "mcp: ", log.LstdFlags)),
	}

	s.mcp = mcpserver.NewMCPServer(
		"screensage",
		"1.0.0",
	)

	s.registerTools()
	return s, nil
}

// serve starts the MCP server with the configured transport.
func (s *mcpScreensage) serve(transport string, port int) error {
	switch transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", transport)
	}
}

func (s *mcpScreensage) shutdown() {
	s.engine.Stop()
}

func (s *mcpScreensage) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("analyze",
			mcp.WithDescription("Analyze a screen image: extract text, detect UI elements, and suggest automation actions"),
			mcp.WithString("path", mcp.Description("Path to the image file"), mcp.Required()),
			mcp.WithBoolean("summary", mcp.Description("Return a condensed summary instead of the full result")),
		),
		s.handleAnalyze,
	)

	s.mcp.AddTool(
		mcp.NewTool("task_create",
			mcp.WithDescription("Create a pending automation task from a suggested action"),
			mcp.WithString("action", mcp.Description("Action verb (e.g. click, type, scroll)"), mcp.Required()),
			mcp.WithString("description", mcp.Description("Human-readable description")),
			mcp.WithNumber("x", mcp.Description("Target X coordinate")),
			mcp.WithNumber("y", mcp.Description("Target Y coordinate")),
			mcp.WithNumber("confidence", mcp.Description("Suggestion confidence [0,1], default 1")),
		),
		s.handleTaskCreate,
	)

	s.mcp.AddTool(
		mcp.NewTool("task_list",
			mcp.WithDescription("List tasks in this session"),
		),
		s.handleTaskList,
	)

	s.mcp.AddTool(
		mcp.NewTool("task_get",
			mcp.WithDescription("Get one task with its steps and progress"),
			mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		),
		s.handleTaskGet,
	)

	s.mcp.AddTool(
		mcp.NewTool("task_execute",
			mcp.WithDescription("Start executing a pending task; progress is polled in the background, check it with task_get"),
			mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		),
		s.handleTaskExecute,
	)

	s.mcp.AddTool(
		mcp.NewTool("task_delete",
			mcp.WithDescription("Delete a task from this session (does not cancel a running remote execution)"),
			mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		),
		s.handleTaskDelete,
	)

	s.mcp.AddTool(
		mcp.NewTool("task_cancel",
			mcp.WithDescription("Ask the backend to cancel a running execution"),
			mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		),
		s.handleTaskCancel,
	)
}

// toText serializes v to YAML for an MCP response.
func toText(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

func (s *mcpScreensage) handleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	path := StringParam(params, "path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}

	image, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.client.AnalyzeScreenshot(ctx, filepath.Base(path), image)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if BoolParam(params, "summary", false) {
		return mcp.NewToolResultText(toText(project.Summarize(result))), nil
	}
	return mcp.NewToolResultText(toText(output.AnalyzeResult{
		Source:      filepath.Base(path),
		Analysis:    *result,
		Suggestions: project.Suggestions(result),
	})), nil
}

func (s *mcpScreensage) handleTaskCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	suggestion := model.Action{
		Action:      StringParam(params, "action", ""),
		Description: StringParam(params, "description", ""),
		Confidence:  FloatParam(params, "confidence", 1.0),
	}
	x := IntParam(params, "x", -1)
	y := IntParam(params, "y", -1)
	if x >= 0 && y >= 0 {
		suggestion.Coordinates = &model.Point{X: x, Y: y}
	}

	created, err := s.engine.Create(suggestion)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.client.CreateTask(ctx, created); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(toText(created)), nil
}

func (s *mcpScreensage) handleTaskList(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(toText(s.engine.List())), nil
}

func (s *mcpScreensage) handleTaskGet(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := StringParam(request.GetArguments(), "id", "")
	got, ok := s.engine.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("task %s not found", id)), nil
	}
	return mcp.NewToolResultText(toText(got)), nil
}

func (s *mcpScreensage) handleTaskExecute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := StringParam(request.GetArguments(), "id", "")
	if err := s.engine.Execute(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	got, _ := s.engine.Get(id)
	return mcp.NewToolResultText(toText(got)), nil
}

func (s *mcpScreensage) handleTaskDelete(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := StringParam(request.GetArguments(), "id", "")
	if err := s.engine.Delete(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(toText(output.TaskResult{OK: true, Op: "delete"})), nil
}

func (s *mcpScreensage) handleTaskCancel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := StringParam(request.GetArguments(), "id", "")
	if err := s.engine.Cancel(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(toText(output.TaskResult{OK: true, Op: "cancel"})), nil
}
