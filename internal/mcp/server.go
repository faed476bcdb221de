// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the taskday store as MCP tools for AI assistants.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/taskday/internal/core"
	"github.com/valter-silva-au/taskday/internal/observability"
	"github.com/valter-silva-au/taskday/pkg/models"
)

const dateLayout = "2006-01-02"

// Config holds the dependencies of a Server.
type Config struct {
	Store core.TaskStore
	// AlertEngine may be nil, in which case get_alerts reports an error.
	AlertEngine observability.AlertEngine
	// Policy decides whether unknown task ids and failed saves are reported
	// as tool errors. Defaults to silent.
	Policy      models.ErrorPolicy
	StatsWindow int
	// ExtendedFields reports whether the task file keeps descriptions and
	// priorities. Without it add_task and update_task reject them.
	ExtendedFields bool
	Version        string
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Server wraps the task store and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	store       core.TaskStore
	alertEngine observability.AlertEngine
	policy      models.ErrorPolicy
	statsWindow int
	extended    bool
	now         func() time.Time
}

// NewServer creates a new MCP server over cfg.Store.
func NewServer(cfg Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		store:       cfg.Store,
		alertEngine: cfg.AlertEngine,
		policy:      cfg.Policy,
		statsWindow: cfg.StatsWindow,
		extended:    cfg.ExtendedFields,
		now:         cfg.Now,
	}
	if s.policy == "" {
		s.policy = models.PolicySilent
	}
	if s.statsWindow <= 0 {
		s.statsWindow = 30
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "taskday", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type taskOutput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority"`
	CreatedAt   string `json:"created_at"`
	DueDate     string `json:"due_date,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
	IsCompleted bool   `json:"is_completed"`
	IsInBacklog bool   `json:"is_in_backlog"`
}

type listTasksInput struct {
	View string `json:"view,omitempty" jsonschema:"which tasks to list: today (default), backlog, completed or all"`
}

type listTasksOutput struct {
	View  string       `json:"view"`
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type addTaskInput struct {
	Title       string `json:"title" jsonschema:"required,the task title"`
	Description string `json:"description,omitempty" jsonschema:"optional longer description"`
	Priority    string `json:"priority,omitempty" jsonschema:"low, medium (default), high or urgent"`
	DueDate     string `json:"due_date,omitempty" jsonschema:"due date as YYYY-MM-DD; without one the task goes to the backlog"`
}

type updateTaskInput struct {
	TaskID      string  `json:"task_id" jsonschema:"required,the task id or a unique prefix of it"`
	Title       *string `json:"title,omitempty" jsonschema:"new title"`
	Description *string `json:"description,omitempty" jsonschema:"new description"`
	Priority    *string `json:"priority,omitempty" jsonschema:"new priority: low, medium, high or urgent"`
	DueDate     *string `json:"due_date,omitempty" jsonschema:"new due date as YYYY-MM-DD"`
}

type taskRefInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task id or a unique prefix of it"`
}

type moveFromBacklogInput struct {
	TaskID  string `json:"task_id" jsonschema:"required,the task id or a unique prefix of it"`
	DueDate string `json:"due_date,omitempty" jsonschema:"new due date as YYYY-MM-DD; omitted keeps the current one"`
}

type mutationOutput struct {
	TaskID    string `json:"task_id,omitempty"`
	Found     bool   `json:"found"`
	Persisted bool   `json:"persisted"`
	Message   string `json:"message"`
}

type getStatsInput struct {
	Days int `json:"days,omitempty" jsonschema:"number of days ending today (defaults to the configured window)"`
}

type dayCountOutput struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type getStatsOutput struct {
	Days      []dayCountOutput `json:"days"`
	Total     int              `json:"total"`
	Today     int              `json:"today"`
	Backlog   int              `json:"backlog"`
	Completed int              `json:"completed"`
	Overdue   int              `json:"overdue"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks in one view: today (default), backlog, completed or all.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_task",
		Description: "Add a task. Without a due date the task goes to the backlog.",
	}, s.handleAddTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_task",
		Description: "Change a task's title, description, priority or due date.",
	}, s.handleUpdateTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task as completed.",
	}, s.handleCompleteTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "move_to_backlog",
		Description: "Move a task to the backlog. Its due date is kept.",
	}, s.handleMoveToBacklog)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "move_from_backlog",
		Description: "Move a task out of the backlog, optionally setting a new due date.",
	}, s.handleMoveFromBacklog)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task permanently.",
	}, s.handleDeleteTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_stats",
		Description: "Get the number of tasks completed per day for the last N days, plus counts per view.",
	}, s.handleGetStats)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (overdue tasks, backlog size, stale backlog, failed saves).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	view := strings.ToLower(strings.TrimSpace(input.View))
	var tasks []models.Task
	switch view {
	case "", "today":
		view = "today"
		tasks = s.store.GetToday()
	case "backlog":
		tasks = s.store.GetBacklog()
	case "completed":
		tasks = s.store.GetCompleted()
	case "all":
		tasks = s.store.GetAll()
	default:
		return errorResult(fmt.Sprintf("invalid view %q: must be one of today, backlog, completed, all", input.View)), emptyListOutput(), nil
	}

	out := listTasksOutput{
		View:  view,
		Tasks: make([]taskOutput, len(tasks)),
		Count: len(tasks),
	}
	for i, t := range tasks {
		out.Tasks[i] = taskToOutput(t)
	}

	return nil, out, nil
}

func (s *Server) handleAddTask(_ context.Context, _ *gomcp.CallToolRequest, input addTaskInput) (*gomcp.CallToolResult, mutationOutput, error) {
	title := models.CleanText(input.Title)
	if title == "" {
		return errorResult("title is required"), mutationOutput{}, nil
	}
	if !s.extended && (input.Description != "" || input.Priority != "") {
		return errorResult(core.ErrExtendedFieldsDisabled.Error()), mutationOutput{}, nil
	}

	task := models.NewTask(title)
	task.CreatedAt = s.now()
	task.Description = models.CleanText(input.Description)
	if input.Priority != "" {
		p, err := models.ParsePriority(input.Priority)
		if err != nil {
			return errorResult(err.Error()), mutationOutput{}, nil
		}
		task.Priority = p
	}
	if input.DueDate != "" {
		due, err := parseDate(input.DueDate)
		if err != nil {
			return errorResult(err.Error()), mutationOutput{}, nil
		}
		task.DueDate = &due
	}
	task.IsInBacklog = task.DueDate == nil

	return s.mutationResult(s.store.Add(task), "task added")
}

func (s *Server) handleUpdateTask(_ context.Context, _ *gomcp.CallToolRequest, input updateTaskInput) (*gomcp.CallToolResult, mutationOutput, error) {
	if !s.extended && (input.Description != nil || input.Priority != nil) {
		return errorResult(core.ErrExtendedFieldsDisabled.Error()), mutationOutput{}, nil
	}
	id, res, out := s.resolve(input.TaskID)
	if res != nil || !out.Found {
		return res, out, nil
	}

	var task models.Task
	for _, t := range s.store.GetAll() {
		if t.ID == id {
			task = t
			break
		}
	}
	task.ID = id

	if input.Title != nil {
		title := models.CleanText(*input.Title)
		if title == "" {
			return errorResult("title must not be empty"), mutationOutput{}, nil
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = models.CleanText(*input.Description)
	}
	if input.Priority != nil {
		p, err := models.ParsePriority(*input.Priority)
		if err != nil {
			return errorResult(err.Error()), mutationOutput{}, nil
		}
		task.Priority = p
	}
	if input.DueDate != nil {
		due, err := parseDate(*input.DueDate)
		if err != nil {
			return errorResult(err.Error()), mutationOutput{}, nil
		}
		task.DueDate = &due
	}

	return s.mutationResult(s.store.Update(task), "task updated")
}

func (s *Server) handleCompleteTask(_ context.Context, _ *gomcp.CallToolRequest, input taskRefInput) (*gomcp.CallToolResult, mutationOutput, error) {
	id, res, out := s.resolve(input.TaskID)
	if res != nil || !out.Found {
		return res, out, nil
	}
	return s.mutationResult(s.store.Complete(id), "task completed")
}

func (s *Server) handleMoveToBacklog(_ context.Context, _ *gomcp.CallToolRequest, input taskRefInput) (*gomcp.CallToolResult, mutationOutput, error) {
	id, res, out := s.resolve(input.TaskID)
	if res != nil || !out.Found {
		return res, out, nil
	}
	return s.mutationResult(s.store.MoveToBacklog(id), "task moved to backlog")
}

func (s *Server) handleMoveFromBacklog(_ context.Context, _ *gomcp.CallToolRequest, input moveFromBacklogInput) (*gomcp.CallToolResult, mutationOutput, error) {
	var due *time.Time
	if input.DueDate != "" {
		d, err := parseDate(input.DueDate)
		if err != nil {
			return errorResult(err.Error()), mutationOutput{}, nil
		}
		due = &d
	}
	id, res, out := s.resolve(input.TaskID)
	if res != nil || !out.Found {
		return res, out, nil
	}
	return s.mutationResult(s.store.MoveFromBacklog(id, due), "task moved out of backlog")
}

func (s *Server) handleDeleteTask(_ context.Context, _ *gomcp.CallToolRequest, input taskRefInput) (*gomcp.CallToolResult, mutationOutput, error) {
	id, res, out := s.resolve(input.TaskID)
	if res != nil || !out.Found {
		return res, out, nil
	}
	return s.mutationResult(s.store.Delete(id), "task deleted")
}

func (s *Server) handleGetStats(_ context.Context, _ *gomcp.CallToolRequest, input getStatsInput) (*gomcp.CallToolResult, getStatsOutput, error) {
	days := input.Days
	if days == 0 {
		days = s.statsWindow
	}
	if days < 0 {
		return errorResult("days must be positive"), getStatsOutput{Days: []dayCountOutput{}}, nil
	}

	stats := s.store.GetStats(days)
	summary := s.store.Summary()
	out := getStatsOutput{
		Days:      make([]dayCountOutput, len(stats)),
		Total:     summary.Total,
		Today:     summary.Today,
		Backlog:   summary.Backlog,
		Completed: summary.Completed,
		Overdue:   summary.Overdue,
	}
	for i, d := range stats {
		out.Days[i] = dayCountOutput{Date: d.Date.Format(dateLayout), Count: d.Count}
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available"), getAlertsOutput{Alerts: []alertOutput{}}, nil
	}

	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{Alerts: []alertOutput{}}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

// resolve maps a task reference to an id. A non-nil result means the call
// should end with that result. Under the silent policy an unknown id ends
// the call successfully with Found false.
func (s *Server) resolve(ref string) (uuid.UUID, *gomcp.CallToolResult, mutationOutput) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return uuid.Nil, errorResult("task_id is required"), mutationOutput{}
	}

	id, err := s.store.Resolve(ref)
	switch {
	case err == nil:
		return id, nil, mutationOutput{TaskID: id.String(), Found: true}
	case errors.Is(err, core.ErrAmbiguousRef) || s.policy == models.PolicyStrict:
		return uuid.Nil, errorResult(err.Error()), mutationOutput{}
	default:
		return uuid.Nil, nil, mutationOutput{TaskID: ref, Message: "no task matched " + ref}
	}
}

// mutationResult turns a store outcome into a tool result, honouring the
// configured error policy.
func (s *Server) mutationResult(o core.Outcome, msg string) (*gomcp.CallToolResult, mutationOutput, error) {
	out := mutationOutput{
		TaskID:    o.ID.String(),
		Found:     o.Found(),
		Persisted: o.Persisted,
		Message:   msg,
	}
	if err := o.Err(); err != nil {
		if s.policy == models.PolicyStrict {
			return errorResult(err.Error()), out, nil
		}
		out.Message = msg + " (" + err.Error() + ")"
	}
	return nil, out, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return d, models.CheckDate(d)
}

func taskToOutput(t models.Task) taskOutput {
	out := taskOutput{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Priority:    strings.ToLower(t.Priority.String()),
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		IsCompleted: t.IsCompleted,
		IsInBacklog: t.IsInBacklog,
	}
	if t.DueDate != nil {
		out.DueDate = t.DueDate.Format(dateLayout)
	}
	if t.CompletedAt != nil {
		out.CompletedAt = t.CompletedAt.Format(time.RFC3339)
	}
	return out
}

func emptyListOutput() listTasksOutput {
	return listTasksOutput{Tasks: []taskOutput{}}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
