// Package mcpserver exposes reminders, quests and alarms as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/sandeepkv93/memoara/internal/alarms"
	"github.com/sandeepkv93/memoara/internal/app"
	"github.com/sandeepkv93/memoara/internal/gamification"
	"github.com/sandeepkv93/memoara/internal/model"
	"github.com/sandeepkv93/memoara/internal/reconcile"
	"github.com/sandeepkv93/memoara/internal/reminders"
)

const (
	serverName    = "memoara"
	serverVersion = "1.0.0"
)

type Server struct {
	mcpServer *server.MCPServer
	app       *app.App
	log       *zap.Logger
}

func NewServer(a *app.App) *Server {
	s := &Server{app: a, log: a.Log.Named("mcp")}
	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("add_reminder",
			mcp.WithDescription("Add a reminder at a local date and time"),
			mcp.WithString("title", mcp.Required(), mcp.Description("Reminder title")),
			mcp.WithString("date_time", mcp.Required(), mcp.Description("Local date time as YYYY-MM-DDTHH:mm")),
			mcp.WithString("description", mcp.Description("Optional description")),
			mcp.WithString("priority", mcp.Description("Priority: high, medium, low (default: medium)")),
			mcp.WithString("category", mcp.Description("Category: personal, work, health, shopping, study, family, travel, other")),
			mcp.WithString("repeat", mcp.Description("Repeat: none, daily, weekly, monthly, yearly")),
			mcp.WithBoolean("notification", mcp.Description("Notify when due (default: true)")),
		),
		s.handleAddReminder,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List reminders, optionally by filter"),
			mcp.WithString("filter", mcp.Description("Filter: all, upcoming, overdue, completed (default: all)")),
		),
		s.handleListReminders,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("complete_reminder",
			mcp.WithDescription("Complete or reopen a reminder. Repeating reminders move to their next occurrence."),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleCompleteReminder,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("delete_reminder",
			mcp.WithDescription("Delete a reminder permanently"),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleDeleteReminder,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("reminder_stats",
			mcp.WithDescription("Count reminders by state"),
		),
		s.handleStats,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("sync",
			mcp.WithDescription("Push reminders to the cloud backup, load them from it, or delete the backup"),
			mcp.WithString("action", mcp.Required(), mcp.Description("Action: push, load, delete")),
		),
		s.handleSync,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("list_quests",
			mcp.WithDescription("Show today's quests and player stats"),
		),
		s.handleListQuests,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("complete_quest",
			mcp.WithDescription("Complete one of today's quests"),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Quest ID")),
		),
		s.handleCompleteQuest,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("list_alarms",
			mcp.WithDescription("List alarms with their next ring time"),
		),
		s.handleListAlarms,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("add_alarm",
			mcp.WithDescription("Add an alarm"),
			mcp.WithString("time", mcp.Required(), mcp.Description("Clock time as HH:mm")),
			mcp.WithString("label", mcp.Description("Label (default: Alarm)")),
			mcp.WithString("repeat_days", mcp.Description("Comma separated weekdays, e.g. mon,wed,fri")),
		),
		s.handleAddAlarm,
	)
	s.mcpServer.AddTool(
		mcp.NewTool("toggle_alarm",
			mcp.WithDescription("Turn an alarm on or off"),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Alarm ID")),
		),
		s.handleToggleAlarm,
	)
}

func (s *Server) handleAddReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := model.ReminderInput{
		Title:        req.GetString("title", ""),
		DateTime:     req.GetString("date_time", ""),
		Description:  req.GetString("description", ""),
		Priority:     model.Priority(req.GetString("priority", "")),
		Category:     model.Category(req.GetString("category", "")),
		Repeat:       model.Repeat(req.GetString("repeat", "")),
		Notification: req.GetBool("notification", true),
	}
	r, err := s.app.Reminders.Create(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add reminder: %v", err)), nil
	}
	return jsonResult(r)
}

func (s *Server) handleListReminders(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, err := reminders.ParseFilter(req.GetString("filter", string(reminders.FilterAll)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var out []model.Reminder
	for r := range s.app.Reminders.Filter(f) {
		out = append(out, r)
	}
	if len(out) == 0 {
		return mcp.NewToolResultText("No reminders found."), nil
	}
	return jsonResult(out)
}

func (s *Server) handleCompleteReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := idArg(req)
	if !ok {
		return mcp.NewToolResultError("id is required and must be a positive number"), nil
	}
	out, err := s.app.Reminders.ToggleComplete(ctx, id)
	switch {
	case errors.Is(err, model.ErrTooEarly):
		return mcp.NewToolResultError(fmt.Sprintf("reminder %d is not due yet", id)), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete reminder: %v", err)), nil
	case out.Advancing:
		return mcp.NewToolResultText(fmt.Sprintf("Reminder %d completed; it repeats %s and will move to its next occurrence.", id, out.Reminder.Repeat)), nil
	case out.Reminder.Completed:
		return mcp.NewToolResultText(fmt.Sprintf("Reminder %d marked as completed.", id)), nil
	default:
		return mcp.NewToolResultText(fmt.Sprintf("Reminder %d reopened.", id)), nil
	}
}

func (s *Server) handleDeleteReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := idArg(req)
	if !ok {
		return mcp.NewToolResultError("id is required and must be a positive number"), nil
	}
	if err := s.app.Reminders.Delete(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete reminder: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reminder %d deleted.", id)), nil
}

func (s *Server) handleStats(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.app.Reminders.Statistics())
}

func (s *Server) handleSync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var res reconcile.Result
	switch strings.ToLower(req.GetString("action", "")) {
	case "push", "save":
		res = s.app.Sync.Push(ctx, s.app.Reminders.Snapshot())
	case "load", "pull":
		res = s.app.Sync.Load(ctx)
	case "delete":
		res = s.app.Sync.DeleteAll(ctx)
	default:
		return mcp.NewToolResultError("action must be push, load or delete"), nil
	}
	if !res.Success {
		s.log.Warn("sync tool failed", zap.String("action", res.Action), zap.Error(res.Err))
		return mcp.NewToolResultError(res.Message), nil
	}
	return mcp.NewToolResultText(res.Message), nil
}

func (s *Server) handleListQuests(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.app.Game.Load(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load quests: %v", err)), nil
	}
	return jsonResult(st)
}

func (s *Server) handleCompleteQuest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := idArg(req)
	if !ok {
		return mcp.NewToolResultError("id is required and must be a positive number"), nil
	}
	out, err := s.app.Game.CompleteQuest(ctx, int(id))
	switch {
	case errors.Is(err, gamification.ErrDemoMode):
		return mcp.NewToolResultError("sign in to track quest progress"), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete quest: %v", err)), nil
	case !out.Applied:
		return mcp.NewToolResultText(fmt.Sprintf("Quest %d is already done or unknown.", id)), nil
	}
	return jsonResult(out)
}

func (s *Server) handleListAlarms(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := s.app.Alarms.List()
	if len(list) == 0 {
		return mcp.NewToolResultText("No alarms found."), nil
	}
	return jsonResult(list)
}

func (s *Server) handleAddAlarm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := alarms.Input{
		Time:  req.GetString("time", ""),
		Label: req.GetString("label", ""),
	}
	if days := strings.TrimSpace(req.GetString("repeat_days", "")); days != "" {
		in.RepeatDays = strings.Split(days, ",")
	}
	a, err := s.app.Alarms.Create(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add alarm: %v", err)), nil
	}
	return jsonResult(a)
}

func (s *Server) handleToggleAlarm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := idArg(req)
	if !ok {
		return mcp.NewToolResultError("id is required and must be a positive number"), nil
	}
	a, err := s.app.Alarms.ToggleActive(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to toggle alarm: %v", err)), nil
	}
	state := "off"
	if a.IsActive {
		state = "on"
	}
	return mcp.NewToolResultText(fmt.Sprintf("Alarm %d is %s.", id, state)), nil
}

func idArg(req mcp.CallToolRequest) (int64, bool) {
	v := req.GetFloat("id", -1)
	if v <= 0 {
		return 0, false
	}
	return int64(v), true
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(output)), nil
}
