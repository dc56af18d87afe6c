package mcpserver

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap/zaptest"

	"github.com/sandeepkv93/memoara/internal/app"
	"github.com/sandeepkv93/memoara/internal/config"
	"github.com/sandeepkv93/memoara/internal/model"
	"github.com/sandeepkv93/memoara/internal/notify"
	"github.com/sandeepkv93/memoara/internal/reminders"
	"github.com/sandeepkv93/memoara/internal/storage"
)

var start = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Reminders.Timezone = "UTC"
	cfg.Sync.Debounce = time.Hour
	a, err := app.New(t.Context(), cfg, zaptest.NewLogger(t), app.Options{
		Clock:      func() time.Time { return start },
		Repository: storage.NewMemoryRepository(),
		Sender:     notify.NoopSender{},
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return NewServer(a)
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return tc.Text
}

func TestAddAndListReminders(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleAddReminder(t.Context(), call(map[string]any{
		"title":     "Water plants",
		"date_time": "2024-03-10T18:00",
		"repeat":    "weekly",
		"category":  "health",
	}))
	if err != nil || res.IsError {
		t.Fatalf("add failed: %v %s", err, text(t, res))
	}
	var created model.Reminder
	if err := json.Unmarshal([]byte(text(t, res)), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Repeat != model.RepeatWeekly || !created.Notification || created.Priority != model.PriorityMedium {
		t.Fatalf("unexpected reminder %+v", created)
	}

	res, _ = s.handleListReminders(t.Context(), call(map[string]any{"filter": "upcoming"}))
	if !strings.Contains(text(t, res), "Water plants") {
		t.Fatalf("expected reminder in upcoming list: %s", text(t, res))
	}
	res, _ = s.handleListReminders(t.Context(), call(map[string]any{"filter": "completed"}))
	if text(t, res) != "No reminders found." {
		t.Fatalf("expected empty completed list, got %s", text(t, res))
	}
	res, _ = s.handleListReminders(t.Context(), call(map[string]any{"filter": "soon"}))
	if !res.IsError {
		t.Fatalf("expected error for unknown filter")
	}
}

func TestAddReminderValidation(t *testing.T) {
	s := newTestServer(t)
	res, _ := s.handleAddReminder(t.Context(), call(map[string]any{"title": "x", "date_time": "tomorrow"}))
	if !res.IsError {
		t.Fatalf("expected error for bad date time")
	}
}

func TestCompleteAndDeleteReminder(t *testing.T) {
	s := newTestServer(t)
	past, err := s.app.Reminders.Create(t.Context(), model.ReminderInput{Title: "Pay rent", DateTime: "2024-03-10T08:00"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	future, err := s.app.Reminders.Create(t.Context(), model.ReminderInput{Title: "Flight", DateTime: "2024-04-01T08:00"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, _ := s.handleCompleteReminder(t.Context(), call(map[string]any{"id": float64(past.ID)}))
	if res.IsError || !strings.Contains(text(t, res), "marked as completed") {
		t.Fatalf("unexpected complete result %s", text(t, res))
	}
	res, _ = s.handleCompleteReminder(t.Context(), call(map[string]any{"id": float64(future.ID)}))
	if !res.IsError || !strings.Contains(text(t, res), "not due yet") {
		t.Fatalf("expected too early error, got %s", text(t, res))
	}
	res, _ = s.handleCompleteReminder(t.Context(), call(map[string]any{}))
	if !res.IsError {
		t.Fatalf("expected error without id")
	}

	res, _ = s.handleDeleteReminder(t.Context(), call(map[string]any{"id": float64(future.ID)}))
	if res.IsError {
		t.Fatalf("delete failed: %s", text(t, res))
	}
	res, _ = s.handleStats(t.Context(), call(nil))
	var st reminders.Stats
	if err := json.Unmarshal([]byte(text(t, res)), &st); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if st.Total != 1 || st.Completed != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestSyncWithoutBackend(t *testing.T) {
	s := newTestServer(t)
	res, _ := s.handleSync(t.Context(), call(map[string]any{"action": "push"}))
	if !res.IsError {
		t.Fatalf("expected push to fail without a backend")
	}
	res, _ = s.handleSync(t.Context(), call(map[string]any{"action": "merge"}))
	if !res.IsError || !strings.Contains(text(t, res), "push, load or delete") {
		t.Fatalf("expected action error, got %s", text(t, res))
	}
}

func TestQuestsWithoutSession(t *testing.T) {
	s := newTestServer(t)
	res, _ := s.handleListQuests(t.Context(), call(nil))
	if res.IsError || !strings.Contains(text(t, res), `"Demo": true`) {
		t.Fatalf("expected demo quests, got %s", text(t, res))
	}
	res, _ = s.handleCompleteQuest(t.Context(), call(map[string]any{"id": float64(1)}))
	if !res.IsError || !strings.Contains(text(t, res), "sign in") {
		t.Fatalf("expected sign in error, got %s", text(t, res))
	}
}

func TestAlarmTools(t *testing.T) {
	s := newTestServer(t)
	res, _ := s.handleAddAlarm(t.Context(), call(map[string]any{"time": "06:45", "repeat_days": "mon,fri"}))
	if res.IsError {
		t.Fatalf("add alarm failed: %s", text(t, res))
	}
	var a model.Alarm
	if err := json.Unmarshal([]byte(text(t, res)), &a); err != nil {
		t.Fatalf("decode alarm: %v", err)
	}
	if a.Label != model.DefaultAlarmLabel || len(a.RepeatDays) != 2 {
		t.Fatalf("unexpected alarm %+v", a)
	}
	res, _ = s.handleToggleAlarm(t.Context(), call(map[string]any{"id": float64(a.ID)}))
	if text(t, res) != "Alarm "+strconv.FormatInt(a.ID, 10)+" is off." {
		t.Fatalf("unexpected toggle result %s", text(t, res))
	}
	res, _ = s.handleAddAlarm(t.Context(), call(map[string]any{"time": "25:00"}))
	if !res.IsError {
		t.Fatalf("expected invalid clock error")
	}
}
