package views

import (
	"strings"
	"testing"
)

func TestRenderReminderPanel(t *testing.T) {
	out := RenderReminderPanel(ReminderPanelData{
		Filter:     "all",
		SelectedID: 2,
		Stats:      StatsData{Total: 2, Active: 1, Overdue: 1, Completed: 1},
		Items: []ReminderItemData{
			{ID: 1, Title: "Pay rent", DateTime: "2024-03-01T09:00", Priority: "high", Completed: true, Repeat: "monthly"},
			{ID: 2, Title: "Dentist", DateTime: "2024-03-09T10:00", Priority: "low", Overdue: true, Repeat: "none"},
		},
	})
	for _, want := range []string{"reminders (all)", "[x] [DONE] 2024-03-01T09:00 Pay rent (monthly)", "> [ ] [RED] 2024-03-09T10:00 Dentist"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "(none)") {
		t.Fatalf("repeat none should not be shown:\n%s", out)
	}
}

func TestRenderEmptyPanels(t *testing.T) {
	if out := RenderReminderPanel(ReminderPanelData{Filter: "overdue"}); !strings.Contains(out, "(no reminders)") {
		t.Fatalf("unexpected empty reminder panel:\n%s", out)
	}
	if out := RenderAlarmPanel(AlarmPanelData{}); !strings.Contains(out, "no alarms") {
		t.Fatalf("unexpected empty alarm panel:\n%s", out)
	}
	if out := RenderReminderDetail(ReminderDetailData{}); !strings.Contains(out, "no selection") {
		t.Fatalf("unexpected empty detail:\n%s", out)
	}
}

func TestRenderQuestPanel(t *testing.T) {
	out := RenderQuestPanel(QuestPanelData{
		Demo: true, Level: 2, Exp: 50, ExpToNext: 200,
		Quests: []QuestItemData{{ID: 1, Title: "Walk", Icon: "🚶", ExpReward: 25, Type: "exercise", Completed: true}},
	})
	for _, want := range []string{"demo mode", "level 2  exp 50/200  [#####---------------]", "> [x] 🚶 Walk +25 exp [exercise]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestRenderSyncLine(t *testing.T) {
	out := RenderSyncLine(SyncLineData{Backend: "drive", Online: false, Error: "Network error"})
	if out != "sync: drive | offline | signed out | error: Network error" {
		t.Fatalf("unexpected sync line %q", out)
	}
}

func TestExpBarBounds(t *testing.T) {
	if got := expBar(500, 100, 4); got != "[####]" {
		t.Fatalf("expected full bar, got %q", got)
	}
	if got := expBar(0, 0, 4); got != "" {
		t.Fatalf("expected empty bar for zero threshold, got %q", got)
	}
}

func TestRenderAppOmitsEmptyRightPane(t *testing.T) {
	single := RenderApp(AppData{Title: "memoara", Tabs: []string{"Reminders", "Quests"}, ActiveTab: "Quests", LeftPane: "left"})
	double := RenderApp(AppData{Title: "memoara", LeftPane: "left", RightPane: "right", StatusLine: "status: ok", Footer: "q quit"})
	if strings.Count(single, "╭") != 1 {
		t.Fatalf("expected one pane:\n%s", single)
	}
	if strings.Count(double, "╭") != 2 || !strings.Contains(double, "right") {
		t.Fatalf("expected two panes:\n%s", double)
	}
	if !strings.Contains(single, "Quests") || !strings.Contains(double, "q quit") {
		t.Fatalf("missing tab or footer")
	}
}
