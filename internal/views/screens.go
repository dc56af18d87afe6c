package views

import (
	"fmt"
	"strings"
)

type ReminderItemData struct {
	ID        int64
	Title     string
	DateTime  string
	Priority  string
	Category  string
	Repeat    string
	Completed bool
	Overdue   bool
}

type StatsData struct {
	Total     int
	Active    int
	Upcoming  int
	Overdue   int
	Completed int
}

type ReminderPanelData struct {
	Filter     string
	Items      []ReminderItemData
	SelectedID int64
	Stats      StatsData
}

type ReminderDetailData struct {
	Item         *ReminderItemData
	Notification bool
	MarkdownView string
}

type QuestItemData struct {
	ID        int
	Title     string
	Icon      string
	Type      string
	ExpReward int
	Completed bool
}

type QuestPanelData struct {
	Demo         bool
	Level        int
	Exp          int
	ExpToNext    int
	Strength     int
	Agility      int
	Vitality     int
	Intelligence int
	Quests       []QuestItemData
	Cursor       int
}

type AlarmItemData struct {
	ID         int64
	Time       string
	Label      string
	Active     bool
	RepeatDays []string
	NextFire   string
}

type AlarmPanelData struct {
	Items  []AlarmItemData
	Cursor int
}

type SyncLineData struct {
	Backend       string
	Online        bool
	Authenticated bool
	Loading       bool
	Spinner       string
	LastSync      string
	Error         string
	Success       string
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderReminderPanel(data ReminderPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("reminders (%s):\n", data.Filter))
	b.WriteString(fmt.Sprintf("total %d | active %d | upcoming %d | overdue %d | done %d\n",
		data.Stats.Total, data.Stats.Active, data.Stats.Upcoming, data.Stats.Overdue, data.Stats.Completed))
	b.WriteString("actions: [j/k]move [space]done [d]delete [f]filter\n")
	if len(data.Items) == 0 {
		b.WriteString("\n(no reminders)")
		return b.String()
	}
	b.WriteString("\n")
	for _, item := range data.Items {
		cursor := " "
		if item.ID == data.SelectedID {
			cursor = ">"
		}
		check := "[ ]"
		if item.Completed {
			check = "[x]"
		}
		b.WriteString(fmt.Sprintf("%s %s %s %s %s", cursor, check, urgencyBadge(item), item.DateTime, item.Title))
		if item.Repeat != "" && item.Repeat != "none" {
			b.WriteString(fmt.Sprintf(" (%s)", item.Repeat))
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func RenderReminderDetail(data ReminderDetailData) string {
	if data.Item == nil {
		return "details:\n(no selection)"
	}
	item := data.Item
	notif := "off"
	if data.Notification {
		notif = "on"
	}
	out := fmt.Sprintf("details:\nid: %d\nwhen: %s\npriority: %s\ncategory: %s\nrepeat: %s\nnotification: %s",
		item.ID, item.DateTime, item.Priority, item.Category, item.Repeat, notif)
	if data.MarkdownView != "" {
		out += "\n\n" + data.MarkdownView
	}
	return out
}

func RenderQuestPanel(data QuestPanelData) string {
	var b strings.Builder
	b.WriteString("daily quests:\n")
	if data.Demo {
		b.WriteString("demo mode: sign in to track progress\n")
	}
	b.WriteString(fmt.Sprintf("level %d  exp %d/%d  %s\n", data.Level, data.Exp, data.ExpToNext, expBar(data.Exp, data.ExpToNext, 20)))
	b.WriteString(fmt.Sprintf("STR %d  AGI %d  VIT %d  INT %d\n", data.Strength, data.Agility, data.Vitality, data.Intelligence))
	b.WriteString("actions: [j/k]move [space]complete\n\n")
	for i, q := range data.Quests {
		cursor := " "
		if i == data.Cursor {
			cursor = ">"
		}
		check := "[ ]"
		if q.Completed {
			check = "[x]"
		}
		b.WriteString(fmt.Sprintf("%s %s %s %s +%d exp [%s]\n", cursor, check, q.Icon, q.Title, q.ExpReward, q.Type))
	}
	return strings.TrimSpace(b.String())
}

func RenderAlarmPanel(data AlarmPanelData) string {
	var b strings.Builder
	b.WriteString("alarms:\n")
	b.WriteString("actions: [j/k]move [space]on/off [s]snooze [d]delete\n")
	if len(data.Items) == 0 {
		b.WriteString("\n(no alarms, try /alarm 07:00 wake up)")
		return b.String()
	}
	b.WriteString("\n")
	for i, a := range data.Items {
		cursor := " "
		if i == data.Cursor {
			cursor = ">"
		}
		state := "off"
		if a.Active {
			state = "on "
		}
		days := "once"
		if len(a.RepeatDays) > 0 {
			days = strings.Join(a.RepeatDays, ",")
		}
		b.WriteString(fmt.Sprintf("%s [%s] %s %s (%s)", cursor, state, a.Time, a.Label, days))
		if a.Active && a.NextFire != "" {
			b.WriteString(" next: " + a.NextFire)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func RenderSyncLine(data SyncLineData) string {
	net := "online"
	if !data.Online {
		net = "offline"
	}
	who := "signed out"
	if data.Authenticated {
		who = "signed in"
	}
	parts := []string{fmt.Sprintf("sync: %s", data.Backend), net, who}
	if data.Loading {
		parts = append(parts, data.Spinner+" syncing")
	}
	if data.LastSync != "" {
		parts = append(parts, "last "+data.LastSync)
	}
	switch {
	case data.Error != "":
		parts = append(parts, "error: "+data.Error)
	case data.Success != "":
		parts = append(parts, data.Success)
	}
	return strings.Join(parts, " | ")
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s view:\n%s\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}

func urgencyBadge(item ReminderItemData) string {
	if item.Completed {
		return "[DONE]"
	}
	if item.Overdue || item.Priority == "high" {
		return "[RED]"
	}
	if item.Priority == "medium" {
		return "[YELLOW]"
	}
	return "[GREEN]"
}

func expBar(exp, next, width int) string {
	if next <= 0 || width <= 0 {
		return ""
	}
	filled := exp * width / next
	filled = max(0, min(filled, width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
