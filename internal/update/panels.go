package update

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/memoara/internal/model"
	"github.com/sandeepkv93/memoara/internal/scheduler"
	"github.com/sandeepkv93/memoara/internal/views"
)

func (m Model) renderReminderView() string {
	var selectedID int64
	if r, ok := m.selected(); ok {
		selectedID = r.ID
	}
	items := make([]views.ReminderItemData, 0, len(m.Items))
	for _, r := range m.Items {
		items = append(items, m.itemData(r))
	}
	return views.RenderReminderPanel(views.ReminderPanelData{
		Filter:     string(m.Filter),
		Items:      items,
		SelectedID: selectedID,
		Stats: views.StatsData{
			Total:     m.Stats.Total,
			Active:    m.Stats.Active,
			Upcoming:  m.Stats.Upcoming,
			Overdue:   m.Stats.Overdue,
			Completed: m.Stats.Completed,
		},
	})
}

func (m Model) renderDetailPane() string {
	r, ok := m.selected()
	if !ok {
		return views.RenderReminderDetail(views.ReminderDetailData{})
	}
	item := m.itemData(r)
	return views.RenderReminderDetail(views.ReminderDetailData{
		Item:         &item,
		Notification: r.Notification,
		MarkdownView: views.RenderMarkdown(r.Description),
	})
}

func (m Model) itemData(r model.Reminder) views.ReminderItemData {
	overdue := false
	if at, err := r.ScheduledAt(m.app.Reminders.Location()); err == nil && !r.Completed {
		overdue = !at.After(m.now())
	}
	return views.ReminderItemData{
		ID:        r.ID,
		Title:     r.Title,
		DateTime:  r.DateTime,
		Priority:  string(r.Priority),
		Category:  string(r.Category),
		Repeat:    string(r.Repeat),
		Completed: r.Completed,
		Overdue:   overdue,
	}
}

func (m Model) renderQuestView() string {
	p := m.Quests.Progress
	quests := make([]views.QuestItemData, 0, len(p.Quests))
	for _, q := range p.Quests {
		quests = append(quests, views.QuestItemData{
			ID:        q.ID,
			Title:     q.Title,
			Icon:      q.Icon,
			Type:      string(q.Type),
			ExpReward: q.ExpReward,
			Completed: q.Completed,
		})
	}
	return views.RenderQuestPanel(views.QuestPanelData{
		Demo:         m.Quests.Demo,
		Level:        p.Stats.Level,
		Exp:          p.Stats.Exp,
		ExpToNext:    p.Stats.ExpToNext,
		Strength:     p.Stats.Strength,
		Agility:      p.Stats.Agility,
		Vitality:     p.Stats.Vitality,
		Intelligence: p.Stats.Intelligence,
		Quests:       quests,
		Cursor:       m.QuestCursor,
	})
}

func (m Model) renderAlarmView() string {
	now := m.now()
	items := make([]views.AlarmItemData, 0, len(m.Alarms))
	for _, a := range m.Alarms {
		next := ""
		if at, err := a.NextFire(now); err == nil {
			next = at.Format("Mon 15:04")
		}
		items = append(items, views.AlarmItemData{
			ID:         a.ID,
			Time:       a.Time,
			Label:      a.Label,
			Active:     a.IsActive,
			RepeatDays: a.RepeatDays,
			NextFire:   next,
		})
	}
	return views.RenderAlarmPanel(views.AlarmPanelData{Items: items, Cursor: m.AlarmCursor})
}

func (m Model) renderSyncLine() string {
	last := ""
	if m.Sync.LastSync != nil {
		last = m.Sync.LastSync.In(m.app.Reminders.Location()).Format("2006-01-02 15:04")
	}
	return views.RenderSyncLine(views.SyncLineData{
		Backend:       m.app.Sync.BackendName(),
		Online:        m.app.Sync.Online(),
		Authenticated: m.app.Session.Authenticated(),
		Loading:       m.syncing || m.Sync.IsLoading,
		Spinner:       m.syncSpinner.View(),
		LastSync:      last,
		Error:         m.Sync.Error,
		Success:       m.Sync.Success,
	})
}

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.commandInput.View())
}

func (m Model) renderNotificationsView() string {
	if len(m.Notices) == 0 {
		return ""
	}
	n := m.Notices[len(m.Notices)-1]
	level := "reminder"
	switch n.Kind {
	case scheduler.KindAlarm:
		level = "alarm"
	case scheduler.KindAdvance:
		level = "repeat"
	}
	body := n.Title
	if n.Body != "" {
		body = fmt.Sprintf("%s: %s", n.Title, n.Body)
	}
	return views.RenderNotification(level, body)
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
