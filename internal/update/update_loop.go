package update

import (
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/memoara/internal/gamification"
	"github.com/sandeepkv93/memoara/internal/model"
	"github.com/sandeepkv93/memoara/internal/reconcile"
	"github.com/sandeepkv93/memoara/internal/scheduler"
	"github.com/sandeepkv93/memoara/internal/views"
)

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEventCmd(m.app.Engine.C()), m.loadQuestsCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}
		return m.handleKey(typed)
	case spinner.TickMsg:
		if m.syncing {
			var cmd tea.Cmd
			m.syncSpinner, cmd = m.syncSpinner.Update(typed)
			return m, cmd
		}
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
			m.refresh()
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	case RefreshMsg:
		m.refresh()
		return m, nil
	case EventMsg:
		n, show, err := m.app.Dispatch(m.ctx, typed.Event)
		switch {
		case err != nil:
			m.LastError = err
			m.Status = StatusBar{Text: err.Error(), IsError: true}
		case show:
			m.Notices = append(m.Notices, n)
			if len(m.Notices) > 20 {
				m.Notices = m.Notices[len(m.Notices)-20:]
			}
		}
		m.refresh()
		return m, waitForEventCmd(m.app.Engine.C())
	case SyncDoneMsg:
		m.syncing = false
		m.applyResult(typed.Result)
		m.refresh()
		return m, nil
	case CommandDoneMsg:
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		} else {
			m.Status = StatusBar{Text: typed.Result.Message}
		}
		m.refresh()
		return m, m.loadQuestsCmd()
	case QuestsLoadedMsg:
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			return m, nil
		}
		m.Quests = typed.State
		m.QuestCursor = clampCursor(m.QuestCursor, len(m.Quests.Progress.Quests))
		return m, nil
	case QuestDoneMsg:
		switch {
		case errors.Is(typed.Err, gamification.ErrDemoMode):
			m.Status = StatusBar{Text: "sign in to track quest progress"}
		case typed.Err != nil:
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		case typed.Completion.Applied:
			m.Status = StatusBar{Text: questStatus(typed.Completion)}
		}
		m.Quests = m.app.Game.State()
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "/":
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.Status = StatusBar{Text: "command palette active"}
		return m, nil
	case m.Keys.Reminders:
		m.CurrentView = ViewReminders
		m.refresh()
		return m, nil
	case m.Keys.Quests:
		m.CurrentView = ViewQuests
		m.refresh()
		return m, m.loadQuestsCmd()
	case m.Keys.Alarms:
		m.CurrentView = ViewAlarms
		m.refresh()
		return m, nil
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case m.Keys.Sync:
		return m.startSync(func() reconcile.Result {
			return m.app.Sync.Push(m.ctx, m.app.Reminders.Snapshot())
		})
	case m.Keys.Load:
		return m.startSync(func() reconcile.Result { return m.app.Sync.Load(m.ctx) })
	case "ctrl+c", m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	}

	switch m.CurrentView {
	case ViewReminders:
		return m.handleReminderKey(msg)
	case ViewQuests:
		return m.handleQuestKey(msg)
	case ViewAlarms:
		return m.handleAlarmKey(msg)
	}
	return m, nil
}

func (m Model) handleReminderKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.Cursor = clampCursor(m.Cursor+1, len(m.Items))
	case "k", "up":
		m.Cursor = clampCursor(m.Cursor-1, len(m.Items))
	case "f":
		i := slices.Index(filterCycle, m.Filter)
		m.Filter = filterCycle[(i+1)%len(filterCycle)]
		m.Cursor = 0
		m.refresh()
		m.Status = StatusBar{Text: fmt.Sprintf("filter: %s", m.Filter)}
	case " ", "x":
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		out, err := m.app.Reminders.ToggleComplete(m.ctx, r.ID)
		switch {
		case errors.Is(err, model.ErrTooEarly):
			m.Status = StatusBar{Text: fmt.Sprintf("not due until %s", r.DateTime)}
		case err != nil:
			m.Status = StatusBar{Text: err.Error(), IsError: true}
		case out.Advancing:
			m.Status = StatusBar{Text: fmt.Sprintf("done, next %s occurrence coming up", r.Repeat)}
		case out.Reminder.Completed:
			m.Status = StatusBar{Text: "completed " + r.Title}
		default:
			m.Status = StatusBar{Text: "reopened " + r.Title}
		}
		m.refresh()
	case "d":
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.app.Reminders.Delete(m.ctx, r.ID); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
		} else {
			m.Status = StatusBar{Text: "deleted " + r.Title}
		}
		m.refresh()
	}
	return m, nil
}

func (m Model) handleQuestKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	quests := m.Quests.Progress.Quests
	switch msg.String() {
	case "j", "down":
		m.QuestCursor = clampCursor(m.QuestCursor+1, len(quests))
	case "k", "up":
		m.QuestCursor = clampCursor(m.QuestCursor-1, len(quests))
	case " ", "enter":
		if len(quests) == 0 {
			return m, nil
		}
		id := quests[m.QuestCursor].ID
		a, ctx := m.app, m.ctx
		return m, func() tea.Msg {
			out, err := a.Game.CompleteQuest(ctx, id)
			return QuestDoneMsg{Completion: out, Err: err}
		}
	}
	return m, nil
}

func (m Model) handleAlarmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.AlarmCursor = clampCursor(m.AlarmCursor+1, len(m.Alarms))
		return m, nil
	case "k", "up":
		m.AlarmCursor = clampCursor(m.AlarmCursor-1, len(m.Alarms))
		return m, nil
	}
	if len(m.Alarms) == 0 {
		return m, nil
	}
	target := m.Alarms[m.AlarmCursor]
	switch msg.String() {
	case " ":
		if _, err := m.app.Alarms.ToggleActive(m.ctx, target.ID); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
		}
	case "s":
		at, err := m.app.Alarms.Snooze(target.ID)
		if err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
		} else {
			m.Status = StatusBar{Text: fmt.Sprintf("snoozed until %s", at.Format("15:04"))}
		}
	case "d":
		if err := m.app.Alarms.Delete(m.ctx, target.ID); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
		}
	}
	m.refresh()
	return m, nil
}

func (m Model) startSync(run func() reconcile.Result) (tea.Model, tea.Cmd) {
	if m.syncing {
		return m, nil
	}
	m.syncing = true
	m.Status = StatusBar{Text: "sync started"}
	return m, tea.Batch(m.syncSpinner.Tick, func() tea.Msg { return SyncDoneMsg{Result: run()} })
}

func (m *Model) applyResult(res reconcile.Result) {
	if res.Success {
		m.Status = StatusBar{Text: res.Message}
		return
	}
	m.LastError = res.Err
	m.Status = StatusBar{Text: res.Message, IsError: true}
}

func (m Model) loadQuestsCmd() tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		st, err := a.Game.Load(ctx)
		return QuestsLoadedMsg{State: st, Err: err}
	}
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	leftPane := ""
	rightPane := ""
	switch m.CurrentView {
	case ViewReminders:
		leftPane = m.renderReminderView()
		rightPane = m.renderDetailPane()
	case ViewQuests:
		leftPane = m.renderQuestView()
	case ViewAlarms:
		leftPane = m.renderAlarmView()
	}
	rightPane = joinNonEmpty(rightPane, m.renderCommandPalette(), m.renderHelpIfVisible())

	return views.RenderApp(views.AppData{
		Title:        "memoara",
		Tabs:         []string{string(ViewReminders), string(ViewQuests), string(ViewAlarms)},
		ActiveTab:    string(m.CurrentView),
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		IsError:      m.Status.IsError,
		SyncLine:     m.renderSyncLine(),
		Notification: m.renderNotificationsView(),
		Footer:       m.helpModel.ShortHelpView(toBindings(m.globalBindings())),
	})
}

func waitForEventCmd(ch <-chan scheduler.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return EventMsg{Event: ev}
	}
}

func isKnownView(v View) bool {
	switch v {
	case ViewReminders, ViewQuests, ViewAlarms:
		return true
	default:
		return false
	}
}

func questStatus(c gamification.Completion) string {
	msg := fmt.Sprintf("%s done, +%d exp", c.Quest.Title, c.Quest.ExpReward)
	if c.Levels > 0 {
		msg += fmt.Sprintf(", reached level %d", c.Stats.Level)
	}
	if c.PersistErr != nil {
		msg += " (saved on this device only)"
	}
	return msg
}
