package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/sandeepkv93/memoara/internal/app"
	"github.com/sandeepkv93/memoara/internal/commands"
	"github.com/sandeepkv93/memoara/internal/gamification"
	"github.com/sandeepkv93/memoara/internal/model"
	"github.com/sandeepkv93/memoara/internal/reconcile"
	"github.com/sandeepkv93/memoara/internal/reminders"
	"github.com/sandeepkv93/memoara/internal/scheduler"
)

type View string

const (
	ViewReminders View = "Reminders"
	ViewQuests    View = "Quests"
	ViewAlarms    View = "Alarms"
)

// filterCycle is the order the filter key walks through.
var filterCycle = []reminders.Filter{
	reminders.FilterAll,
	reminders.FilterUpcoming,
	reminders.FilterOverdue,
	reminders.FilterCompleted,
}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Reminders string
	Quests    string
	Alarms    string
	Sync      string
	Load      string
	Help      string
	Quit      string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Model struct {
	CurrentView View
	Filter      reminders.Filter
	Items       []model.Reminder
	Stats       reminders.Stats
	Cursor      int
	Quests      gamification.State
	QuestCursor int
	Alarms      []model.Alarm
	AlarmCursor int
	Sync        reconcile.Status
	Notices     []app.Notice
	Palette     CommandPaletteState
	HelpVisible bool
	Status      StatusBar
	Keys        GlobalKeyMap
	Quitting    bool
	LastError   error

	app          *app.App
	ctx          context.Context
	now          func() time.Time
	commandInput textinput.Model
	syncSpinner  spinner.Model
	helpModel    help.Model
	syncing      bool
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// EventMsg carries a fired scheduler event into the update loop.
type EventMsg struct {
	Event scheduler.Event
}

type SyncDoneMsg struct {
	Result reconcile.Result
}

type CommandDoneMsg struct {
	Result commands.Result
	Err    error
}

type QuestsLoadedMsg struct {
	State gamification.State
	Err   error
}

type QuestDoneMsg struct {
	Completion gamification.Completion
	Err        error
}

// RefreshMsg reloads the lists from the app.
type RefreshMsg struct{}

func NewModel(ctx context.Context, a *app.App, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	m := Model{
		CurrentView: ViewReminders,
		Filter:      reminders.FilterAll,
		Keys: GlobalKeyMap{
			Reminders: "1",
			Quests:    "2",
			Alarms:    "3",
			Sync:      "S",
			Load:      "L",
			Help:      "?",
			Quit:      "q",
		},
		app: a,
		ctx: ctx,
		now: now,
	}
	m.initBubbleComponents()
	m.refresh()
	return m
}

func (m *Model) initBubbleComponents() {
	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.syncSpinner = spinner.New()
	m.syncSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
}

// refresh copies the current app state into the model.
func (m *Model) refresh() {
	m.Items = m.Items[:0]
	for r := range m.app.Reminders.Filter(m.Filter) {
		m.Items = append(m.Items, r)
	}
	m.Stats = m.app.Reminders.Statistics()
	m.Alarms = m.app.Alarms.List()
	m.Sync = m.app.Sync.Status()
	m.Cursor = clampCursor(m.Cursor, len(m.Items))
	m.AlarmCursor = clampCursor(m.AlarmCursor, len(m.Alarms))
	m.QuestCursor = clampCursor(m.QuestCursor, len(m.Quests.Progress.Quests))
}

func (m Model) selected() (model.Reminder, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Items) {
		return model.Reminder{}, false
	}
	return m.Items[m.Cursor], true
}

func clampCursor(cursor, n int) int {
	if n == 0 {
		return 0
	}
	return max(0, min(cursor, n-1))
}
