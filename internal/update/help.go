package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/memoara/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

var contextualBindings = map[View][]KeyBinding{
	ViewReminders: {
		{Key: "j/k", Action: "move cursor"},
		{Key: "space", Action: "complete / reopen"},
		{Key: "d", Action: "delete reminder"},
		{Key: "f", Action: "cycle filter"},
	},
	ViewQuests: {
		{Key: "j/k", Action: "move cursor"},
		{Key: "space", Action: "complete quest"},
	},
	ViewAlarms: {
		{Key: "j/k", Action: "move cursor"},
		{Key: "space", Action: "turn on / off"},
		{Key: "s", Action: "snooze"},
		{Key: "d", Action: "delete alarm"},
	},
}

// helpKeyMap shows the global keys in short form and adds the current
// view's keys in the full form.
type helpKeyMap struct {
	global []key.Binding
	view   []key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.global }
func (k helpKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.global, k.view} }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	keys := helpKeyMap{global: toBindings(m.globalBindings()), view: toBindings(contextualBindings[m.CurrentView])}
	full := m.helpModel
	full.ShowAll = true

	var lines []string
	for _, kb := range contextualBindings[m.CurrentView] {
		lines = append(lines, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	if len(lines) == 0 {
		lines = append(lines, "- no contextual bindings")
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    lines,
		HelpView:    full.View(keys),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Reminders, Action: "reminders"},
		{Key: m.Keys.Quests, Action: "quests"},
		{Key: m.Keys.Alarms, Action: "alarms"},
		{Key: m.Keys.Sync, Action: "push"},
		{Key: m.Keys.Load, Action: "load"},
		{Key: "/", Action: "command"},
		{Key: m.Keys.Help, Action: "help"},
		{Key: m.Keys.Quit, Action: "quit"},
	}
}

func toBindings(in []KeyBinding) []key.Binding {
	out := make([]key.Binding, 0, len(in))
	for _, kb := range in {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
