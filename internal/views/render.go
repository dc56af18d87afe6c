package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type AppData struct {
	Title        string
	Tabs         []string
	ActiveTab    string
	LeftPane     string
	RightPane    string
	StatusLine   string
	IsError      bool
	SyncLine     string
	Notification string
	Footer       string
}

const paneWidth = 58

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginRight(2)
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12")).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	paneStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(paneWidth)
	noticeStyle    = lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color("11")).Padding(0, 1)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RenderApp lays out the tab bar, one or two panes and the status lines.
// The right pane is omitted when empty.
func RenderApp(data AppData) string {
	tabs := make([]string, 0, len(data.Tabs)+1)
	tabs = append(tabs, titleStyle.Render(data.Title))
	for _, tab := range data.Tabs {
		if tab == data.ActiveTab {
			tabs = append(tabs, activeTabStyle.Render(tab))
		} else {
			tabs = append(tabs, tabStyle.Render(tab))
		}
	}

	body := paneStyle.Render(data.LeftPane)
	if strings.TrimSpace(data.RightPane) != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, paneStyle.Render(data.RightPane))
	}

	lines := []string{lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...), body}
	if data.Notification != "" {
		lines = append(lines, noticeStyle.Render(data.Notification))
	}
	if data.StatusLine != "" {
		style := statusStyle
		if data.IsError {
			style = errorStyle
		}
		lines = append(lines, style.Render(data.StatusLine))
	}
	for _, extra := range []string{data.SyncLine, data.Footer} {
		if extra != "" {
			lines = append(lines, mutedStyle.Render(extra))
		}
	}
	return strings.Join(lines, "\n")
}

// RenderMarkdown renders a reminder description, falling back to the raw
// text when glamour fails.
func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
