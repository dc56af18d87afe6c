package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

type Notification struct {
	Title      string
	Body       string
	ReminderID int64
	AlarmID    int64
	// DateTime is the reminder date time the notification was scheduled for.
	DateTime string
	At       time.Time
}

// Sender delivers a notification to the user right away.
type Sender interface {
	Send(Notification) error
}

type NoopSender struct{}

func (NoopSender) Send(Notification) error { return nil }

// DesktopSender shells out to notify-send on Linux and osascript on macOS.
type DesktopSender struct{}

func (DesktopSender) Send(n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

func escapeAppleScript(in string) string {
	in = strings.ReplaceAll(in, `\`, `\\`)
	return strings.ReplaceAll(in, `"`, `\"`)
}
