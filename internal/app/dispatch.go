package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/memoara/internal/notify"
	"github.com/sandeepkv93/memoara/internal/scheduler"
)

// Notice describes a fired event the shell should show.
type Notice struct {
	Kind       scheduler.Kind
	Title      string
	Body       string
	ReminderID int64
	AlarmID    int64
	At         time.Time
}

// Dispatch applies one fired scheduler event. It reports a notice when the
// user should see something. Stale notifications are dropped.
func (a *App) Dispatch(ctx context.Context, ev scheduler.Event) (Notice, bool, error) {
	switch ev.Kind {
	case scheduler.KindAdvance:
		next, applied, err := a.Reminders.Advance(ctx, ev.ReminderID, ev.Expect)
		if err != nil || !applied {
			return Notice{}, false, err
		}
		return Notice{
			Kind:       ev.Kind,
			Title:      next.Title,
			Body:       fmt.Sprintf("next on %s", next.DateTime),
			ReminderID: next.ID,
			At:         a.clock(),
		}, true, nil
	case scheduler.KindNotify:
		if !a.Reminders.NotificationCurrent(ev) {
			a.Log.Debug("dropping stale notification", zap.Int64("reminder_id", ev.ReminderID), zap.String("expect", ev.Expect))
			return Notice{}, false, nil
		}
		a.send(notify.FromEvent(ev))
		return noticeOf(ev), true, nil
	case scheduler.KindAlarm:
		if _, err := a.Alarms.Fired(ctx, ev.AlarmID); err != nil {
			return Notice{}, false, err
		}
		a.send(notify.FromEvent(ev))
		return noticeOf(ev), true, nil
	default:
		return Notice{}, false, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}

// Run processes scheduler events and connectivity changes until ctx is done.
// Notices are passed to onNotice when it is not nil.
func (a *App) Run(ctx context.Context, onNotice func(Notice)) {
	go a.Monitor.Run(ctx)
	events := a.Engine.C()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			n, show, err := a.Dispatch(ctx, ev)
			if err != nil {
				a.Log.Warn("event dispatch failed", zap.String("event_id", ev.ID), zap.String("kind", string(ev.Kind)), zap.Error(err))
				continue
			}
			if show && onNotice != nil {
				onNotice(n)
			}
		}
	}
}

func (a *App) send(n notify.Notification) {
	if err := a.Sender.Send(n); err != nil {
		a.Log.Warn("desktop notification failed", zap.String("title", n.Title), zap.Error(err))
	}
}

func noticeOf(ev scheduler.Event) Notice {
	return Notice{
		Kind:       ev.Kind,
		Title:      ev.Title,
		Body:       ev.Body,
		ReminderID: ev.ReminderID,
		AlarmID:    ev.AlarmID,
		At:         ev.TriggerAt,
	}
}
