package notify

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sandeepkv93/memoara/internal/scheduler"
)

// Queue is the part of the scheduler engine notifications are placed on.
type Queue interface {
	Schedule(scheduler.Event) error
	Cancel(func(scheduler.Event) bool) int
}

// EngineNotifier turns notification requests into timed scheduler events.
// Requests for times that are not in the future are skipped.
type EngineNotifier struct {
	queue Queue
	clock func() time.Time
	log   *zap.Logger
}

func NewEngineNotifier(queue Queue, clock func() time.Time, log *zap.Logger) *EngineNotifier {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EngineNotifier{queue: queue, clock: clock, log: log.Named("notify")}
}

func (n *EngineNotifier) ScheduleAt(at time.Time, msg Notification) error {
	if !at.After(n.clock()) {
		n.log.Debug("skipping notification in the past",
			zap.Int64("reminder_id", msg.ReminderID), zap.Time("at", at))
		return nil
	}
	kind := scheduler.KindNotify
	if msg.AlarmID != 0 {
		kind = scheduler.KindAlarm
	}
	ev := scheduler.Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		ReminderID: msg.ReminderID,
		AlarmID:    msg.AlarmID,
		Title:      msg.Title,
		Body:       msg.Body,
		Expect:     msg.DateTime,
		TriggerAt:  at,
	}
	if err := n.queue.Schedule(ev); err != nil {
		return err
	}
	n.log.Debug("scheduled notification", zap.String("event_id", ev.ID), zap.String("kind", string(kind)), zap.Time("at", at))
	return nil
}

// CancelReminder drops pending notifications for a reminder.
func (n *EngineNotifier) CancelReminder(id int64) int {
	return n.queue.Cancel(func(ev scheduler.Event) bool {
		return ev.Kind == scheduler.KindNotify && ev.ReminderID == id
	})
}

// CancelAlarm drops pending rings for an alarm.
func (n *EngineNotifier) CancelAlarm(id int64) int {
	return n.queue.Cancel(func(ev scheduler.Event) bool {
		return ev.Kind == scheduler.KindAlarm && ev.AlarmID == id
	})
}

// FromEvent rebuilds the notification carried by a fired event.
func FromEvent(ev scheduler.Event) Notification {
	return Notification{
		Title:      ev.Title,
		Body:       ev.Body,
		ReminderID: ev.ReminderID,
		AlarmID:    ev.AlarmID,
		DateTime:   ev.Expect,
		At:         ev.TriggerAt,
	}
}
