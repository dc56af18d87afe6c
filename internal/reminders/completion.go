package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sandeepkv93/memoara/internal/model"
	"github.com/sandeepkv93/memoara/internal/scheduler"
)

// Toggle is the outcome of ToggleComplete.
type Toggle struct {
	Reminder model.Reminder
	// Advancing is set when a repeating reminder was completed and will be
	// moved to its next occurrence after the completion delay.
	Advancing bool
}

// ToggleComplete flips the completion of a reminder. Completing is refused
// with model.ErrTooEarly while the reminder's time is still ahead.
// Un-completing is always allowed.
func (s *Store) ToggleComplete(ctx context.Context, id int64) (Toggle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Toggle{}, fmt.Errorf("%w: reminder %d", model.ErrNotFound, id)
	}
	r := s.items[i]

	if r.Completed {
		r.Completed = false
		r.CompletedAt = nil
		s.items[i] = r
		if err := s.commitLocked(ctx, true); err != nil {
			return Toggle{}, err
		}
		s.log.Info("reopened reminder", zap.Int64("id", id))
		return Toggle{Reminder: cloneReminder(r)}, nil
	}

	at, err := r.ScheduledAt(s.loc)
	if err != nil {
		return Toggle{}, fmt.Errorf("%w: %w", model.ErrValidation, err)
	}
	now := s.clock()
	if at.After(now) {
		s.log.Debug("refused early completion", zap.Int64("id", id), zap.String("date_time", r.DateTime))
		return Toggle{Reminder: cloneReminder(r)}, fmt.Errorf("%w: scheduled for %s", model.ErrTooEarly, r.DateTime)
	}

	completedAt := now
	r.Completed = true
	r.CompletedAt = &completedAt
	s.items[i] = r
	if err := s.commitLocked(ctx, true); err != nil {
		return Toggle{}, err
	}
	s.log.Info("completed reminder", zap.Int64("id", id), zap.String("repeat", string(r.Repeat)))

	if !r.Repeat.Recurring() {
		return Toggle{Reminder: cloneReminder(r)}, nil
	}
	if s.transitions == nil {
		next, err := s.advanceLocked(ctx, i, r.DateTime)
		if err != nil {
			return Toggle{}, err
		}
		return Toggle{Reminder: next}, nil
	}
	if err := s.scheduleAdvanceLocked(r, now); err != nil {
		return Toggle{}, err
	}
	return Toggle{Reminder: cloneReminder(r), Advancing: true}, nil
}

func (s *Store) scheduleAdvanceLocked(r model.Reminder, now time.Time) error {
	err := s.transitions.Schedule(scheduler.Event{
		ID:         uuid.NewString(),
		Kind:       scheduler.KindAdvance,
		ReminderID: r.ID,
		Expect:     r.DateTime,
		TriggerAt:  now.Add(s.delay),
	})
	if err != nil {
		return fmt.Errorf("schedule advance: %w", err)
	}
	return nil
}

// Advance moves a completed repeating reminder to the occurrence after
// expect and reopens it. It is a no-op, reporting false, when the reminder
// is gone, is no longer completed, or its date time is no longer expect.
func (s *Store) Advance(ctx context.Context, id int64, expect string) (model.Reminder, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		s.log.Debug("skipping advance of removed reminder", zap.Int64("id", id))
		return model.Reminder{}, false, nil
	}
	r := s.items[i]
	if !r.Completed || r.DateTime != expect || !r.Repeat.Recurring() {
		s.log.Debug("skipping stale advance", zap.Int64("id", id), zap.String("expect", expect), zap.String("date_time", r.DateTime))
		return cloneReminder(r), false, nil
	}
	next, err := s.advanceLocked(ctx, i, expect)
	if err != nil {
		return model.Reminder{}, false, err
	}
	return next, true, nil
}

func (s *Store) advanceLocked(ctx context.Context, i int, from string) (model.Reminder, error) {
	r := s.items[i]
	next, err := model.NextDateTime(from, r.Repeat, s.loc)
	if err != nil {
		return model.Reminder{}, err
	}
	r.DateTime = next
	r.Completed = false
	r.CompletedAt = nil
	s.items[i] = r
	if err := s.commitLocked(ctx, true); err != nil {
		return model.Reminder{}, err
	}
	s.scheduleNotificationLocked(r)
	s.log.Info("advanced repeating reminder", zap.Int64("id", r.ID), zap.String("from", from), zap.String("to", next))
	return cloneReminder(r), nil
}

// HandleEvent applies a fired advance event.
func (s *Store) HandleEvent(ctx context.Context, ev scheduler.Event) error {
	if ev.Kind != scheduler.KindAdvance {
		return nil
	}
	_, _, err := s.Advance(ctx, ev.ReminderID, ev.Expect)
	return err
}

// NotificationCurrent reports whether a fired notify event still matches an
// open reminder at the time it was scheduled for.
func (s *Store) NotificationCurrent(ev scheduler.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(ev.ReminderID)
	if i < 0 {
		return false
	}
	r := s.items[i]
	return !r.Completed && r.Notification && r.DateTime == ev.Expect
}
