package reminders

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/sandeepkv93/memoara/internal/model"
)

func (s *Store) Create(ctx context.Context, in model.ReminderInput) (model.Reminder, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.Reminder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	r := model.Reminder{
		ID:           s.ids.Next(now),
		Title:        in.Title,
		Description:  in.Description,
		DateTime:     in.DateTime,
		Priority:     in.Priority,
		Category:     in.Category,
		Repeat:       in.Repeat,
		Notification: in.Notification,
		CreatedAt:    now,
	}
	s.items = append(s.items, r)
	if err := s.commitLocked(ctx, true); err != nil {
		return model.Reminder{}, err
	}
	s.scheduleNotificationLocked(r)
	s.log.Info("created reminder", zap.Int64("id", r.ID), zap.String("date_time", r.DateTime), zap.String("repeat", string(r.Repeat)))
	return cloneReminder(r), nil
}

// Update replaces the editable fields of a reminder. Editing a completed
// repeating reminder reopens it: at the edited time when that is still
// ahead, or at the occurrence after the edited time otherwise.
func (s *Store) Update(ctx context.Context, id int64, in model.ReminderInput) (model.Reminder, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.Reminder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Reminder{}, fmt.Errorf("%w: reminder %d", model.ErrNotFound, id)
	}
	prev := s.items[i]
	next := prev
	next.Title = in.Title
	next.Description = in.Description
	next.DateTime = in.DateTime
	next.Priority = in.Priority
	next.Category = in.Category
	next.Repeat = in.Repeat
	next.Notification = in.Notification

	if prev.Completed && next.Repeat.Recurring() {
		at, err := model.ParseDateTime(next.DateTime, s.loc)
		if err != nil {
			return model.Reminder{}, fmt.Errorf("%w: %w", model.ErrValidation, err)
		}
		if !at.After(s.clock()) {
			following, err := model.NextOccurrence(at, next.Repeat)
			if err != nil {
				return model.Reminder{}, err
			}
			next.DateTime = model.FormatDateTime(following)
		}
		next.Completed = false
		next.CompletedAt = nil
	}

	s.items[i] = next
	if err := s.commitLocked(ctx, true); err != nil {
		return model.Reminder{}, err
	}
	if s.notifier != nil {
		s.notifier.CancelReminder(id)
	}
	s.scheduleNotificationLocked(next)
	s.log.Info("updated reminder", zap.Int64("id", id), zap.String("date_time", next.DateTime), zap.Bool("completed", next.Completed))
	return cloneReminder(next), nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: reminder %d", model.ErrNotFound, id)
	}
	s.items = slices.Delete(s.items, i, i+1)
	if err := s.commitLocked(ctx, true); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.CancelReminder(id)
	}
	s.log.Info("deleted reminder", zap.Int64("id", id))
	return nil
}

// MergeRemote adds the remote reminders whose ids are not present locally.
// Local copies always win. It returns how many reminders were added.
func (s *Store) MergeRemote(ctx context.Context, remote []model.Reminder) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	have := make(map[int64]bool, len(s.items))
	for _, r := range s.items {
		have[r.ID] = true
	}
	added := make([]model.Reminder, 0)
	for _, r := range remote {
		if have[r.ID] {
			continue
		}
		have[r.ID] = true
		added = append(added, cloneReminder(r))
	}
	if len(added) == 0 {
		return 0, nil
	}
	s.items = append(s.items, added...)
	for _, r := range added {
		s.ids.Seed(r.ID)
	}
	if err := s.commitLocked(ctx, false); err != nil {
		return 0, err
	}
	for _, r := range added {
		s.scheduleNotificationLocked(r)
	}
	s.log.Info("merged remote reminders", zap.Int("added", len(added)))
	return len(added), nil
}

// ReplaceAll adopts remote as the whole collection, but only while the local
// collection is empty. It reports whether the collection was replaced.
func (s *Store) ReplaceAll(ctx context.Context, remote []model.Reminder) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) > 0 {
		return false, nil
	}
	s.items = make([]model.Reminder, 0, len(remote))
	for _, r := range remote {
		s.items = append(s.items, cloneReminder(r))
		s.ids.Seed(r.ID)
	}
	if err := s.commitLocked(ctx, false); err != nil {
		return false, err
	}
	for _, r := range s.items {
		s.scheduleNotificationLocked(r)
	}
	s.log.Info("adopted remote reminders", zap.Int("count", len(remote)))
	return true, nil
}
