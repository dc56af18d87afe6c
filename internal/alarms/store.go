package alarms

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/memoara/internal/model"
	"github.com/sandeepkv93/memoara/internal/notify"
)

var ErrSnoozeDisabled = errors.New("alarms: snooze is disabled for this alarm")

type LocalStore interface {
	LoadAlarms(ctx context.Context) ([]model.Alarm, error)
	SaveAlarms(ctx context.Context, items []model.Alarm) error
}

type Notifier interface {
	ScheduleAt(at time.Time, n notify.Notification) error
	CancelAlarm(id int64) int
}

// Input carries the editable alarm fields. Zero values take the defaults of
// model.NewAlarm, except RepeatDays.
type Input struct {
	Time           string
	Label          string
	RepeatDays     []string
	Sound          model.Sound
	Volume         int
	SnoozeDuration int
	DisableSnooze  bool
}

// Store owns the alarm collection and keeps exactly one pending ring per
// active alarm.
type Store struct {
	mu       sync.Mutex
	items    []model.Alarm
	ids      model.IDGenerator
	local    LocalStore
	notifier Notifier
	clock    func() time.Time
	log      *zap.Logger
}

func New(ctx context.Context, local LocalStore, notifier Notifier, clock func() time.Time, log *zap.Logger) (*Store, error) {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	items, err := local.LoadAlarms(ctx)
	if err != nil {
		return nil, fmt.Errorf("load alarms: %w", err)
	}
	s := &Store{items: items, local: local, notifier: notifier, clock: clock, log: log.Named("alarms")}
	for _, a := range items {
		s.ids.Seed(a.ID)
		s.scheduleLocked(a)
	}
	return s, nil
}

func (s *Store) List() []model.Alarm {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Alarm, len(s.items))
	for i, a := range s.items {
		out[i] = cloneAlarm(a)
	}
	return out
}

func (s *Store) Create(ctx context.Context, in Input) (model.Alarm, error) {
	a, err := build(model.NewAlarm(in.Time), in)
	if err != nil {
		return model.Alarm{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	a.ID = s.ids.Next(now)
	a.CreatedAt = now
	s.items = append(s.items, a)
	if err := s.saveLocked(ctx); err != nil {
		return model.Alarm{}, err
	}
	s.scheduleLocked(a)
	s.log.Info("created alarm", zap.Int64("id", a.ID), zap.String("time", a.Time), zap.Strings("repeat_days", a.RepeatDays))
	return cloneAlarm(a), nil
}

func (s *Store) Update(ctx context.Context, id int64, in Input) (model.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Alarm{}, fmt.Errorf("%w: alarm %d", model.ErrNotFound, id)
	}
	base := model.NewAlarm(in.Time)
	base.IsActive = s.items[i].IsActive
	a, err := build(base, in)
	if err != nil {
		return model.Alarm{}, err
	}
	a.ID = id
	a.CreatedAt = s.items[i].CreatedAt
	s.items[i] = a
	if err := s.saveLocked(ctx); err != nil {
		return model.Alarm{}, err
	}
	s.rescheduleLocked(a)
	return cloneAlarm(a), nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: alarm %d", model.ErrNotFound, id)
	}
	s.items = slices.Delete(s.items, i, i+1)
	if err := s.saveLocked(ctx); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.CancelAlarm(id)
	}
	return nil
}

func (s *Store) ToggleActive(ctx context.Context, id int64) (model.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Alarm{}, fmt.Errorf("%w: alarm %d", model.ErrNotFound, id)
	}
	s.items[i].IsActive = !s.items[i].IsActive
	if err := s.saveLocked(ctx); err != nil {
		return model.Alarm{}, err
	}
	s.rescheduleLocked(s.items[i])
	return cloneAlarm(s.items[i]), nil
}

// Fired handles a ring. One-shot alarms switch off; repeating alarms keep a
// single pending ring for their next day.
func (s *Store) Fired(ctx context.Context, id int64) (model.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Alarm{}, fmt.Errorf("%w: alarm %d", model.ErrNotFound, id)
	}
	a := s.items[i]
	if !a.Repeating() {
		a.IsActive = false
		s.items[i] = a
		if err := s.saveLocked(ctx); err != nil {
			return model.Alarm{}, err
		}
		return cloneAlarm(a), nil
	}
	s.rescheduleLocked(a)
	return cloneAlarm(a), nil
}

// Snooze rings the alarm again after its snooze duration.
func (s *Store) Snooze(id int64) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return time.Time{}, fmt.Errorf("%w: alarm %d", model.ErrNotFound, id)
	}
	a := s.items[i]
	if !a.SnoozeEnabled {
		return time.Time{}, ErrSnoozeDisabled
	}
	at := s.clock().Add(time.Duration(a.SnoozeDuration) * time.Minute)
	if s.notifier != nil {
		if err := s.notifier.ScheduleAt(at, ringFor(a)); err != nil {
			return time.Time{}, err
		}
	}
	return at, nil
}

// Next returns the active alarm that rings soonest.
func (s *Store) Next() (model.Alarm, time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	var best model.Alarm
	var bestAt time.Time
	found := false
	for _, a := range s.items {
		if !a.IsActive {
			continue
		}
		at, err := a.NextFire(now)
		if err != nil {
			continue
		}
		if !found || at.Before(bestAt) {
			best, bestAt, found = a, at, true
		}
	}
	return cloneAlarm(best), bestAt, found
}

func (s *Store) indexLocked(id int64) int {
	return slices.IndexFunc(s.items, func(a model.Alarm) bool { return a.ID == id })
}

func (s *Store) saveLocked(ctx context.Context) error {
	out := make([]model.Alarm, len(s.items))
	for i, a := range s.items {
		out[i] = cloneAlarm(a)
	}
	if err := s.local.SaveAlarms(ctx, out); err != nil {
		return fmt.Errorf("save alarms: %w", err)
	}
	return nil
}

func (s *Store) rescheduleLocked(a model.Alarm) {
	if s.notifier != nil {
		s.notifier.CancelAlarm(a.ID)
	}
	s.scheduleLocked(a)
}

func (s *Store) scheduleLocked(a model.Alarm) {
	if s.notifier == nil || !a.IsActive {
		return
	}
	at, err := a.NextFire(s.clock())
	if err != nil {
		s.log.Warn("cannot schedule alarm", zap.Int64("id", a.ID), zap.Error(err))
		return
	}
	if err := s.notifier.ScheduleAt(at, ringFor(a)); err != nil {
		s.log.Warn("schedule alarm failed", zap.Int64("id", a.ID), zap.Error(err))
	}
}

func ringFor(a model.Alarm) notify.Notification {
	return notify.Notification{
		Title:   a.Label,
		Body:    fmt.Sprintf("Alarm for %s", a.Time),
		AlarmID: a.ID,
	}
}

func build(a model.Alarm, in Input) (model.Alarm, error) {
	if strings.TrimSpace(in.Label) != "" {
		a.Label = strings.TrimSpace(in.Label)
	}
	for _, day := range in.RepeatDays {
		name, err := model.NormalizeWeekday(day)
		if err != nil {
			return model.Alarm{}, fmt.Errorf("%w: %w", model.ErrValidation, err)
		}
		if !slices.Contains(a.RepeatDays, name) {
			a.RepeatDays = append(a.RepeatDays, name)
		}
	}
	if in.Sound != "" {
		a.Sound = in.Sound
	}
	if in.Volume != 0 {
		a.Volume = in.Volume
	}
	if in.SnoozeDuration != 0 {
		a.SnoozeDuration = in.SnoozeDuration
	}
	if in.DisableSnooze {
		a.SnoozeEnabled = false
	}
	if err := a.Validate(); err != nil {
		return model.Alarm{}, err
	}
	return a, nil
}

func cloneAlarm(a model.Alarm) model.Alarm {
	a.RepeatDays = slices.Clone(a.RepeatDays)
	return a
}
