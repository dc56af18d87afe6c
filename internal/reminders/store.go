package reminders

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/memoara/internal/model"
	"github.com/sandeepkv93/memoara/internal/notify"
	"github.com/sandeepkv93/memoara/internal/scheduler"
)

const DefaultCompletionDelay = 1500 * time.Millisecond

// LocalStore persists the reminder collection on the device.
type LocalStore interface {
	LoadReminders(ctx context.Context) ([]model.Reminder, error)
	SaveReminders(ctx context.Context, items []model.Reminder) error
	TouchLocalChange(ctx context.Context, at time.Time) error
}

type Notifier interface {
	ScheduleAt(at time.Time, n notify.Notification) error
	CancelReminder(id int64) int
}

// Transitions receives the delayed advance of completed repeating reminders.
type Transitions interface {
	Schedule(scheduler.Event) error
}

// Pusher is told about every local mutation with a copy of the collection.
type Pusher interface {
	RequestPush(snapshot []model.Reminder)
}

type Options struct {
	Local           LocalStore
	Notifier        Notifier
	Transitions     Transitions
	Pusher          Pusher
	Clock           func() time.Time
	Location        *time.Location
	CompletionDelay time.Duration
	Logger          *zap.Logger
}

// Store owns the reminder collection. Every mutation is written to local
// storage before the pusher hears about it.
type Store struct {
	mu    sync.Mutex
	items []model.Reminder
	ids   model.IDGenerator

	local       LocalStore
	notifier    Notifier
	transitions Transitions
	pusher      Pusher
	clock       func() time.Time
	loc         *time.Location
	delay       time.Duration
	log         *zap.Logger
}

func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Local == nil {
		return nil, fmt.Errorf("reminders: local store is required")
	}
	s := &Store{
		local:       opts.Local,
		notifier:    opts.Notifier,
		transitions: opts.Transitions,
		pusher:      opts.Pusher,
		clock:       opts.Clock,
		loc:         opts.Location,
		delay:       opts.CompletionDelay,
		log:         opts.Logger,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.delay <= 0 {
		s.delay = DefaultCompletionDelay
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.log = s.log.Named("reminders")

	items, err := s.local.LoadReminders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reminders: %w", err)
	}
	s.items = items
	for _, r := range items {
		s.ids.Seed(r.ID)
	}
	s.resume()
	s.log.Info("loaded reminders", zap.Int("count", len(items)))
	return s, nil
}

// resume re-queues the timed work of a previous run: notifications for open
// reminders and the advance of completed repeating ones.
func (s *Store) resume() {
	now := s.clock()
	for _, r := range s.items {
		if r.Completed && r.Repeat.Recurring() && s.transitions != nil {
			if err := s.scheduleAdvanceLocked(r, now); err != nil {
				s.log.Warn("resume advance failed", zap.Int64("id", r.ID), zap.Error(err))
			}
			continue
		}
		s.scheduleNotificationLocked(r)
	}
}

// SetPusher attaches the sync pusher once it exists.
func (s *Store) SetPusher(p Pusher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pusher = p
}

// Location is the zone reminder date times are interpreted in.
func (s *Store) Location() *time.Location {
	return s.loc
}

// Snapshot returns a copy of the collection in stored order.
func (s *Store) Snapshot() []model.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) Get(id int64) (model.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return model.Reminder{}, fmt.Errorf("%w: reminder %d", model.ErrNotFound, id)
	}
	return cloneReminder(s.items[i]), nil
}

func (s *Store) snapshotLocked() []model.Reminder {
	out := make([]model.Reminder, len(s.items))
	for i, r := range s.items {
		out[i] = cloneReminder(r)
	}
	return out
}

func (s *Store) indexLocked(id int64) int {
	return slices.IndexFunc(s.items, func(r model.Reminder) bool { return r.ID == id })
}

// commitLocked persists the collection and, when push is set, records the
// local change and hands a snapshot to the pusher.
func (s *Store) commitLocked(ctx context.Context, push bool) error {
	snapshot := s.snapshotLocked()
	if err := s.local.SaveReminders(ctx, snapshot); err != nil {
		return fmt.Errorf("save reminders: %w", err)
	}
	if !push {
		return nil
	}
	if err := s.local.TouchLocalChange(ctx, s.clock()); err != nil {
		s.log.Warn("record local change failed", zap.Error(err))
	}
	if s.pusher != nil {
		s.pusher.RequestPush(snapshot)
	}
	return nil
}

func (s *Store) scheduleNotificationLocked(r model.Reminder) {
	if s.notifier == nil || !r.Notification || r.Completed {
		return
	}
	at, err := r.ScheduledAt(s.loc)
	if err != nil {
		s.log.Warn("cannot schedule notification", zap.Int64("id", r.ID), zap.Error(err))
		return
	}
	body := r.Description
	if body == "" {
		body = fmt.Sprintf("%s reminder due at %s", r.Category, at.Format("15:04"))
	}
	err = s.notifier.ScheduleAt(at, notify.Notification{
		Title:      r.Title,
		Body:       body,
		ReminderID: r.ID,
		DateTime:   r.DateTime,
	})
	if err != nil {
		s.log.Warn("schedule notification failed", zap.Int64("id", r.ID), zap.Error(err))
	}
}

func cloneReminder(r model.Reminder) model.Reminder {
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		r.CompletedAt = &at
	}
	return r
}
