package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/memoara/internal/model"
)

// Local is the typed view of the device-local documents. Unreadable or
// malformed documents fall back to their defaults with a warning.
type Local struct {
	repo Repository
	log  *zap.Logger
}

func NewLocal(repo Repository, log *zap.Logger) *Local {
	if log == nil {
		log = zap.NewNop()
	}
	return &Local{repo: repo, log: log.Named("storage")}
}

func (l *Local) LoadReminders(ctx context.Context) ([]model.Reminder, error) {
	items, _, err := loadJSON[[]model.Reminder](ctx, l, KeyReminders)
	if err != nil {
		return nil, err
	}
	return keepValid(l, KeyReminders, items, model.Reminder.Validate), nil
}

func (l *Local) SaveReminders(ctx context.Context, items []model.Reminder) error {
	if items == nil {
		items = []model.Reminder{}
	}
	return l.saveJSON(ctx, KeyReminders, items)
}

func (l *Local) LoadAlarms(ctx context.Context) ([]model.Alarm, error) {
	items, _, err := loadJSON[[]model.Alarm](ctx, l, KeyAlarms)
	if err != nil {
		return nil, err
	}
	return keepValid(l, KeyAlarms, items, model.Alarm.Validate), nil
}

func (l *Local) SaveAlarms(ctx context.Context, items []model.Alarm) error {
	if items == nil {
		items = []model.Alarm{}
	}
	return l.saveJSON(ctx, KeyAlarms, items)
}

// LoadProgress reads the cached gamification documents. found is false
// unless both the quests and the stats are present.
func (l *Local) LoadProgress(ctx context.Context) (model.Progress, bool, error) {
	var out model.Progress
	quests, hasQuests, err := loadJSON[[]model.Quest](ctx, l, KeyDailyQuests)
	if err != nil {
		return model.Progress{}, false, err
	}
	stats, hasStats, err := loadJSON[model.PlayerStats](ctx, l, KeyPlayerStats)
	if err != nil {
		return model.Progress{}, false, err
	}
	if hasQuests {
		out.Quests = quests
	}
	if hasStats {
		out.Stats = stats
	}
	doc, err := l.repo.Get(ctx, KeyLastQuestDate)
	switch {
	case err == nil:
		out.Date = string(doc.Value)
	case !errors.Is(err, ErrNotFound):
		return model.Progress{}, false, fmt.Errorf("load %s: %w", KeyLastQuestDate, err)
	}
	return out, hasQuests && hasStats, nil
}

func (l *Local) SaveProgress(ctx context.Context, p model.Progress) error {
	if err := l.saveJSON(ctx, KeyDailyQuests, p.Quests); err != nil {
		return err
	}
	if err := l.saveJSON(ctx, KeyPlayerStats, p.Stats); err != nil {
		return err
	}
	if err := l.repo.Put(ctx, KeyLastQuestDate, []byte(p.Date)); err != nil {
		return fmt.Errorf("save %s: %w", KeyLastQuestDate, err)
	}
	return nil
}

// Time reads an RFC 3339 timestamp document.
func (l *Local) Time(ctx context.Context, key string) (time.Time, bool, error) {
	doc, err := l.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("load %s: %w", key, err)
	}
	tm, err := time.Parse(time.RFC3339Nano, string(doc.Value))
	if err != nil {
		l.log.Warn("discarding malformed timestamp", zap.String("key", key), zap.Error(err))
		return time.Time{}, false, nil
	}
	return tm, true, nil
}

func (l *Local) SetTime(ctx context.Context, key string, t time.Time) error {
	if err := l.repo.Put(ctx, key, []byte(t.UTC().Format(time.RFC3339Nano))); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (l *Local) Clear(ctx context.Context, key string) error {
	if err := l.repo.Delete(ctx, key); err != nil {
		return fmt.Errorf("clear %s: %w", key, err)
	}
	return nil
}

// TouchLocalChange records the time of the latest local mutation.
func (l *Local) TouchLocalChange(ctx context.Context, t time.Time) error {
	return l.SetTime(ctx, KeyLastLocalChange, t)
}

// loadJSON decodes the document under key. A document that fails to decode
// yields the zero value, never a partially filled one.
func loadJSON[T any](ctx context.Context, l *Local, key string) (T, bool, error) {
	var zero T
	doc, err := l.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("load %s: %w", key, err)
	}
	var out T
	if err := json.Unmarshal(doc.Value, &out); err != nil {
		l.log.Warn("discarding malformed document", zap.String("key", key), zap.Error(err))
		return zero, false, nil
	}
	return out, true, nil
}

func keepValid[T any](l *Local, key string, items []T, validate func(T) error) []T {
	out := items[:0]
	for i, item := range items {
		if err := validate(item); err != nil {
			l.log.Warn("discarding invalid record", zap.String("key", key), zap.Int("index", i), zap.Error(err))
			continue
		}
		out = append(out, item)
	}
	return out
}

func (l *Local) saveJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := l.repo.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
