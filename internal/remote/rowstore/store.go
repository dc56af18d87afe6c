// Package rowstore keeps reminders and gamification progress in a SQL
// database through gorm, one row per reminder.
package rowstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/memoara/internal/auth"
	"github.com/sandeepkv93/memoara/internal/model"
	"github.com/sandeepkv93/memoara/internal/remote"
)

type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open connects to Postgres at dsn and migrates the schema.
func Open(dsn string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open rowstore: %w", err)
	}
	return New(db, log)
}

func New(db *gorm.DB, log *zap.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("rowstore: nil db")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := db.AutoMigrate(&ReminderRow{}, &ProgressRow{}); err != nil {
		return nil, fmt.Errorf("migrate rowstore: %w", err)
	}
	return &Store{db: db, log: log.Named("rowstore")}, nil
}

func (s *Store) Name() string { return "rowstore" }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save upserts every reminder in snapshot and then removes the user's rows
// that are not in it. An empty snapshot removes all of the user's rows.
// A failed cleanup is logged and does not fail the save.
func (s *Store) Save(ctx context.Context, ident auth.Identity, snapshot []model.Reminder) (remote.Receipt, error) {
	if ident.UserID == "" {
		return remote.Receipt{}, fmt.Errorf("%w: no user id", auth.ErrUnauthorized)
	}
	db := s.db.WithContext(ctx)

	if len(snapshot) == 0 {
		if err := db.Where("user_id = ?", ident.UserID).Delete(&ReminderRow{}).Error; err != nil {
			return remote.Receipt{}, fmt.Errorf("clear reminders: %w", err)
		}
		return remote.Receipt{Action: remote.ActionSynced}, nil
	}

	rows := make([]ReminderRow, len(snapshot))
	ids := make([]int64, len(snapshot))
	for i, r := range snapshot {
		rows[i] = toRow(ident.UserID, r)
		ids[i] = r.ID
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}, {Name: "user_id"}},
		UpdateAll: true,
	}).Create(&rows).Error
	if err != nil {
		return remote.Receipt{}, fmt.Errorf("upsert reminders: %w", err)
	}

	res := db.Where("user_id = ? AND id NOT IN ?", ident.UserID, ids).Delete(&ReminderRow{})
	if res.Error != nil {
		s.log.Warn("prune stale reminders failed", zap.String("user_id", ident.UserID), zap.Error(res.Error))
	} else if res.RowsAffected > 0 {
		s.log.Info("pruned stale reminders", zap.String("user_id", ident.UserID), zap.Int64("count", res.RowsAffected))
	}
	return remote.Receipt{Action: remote.ActionSynced, Count: len(snapshot)}, nil
}

func (s *Store) Load(ctx context.Context, ident auth.Identity) (remote.Backup, error) {
	if ident.UserID == "" {
		return remote.Backup{}, fmt.Errorf("%w: no user id", auth.ErrUnauthorized)
	}
	var rows []ReminderRow
	err := s.db.WithContext(ctx).Where("user_id = ?", ident.UserID).Order("date_time ASC").Order("id ASC").Find(&rows).Error
	if err != nil {
		return remote.Backup{}, fmt.Errorf("load reminders: %w", err)
	}
	out := make([]model.Reminder, len(rows))
	for i, row := range rows {
		out[i] = fromRow(row)
	}
	return remote.Backup{Reminders: out}, nil
}

func (s *Store) DeleteAll(ctx context.Context, ident auth.Identity) (string, error) {
	if ident.UserID == "" {
		return "", fmt.Errorf("%w: no user id", auth.ErrUnauthorized)
	}
	res := s.db.WithContext(ctx).Where("user_id = ?", ident.UserID).Delete(&ReminderRow{})
	if res.Error != nil {
		return "", fmt.Errorf("delete reminders: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return "No backup found to delete", nil
	}
	return "Backup deleted successfully", nil
}

// LoadProgress reads the user's gamification record. found is false when
// the user has none yet.
func (s *Store) LoadProgress(ctx context.Context, userID string) (model.Progress, bool, error) {
	var row ProgressRow
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Progress{}, false, nil
		}
		return model.Progress{}, false, fmt.Errorf("load progress: %w", err)
	}
	out := model.Progress{Date: row.LastQuestDate}
	if err := json.Unmarshal(row.DailyQuests, &out.Quests); err != nil {
		return model.Progress{}, false, fmt.Errorf("decode quests: %w", err)
	}
	if err := json.Unmarshal(row.PlayerStats, &out.Stats); err != nil {
		return model.Progress{}, false, fmt.Errorf("decode stats: %w", err)
	}
	return out, true, nil
}

func (s *Store) SaveProgress(ctx context.Context, userID string, p model.Progress) error {
	quests, err := json.Marshal(p.Quests)
	if err != nil {
		return fmt.Errorf("encode quests: %w", err)
	}
	stats, err := json.Marshal(p.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	row := ProgressRow{
		UserID:        userID,
		DailyQuests:   datatypes.JSON(quests),
		PlayerStats:   datatypes.JSON(stats),
		LastQuestDate: p.Date,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"daily_quests", "player_stats", "last_quest_date", "updated_at"}),
	}).Create(&row).Error
}
