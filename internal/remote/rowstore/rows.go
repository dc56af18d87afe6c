package rowstore

import (
	"time"

	"gorm.io/datatypes"

	"github.com/sandeepkv93/memoara/internal/model"
)

// ReminderRow is one reminder owned by one user. The pair (id, user_id) is
// the key, so two users may hold the same reminder id.
type ReminderRow struct {
	ID           int64   `gorm:"primaryKey;autoIncrement:false"`
	UserID       string  `gorm:"primaryKey;size:128"`
	Title        string  `gorm:"not null"`
	Description  *string
	DateTime     string `gorm:"not null;index"`
	Priority     string `gorm:"size:16;not null"`
	Category     string `gorm:"size:16;not null"`
	Repeat       string `gorm:"size:16;not null"`
	Notification bool
	Completed    bool
	Created      time.Time `gorm:"column:created_at;not null"`
	CompletedAt  *time.Time
	UpdatedAt    time.Time
}

func (ReminderRow) TableName() string { return "reminders" }

// ProgressRow holds the gamification record of one user.
type ProgressRow struct {
	UserID        string         `gorm:"primaryKey;size:128"`
	DailyQuests   datatypes.JSON `gorm:"not null"`
	PlayerStats   datatypes.JSON `gorm:"not null"`
	LastQuestDate string         `gorm:"size:10"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ProgressRow) TableName() string { return "user_gamification" }

func toRow(userID string, r model.Reminder) ReminderRow {
	row := ReminderRow{
		ID:           r.ID,
		UserID:       userID,
		Title:        r.Title,
		DateTime:     r.DateTime,
		Priority:     string(r.Priority),
		Category:     string(r.Category),
		Repeat:       string(r.Repeat),
		Notification: r.Notification,
		Completed:    r.Completed,
		Created:      r.CreatedAt,
		CompletedAt:  r.CompletedAt,
	}
	if r.Description != "" {
		desc := r.Description
		row.Description = &desc
	}
	return row
}

func fromRow(row ReminderRow) model.Reminder {
	r := model.Reminder{
		ID:           row.ID,
		Title:        row.Title,
		DateTime:     row.DateTime,
		Priority:     model.Priority(row.Priority),
		Category:     model.Category(row.Category),
		Repeat:       model.Repeat(row.Repeat),
		Notification: row.Notification,
		Completed:    row.Completed,
		CreatedAt:    row.Created,
		CompletedAt:  row.CompletedAt,
	}
	if row.Description != nil {
		r.Description = *row.Description
	}
	return r
}
