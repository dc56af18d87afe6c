package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrValidation      = errors.New("model: validation failed")
	ErrNotFound        = errors.New("model: not found")
	ErrTooEarly        = errors.New("model: reminder is not due yet")
	ErrInvalidPriority = errors.New("model: invalid priority")
	ErrInvalidCategory = errors.New("model: invalid category")
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

type Category string

const (
	CategoryPersonal Category = "personal"
	CategoryWork     Category = "work"
	CategoryHealth   Category = "health"
	CategoryShopping Category = "shopping"
	CategoryStudy    Category = "study"
	CategoryFamily   Category = "family"
	CategoryTravel   Category = "travel"
	CategoryOther    Category = "other"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryPersonal, CategoryWork, CategoryHealth, CategoryShopping,
		CategoryStudy, CategoryFamily, CategoryTravel, CategoryOther:
		return true
	default:
		return false
	}
}

// Reminder is the record shared by local storage, the drive backup file and
// the row store. JSON names follow the backup file format.
type Reminder struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	DateTime     string     `json:"dateTime"`
	Priority     Priority   `json:"priority"`
	Category     Category   `json:"category"`
	Repeat       Repeat     `json:"repeat"`
	Notification bool       `json:"notification"`
	Completed    bool       `json:"completed"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt"`
}

// ScheduledAt parses DateTime as wall-clock time in loc.
func (r Reminder) ScheduledAt(loc *time.Location) (time.Time, error) {
	return ParseDateTime(r.DateTime, loc)
}

func (r Reminder) Validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("%w: reminder id is required", ErrValidation)
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("%w: reminder created_at is required", ErrValidation)
	}
	if r.Completed != (r.CompletedAt != nil) {
		return fmt.Errorf("%w: completed_at must be set exactly when completed", ErrValidation)
	}
	return ReminderInput{
		Title:        r.Title,
		Description:  r.Description,
		DateTime:     r.DateTime,
		Priority:     r.Priority,
		Category:     r.Category,
		Repeat:       r.Repeat,
		Notification: r.Notification,
	}.Validate()
}

// ReminderInput carries the user-editable fields of a reminder.
type ReminderInput struct {
	Title        string
	Description  string
	DateTime     string
	Priority     Priority
	Category     Category
	Repeat       Repeat
	Notification bool
}

// Normalize trims text fields and fills the empty enums with their defaults.
func (in ReminderInput) Normalize() ReminderInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.DateTime = strings.TrimSpace(in.DateTime)
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if in.Category == "" {
		in.Category = CategoryPersonal
	}
	if in.Repeat == "" {
		in.Repeat = RepeatNone
	}
	return in
}

func (in ReminderInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(in.DateTime) == "" {
		return fmt.Errorf("%w: date time is required", ErrValidation)
	}
	if _, err := ParseDateTime(in.DateTime, time.UTC); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if !in.Priority.IsValid() {
		return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidPriority, in.Priority)
	}
	if !in.Category.IsValid() {
		return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidCategory, in.Category)
	}
	if !in.Repeat.IsValid() {
		return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidRepeat, in.Repeat)
	}
	return nil
}
