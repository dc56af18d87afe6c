package model

import (
	"errors"
	"fmt"
	"time"
)

type Repeat string

const (
	RepeatNone    Repeat = "none"
	RepeatDaily   Repeat = "daily"
	RepeatWeekly  Repeat = "weekly"
	RepeatMonthly Repeat = "monthly"
	RepeatYearly  Repeat = "yearly"
)

var (
	ErrInvalidRepeat = errors.New("model: invalid repeat rule")
	ErrNotRecurring  = errors.New("model: repeat rule none has no next occurrence")
)

func (r Repeat) IsValid() bool {
	switch r {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatYearly:
		return true
	default:
		return false
	}
}

// Recurring reports whether completing a reminder with this rule reopens it.
func (r Repeat) Recurring() bool {
	return r != RepeatNone && r.IsValid()
}

// NextOccurrence returns the occurrence following current under rule.
//
// Daily and weekly steps keep the wall-clock time of day. Monthly and yearly
// steps keep the day of month but clamp it to the last day of the target
// month, so 2024-01-31 monthly gives 2024-02-29 and 2024-02-29 yearly gives
// 2025-02-28.
func NextOccurrence(current time.Time, rule Repeat) (time.Time, error) {
	switch rule {
	case RepeatDaily:
		return current.AddDate(0, 0, 1), nil
	case RepeatWeekly:
		return current.AddDate(0, 0, 7), nil
	case RepeatMonthly:
		return addMonthsClamped(current, 1), nil
	case RepeatYearly:
		return addMonthsClamped(current, 12), nil
	case RepeatNone:
		return time.Time{}, ErrNotRecurring
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidRepeat, rule)
	}
}

// NextDateTime applies NextOccurrence to a stored DateTimeLayout value.
func NextDateTime(dateTime string, rule Repeat, loc *time.Location) (string, error) {
	at, err := ParseDateTime(dateTime, loc)
	if err != nil {
		return "", err
	}
	next, err := NextOccurrence(at, rule)
	if err != nil {
		return "", err
	}
	return FormatDateTime(next), nil
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	ty, tm, _ := first.Date()
	if last := DaysIn(ty, tm); d > last {
		d = last
	}
	return time.Date(ty, tm, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
