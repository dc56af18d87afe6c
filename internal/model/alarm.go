package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidClock   = errors.New("model: invalid alarm time")
	ErrInvalidWeekday = errors.New("model: invalid weekday")
	ErrInvalidSound   = errors.New("model: invalid alarm sound")
	ErrInvalidSnooze  = errors.New("model: invalid snooze duration")
)

const DefaultAlarmLabel = "Alarm"

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

type Sound string

const (
	SoundDefault Sound = "default"
	SoundGentle  Sound = "gentle"
	SoundNature  Sound = "nature"
	SoundClassic Sound = "classic"
	SoundDigital Sound = "digital"
)

func (s Sound) IsValid() bool {
	switch s {
	case SoundDefault, SoundGentle, SoundNature, SoundClassic, SoundDigital:
		return true
	default:
		return false
	}
}

// SnoozeMinutes lists the snooze lengths an alarm may use.
var SnoozeMinutes = []int{1, 5, 10, 15}

type Alarm struct {
	ID             int64     `json:"id"`
	Time           string    `json:"time"`
	Label          string    `json:"label"`
	IsActive       bool      `json:"isActive"`
	RepeatDays     []string  `json:"repeatDays"`
	Sound          Sound     `json:"sound"`
	Volume         int       `json:"volume"`
	SnoozeEnabled  bool      `json:"snoozeEnabled"`
	SnoozeDuration int       `json:"snoozeDuration"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewAlarm returns an alarm at clock with the default settings applied.
func NewAlarm(clock string) Alarm {
	return Alarm{
		Time:           clock,
		Label:          DefaultAlarmLabel,
		IsActive:       true,
		Sound:          SoundDefault,
		Volume:         80,
		SnoozeEnabled:  true,
		SnoozeDuration: 5,
	}
}

func (a Alarm) Validate() error {
	if _, _, err := ParseClock(a.Time); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	for _, day := range a.RepeatDays {
		if _, ok := weekdays[strings.ToLower(day)]; !ok {
			return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidWeekday, day)
		}
	}
	if !a.Sound.IsValid() {
		return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidSound, a.Sound)
	}
	if a.Volume < 0 || a.Volume > 100 {
		return fmt.Errorf("%w: volume must be between 0 and 100", ErrValidation)
	}
	if !validSnooze(a.SnoozeDuration) {
		return fmt.Errorf("%w: %w: %d", ErrValidation, ErrInvalidSnooze, a.SnoozeDuration)
	}
	return nil
}

// Repeating reports whether the alarm fires on a weekly schedule.
func (a Alarm) Repeating() bool {
	return len(a.RepeatDays) > 0
}

// NextFire returns the next time the alarm rings after now. A one-shot alarm
// rings today if its time is still ahead and tomorrow otherwise. A repeating
// alarm rings on the first listed weekday whose time is ahead.
func (a Alarm) NextFire(now time.Time) (time.Time, error) {
	hour, minute, err := ParseClock(a.Time)
	if err != nil {
		return time.Time{}, err
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !a.Repeating() {
		if today.After(now) {
			return today, nil
		}
		return today.AddDate(0, 0, 1), nil
	}

	days := make(map[time.Weekday]bool, len(a.RepeatDays))
	for _, name := range a.RepeatDays {
		day, ok := weekdays[strings.ToLower(name)]
		if !ok {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidWeekday, name)
		}
		days[day] = true
	}
	if days[today.Weekday()] && today.After(now) {
		return today, nil
	}
	for i := 1; i <= 7; i++ {
		candidate := today.AddDate(0, 0, i)
		if days[candidate.Weekday()] {
			return candidate, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: no repeat day matched", ErrInvalidWeekday)
}

// ParseClock splits an "HH:mm" alarm time.
func ParseClock(raw string) (int, int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 || len(m) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	return hour, minute, nil
}

// NormalizeWeekday maps short or mixed-case day names to the stored form.
func NormalizeWeekday(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for name := range weekdays {
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidWeekday, raw)
}

func validSnooze(minutes int) bool {
	for _, m := range SnoozeMinutes {
		if m == minutes {
			return true
		}
	}
	return false
}
