package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateTimeLayout is the naive wall-clock layout reminders are stored in.
const DateTimeLayout = "2006-01-02T15:04"

var ErrInvalidDateTime = errors.New("model: invalid date time")

// ParseDateTime reads a "YYYY-MM-DDTHH:mm" value as wall-clock time in loc.
// The components are split by hand so the value never goes through an
// implicit zone conversion. An optional ":ss" suffix is accepted.
func ParseDateTime(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s := strings.TrimSpace(raw)
	datePart, clockPart, ok := strings.Cut(s, "T")
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, raw)
	}
	ymd := strings.Split(datePart, "-")
	hms := strings.Split(clockPart, ":")
	if len(ymd) != 3 || len(hms) < 2 || len(hms) > 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, raw)
	}
	parts := append(ymd, hms...)
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, raw)
		}
		nums[i] = n
	}
	year, month, day, hour, minute := nums[0], nums[1], nums[2], nums[3], nums[4]
	second := 0
	if len(nums) == 6 {
		second = nums[5]
	}
	if len(ymd[0]) != 4 || month < 1 || month > 12 || day < 1 || day > DaysIn(year, time.Month(month)) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, raw)
	}
	if hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, raw)
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, loc), nil
}

// FormatDateTime renders t's wall clock in DateTimeLayout.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateKey is the calendar-day key used to detect day boundaries.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
