package reminders

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/sandeepkv93/memoara/internal/model"
)

type Filter string

const (
	FilterAll       Filter = "all"
	FilterUpcoming  Filter = "upcoming"
	FilterOverdue   Filter = "overdue"
	FilterCompleted Filter = "completed"
)

var ErrInvalidFilter = errors.New("reminders: invalid filter")

func ParseFilter(raw string) (Filter, error) {
	switch f := Filter(raw); f {
	case FilterAll, FilterUpcoming, FilterOverdue, FilterCompleted:
		return f, nil
	case "":
		return FilterAll, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, raw)
	}
}

// Stats are the counts shown on the dashboard.
type Stats struct {
	Total     int
	Active    int
	Upcoming  int
	Overdue   int
	Completed int
}

// Filter yields the reminders matching f, evaluated against the clock at the
// moment iteration starts.
func (s *Store) Filter(f Filter) iter.Seq[model.Reminder] {
	return func(yield func(model.Reminder) bool) {
		now := s.clock()
		for _, r := range s.Snapshot() {
			if !s.matches(r, f, now) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

func (s *Store) Statistics() Stats {
	now := s.clock()
	var out Stats
	for _, r := range s.Snapshot() {
		out.Total++
		if r.Completed {
			out.Completed++
			continue
		}
		out.Active++
		switch s.classify(r, now) {
		case FilterUpcoming:
			out.Upcoming++
		case FilterOverdue:
			out.Overdue++
		}
	}
	return out
}

func (s *Store) matches(r model.Reminder, f Filter, now time.Time) bool {
	switch f {
	case FilterAll, "":
		return true
	case FilterCompleted:
		return r.Completed
	case FilterUpcoming, FilterOverdue:
		return !r.Completed && s.classify(r, now) == f
	default:
		return false
	}
}

// classify places an open reminder as upcoming or overdue. Unparseable date
// times are neither.
func (s *Store) classify(r model.Reminder, now time.Time) Filter {
	at, err := r.ScheduledAt(s.loc)
	if err != nil {
		return ""
	}
	if at.After(now) {
		return FilterUpcoming
	}
	return FilterOverdue
}
