package model

import (
	"errors"
	"testing"
	"time"
)

func TestParseDateTimeUsesGivenLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	got, err := ParseDateTime("2024-06-01T09:30", loc)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got.Location() != loc || got.Hour() != 9 || got.Minute() != 30 {
		t.Fatalf("unexpected parse result: %s", got)
	}
	if FormatDateTime(got) != "2024-06-01T09:30" {
		t.Fatalf("round trip changed value: %s", FormatDateTime(got))
	}
}

func TestParseDateTimeAcceptsSeconds(t *testing.T) {
	got, err := ParseDateTime("2024-06-01T09:30:15", time.UTC)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got.Second() != 15 {
		t.Fatalf("expected seconds to be kept, got %s", got)
	}
}

func TestParseDateTimeRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"2024-06-01",
		"2024-06-01 09:30",
		"2024-13-01T09:30",
		"2023-02-29T09:30",
		"2024-06-01T24:00",
		"2024-06-01T09:60",
		"24-06-01T09:30",
		"2024-06-xxT09:30",
	} {
		if _, err := ParseDateTime(raw, time.UTC); !errors.Is(err, ErrInvalidDateTime) {
			t.Fatalf("expected ErrInvalidDateTime for %q, got %v", raw, err)
		}
	}
}

func TestDaysIn(t *testing.T) {
	if DaysIn(2024, time.February) != 29 || DaysIn(2023, time.February) != 28 || DaysIn(2024, time.April) != 30 {
		t.Fatal("unexpected month lengths")
	}
}

func TestIDGeneratorIsStrictlyIncreasing(t *testing.T) {
	var g IDGenerator
	now := time.UnixMilli(1_700_000_000_000)
	seen := map[int64]bool{}
	prev := int64(0)
	for i := 0; i < 100; i++ {
		id := g.Next(now)
		if seen[id] || id <= prev {
			t.Fatalf("id %d repeated or not increasing after %d", id, prev)
		}
		seen[id] = true
		prev = id
	}
}

func TestIDGeneratorSeed(t *testing.T) {
	var g IDGenerator
	g.Seed(5, 9_999_999_999_999, 42)
	if id := g.Next(time.UnixMilli(1)); id != 10_000_000_000_000 {
		t.Fatalf("expected id after seeded max, got %d", id)
	}
}
