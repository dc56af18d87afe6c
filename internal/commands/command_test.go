package commands

import (
	"errors"
	"testing"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add pay rent @ 2024-06-01T09:00", TypeAdd},
		{"done 1717236000000", TypeDone},
		{"delete #42", TypeDelete},
		{"show overdue", TypeShow},
		{"sync push", TypeSync},
		{"quest 2", TypeQuest},
		{"alarm 07:30 days:mon,fri wake up", TypeAlarm},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseAddOptions(t *testing.T) {
	cmd, err := Parse("add Stand up meeting @ 2024-06-03T09:30 repeat:daily priority:high category:work silent")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	a := cmd.Add
	if a.Title != "Stand up meeting" || a.DateTime != "2024-06-03T09:30" {
		t.Fatalf("unexpected title/date: %+v", a)
	}
	if a.Repeat != "daily" || a.Priority != "high" || a.Category != "work" || a.Notification {
		t.Fatalf("unexpected options: %+v", a)
	}
}

func TestParseAddRejects(t *testing.T) {
	for _, in := range []string{
		"add no time here",
		"add @ 2024-06-03T09:30",
		"add title @",
		"add title @ 2024-06-03T09:30 colour:red",
	} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument, got %v", in, err)
		}
	}
}

func TestParseSyncAndAlarm(t *testing.T) {
	cmd, err := Parse("sync pull")
	if err != nil || cmd.Sync.Action != SyncLoad {
		t.Fatalf("expected pull alias for load, got %+v err=%v", cmd.Sync, err)
	}
	if _, err := Parse("sync upload"); err == nil {
		t.Fatal("expected error for unknown sync action")
	}

	cmd, err = Parse("alarm 06:45 days:mon,wed Gym time")
	if err != nil {
		t.Fatalf("parse alarm: %v", err)
	}
	if cmd.Alarm.Action != AlarmAdd || cmd.Alarm.Time != "06:45" || cmd.Alarm.Label != "Gym time" || len(cmd.Alarm.Days) != 2 {
		t.Fatalf("unexpected alarm args: %+v", cmd.Alarm)
	}
	cmd, err = Parse("alarm snooze 7")
	if err != nil || cmd.Alarm.Action != AlarmSnooze || cmd.Alarm.ID != 7 {
		t.Fatalf("unexpected snooze args: %+v err=%v", cmd.Alarm, err)
	}
	cmd, err = Parse("alarm")
	if err != nil || cmd.Alarm.Action != AlarmList {
		t.Fatalf("expected bare alarm to list, got %+v err=%v", cmd.Alarm, err)
	}
}

func TestParseInvalidIDs(t *testing.T) {
	for _, in := range []string{"done", "done abc", "delete -3", "quest zero", "alarm toggle"} {
		if _, err := Parse(in); err == nil {
			t.Fatalf("parse %q: expected error", in)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/unknown do x")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "/"} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
			t.Fatalf("parse %q: expected empty input error, got %v", in, err)
		}
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/done 12")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Done: func(a TargetArgs) (Result, error) {
			called = true
			if a.ID != 12 {
				t.Fatalf("unexpected id: %d", a.ID)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("show all")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}
