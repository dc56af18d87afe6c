package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sandeepkv93/memoara/internal/alarms"
	"github.com/sandeepkv93/memoara/internal/commands"
	"github.com/sandeepkv93/memoara/internal/gamification"
	"github.com/sandeepkv93/memoara/internal/model"
	"github.com/sandeepkv93/memoara/internal/reconcile"
	"github.com/sandeepkv93/memoara/internal/reminders"
)

// Handlers binds the command grammar to this app.
func (a *App) Handlers(ctx context.Context) commands.Handlers {
	return commands.Handlers{
		Add: func(in commands.AddArgs) (commands.Result, error) {
			r, err := a.Reminders.Create(ctx, model.ReminderInput{
				Title:        in.Title,
				DateTime:     in.DateTime,
				Priority:     model.Priority(in.Priority),
				Category:     model.Category(in.Category),
				Repeat:       model.Repeat(in.Repeat),
				Notification: in.Notification,
			})
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("added #%d %s @ %s", r.ID, r.Title, r.DateTime)}, nil
		},
		Done: func(in commands.TargetArgs) (commands.Result, error) {
			out, err := a.Reminders.ToggleComplete(ctx, in.ID)
			if errors.Is(err, model.ErrTooEarly) {
				return commands.Result{Message: fmt.Sprintf("#%d is not due until %s", in.ID, out.Reminder.DateTime)}, nil
			}
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: describeToggle(out)}, nil
		},
		Delete: func(in commands.TargetArgs) (commands.Result, error) {
			if err := a.Reminders.Delete(ctx, in.ID); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("deleted #%d", in.ID)}, nil
		},
		Show: func(in commands.ShowArgs) (commands.Result, error) {
			if in.Subject == "stats" {
				st := a.Reminders.Statistics()
				return commands.Result{Message: fmt.Sprintf("total %d | active %d | upcoming %d | overdue %d | completed %d",
					st.Total, st.Active, st.Upcoming, st.Overdue, st.Completed)}, nil
			}
			f, err := reminders.ParseFilter(in.Subject)
			if err != nil {
				return commands.Result{}, err
			}
			var lines []string
			for r := range a.Reminders.Filter(f) {
				lines = append(lines, fmt.Sprintf("#%d %s @ %s", r.ID, r.Title, r.DateTime))
			}
			if len(lines) == 0 {
				return commands.Result{Message: fmt.Sprintf("no %s reminders", f)}, nil
			}
			return commands.Result{Message: strings.Join(lines, "\n")}, nil
		},
		Sync: func(in commands.SyncArgs) (commands.Result, error) {
			var res reconcile.Result
			switch in.Action {
			case commands.SyncPush:
				res = a.Sync.Push(ctx, a.Reminders.Snapshot())
			case commands.SyncLoad:
				res = a.Sync.Load(ctx)
			case commands.SyncDelete:
				res = a.Sync.DeleteAll(ctx)
			}
			if !res.Success {
				return commands.Result{}, res.Err
			}
			return commands.Result{Message: res.Message}, nil
		},
		Quest: func(in commands.QuestArgs) (commands.Result, error) {
			if in.ID == 0 {
				st, err := a.Game.Load(ctx)
				if err != nil {
					return commands.Result{}, err
				}
				return commands.Result{Message: describeQuests(st)}, nil
			}
			out, err := a.Game.CompleteQuest(ctx, in.ID)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: describeCompletion(out)}, nil
		},
		Alarm: func(in commands.AlarmArgs) (commands.Result, error) {
			return a.runAlarm(ctx, in)
		},
	}
}

func (a *App) runAlarm(ctx context.Context, in commands.AlarmArgs) (commands.Result, error) {
	switch in.Action {
	case commands.AlarmAdd:
		al, err := a.Alarms.Create(ctx, alarms.Input{Time: in.Time, Label: in.Label, RepeatDays: in.Days})
		if err != nil {
			return commands.Result{}, err
		}
		return commands.Result{Message: fmt.Sprintf("alarm #%d set for %s", al.ID, al.Time)}, nil
	case commands.AlarmToggle:
		al, err := a.Alarms.ToggleActive(ctx, in.ID)
		if err != nil {
			return commands.Result{}, err
		}
		state := "off"
		if al.IsActive {
			state = "on"
		}
		return commands.Result{Message: fmt.Sprintf("alarm #%d %s", al.ID, state)}, nil
	case commands.AlarmSnooze:
		at, err := a.Alarms.Snooze(in.ID)
		if err != nil {
			return commands.Result{}, err
		}
		return commands.Result{Message: fmt.Sprintf("alarm #%d snoozed until %s", in.ID, at.Format("15:04"))}, nil
	case commands.AlarmDelete:
		if err := a.Alarms.Delete(ctx, in.ID); err != nil {
			return commands.Result{}, err
		}
		return commands.Result{Message: fmt.Sprintf("alarm #%d deleted", in.ID)}, nil
	default:
		items := a.Alarms.List()
		if len(items) == 0 {
			return commands.Result{Message: "no alarms"}, nil
		}
		lines := make([]string, 0, len(items))
		for _, al := range items {
			state := "off"
			if al.IsActive {
				state = "on"
			}
			lines = append(lines, fmt.Sprintf("#%d %s %s [%s] %s", al.ID, al.Time, al.Label, state, strings.Join(al.RepeatDays, ",")))
		}
		return commands.Result{Message: strings.Join(lines, "\n")}, nil
	}
}

func describeToggle(t reminders.Toggle) string {
	switch {
	case t.Advancing:
		return fmt.Sprintf("completed #%d, next %s occurrence coming up", t.Reminder.ID, t.Reminder.Repeat)
	case t.Reminder.Completed:
		return fmt.Sprintf("completed #%d", t.Reminder.ID)
	default:
		return fmt.Sprintf("reopened #%d", t.Reminder.ID)
	}
}

func describeQuests(st gamification.State) string {
	var b strings.Builder
	p := st.Progress
	if st.Demo {
		b.WriteString("demo mode, sign in to track progress\n")
	}
	fmt.Fprintf(&b, "level %d (%d/%d exp) STR %d AGI %d VIT %d INT %d\n",
		p.Stats.Level, p.Stats.Exp, p.Stats.ExpToNext, p.Stats.Strength, p.Stats.Agility, p.Stats.Vitality, p.Stats.Intelligence)
	for _, q := range p.Quests {
		mark := " "
		if q.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "[%s] %d. %s %s (+%d exp)\n", mark, q.ID, q.Icon, q.Title, q.ExpReward)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func describeCompletion(c gamification.Completion) string {
	if !c.Applied {
		return "quest already completed"
	}
	msg := fmt.Sprintf("%s done, +%d exp", c.Quest.Title, c.Quest.ExpReward)
	if c.Levels > 0 {
		msg += fmt.Sprintf(", level up to %d", c.Stats.Level)
	}
	if c.PersistErr != nil {
		msg += " (saved on this device only)"
	}
	return msg
}
