package commands

import (
	"fmt"
	"strconv"
	"strings"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeDone   Type = "done"
	TypeDelete Type = "delete"
	TypeShow   Type = "show"
	TypeSync   Type = "sync"
	TypeQuest  Type = "quest"
	TypeAlarm  Type = "alarm"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AddArgs holds "add <title> @ <datetime> [repeat:r] [priority:p] [category:c] [silent]".
type AddArgs struct {
	Title        string
	DateTime     string
	Repeat       string
	Priority     string
	Category     string
	Notification bool
}

type TargetArgs struct {
	ID int64
}

type ShowArgs struct {
	Subject string
}

type SyncAction string

const (
	SyncPush   SyncAction = "push"
	SyncLoad   SyncAction = "load"
	SyncDelete SyncAction = "delete"
)

type SyncArgs struct {
	Action SyncAction
}

// QuestArgs completes quest ID, or lists quests when ID is zero.
type QuestArgs struct {
	ID int
}

type AlarmAction string

const (
	AlarmAdd    AlarmAction = "add"
	AlarmToggle AlarmAction = "toggle"
	AlarmSnooze AlarmAction = "snooze"
	AlarmDelete AlarmAction = "delete"
	AlarmList   AlarmAction = "list"
)

type AlarmArgs struct {
	Action AlarmAction
	ID     int64
	Time   string
	Label  string
	Days   []string
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Done   *TargetArgs
	Delete *TargetArgs
	Show   *ShowArgs
	Sync   *SyncArgs
	Quest  *QuestArgs
	Alarm  *AlarmArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDone, TypeDelete:
		return parseTarget(input, Type(head), args)
	case TypeShow:
		return parseShow(input, args)
	case TypeSync:
		return parseSync(input, args)
	case TypeQuest:
		return parseQuest(input, args)
	case TypeAlarm:
		return parseAlarm(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	at := -1
	for i, arg := range args {
		if arg == "@" {
			at = i
			break
		}
	}
	if at <= 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title and '@ <YYYY-MM-DDTHH:mm>'"}
	}
	rest := args[at+1:]
	if len(rest) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a date time after '@'"}
	}

	out := AddArgs{Title: strings.Join(args[:at], " "), DateTime: rest[0], Notification: true}
	for _, opt := range rest[1:] {
		key, value, ok := strings.Cut(strings.ToLower(opt), ":")
		switch {
		case !ok && key == "silent":
			out.Notification = false
		case ok && key == "repeat":
			out.Repeat = value
		case ok && key == "priority":
			out.Priority = value
		case ok && key == "category":
			out.Category = value
		default:
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown add option: %s", opt)}
		}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &out}, nil
}

func parseTarget(raw string, typ Type, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires a reminder id", typ)}
	}
	id, err := parseID(args[0])
	if err != nil {
		return Command{}, err
	}
	cmd := Command{Type: typ, Raw: raw}
	if typ == TypeDone {
		cmd.Done = &TargetArgs{ID: id}
	} else {
		cmd.Delete = &TargetArgs{ID: id}
	}
	return cmd, nil
}

func parseShow(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "show requires a subject"}
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{Subject: strings.ToLower(args[0])}}, nil
}

func parseSync(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "sync requires push, load or delete"}
	}
	action := SyncAction(strings.ToLower(args[0]))
	switch action {
	case SyncPush, SyncLoad, SyncDelete:
	case "pull":
		action = SyncLoad
	default:
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown sync action: %s", args[0])}
	}
	return Command{Type: TypeSync, Raw: raw, Sync: &SyncArgs{Action: action}}, nil
}

func parseQuest(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{Type: TypeQuest, Raw: raw, Quest: &QuestArgs{}}, nil
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid quest id: %s", args[0])}
	}
	return Command{Type: TypeQuest, Raw: raw, Quest: &QuestArgs{ID: id}}, nil
}

// parseAlarm accepts "alarm <HH:mm> [days:mon,wed] [label...]", "alarm list"
// and "alarm toggle|snooze|delete <id>".
func parseAlarm(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{Type: TypeAlarm, Raw: raw, Alarm: &AlarmArgs{Action: AlarmList}}, nil
	}
	action := AlarmAction(strings.ToLower(args[0]))
	switch action {
	case AlarmList:
		return Command{Type: TypeAlarm, Raw: raw, Alarm: &AlarmArgs{Action: AlarmList}}, nil
	case AlarmToggle, AlarmSnooze, AlarmDelete:
		if len(args) != 2 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("alarm %s requires an alarm id", action)}
		}
		id, err := parseID(args[1])
		if err != nil {
			return Command{}, err
		}
		return Command{Type: TypeAlarm, Raw: raw, Alarm: &AlarmArgs{Action: action, ID: id}}, nil
	}

	if !strings.Contains(args[0], ":") {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("alarm requires a time like 07:30, got %s", args[0])}
	}
	out := AlarmArgs{Action: AlarmAdd, Time: args[0]}
	var label []string
	for _, arg := range args[1:] {
		if days, ok := strings.CutPrefix(strings.ToLower(arg), "days:"); ok {
			for _, d := range strings.Split(days, ",") {
				if d = strings.TrimSpace(d); d != "" {
					out.Days = append(out.Days, d)
				}
			}
			continue
		}
		label = append(label, arg)
	}
	out.Label = strings.Join(label, " ")
	return Command{Type: TypeAlarm, Raw: raw, Alarm: &out}, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid id: %s", s)}
	}
	return id, nil
}
