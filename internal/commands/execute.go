package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add    func(AddArgs) (Result, error)
	Done   func(TargetArgs) (Result, error)
	Delete func(TargetArgs) (Result, error)
	Show   func(ShowArgs) (Result, error)
	Sync   func(SyncArgs) (Result, error)
	Quest  func(QuestArgs) (Result, error)
	Alarm  func(AlarmArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Add(*cmd.Add)
	case TypeDone:
		if handlers.Done == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Done(*cmd.Done)
	case TypeDelete:
		if handlers.Delete == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Delete(*cmd.Delete)
	case TypeShow:
		if handlers.Show == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Show(*cmd.Show)
	case TypeSync:
		if handlers.Sync == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Sync(*cmd.Sync)
	case TypeQuest:
		if handlers.Quest == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Quest(*cmd.Quest)
	case TypeAlarm:
		if handlers.Alarm == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Alarm(*cmd.Alarm)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}
