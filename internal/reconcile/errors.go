package reconcile

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sandeepkv93/memoara/internal/auth"
)

type Code string

const (
	CodeUnauthorized Code = "unauthorized"
	CodeNetwork      Code = "network"
	CodeBackend      Code = "backend"
)

var (
	ErrNetwork   = errors.New("reconcile: network failure")
	ErrBackend   = errors.New("reconcile: backend failure")
	ErrNoBackend = errors.New("reconcile: cloud sync is not configured")
)

// SyncError is the classified failure of one sync operation.
type SyncError struct {
	Op   string
	Code Code
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s (%s): %v", e.Op, e.Code, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

func (e *SyncError) Is(target error) bool {
	switch e.Code {
	case CodeUnauthorized:
		return target == auth.ErrUnauthorized
	case CodeNetwork:
		return target == ErrNetwork
	case CodeBackend:
		return target == ErrBackend
	}
	return false
}

func classify(op string, err error) *SyncError {
	var se *SyncError
	if errors.As(err, &se) {
		return se
	}
	code := CodeBackend
	var netErr net.Error
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		code = CodeUnauthorized
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		code = CodeNetwork
	}
	return &SyncError{Op: op, Code: code, Err: err}
}

// userMessage is the status line shown for a failed operation.
func userMessage(se *SyncError) string {
	switch se.Code {
	case CodeUnauthorized:
		return "Please sign in to sync reminders"
	case CodeNetwork:
		return "Network error, changes are kept on this device"
	default:
		return fmt.Sprintf("Sync failed: %v", se.Err)
	}
}
