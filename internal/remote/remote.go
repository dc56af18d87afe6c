// Package remote defines the contract shared by the cloud backends.
package remote

import (
	"context"
	"time"

	"github.com/sandeepkv93/memoara/internal/auth"
	"github.com/sandeepkv93/memoara/internal/model"
)

// Save actions reported by backends.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionSynced  = "synced"
)

type Receipt struct {
	Action string
	FileID string
	Count  int
}

type Backup struct {
	Reminders []model.Reminder
	LastSync  *time.Time
	Version   string
	Message   string
}

// Backend mirrors a user's reminder collection. Save must leave the remote
// holding exactly the given snapshot.
type Backend interface {
	Name() string
	Save(ctx context.Context, ident auth.Identity, snapshot []model.Reminder) (Receipt, error)
	Load(ctx context.Context, ident auth.Identity) (Backup, error)
	DeleteAll(ctx context.Context, ident auth.Identity) (string, error)
}
