// Package drive stores the reminder collection as one JSON file in the
// user's Google Drive application data folder.
package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/memoara/internal/auth"
	"github.com/sandeepkv93/memoara/internal/model"
	"github.com/sandeepkv93/memoara/internal/remote"
)

const (
	DefaultFileName = "memoara-reminders.json"
	BackupVersion   = "1.0"
)

// Payload is the backup file body.
type Payload struct {
	Reminders []model.Reminder `json:"reminders"`
	LastSync  time.Time        `json:"lastSync"`
	Version   string           `json:"version"`
}

type Client struct {
	open     Opener
	fileName string
	clock    func() time.Time
	log      *zap.Logger
}

func NewClient(open Opener, fileName string, log *zap.Logger) *Client {
	if fileName == "" {
		fileName = DefaultFileName
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{open: open, fileName: fileName, clock: time.Now, log: log.Named("drive")}
}

func (c *Client) Name() string { return "drive" }

// Save replaces the backup file with snapshot, creating it when missing.
func (c *Client) Save(ctx context.Context, ident auth.Identity, snapshot []model.Reminder) (remote.Receipt, error) {
	files, err := c.open(ctx, ident)
	if err != nil {
		return remote.Receipt{}, err
	}
	if snapshot == nil {
		snapshot = []model.Reminder{}
	}
	body, err := json.MarshalIndent(Payload{Reminders: snapshot, LastSync: c.clock().UTC(), Version: BackupVersion}, "", "  ")
	if err != nil {
		return remote.Receipt{}, fmt.Errorf("encode backup: %w", err)
	}

	id, err := files.Find(ctx, c.fileName)
	if err != nil {
		return remote.Receipt{}, fmt.Errorf("find backup: %w", err)
	}
	action := remote.ActionUpdated
	if id == "" {
		id, err = files.Create(ctx, c.fileName, body)
		action = remote.ActionCreated
	} else {
		id, err = files.Update(ctx, id, body)
	}
	if err != nil {
		return remote.Receipt{}, fmt.Errorf("%s backup: %w", action, err)
	}
	c.log.Info("saved backup", zap.String("file_id", id), zap.String("action", action), zap.Int("count", len(snapshot)))
	return remote.Receipt{Action: action, FileID: id, Count: len(snapshot)}, nil
}

func (c *Client) Load(ctx context.Context, ident auth.Identity) (remote.Backup, error) {
	files, err := c.open(ctx, ident)
	if err != nil {
		return remote.Backup{}, err
	}
	id, err := files.Find(ctx, c.fileName)
	if err != nil {
		return remote.Backup{}, fmt.Errorf("find backup: %w", err)
	}
	if id == "" {
		return remote.Backup{Reminders: []model.Reminder{}, Message: "No backup found"}, nil
	}
	body, err := files.Download(ctx, id)
	if err != nil {
		return remote.Backup{}, fmt.Errorf("download backup: %w", err)
	}
	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return remote.Backup{}, fmt.Errorf("decode backup: %w", err)
	}
	out := remote.Backup{Reminders: payload.Reminders, Version: payload.Version}
	if out.Reminders == nil {
		out.Reminders = []model.Reminder{}
	}
	if !payload.LastSync.IsZero() {
		last := payload.LastSync
		out.LastSync = &last
	}
	return out, nil
}

func (c *Client) DeleteAll(ctx context.Context, ident auth.Identity) (string, error) {
	files, err := c.open(ctx, ident)
	if err != nil {
		return "", err
	}
	id, err := files.Find(ctx, c.fileName)
	if err != nil {
		return "", fmt.Errorf("find backup: %w", err)
	}
	if id == "" {
		return "No backup found to delete", nil
	}
	if err := files.Remove(ctx, id); err != nil {
		return "", fmt.Errorf("delete backup: %w", err)
	}
	c.log.Info("deleted backup", zap.String("file_id", id))
	return "Backup deleted successfully", nil
}
