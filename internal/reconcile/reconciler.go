package reconcile

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/memoara/internal/auth"
	"github.com/sandeepkv93/memoara/internal/model"
	"github.com/sandeepkv93/memoara/internal/remote"
	"github.com/sandeepkv93/memoara/internal/storage"
)

const (
	DefaultDebounce = 100 * time.Millisecond
	DefaultTimeout  = 30 * time.Second
)

// Operation names reported in results.
const (
	OpPush   = "push"
	OpPull   = "pull"
	OpLoad   = "load"
	OpSignIn = "sign_in"
	OpDelete = "delete"
)

type Identities interface {
	Identity(ctx context.Context) (auth.Identity, error)
}

// Meta stores the sync bookkeeping timestamps.
type Meta interface {
	Time(ctx context.Context, key string) (time.Time, bool, error)
	SetTime(ctx context.Context, key string, t time.Time) error
	Clear(ctx context.Context, key string) error
}

// Target is the local collection reconciled against the backend.
type Target interface {
	Snapshot() []model.Reminder
	Len() int
	ReplaceAll(ctx context.Context, remote []model.Reminder) (bool, error)
	MergeRemote(ctx context.Context, remote []model.Reminder) (int, error)
}

// Result is returned by every user-facing sync operation.
type Result struct {
	Success bool
	Action  string
	Message string
	Count   int
	Err     error
}

// LastSync is the last successful push from this device. RemoteBackupAt is
// the save time reported by the backend on the latest pull and never counts
// as a local sync.
type Status struct {
	IsLoading      bool
	LastSync       *time.Time
	RemoteBackupAt *time.Time
	Error          string
	Success        string
}

type Options struct {
	Backend    remote.Backend
	Identities Identities
	Meta       Meta
	Location   *time.Location
	Clock      func() time.Time
	Debounce   time.Duration
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Reconciler mirrors the local collection to a backend.
type Reconciler struct {
	backend  remote.Backend
	ids      Identities
	meta     Meta
	loc      *time.Location
	clock    func() time.Time
	debounce time.Duration
	timeout  time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	target  Target
	online  bool
	status  Status
	timer   *time.Timer
	pending []model.Reminder
	queued  bool
	pushMu  sync.Mutex
}

func New(ctx context.Context, opts Options) *Reconciler {
	r := &Reconciler{
		backend:  opts.Backend,
		ids:      opts.Identities,
		meta:     opts.Meta,
		loc:      opts.Location,
		clock:    opts.Clock,
		debounce: opts.Debounce,
		timeout:  opts.Timeout,
		log:      opts.Logger,
		online:   true,
	}
	if r.loc == nil {
		r.loc = time.Local
	}
	if r.clock == nil {
		r.clock = time.Now
	}
	if r.debounce <= 0 {
		r.debounce = DefaultDebounce
	}
	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	r.log = r.log.Named("reconcile")
	if r.meta != nil {
		if last, ok, err := r.meta.Time(ctx, storage.KeyLastCloudSync); err == nil && ok {
			r.status.LastSync = &last
		}
	}
	return r
}

// Attach sets the collection used by sign-in loads, manual loads and the
// reconnect push.
func (r *Reconciler) Attach(t Target) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = t
}

func (r *Reconciler) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.status
	if out.LastSync != nil {
		last := *out.LastSync
		out.LastSync = &last
	}
	if out.RemoteBackupAt != nil {
		at := *out.RemoteBackupAt
		out.RemoteBackupAt = &at
	}
	return out
}

func (r *Reconciler) Online() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.online
}

func (r *Reconciler) BackendName() string {
	if r.backend == nil {
		return "none"
	}
	return r.backend.Name()
}

// Push makes the backend hold exactly snapshot.
func (r *Reconciler) Push(ctx context.Context, snapshot []model.Reminder) Result {
	r.pushMu.Lock()
	defer r.pushMu.Unlock()

	ident, fail := r.begin(ctx, OpPush)
	if fail != nil {
		return *fail
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	receipt, err := r.backend.Save(ctx, ident, snapshot)
	if err != nil {
		return r.fail(OpPush, err)
	}
	now := r.clock()
	r.recordSync(ctx, now)
	msg := fmt.Sprintf("%d reminders synced", len(snapshot))
	if len(snapshot) == 1 {
		msg = "1 reminder synced"
	}
	r.succeed(msg)
	r.log.Info("pushed reminders", zap.Int("count", len(snapshot)), zap.String("action", receipt.Action), zap.String("backend", r.backend.Name()))
	return Result{Success: true, Action: receipt.Action, Message: msg, Count: len(snapshot)}
}

// Pull fetches the remote collection ordered by scheduled time.
func (r *Reconciler) Pull(ctx context.Context) (Result, []model.Reminder) {
	ident, fail := r.begin(ctx, OpPull)
	if fail != nil {
		return *fail, nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	backup, err := r.backend.Load(ctx, ident)
	if err != nil {
		return r.fail(OpPull, err), nil
	}
	items := r.sortByScheduled(backup.Reminders)
	if backup.LastSync != nil {
		at := *backup.LastSync
		r.mu.Lock()
		r.status.RemoteBackupAt = &at
		r.mu.Unlock()
	}
	msg := backup.Message
	if msg == "" {
		msg = fmt.Sprintf("%d reminders in cloud", len(items))
	}
	r.succeed(msg)
	return Result{Success: true, Action: OpPull, Message: msg, Count: len(items)}, items
}

// LoadOnSignIn adopts the remote collection when the device has none.
// A non-empty local collection is kept untouched.
func (r *Reconciler) LoadOnSignIn(ctx context.Context) Result {
	target := r.currentTarget()
	if target == nil {
		return Result{Action: OpSignIn, Message: "nothing to load into"}
	}
	if target.Len() > 0 {
		r.log.Info("keeping local reminders on sign in", zap.Int("count", target.Len()))
		return Result{Success: true, Action: OpSignIn, Message: "Keeping reminders on this device", Count: 0}
	}
	res, items := r.Pull(ctx)
	if !res.Success {
		res.Action = OpSignIn
		return res
	}
	if len(items) == 0 {
		return Result{Success: true, Action: OpSignIn, Message: res.Message}
	}
	replaced, err := target.ReplaceAll(ctx, items)
	if err != nil {
		return r.fail(OpSignIn, err)
	}
	if !replaced {
		return Result{Success: true, Action: OpSignIn, Message: "Keeping reminders on this device"}
	}
	msg := fmt.Sprintf("Loaded %d reminders from cloud", len(items))
	r.succeed(msg)
	return Result{Success: true, Action: OpSignIn, Message: msg, Count: len(items)}
}

// Load merges the remote collection into the local one, adding only ids the
// device does not have.
func (r *Reconciler) Load(ctx context.Context) Result {
	target := r.currentTarget()
	if target == nil {
		return Result{Action: OpLoad, Message: "nothing to load into"}
	}
	res, items := r.Pull(ctx)
	if !res.Success {
		res.Action = OpLoad
		return res
	}
	added, err := target.MergeRemote(ctx, items)
	if err != nil {
		return r.fail(OpLoad, err)
	}
	msg := "Already up to date"
	if added > 0 {
		msg = fmt.Sprintf("Loaded %d new reminders", added)
	}
	r.succeed(msg)
	return Result{Success: true, Action: OpLoad, Message: msg, Count: added}
}

// DeleteAll removes the user's remote reminders. Local reminders are kept.
func (r *Reconciler) DeleteAll(ctx context.Context) Result {
	ident, fail := r.begin(ctx, OpDelete)
	if fail != nil {
		return *fail
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	msg, err := r.backend.DeleteAll(ctx, ident)
	if err != nil {
		return r.fail(OpDelete, err)
	}
	if r.meta != nil {
		if err := r.meta.Clear(ctx, storage.KeyLastCloudSync); err != nil {
			r.log.Warn("clear last sync failed", zap.Error(err))
		}
	}
	r.mu.Lock()
	r.status.LastSync = nil
	r.status.RemoteBackupAt = nil
	r.mu.Unlock()
	r.succeed(msg)
	return Result{Success: true, Action: OpDelete, Message: msg}
}

// HasUnsyncedChanges reports whether the last local change is newer than
// the last successful sync.
func (r *Reconciler) HasUnsyncedChanges(ctx context.Context) bool {
	if r.meta == nil {
		return false
	}
	changed, ok, err := r.meta.Time(ctx, storage.KeyLastLocalChange)
	if err != nil || !ok {
		return false
	}
	synced, ok, err := r.meta.Time(ctx, storage.KeyLastCloudSync)
	if err != nil || !ok {
		return true
	}
	return changed.After(synced)
}

// SetOnline records connectivity. Coming back online with unsynced changes
// and a signed-in user pushes the current collection; the result of that
// push is returned with pushed set.
func (r *Reconciler) SetOnline(ctx context.Context, online bool) (res Result, pushed bool) {
	r.mu.Lock()
	was := r.online
	r.online = online
	target := r.target
	r.mu.Unlock()

	if was == online {
		return Result{}, false
	}
	r.log.Info("connectivity changed", zap.Bool("online", online))
	if !online || target == nil || r.backend == nil {
		return Result{}, false
	}
	if _, err := r.identity(ctx); err != nil {
		return Result{}, false
	}
	if !r.HasUnsyncedChanges(ctx) {
		return Result{}, false
	}
	return r.Push(ctx, target.Snapshot()), true
}

func (r *Reconciler) currentTarget() Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target
}

func (r *Reconciler) identity(ctx context.Context) (auth.Identity, error) {
	if r.ids == nil {
		return auth.Identity{}, fmt.Errorf("%w: no session", auth.ErrUnauthorized)
	}
	return r.ids.Identity(ctx)
}

// begin checks the preconditions of a remote operation and marks the status
// as loading. A non-nil result means the operation must not run.
func (r *Reconciler) begin(ctx context.Context, op string) (auth.Identity, *Result) {
	if r.backend == nil {
		res := r.fail(op, ErrNoBackend)
		return auth.Identity{}, &res
	}
	ident, err := r.identity(ctx)
	if err != nil {
		res := r.fail(op, err)
		return auth.Identity{}, &res
	}
	r.mu.Lock()
	r.status.IsLoading = true
	r.status.Error = ""
	r.mu.Unlock()
	return ident, nil
}

func (r *Reconciler) fail(op string, err error) Result {
	se := classify(op, err)
	msg := userMessage(se)
	r.mu.Lock()
	r.status.IsLoading = false
	r.status.Error = msg
	r.status.Success = ""
	r.mu.Unlock()
	r.log.Warn("sync operation failed", zap.String("op", op), zap.String("code", string(se.Code)), zap.Error(se.Err))
	return Result{Action: op, Message: msg, Err: se}
}

func (r *Reconciler) succeed(msg string) {
	r.mu.Lock()
	r.status.IsLoading = false
	r.status.Error = ""
	r.status.Success = msg
	r.mu.Unlock()
}

func (r *Reconciler) recordSync(ctx context.Context, at time.Time) {
	r.mu.Lock()
	r.status.LastSync = &at
	r.mu.Unlock()
	if r.meta == nil {
		return
	}
	if err := r.meta.SetTime(ctx, storage.KeyLastCloudSync, at); err != nil {
		r.log.Warn("record last sync failed", zap.Error(err))
	}
}

func (r *Reconciler) sortByScheduled(items []model.Reminder) []model.Reminder {
	out := slices.Clone(items)
	if out == nil {
		out = []model.Reminder{}
	}
	slices.SortStableFunc(out, func(a, b model.Reminder) int {
		at, errA := a.ScheduledAt(r.loc)
		bt, errB := b.ScheduledAt(r.loc)
		switch {
		case errA != nil && errB != nil:
			return cmp.Compare(a.ID, b.ID)
		case errA != nil:
			return 1
		case errB != nil:
			return -1
		}
		if c := at.Compare(bt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
