package reconcile

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/sandeepkv93/memoara/internal/auth"
	"github.com/sandeepkv93/memoara/internal/model"
	"github.com/sandeepkv93/memoara/internal/remote"
	"github.com/sandeepkv93/memoara/internal/reminders"
	"github.com/sandeepkv93/memoara/internal/storage"
)

type mirrorBackend struct {
	mu       sync.Mutex
	rows     map[string][]model.Reminder
	saves    int
	err      error
	lastSync *time.Time
}

func newMirror() *mirrorBackend {
	return &mirrorBackend{rows: map[string][]model.Reminder{}}
}

func (m *mirrorBackend) Name() string { return "mirror" }

func (m *mirrorBackend) Save(_ context.Context, ident auth.Identity, snapshot []model.Reminder) (remote.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return remote.Receipt{}, m.err
	}
	m.saves++
	m.rows[ident.UserID] = append([]model.Reminder(nil), snapshot...)
	return remote.Receipt{Action: remote.ActionSynced, Count: len(snapshot)}, nil
}

func (m *mirrorBackend) Load(_ context.Context, ident auth.Identity) (remote.Backup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return remote.Backup{}, m.err
	}
	return remote.Backup{Reminders: append([]model.Reminder(nil), m.rows[ident.UserID]...), LastSync: m.lastSync}, nil
}

func (m *mirrorBackend) DeleteAll(_ context.Context, ident auth.Identity) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, ident.UserID)
	return "Backup deleted successfully", nil
}

func (m *mirrorBackend) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

type staticIdentity struct {
	ident auth.Identity
	err   error
}

func (s *staticIdentity) Identity(context.Context) (auth.Identity, error) {
	return s.ident, s.err
}

var signedIn = &staticIdentity{ident: auth.Identity{UserID: "user-1"}}

type fixture struct {
	rec     *Reconciler
	store   *reminders.Store
	local   *storage.Local
	backend *mirrorBackend
	now     time.Time
}

func newFixture(t *testing.T, ids Identities, debounce time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		local:   storage.NewLocal(storage.NewMemoryRepository(), zaptest.NewLogger(t)),
		backend: newMirror(),
		now:     time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.rec = New(t.Context(), Options{
		Backend:    f.backend,
		Identities: ids,
		Meta:       f.local,
		Location:   time.UTC,
		Clock:      clock,
		Debounce:   debounce,
		Logger:     zaptest.NewLogger(t),
	})
	store, err := reminders.New(t.Context(), reminders.Options{
		Local:    f.local,
		Pusher:   f.rec,
		Clock:    clock,
		Location: time.UTC,
		Logger:   zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	f.store = store
	f.rec.Attach(store)
	return f
}

func reminder(id int64, dateTime string) model.Reminder {
	return model.Reminder{
		ID: id, Title: "r", DateTime: dateTime,
		Priority: model.PriorityMedium, Category: model.CategoryOther, Repeat: model.RepeatNone,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPushRequiresIdentity(t *testing.T) {
	f := newFixture(t, &staticIdentity{err: auth.ErrUnauthorized}, time.Hour)
	res := f.rec.Push(t.Context(), []model.Reminder{reminder(1, "2024-03-10T10:00")})
	if res.Success || !errors.Is(res.Err, auth.ErrUnauthorized) {
		t.Fatalf("expected unauthorized failure, got %+v", res)
	}
	var se *SyncError
	if !errors.As(res.Err, &se) || se.Code != CodeUnauthorized {
		t.Fatalf("expected SyncError with unauthorized code, got %v", res.Err)
	}
	if f.backend.saveCount() != 0 {
		t.Fatal("backend must not be called without identity")
	}
	if st := f.rec.Status(); st.Error == "" || st.IsLoading {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestPushMirrorsSnapshotAndRecordsSync(t *testing.T) {
	f := newFixture(t, signedIn, time.Hour)
	ctx := t.Context()

	res := f.rec.Push(ctx, []model.Reminder{reminder(1, "2024-03-10T10:00"), reminder(2, "2024-03-11T10:00")})
	if !res.Success || res.Count != 2 || res.Message != "2 reminders synced" {
		t.Fatalf("unexpected push result: %+v", res)
	}
	res = f.rec.Push(ctx, []model.Reminder{reminder(2, "2024-03-11T10:00")})
	if !res.Success {
		t.Fatalf("second push failed: %+v", res)
	}
	pulled, items := f.rec.Pull(ctx)
	if !pulled.Success || len(items) != 1 || items[0].ID != 2 {
		t.Fatalf("expected remote to mirror the last snapshot, got %+v", items)
	}

	if res := f.rec.Push(ctx, nil); !res.Success {
		t.Fatalf("empty push failed: %+v", res)
	}
	if _, items := f.rec.Pull(ctx); len(items) != 0 {
		t.Fatalf("expected empty snapshot to clear remote, got %+v", items)
	}

	st := f.rec.Status()
	if st.LastSync == nil || !st.LastSync.Equal(f.now) || st.Success == "" {
		t.Fatalf("unexpected status: %+v", st)
	}
	if last, ok, _ := f.local.Time(ctx, storage.KeyLastCloudSync); !ok || !last.Equal(f.now) {
		t.Fatalf("expected last cloud sync persisted, got %v %v", last, ok)
	}
}

func TestPullOrdersByScheduledTime(t *testing.T) {
	f := newFixture(t, signedIn, time.Hour)
	f.backend.rows["user-1"] = []model.Reminder{
		reminder(3, "2024-03-12T08:00"),
		reminder(1, "broken"),
		reminder(2, "2024-03-10T08:00"),
		reminder(4, "2024-03-10T08:00"),
	}
	_, items := f.rec.Pull(t.Context())
	var ids []int64
	for _, r := range items {
		ids = append(ids, r.ID)
	}
	want := []int64{2, 4, 3, 1}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, ids)
		}
	}
}

func TestBackendErrorsAreClassified(t *testing.T) {
	f := newFixture(t, signedIn, time.Hour)

	f.backend.err = &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	res := f.rec.Push(t.Context(), nil)
	if res.Success || !errors.Is(res.Err, ErrNetwork) {
		t.Fatalf("expected network failure, got %+v", res)
	}

	f.backend.err = errors.New("quota exceeded")
	res = f.rec.Push(t.Context(), nil)
	if !errors.Is(res.Err, ErrBackend) {
		t.Fatalf("expected backend failure, got %+v", res)
	}

	f.backend.err = auth.ErrUnauthorized
	res = f.rec.Push(t.Context(), nil)
	if !errors.Is(res.Err, auth.ErrUnauthorized) {
		t.Fatalf("expected unauthorized failure, got %+v", res)
	}
}

func TestNoBackendConfigured(t *testing.T) {
	rec := New(t.Context(), Options{Identities: signedIn})
	res := rec.Push(t.Context(), nil)
	if res.Success || !errors.Is(res.Err, ErrNoBackend) {
		t.Fatalf("expected ErrNoBackend, got %+v", res)
	}
	rec.RequestPush(nil)
	if _, ran := rec.Flush(t.Context()); ran {
		t.Fatal("expected no pending push without backend")
	}
}

func TestDebouncedPushCoalesces(t *testing.T) {
	f := newFixture(t, signedIn, time.Hour)
	ctx := t.Context()

	for i := 0; i < 3; i++ {
		if _, err := f.store.Create(ctx, model.ReminderInput{Title: "r", DateTime: "2024-03-11T08:00"}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if f.backend.saveCount() != 0 {
		t.Fatal("push must wait for the debounce window")
	}
	res, ran := f.rec.Flush(ctx)
	if !ran || !res.Success || res.Count != 3 {
		t.Fatalf("expected one push of 3 reminders, got ran=%v %+v", ran, res)
	}
	if f.backend.saveCount() != 1 {
		t.Fatalf("expected a single save, got %d", f.backend.saveCount())
	}
	if _, ran := f.rec.Flush(ctx); ran {
		t.Fatal("expected nothing pending after flush")
	}
}

func TestDebounceTimerFires(t *testing.T) {
	f := newFixture(t, signedIn, 10*time.Millisecond)
	if _, err := f.store.Create(t.Context(), model.ReminderInput{Title: "r", DateTime: "2024-03-11T08:00"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for f.backend.saveCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("debounced push never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestOfflineChangesPushOnReconnect(t *testing.T) {
	f := newFixture(t, signedIn, time.Hour)
	ctx := t.Context()

	if _, pushed := f.rec.SetOnline(ctx, false); pushed {
		t.Fatal("going offline must not push")
	}
	if _, err := f.store.Create(ctx, model.ReminderInput{Title: "offline", DateTime: "2024-03-11T08:00"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ran := f.rec.Flush(ctx); ran {
		t.Fatal("offline mutation must not queue a push")
	}
	if !f.rec.HasUnsyncedChanges(ctx) {
		t.Fatal("expected unsynced changes")
	}

	f.now = f.now.Add(time.Minute)
	res, pushed := f.rec.SetOnline(ctx, true)
	if !pushed || !res.Success || res.Count != 1 {
		t.Fatalf("expected reconnect push, got pushed=%v %+v", pushed, res)
	}
	if f.rec.HasUnsyncedChanges(ctx) {
		t.Fatal("expected changes to be synced")
	}

	f.rec.SetOnline(ctx, false)
	if _, pushed := f.rec.SetOnline(ctx, true); pushed {
		t.Fatal("reconnect without changes must not push")
	}
}

func TestReconnectWithoutSignInDoesNotPush(t *testing.T) {
	f := newFixture(t, &staticIdentity{err: auth.ErrUnauthorized}, time.Hour)
	ctx := t.Context()
	f.rec.SetOnline(ctx, false)
	if _, err := f.store.Create(ctx, model.ReminderInput{Title: "x", DateTime: "2024-03-11T08:00"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, pushed := f.rec.SetOnline(ctx, true); pushed {
		t.Fatal("unauthenticated reconnect must not push")
	}
}

func TestLoadOnSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("adopts remote into empty device", func(t *testing.T) {
		f := newFixture(t, signedIn, time.Hour)
		f.backend.rows["user-1"] = []model.Reminder{reminder(7, "2024-03-12T08:00"), reminder(5, "2024-03-11T08:00")}
		res := f.rec.LoadOnSignIn(ctx)
		if !res.Success || res.Count != 2 || f.store.Len() != 2 {
			t.Fatalf("expected adoption, got %+v len=%d", res, f.store.Len())
		}
		if f.store.Snapshot()[0].ID != 5 {
			t.Fatal("expected adopted reminders in scheduled order")
		}
	})

	t.Run("keeps local reminders", func(t *testing.T) {
		f := newFixture(t, signedIn, time.Hour)
		f.backend.rows["user-1"] = []model.Reminder{reminder(7, "2024-03-12T08:00")}
		if _, err := f.store.Create(ctx, model.ReminderInput{Title: "mine", DateTime: "2024-03-11T08:00"}); err != nil {
			t.Fatalf("create: %v", err)
		}
		res := f.rec.LoadOnSignIn(ctx)
		if !res.Success || f.store.Len() != 1 || f.store.Snapshot()[0].Title != "mine" {
			t.Fatalf("expected local reminders kept, got %+v", f.store.Snapshot())
		}
	})
}

func TestManualLoadMergesNewIDs(t *testing.T) {
	f := newFixture(t, signedIn, time.Hour)
	ctx := t.Context()
	mine, err := f.store.Create(ctx, model.ReminderInput{Title: "mine", DateTime: "2024-03-11T08:00"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	theirs := mine
	theirs.Title = "stale remote copy"
	f.backend.rows["user-1"] = []model.Reminder{theirs, reminder(3, "2024-03-12T08:00")}

	res := f.rec.Load(ctx)
	if !res.Success || res.Count != 1 || res.Message != "Loaded 1 new reminders" {
		t.Fatalf("unexpected load result: %+v", res)
	}
	got, _ := f.store.Get(mine.ID)
	if got.Title != "mine" {
		t.Fatalf("local copy must win, got %q", got.Title)
	}
	if res := f.rec.Load(ctx); res.Count != 0 || res.Message != "Already up to date" {
		t.Fatalf("expected idempotent load, got %+v", res)
	}
}

func TestLoadOfNewerBackupKeepsLocalEditsUnsynced(t *testing.T) {
	f := newFixture(t, signedIn, time.Hour)
	ctx := t.Context()

	f.rec.SetOnline(ctx, false)
	if _, err := f.store.Create(ctx, model.ReminderInput{Title: "offline edit", DateTime: "2024-03-11T08:00"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	otherDevice := f.now.Add(2 * time.Hour)
	f.backend.lastSync = &otherDevice
	f.backend.rows["user-1"] = []model.Reminder{reminder(3, "2024-03-12T08:00")}

	if res := f.rec.Load(ctx); !res.Success || res.Count != 1 {
		t.Fatalf("unexpected load result: %+v", res)
	}
	if !f.rec.HasUnsyncedChanges(ctx) {
		t.Fatal("a pulled backup time must not mark local edits as synced")
	}
	if _, ok, _ := f.local.Time(ctx, storage.KeyLastCloudSync); ok {
		t.Fatal("pull must not record a local sync time")
	}
	st := f.rec.Status()
	if st.LastSync != nil || st.RemoteBackupAt == nil || !st.RemoteBackupAt.Equal(otherDevice) {
		t.Fatalf("unexpected status after pull: %+v", st)
	}

	f.now = f.now.Add(time.Minute)
	res, pushed := f.rec.SetOnline(ctx, true)
	if !pushed || !res.Success || res.Count != 2 {
		t.Fatalf("expected reconnect push of both reminders, got pushed=%v %+v", pushed, res)
	}
	if f.rec.HasUnsyncedChanges(ctx) {
		t.Fatal("expected changes synced after push")
	}
}

func TestDeleteAllClearsRemoteOnly(t *testing.T) {
	f := newFixture(t, signedIn, time.Hour)
	ctx := t.Context()
	if _, err := f.store.Create(ctx, model.ReminderInput{Title: "keep", DateTime: "2024-03-11T08:00"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if res, _ := f.rec.Flush(ctx); !res.Success {
		t.Fatalf("flush: %+v", res)
	}
	res := f.rec.DeleteAll(ctx)
	if !res.Success || res.Message != "Backup deleted successfully" {
		t.Fatalf("unexpected delete result: %+v", res)
	}
	if f.store.Len() != 1 {
		t.Fatal("delete all must not touch local reminders")
	}
	if f.rec.Status().LastSync != nil {
		t.Fatal("expected last sync cleared")
	}
	if _, ok, _ := f.local.Time(ctx, storage.KeyLastCloudSync); ok {
		t.Fatal("expected persisted last sync cleared")
	}
}
