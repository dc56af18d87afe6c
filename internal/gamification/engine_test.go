package gamification

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/sandeepkv93/memoara/internal/auth"
	"github.com/sandeepkv93/memoara/internal/model"
	"github.com/sandeepkv93/memoara/internal/storage"
)

// fixedRand always answers the largest allowed value below max.
type fixedRand struct{ max bool }

func (r fixedRand) IntN(n int) int {
	if r.max {
		return n - 1
	}
	return 0
}

type memRemote struct {
	rows  map[string]model.Progress
	err   error
	saves int
}

func (m *memRemote) LoadProgress(_ context.Context, userID string) (model.Progress, bool, error) {
	if m.err != nil {
		return model.Progress{}, false, m.err
	}
	p, ok := m.rows[userID]
	return p, ok, nil
}

func (m *memRemote) SaveProgress(_ context.Context, userID string, p model.Progress) error {
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.rows[userID] = p
	return nil
}

type idents struct{ err error }

func (i idents) Identity(context.Context) (auth.Identity, error) {
	if i.err != nil {
		return auth.Identity{}, i.err
	}
	return auth.Identity{UserID: "user-1"}, nil
}

type gameFixture struct {
	engine *Engine
	remote *memRemote
	local  *storage.Local
	now    time.Time
}

func newGame(t *testing.T, ids Identities) *gameFixture {
	t.Helper()
	f := &gameFixture{
		remote: &memRemote{rows: map[string]model.Progress{}},
		local:  storage.NewLocal(storage.NewMemoryRepository(), zaptest.NewLogger(t)),
		now:    time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	f.engine = New(Options{
		Remote:     f.remote,
		Local:      f.local,
		Identities: ids,
		Rand:       fixedRand{},
		Clock:      func() time.Time { return f.now },
		Location:   time.UTC,
		Logger:     zaptest.NewLogger(t),
	})
	return f
}

func TestApplyLevelUp(t *testing.T) {
	stats, levels := Apply(model.DefaultPlayerStats(), Gain{}, 250)
	if stats.Level != 2 || stats.Exp != 150 || stats.ExpToNext != 200 || levels != 1 {
		t.Fatalf("unexpected level up: %+v levels=%d", stats, levels)
	}
}

func TestApplyMultipleLevels(t *testing.T) {
	start := model.DefaultPlayerStats()
	start.Exp = 90
	stats, levels := Apply(start, Gain{Strength: 2}, 330)
	if stats.Level != 3 || stats.Exp != 120 || stats.ExpToNext != 300 || levels != 2 || stats.Strength != 12 {
		t.Fatalf("unexpected stats: %+v levels=%d", stats, levels)
	}
	if err := stats.Validate(); err != nil {
		t.Fatalf("stats must stay valid: %v", err)
	}
}

func TestApplyBelowThreshold(t *testing.T) {
	stats, levels := Apply(model.DefaultPlayerStats(), Gain{}, 99)
	if stats.Level != 1 || stats.Exp != 99 || levels != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRollGainRanges(t *testing.T) {
	low := RollGain(model.QuestExercise, fixedRand{})
	high := RollGain(model.QuestExercise, fixedRand{max: true})
	if low != (Gain{Strength: 1, Vitality: 1}) || high != (Gain{Strength: 3, Vitality: 2}) {
		t.Fatalf("unexpected exercise gains: %+v %+v", low, high)
	}
	if g := RollGain(model.QuestHealth, fixedRand{max: true}); g != (Gain{Vitality: 3, Agility: 2}) {
		t.Fatalf("unexpected health gain: %+v", g)
	}
	if g := RollGain(model.QuestProductivity, fixedRand{max: true}); g != (Gain{Intelligence: 3, Agility: 2}) {
		t.Fatalf("unexpected productivity gain: %+v", g)
	}
}

func TestDrawPicksDistinctQuests(t *testing.T) {
	quests := Draw(fixedRand{})
	if len(quests) != DailyQuestCount {
		t.Fatalf("expected %d quests, got %d", DailyQuestCount, len(quests))
	}
	seen := map[string]bool{}
	for i, q := range quests {
		if q.ID != i+1 || q.Completed || seen[q.Title] {
			t.Fatalf("unexpected quest %+v", q)
		}
		seen[q.Title] = true
	}
	if Catalog[0].ID != 0 {
		t.Fatal("draw must not mutate the catalog")
	}
}

func TestDemoModeWhenSignedOut(t *testing.T) {
	f := newGame(t, idents{err: auth.ErrUnauthorized})
	st, err := f.engine.Load(t.Context())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !st.Demo || len(st.Progress.Quests) != DailyQuestCount || st.Progress.Stats != model.DefaultPlayerStats() {
		t.Fatalf("unexpected demo state: %+v", st)
	}
	if _, err := f.engine.CompleteQuest(t.Context(), 1); !errors.Is(err, ErrDemoMode) {
		t.Fatalf("expected ErrDemoMode, got %v", err)
	}
	if f.remote.saves != 0 {
		t.Fatal("demo mode must not persist")
	}
}

func TestCompleteQuestAwardsAndPersists(t *testing.T) {
	f := newGame(t, idents{})
	ctx := t.Context()
	st, err := f.engine.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	q := st.Progress.Quests[0]

	out, err := f.engine.CompleteQuest(ctx, q.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !out.Applied || !out.Quest.Completed || out.Stats.Exp != q.ExpReward {
		t.Fatalf("unexpected completion: %+v", out)
	}
	saved := f.remote.rows["user-1"]
	if !saved.Quests[0].Completed || saved.Stats.Exp != q.ExpReward {
		t.Fatalf("expected completion persisted remotely, got %+v", saved)
	}
	cached, found, _ := f.local.LoadProgress(ctx)
	if !found || !cached.Quests[0].Completed {
		t.Fatalf("expected completion cached locally, got %+v", cached)
	}

	again, err := f.engine.CompleteQuest(ctx, q.ID)
	if err != nil || again.Applied {
		t.Fatalf("expected repeat completion to be a no-op, got %+v err=%v", again, err)
	}
	if missing, err := f.engine.CompleteQuest(ctx, 99); err != nil || missing.Applied {
		t.Fatalf("expected unknown quest to be a no-op, got %+v err=%v", missing, err)
	}
	if f.engine.State().Progress.Stats.Exp != q.ExpReward {
		t.Fatal("no-op completions must not award experience")
	}
}

func TestQuestsRegenerateOncePerDay(t *testing.T) {
	f := newGame(t, idents{})
	ctx := t.Context()
	if _, err := f.engine.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := f.engine.CompleteQuest(ctx, 1); err != nil {
		t.Fatalf("complete: %v", err)
	}
	earned := f.engine.State().Progress.Stats

	f.now = f.now.Add(3 * time.Hour)
	st, err := f.engine.Load(ctx)
	if err != nil {
		t.Fatalf("reload same day: %v", err)
	}
	if !st.Progress.Quests[0].Completed {
		t.Fatal("same-day reload must keep today's quests")
	}

	f.now = f.now.Add(24 * time.Hour)
	out, err := f.engine.CompleteQuest(ctx, 1)
	if err != nil {
		t.Fatalf("complete next day: %v", err)
	}
	if !out.Applied {
		t.Fatal("expected fresh quests on a new day")
	}
	st = f.engine.State()
	if st.Progress.Date != "2024-03-11" {
		t.Fatalf("expected quests for the new day, got %s", st.Progress.Date)
	}
	if st.Progress.Stats.Exp <= earned.Exp && st.Progress.Stats.Level == earned.Level {
		t.Fatal("stats must carry over across days")
	}
}

func TestRemoteFailureFallsBackToCache(t *testing.T) {
	f := newGame(t, idents{})
	ctx := t.Context()
	cached := model.Progress{
		Quests: Draw(fixedRand{}),
		Stats:  model.PlayerStats{Level: 3, Exp: 10, ExpToNext: 300, Strength: 10, Agility: 10, Vitality: 10, Intelligence: 10},
		Date:   "2024-03-10",
	}
	if err := f.local.SaveProgress(ctx, cached); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	f.remote.err = errors.New("connection reset")

	st, err := f.engine.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.Progress.Stats.Level != 3 {
		t.Fatalf("expected cached stats, got %+v", st.Progress.Stats)
	}
	out, err := f.engine.CompleteQuest(ctx, 1)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !out.Applied || out.PersistErr == nil {
		t.Fatalf("expected applied completion with persist error, got %+v", out)
	}
}

func TestInvalidStoredStatsAreReset(t *testing.T) {
	f := newGame(t, idents{})
	f.remote.rows["user-1"] = model.Progress{Stats: model.PlayerStats{Level: 0}, Date: "2024-03-01"}
	st, err := f.engine.Load(t.Context())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.Progress.Stats != model.DefaultPlayerStats() {
		t.Fatalf("expected default stats, got %+v", st.Progress.Stats)
	}
}
