package gamification

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/memoara/internal/auth"
	"github.com/sandeepkv93/memoara/internal/model"
)

var ErrDemoMode = errors.New("gamification: sign in to track progress")

// RemoteStore persists progress per user.
type RemoteStore interface {
	LoadProgress(ctx context.Context, userID string) (model.Progress, bool, error)
	SaveProgress(ctx context.Context, userID string, p model.Progress) error
}

// LocalCache keeps the last known progress on the device.
type LocalCache interface {
	LoadProgress(ctx context.Context) (model.Progress, bool, error)
	SaveProgress(ctx context.Context, p model.Progress) error
}

type Identities interface {
	Identity(ctx context.Context) (auth.Identity, error)
}

type Options struct {
	Remote     RemoteStore
	Local      LocalCache
	Identities Identities
	Rand       Rand
	Clock      func() time.Time
	Location   *time.Location
	Logger     *zap.Logger
}

// State is a copy of the current progress.
type State struct {
	Progress model.Progress
	Demo     bool
}

// Completion is the outcome of CompleteQuest.
type Completion struct {
	Quest  model.Quest
	Gain   Gain
	Levels int
	Stats  model.PlayerStats
	// Applied is false when the quest was unknown or already completed.
	Applied bool
	// PersistErr is set when the remote save failed. The progress is still
	// kept locally.
	PersistErr error
}

type Engine struct {
	remote RemoteStore
	local  LocalCache
	ids    Identities
	rnd    Rand
	clock  func() time.Time
	loc    *time.Location
	log    *zap.Logger

	mu     sync.Mutex
	state  model.Progress
	demo   bool
	userID string
	loaded bool
}

func New(opts Options) *Engine {
	e := &Engine{
		remote: opts.Remote,
		local:  opts.Local,
		ids:    opts.Identities,
		rnd:    opts.Rand,
		clock:  opts.Clock,
		loc:    opts.Location,
		log:    opts.Logger,
	}
	if e.rnd == nil {
		e.rnd = globalRand{}
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	e.log = e.log.Named("gamification")
	return e
}

func (e *Engine) today() string {
	return model.DateKey(e.clock().In(e.loc))
}

// Load resolves the current progress. Signed-out users get demo mode.
// Signed-in users get their stored progress, with fresh quests when the
// stored ones are from an earlier day.
func (e *Engine) Load(ctx context.Context) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadLocked(ctx)
}

func (e *Engine) loadLocked(ctx context.Context) (State, error) {
	today := e.today()
	ident, err := e.identity(ctx)
	if err != nil {
		e.demo = true
		e.userID = ""
		e.state = model.Progress{Quests: demoQuests(), Stats: model.DefaultPlayerStats(), Date: today}
		e.loaded = true
		return e.stateLocked(), nil
	}

	stored, found, err := e.fetch(ctx, ident.UserID)
	if err != nil {
		return State{}, err
	}
	p := stored
	if !found || stored.Date != today || len(stored.Quests) == 0 {
		stats := model.DefaultPlayerStats()
		if found && stored.Stats.Validate() == nil {
			stats = stored.Stats
		}
		p = model.Progress{Quests: Draw(e.rnd), Stats: stats, Date: today}
		e.log.Info("generated daily quests", zap.String("date", today), zap.String("user_id", ident.UserID))
		if err := e.persist(ctx, ident.UserID, p); err != nil {
			e.log.Warn("save generated quests failed", zap.Error(err))
		}
	} else if e.local != nil {
		if err := e.local.SaveProgress(ctx, p); err != nil {
			e.log.Warn("cache progress failed", zap.Error(err))
		}
	}
	e.demo = false
	e.userID = ident.UserID
	e.state = p
	e.loaded = true
	return e.stateLocked(), nil
}

// fetch reads progress from the remote store, falling back to the local
// cache when the remote is missing or unreachable.
func (e *Engine) fetch(ctx context.Context, userID string) (model.Progress, bool, error) {
	if e.remote != nil {
		p, found, err := e.remote.LoadProgress(ctx, userID)
		if err == nil {
			return p, found, nil
		}
		e.log.Warn("load remote progress failed, using local cache", zap.Error(err))
	}
	if e.local == nil {
		return model.Progress{}, false, nil
	}
	p, found, err := e.local.LoadProgress(ctx)
	if err != nil {
		return model.Progress{}, false, fmt.Errorf("load cached progress: %w", err)
	}
	return p, found, nil
}

// persist saves locally and, when configured, remotely. Only the remote
// error is returned.
func (e *Engine) persist(ctx context.Context, userID string, p model.Progress) error {
	if e.local != nil {
		if err := e.local.SaveProgress(ctx, p); err != nil {
			e.log.Warn("cache progress failed", zap.Error(err))
		}
	}
	if e.remote == nil || userID == "" {
		return nil
	}
	return e.remote.SaveProgress(ctx, userID, p)
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	p := e.state
	p.Quests = slices.Clone(p.Quests)
	return State{Progress: p, Demo: e.demo}
}

// CompleteQuest marks quest id done, rolls its stat gain and awards its
// experience. Completing an unknown or finished quest changes nothing.
func (e *Engine) CompleteQuest(ctx context.Context, id int) (Completion, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded || e.state.Date != e.today() {
		if _, err := e.loadLocked(ctx); err != nil {
			return Completion{}, err
		}
	}
	if e.demo {
		return Completion{}, ErrDemoMode
	}

	i := slices.IndexFunc(e.state.Quests, func(q model.Quest) bool { return q.ID == id })
	if i < 0 || e.state.Quests[i].Completed {
		return Completion{Stats: e.state.Stats}, nil
	}

	quest := e.state.Quests[i]
	quest.Completed = true
	gain := RollGain(quest.Type, e.rnd)
	stats, levels := Apply(e.state.Stats, gain, quest.ExpReward)

	quests := slices.Clone(e.state.Quests)
	quests[i] = quest
	e.state = model.Progress{Quests: quests, Stats: stats, Date: e.state.Date}

	out := Completion{Quest: quest, Gain: gain, Levels: levels, Stats: stats, Applied: true}
	if err := e.persist(ctx, e.userID, e.state); err != nil {
		e.log.Warn("save quest completion failed", zap.Int("quest_id", id), zap.Error(err))
		out.PersistErr = err
	}
	e.log.Info("completed quest", zap.Int("quest_id", id), zap.Int("exp", quest.ExpReward), zap.Int("level", stats.Level), zap.Int("levels_gained", levels))
	return out, nil
}

// Reset drops the loaded state so the next access reloads it, for example
// after sign in or sign out.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded = false
	e.demo = false
	e.userID = ""
	e.state = model.Progress{}
}

func (e *Engine) identity(ctx context.Context) (auth.Identity, error) {
	if e.ids == nil {
		return auth.Identity{}, auth.ErrUnauthorized
	}
	return e.ids.Identity(ctx)
}
