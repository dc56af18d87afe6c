package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/memoara/internal/alarms"
	"github.com/sandeepkv93/memoara/internal/auth"
	"github.com/sandeepkv93/memoara/internal/config"
	"github.com/sandeepkv93/memoara/internal/connectivity"
	"github.com/sandeepkv93/memoara/internal/gamification"
	"github.com/sandeepkv93/memoara/internal/notify"
	"github.com/sandeepkv93/memoara/internal/reconcile"
	"github.com/sandeepkv93/memoara/internal/reminders"
	"github.com/sandeepkv93/memoara/internal/remote"
	"github.com/sandeepkv93/memoara/internal/remote/drive"
	"github.com/sandeepkv93/memoara/internal/remote/rowstore"
	"github.com/sandeepkv93/memoara/internal/scheduler"
	"github.com/sandeepkv93/memoara/internal/storage"
)

// Options replaces parts of the configured stack, mostly for tests.
type Options struct {
	Clock      func() time.Time
	Repository storage.Repository
	Backend    remote.Backend
	Progress   gamification.RemoteStore
	Sender     notify.Sender
	Prober     connectivity.Prober
	Rand       gamification.Rand
}

// App holds every component of a running memoara instance.
type App struct {
	Config    *config.Config
	Log       *zap.Logger
	Local     *storage.Local
	Engine    *scheduler.Engine
	Notifier  *notify.EngineNotifier
	Sender    notify.Sender
	Session   *auth.Session
	Reminders *reminders.Store
	Alarms    *alarms.Store
	Sync      *reconcile.Reconciler
	Game      *gamification.Engine
	Monitor   *connectivity.Monitor

	clock   func() time.Time
	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	a := &App{Config: cfg, Log: log, clock: clock}

	repo := opts.Repository
	if repo == nil {
		sqlite, err := storage.OpenSQLite(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open local storage: %w", err)
		}
		a.closers = append(a.closers, sqlite.Close)
		repo = sqlite
	}
	a.Local = storage.NewLocal(repo, log)

	a.Engine = scheduler.NewEngine(cfg.Scheduler.Buffer, log)
	a.Notifier = notify.NewEngineNotifier(a.Engine, clock, log)
	a.Sender = opts.Sender
	if a.Sender == nil {
		if cfg.Notifications.Desktop {
			a.Sender = notify.DesktopSender{}
		} else {
			a.Sender = notify.NoopSender{}
		}
	}

	a.Session = auth.NewSession(Authenticator(cfg), clock)

	backend, progress, err := a.openBackend(opts)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Sync = reconcile.New(ctx, reconcile.Options{
		Backend:    backend,
		Identities: a.Session,
		Meta:       a.Local,
		Location:   loc,
		Clock:      clock,
		Debounce:   cfg.Sync.Debounce,
		Timeout:    cfg.Sync.Timeout,
		Logger:     log,
	})

	a.Reminders, err = reminders.New(ctx, reminders.Options{
		Local:           a.Local,
		Notifier:        a.Notifier,
		Transitions:     a.Engine,
		Pusher:          a.Sync,
		Clock:           clock,
		Location:        loc,
		CompletionDelay: cfg.Reminders.CompletionDelay,
		Logger:          log,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Sync.Attach(a.Reminders)

	a.Alarms, err = alarms.New(ctx, a.Local, a.Notifier, clock, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Game = gamification.New(gamification.Options{
		Remote:     progress,
		Local:      a.Local,
		Identities: a.Session,
		Rand:       opts.Rand,
		Clock:      clock,
		Location:   loc,
		Logger:     log,
	})

	prober := opts.Prober
	if prober == nil {
		prober = connectivity.TCPProber{Address: cfg.Connectivity.ProbeAddr}
	}
	a.Monitor = connectivity.NewMonitor(prober, cfg.Connectivity.Interval, a.onConnectivity, log)

	a.Engine.Start()
	log.Info("memoara ready",
		zap.String("backend", a.Sync.BackendName()),
		zap.String("timezone", loc.String()),
		zap.Int("reminders", a.Reminders.Len()))
	return a, nil
}

func (a *App) openBackend(opts Options) (remote.Backend, gamification.RemoteStore, error) {
	if opts.Backend != nil {
		return opts.Backend, opts.Progress, nil
	}
	backend, progress, closer, err := OpenBackend(a.Config, a.Log)
	if err != nil {
		return nil, nil, err
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	if opts.Progress != nil {
		progress = opts.Progress
	}
	return backend, progress, nil
}

// OpenBackend builds the configured cloud backend. Progress is only stored
// remotely by the row store. The returned closer may be nil.
func OpenBackend(cfg *config.Config, log *zap.Logger) (remote.Backend, gamification.RemoteStore, func() error, error) {
	switch cfg.Sync.Backend {
	case config.BackendDrive:
		open := drive.GoogleOpener(cfg.Drive.ClientID, cfg.Drive.ClientSecret)
		return drive.NewClient(open, cfg.Drive.FileName, log), nil, nil, nil
	case config.BackendRowstore:
		store, err := rowstore.Open(cfg.Rowstore.DSN, log)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open rowstore: %w", err)
		}
		return store, store, store.Close, nil
	default:
		return nil, nil, nil, nil
	}
}

// Authenticator verifies session JWTs when a secret is configured and
// otherwise accepts provider access tokens as they are.
func Authenticator(cfg *config.Config) auth.Authenticator {
	if cfg.Auth.JWTSecret != "" {
		return auth.NewJWTVerifier(cfg.Auth.JWTSecret)
	}
	return auth.OpaqueTokens{}
}

// SignIn starts a session and, when this device has no reminders yet, adopts
// the ones stored remotely.
func (a *App) SignIn(ctx context.Context, token string) (reconcile.Result, error) {
	ident, err := a.Session.SignIn(token)
	if err != nil {
		return reconcile.Result{}, err
	}
	a.Log.Info("signed in", zap.String("user_id", ident.UserID))
	a.Game.Reset()
	return a.Sync.LoadOnSignIn(ctx), nil
}

func (a *App) SignOut() {
	a.Session.SignOut()
	a.Game.Reset()
}

func (a *App) onConnectivity(ctx context.Context, online bool) {
	res, pushed := a.Sync.SetOnline(ctx, online)
	if pushed && !res.Success {
		a.Log.Warn("reconnect push failed", zap.String("message", res.Message))
	}
}

// Close flushes a pending push and releases storage.
func (a *App) Close() error {
	if a.Sync != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Config.Sync.Timeout)
		a.Sync.Flush(ctx)
		cancel()
	}
	if a.Engine != nil {
		a.Engine.Stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	_ = a.Log.Sync()
	return errors.Join(errs...)
}
