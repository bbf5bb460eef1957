// Package daemon composes jobdeskd: the notification refresh cycle for one
// session, its local mirror and a health endpoint.
package daemon

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/jobdesk/internal/api"
	"github.com/matheus3301/jobdesk/internal/bus"
	"github.com/matheus3301/jobdesk/internal/config"
	"github.com/matheus3301/jobdesk/internal/lock"
	"github.com/matheus3301/jobdesk/internal/logging"
	"github.com/matheus3301/jobdesk/internal/notify"
	"github.com/matheus3301/jobdesk/internal/session"
	"github.com/matheus3301/jobdesk/internal/status"
	"github.com/matheus3301/jobdesk/internal/store"
	intsync "github.com/matheus3301/jobdesk/internal/sync"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	SocketPath  string // optional override for testing; empty = use default
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideProfile,
			provideClient,
			provideSyncEngine,
			provideHistory,
			provideRefresher,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

// provideStore depends on the lock so only the lock holder writes the mirror.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.DBPath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("store initialized",
		zap.String("path", dbPath),
		zap.Uint("version", result.Version),
		zap.Bool("migrated", result.Changed))
	return db, nil
}

func provideProfile(p Params, logger *zap.Logger) (*config.Profile, error) {
	path := session.ProfilePath(p.SessionName)
	profile, err := config.LoadProfile(path)
	if err != nil {
		return nil, err
	}
	logger.Info("profile loaded", zap.String("path", path), zap.String("base_url", profile.BaseURL))
	return profile, nil
}

func provideClient(profile *config.Profile, logger *zap.Logger) (*api.Client, error) {
	opts := profile.ClientOptions()
	opts.Logger = logger
	return api.NewClient(opts)
}

func provideSyncEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(db, b, logger)
}

func provideHistory(db *store.DB, logger *zap.Logger) *intsync.History {
	return intsync.NewHistory(db, logger)
}

func provideRefresher(
	profile *config.Profile,
	client *api.Client,
	b *bus.Bus,
	machine *status.Machine,
	history *intsync.History,
	logger *zap.Logger,
) *Refresher {
	var src notify.Source = client
	return NewRefresher(profile, src, b, machine, history, logger)
}

func registerLifecycle(
	lc fx.Lifecycle,
	srv *Server,
	lk *lock.Lock,
	db *store.DB,
	engine *intsync.Engine,
	refresher *Refresher,
	logger *zap.Logger,
) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// The mirror must be listening before the first refresh publishes.
			engine.Start(ctx)

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()

			return refresher.Start(ctx)
		},
		OnStop: func(stopCtx context.Context) error {
			refresher.Stop()
			cancel()
			engine.Stop()
			srv.Stop(stopCtx)
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
