package daemon

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/matheus3301/jobdesk/internal/bus"
	"github.com/matheus3301/jobdesk/internal/config"
	"github.com/matheus3301/jobdesk/internal/notify"
	"github.com/matheus3301/jobdesk/internal/session"
	"github.com/matheus3301/jobdesk/internal/status"
	intsync "github.com/matheus3301/jobdesk/internal/sync"
)

// Refresher owns the notification refresh cycle of the daemon's session.
// It runs only while an identity is known.
type Refresher struct {
	profile *config.Profile
	src     notify.Source
	bus     *bus.Bus
	machine *status.Machine
	history *intsync.History
	logger  *zap.Logger

	engine *notify.Engine
	handle *notify.Handle
}

// NewRefresher creates a refresher; nothing runs until Start.
func NewRefresher(
	profile *config.Profile,
	src notify.Source,
	b *bus.Bus,
	machine *status.Machine,
	history *intsync.History,
	logger *zap.Logger,
) *Refresher {
	return &Refresher{
		profile: profile,
		src:     src,
		bus:     b,
		machine: machine,
		history: history,
		logger:  logger,
	}
}

// Start resolves the identity and starts polling. Without an identity the
// session parks in UNAUTHENTICATED and Start returns nil.
func (r *Refresher) Start(ctx context.Context) error {
	id, err := session.ResolveIdentity(r.profile)
	if err != nil {
		if errors.Is(err, session.ErrNoIdentity) {
			r.logger.Warn("no identity configured, refresh cycle not started")
		} else {
			r.logger.Error("identity resolution failed", zap.Error(err))
		}
		return r.machine.Transition(status.Unauthenticated)
	}

	engine, err := notify.NewEngine(r.src, id.UserID,
		notify.WithBus(r.bus),
		notify.WithLogger(r.logger),
		notify.WithRecentLimit(r.profile.RecentLimit),
	)
	if err != nil {
		return err
	}
	if err := r.machine.Transition(status.Connecting); err != nil {
		return err
	}

	poller := notify.NewPoller(engine, r.profile.PollInterval.Duration,
		notify.WithPollerBus(r.bus),
		notify.WithPollerLogger(r.logger),
		notify.WithRefreshHook(func(refreshErr error) {
			r.history.Record(id.UserID, refreshErr)
			if err := r.machine.Settle(refreshErr); err != nil {
				r.logger.Warn("status transition rejected", zap.Error(err))
			}
		}),
	)
	handle, err := poller.Start(ctx)
	if err != nil {
		return err
	}
	r.engine = engine
	r.handle = handle
	r.logger.Info("refresh cycle running",
		zap.Int("user_id", int(id.UserID)),
		zap.Duration("interval", r.profile.PollInterval.Duration))
	return nil
}

// Engine returns the running engine, or nil when unauthenticated.
func (r *Refresher) Engine() *notify.Engine {
	return r.engine
}

// Stop cancels the refresh cycle and waits for it to wind down.
func (r *Refresher) Stop() {
	if r.handle != nil {
		r.handle.Stop()
		r.handle = nil
	}
	_ = r.machine.Transition(status.Stopped)
}
