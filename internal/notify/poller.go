package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/matheus3301/jobdesk/internal/bus"
)

// DefaultInterval is the refresh period.
const DefaultInterval = 30 * time.Second

// Poller runs the refresh cycle for one Engine. Each tick reloads the
// unread counter and, unless the notification list is on screen, the
// recent window.
type Poller struct {
	engine      *Engine
	interval    time.Duration
	interactive func() bool
	onRefresh   func(error)
	bus         *bus.Bus
	logger      *zap.Logger
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInteractive supplies the predicate telling whether the user is
// looking at the notification list. While it returns true the recent
// window is left alone so the list does not shift under the cursor.
func WithInteractive(fn func() bool) PollerOption {
	return func(p *Poller) { p.interactive = fn }
}

// WithRefreshHook is called after every refresh with its outcome.
func WithRefreshHook(fn func(error)) PollerOption {
	return func(p *Poller) { p.onRefresh = fn }
}

// WithPollerBus publishes notifications.refresh_failed on failed refreshes.
func WithPollerBus(b *bus.Bus) PollerOption {
	return func(p *Poller) { p.bus = b }
}

// WithPollerLogger sets the logger.
func WithPollerLogger(l *zap.Logger) PollerOption {
	return func(p *Poller) { p.logger = l }
}

// NewPoller returns a Poller for e. Intervals below one second are raised
// to one second, the scheduler's resolution.
func NewPoller(e *Engine, interval time.Duration, opts ...PollerOption) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if interval < time.Second {
		interval = time.Second
	}
	p := &Poller{engine: e, interval: interval, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("poller")
	return p
}

// Refresh runs one cycle and returns the failures of this cycle's loads.
func (p *Poller) Refresh(ctx context.Context) error {
	_, countErr := p.engine.loadUnreadCount(ctx)
	var listErr error
	if p.interactive == nil || !p.interactive() {
		_, listErr = p.engine.loadRecent(ctx)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	err := errors.Join(listErr, countErr)
	if err != nil && p.bus != nil {
		p.bus.Publish(bus.Event{Kind: bus.KindRefreshFailed, Payload: err})
	}
	if p.onRefresh != nil {
		p.onRefresh(err)
	}
	return err
}

// Handle stops a running refresh cycle.
type Handle struct {
	cron    *cron.Cron
	cancel  context.CancelFunc
	initial chan struct{}
	once    sync.Once
}

// Stop cancels in-flight requests, stops the schedule and waits for
// running refreshes to return. Safe to call more than once.
func (h *Handle) Stop() {
	h.once.Do(func() {
		h.cancel()
		<-h.cron.Stop().Done()
		<-h.initial
	})
}

// Start runs one refresh immediately and then every interval until the
// returned Handle is stopped or ctx is canceled.
func (p *Poller) Start(ctx context.Context) (*Handle, error) {
	ctx, cancel := context.WithCancel(ctx)
	logger := cronLogger{p.logger.Sugar()}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)
	spec := fmt.Sprintf("@every %s", p.interval)
	if _, err := c.AddFunc(spec, func() { _ = p.Refresh(ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("cron.AddFunc: %w", err)
	}
	c.Start()
	p.logger.Info("refresh cycle started", zap.String("spec", spec))

	h := &Handle{cron: c, cancel: cancel, initial: make(chan struct{})}
	go func() {
		defer close(h.initial)
		_ = p.Refresh(ctx)
	}()
	return h, nil
}

// cronLogger routes scheduler diagnostics to zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
