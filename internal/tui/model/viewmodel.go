package model

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/jobdesk/internal/api"
	"github.com/matheus3301/jobdesk/internal/bus"
	dmodel "github.com/matheus3301/jobdesk/internal/model"
	"github.com/matheus3301/jobdesk/internal/notify"
	"github.com/matheus3301/jobdesk/internal/search"
)

// FlashDuration is how long action feedback stays on the status line.
const FlashDuration = 4 * time.Second

// ErrNoIdentity is returned by notification actions when the view model
// was built without a user.
var ErrNoIdentity = errors.New("no user identity configured")

// Backend is everything the TUI reads from. Implemented by *api.Client.
type Backend interface {
	search.Source
	notify.Source
}

// Options configures a ViewModel.
type Options struct {
	// UserID enables the notification panel when positive.
	UserID       dmodel.ID
	PollInterval time.Duration
	Debounce     time.Duration
	RecentLimit  int
	Logger       *zap.Logger
}

// ViewModel wires the search aggregator and the notification engine to
// the views. State changes arrive on the bus and are turned into refresh
// signals.
type ViewModel struct {
	bus      *bus.Bus
	logger   *zap.Logger
	agg      *search.Aggregator
	debounce *search.Debouncer[string]
	engine   *notify.Engine
	poller   *notify.Poller

	Flash Flash

	interactive atomic.Bool
	refreshCh   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	handle *notify.Handle
	unsub  func()
	done   chan struct{}
}

// NewViewModel builds a view model over backend.
func NewViewModel(backend Backend, opts Options) (*ViewModel, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	delay := opts.Debounce
	if delay <= 0 {
		delay = search.DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	vm := &ViewModel{
		bus:       bus.New(),
		logger:    logger.Named("viewmodel"),
		refreshCh: make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
	}
	vm.agg = search.NewAggregator(backend, search.WithBus(vm.bus), search.WithLogger(logger))
	vm.debounce = search.NewDebouncer(delay, vm.runSearch)

	if opts.UserID > 0 {
		engine, err := notify.NewEngine(backend, opts.UserID,
			notify.WithBus(vm.bus),
			notify.WithLogger(logger),
			notify.WithRecentLimit(opts.RecentLimit),
		)
		if err != nil {
			cancel()
			return nil, err
		}
		vm.engine = engine
		vm.poller = notify.NewPoller(engine, opts.PollInterval,
			notify.WithInteractive(vm.interactive.Load),
			notify.WithPollerBus(vm.bus),
			notify.WithPollerLogger(logger),
		)
	}
	return vm, nil
}

// RefreshCh returns the channel that signals UI refresh.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

func (vm *ViewModel) signalRefresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// HasNotifications reports whether a user identity is configured.
func (vm *ViewModel) HasNotifications() bool {
	return vm.engine != nil
}

// Start begins listening for state changes and, with an identity, starts
// the refresh cycle.
func (vm *ViewModel) Start() error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.done != nil {
		return nil
	}
	events, unsub := vm.bus.Subscribe("", 32)
	vm.unsub = unsub
	vm.done = make(chan struct{})
	go vm.listen(events, vm.done)

	if vm.poller != nil {
		h, err := vm.poller.Start(vm.ctx)
		if err != nil {
			return err
		}
		vm.handle = h
	}
	return nil
}

// Stop cancels pending work and waits for the listener to exit.
func (vm *ViewModel) Stop() {
	vm.debounce.Stop()
	vm.cancel()

	vm.mu.Lock()
	h, unsub, done := vm.handle, vm.unsub, vm.done
	vm.handle, vm.unsub = nil, nil
	vm.mu.Unlock()

	if h != nil {
		h.Stop()
	}
	if unsub != nil {
		unsub()
		<-done
	}
}

func (vm *ViewModel) listen(events <-chan bus.Event, done chan struct{}) {
	defer close(done)
	for evt := range events {
		if evt.Kind == bus.KindRefreshFailed {
			if err, ok := evt.Payload.(error); ok {
				vm.Flash.SetLevel(LevelWarn, "refresh failed, "+DescribeError(err), FlashDuration)
			}
		}
		vm.signalRefresh()
	}
}

// QueueSearch schedules a search for query after the debounce delay.
func (vm *ViewModel) QueueSearch(query string) {
	vm.debounce.Push(query)
}

func (vm *ViewModel) runSearch(query string) {
	if _, err := vm.agg.Search(vm.ctx, query); err != nil {
		return
	}
	if st := vm.agg.State(); st.Err != nil && !api.IsCanceled(st.Err) {
		vm.Flash.SetLevel(LevelErr, "search failed, "+DescribeError(st.Err), FlashDuration)
		vm.signalRefresh()
	}
}

// SearchState returns the latest applied search state.
func (vm *ViewModel) SearchState() search.State {
	return vm.agg.State()
}

// Notifications returns the engine snapshot. ok is false without an
// identity.
func (vm *ViewModel) Notifications() (notify.Snapshot, bool) {
	if vm.engine == nil {
		return notify.Snapshot{}, false
	}
	return vm.engine.Snapshot(), true
}

// SetInteractive marks whether the notification list is on screen. While
// it is, the refresh cycle keeps the list still and only updates the
// counter. Opening the list reloads it once.
func (vm *ViewModel) SetInteractive(on bool) {
	was := vm.interactive.Swap(on)
	if on && !was && vm.engine != nil {
		go vm.engine.LoadRecent(vm.ctx)
	}
}

// Reload refreshes both the list and the counter.
func (vm *ViewModel) Reload(ctx context.Context) error {
	if vm.engine == nil {
		return ErrNoIdentity
	}
	vm.engine.LoadUnreadCount(ctx)
	vm.engine.LoadRecent(ctx)
	if err := vm.engine.Snapshot().Err; err != nil {
		vm.Flash.SetLevel(LevelWarn, "reload failed, "+DescribeError(err), FlashDuration)
		vm.signalRefresh()
		return err
	}
	return nil
}

// MarkRead marks one notification read.
func (vm *ViewModel) MarkRead(ctx context.Context, id dmodel.ID) error {
	if vm.engine == nil {
		return ErrNoIdentity
	}
	return vm.report(vm.engine.MarkRead(ctx, id), "marked as read")
}

// MarkAllRead marks every notification read.
func (vm *ViewModel) MarkAllRead(ctx context.Context) error {
	if vm.engine == nil {
		return ErrNoIdentity
	}
	return vm.report(vm.engine.MarkAllRead(ctx), "all notifications read")
}

// Delete removes one notification.
func (vm *ViewModel) Delete(ctx context.Context, id dmodel.ID) error {
	if vm.engine == nil {
		return ErrNoIdentity
	}
	return vm.report(vm.engine.Delete(ctx, id), "notification deleted")
}

func (vm *ViewModel) report(err error, ok string) error {
	if err != nil {
		vm.Flash.SetLevel(LevelErr, DescribeError(err), FlashDuration)
	} else {
		vm.Flash.Set(ok, FlashDuration)
	}
	vm.signalRefresh()
	return err
}

// DescribeError turns a backend error into a short user-facing message.
func DescribeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoIdentity):
		return "no user configured"
	case errors.Is(err, api.ErrNetwork):
		return "check your connection"
	case errors.Is(err, api.ErrRejected):
		return "couldn't complete action"
	case errors.Is(err, api.ErrUnexpectedShape):
		return "unexpected server response"
	default:
		return err.Error()
	}
}
