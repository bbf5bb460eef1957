// Package sync mirrors notification state published on the bus into the
// local store.
package sync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/jobdesk/internal/bus"
	"github.com/matheus3301/jobdesk/internal/notify"
	"github.com/matheus3301/jobdesk/internal/store"
)

// Engine writes every settled, error-free notifications.updated snapshot
// to the store.
type Engine struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine creates a new sync engine.
func NewEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		db:     db,
		bus:    b,
		logger: logger.Named("sync"),
	}
}

// Start subscribes to notification events on the bus.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	ch, unsub := e.bus.Subscribe(bus.NamespaceNotifications, 64)

	go func() {
		defer close(e.done)
		defer unsub()
		for {
			select {
			case evt, ok := <-ch:
				if !ok {
					return
				}
				e.handleEvent(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine and waits for the in-flight write.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
		<-e.done
	}
}

func (e *Engine) handleEvent(evt bus.Event) {
	if evt.Kind != bus.KindNotificationsUpdated {
		return
	}
	snap, ok := evt.Payload.(notify.Snapshot)
	if !ok || snap.Loading {
		return
	}
	// A degraded window or fallback counter must not replace the last
	// good mirror.
	if snap.Err != nil {
		e.logger.Debug("skipping degraded notification snapshot",
			zap.Int("user_id", int(snap.UserID)), zap.Error(snap.Err))
		return
	}
	if err := e.Persist(snap, evt.Timestamp); err != nil {
		e.logger.Error("failed to persist notification snapshot",
			zap.Error(err), zap.Int("user_id", int(snap.UserID)))
	}
}

// Persist writes snap to the store.
func (e *Engine) Persist(snap notify.Snapshot, at time.Time) error {
	return e.db.SaveSnapshot(&store.Snapshot{
		UserID:      snap.UserID,
		Items:       snap.Items,
		UnreadCount: snap.UnreadCount,
		UpdatedAt:   at,
	})
}
