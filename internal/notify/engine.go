// Package notify keeps the client-side view of a user's notifications: a
// small recent window and the unread counter, reconciled against the
// backend.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/matheus3301/jobdesk/internal/api"
	"github.com/matheus3301/jobdesk/internal/bus"
	"github.com/matheus3301/jobdesk/internal/model"
)

// DefaultRecentLimit is the size of the cached window.
const DefaultRecentLimit = 10

// Source is the notification half of the backend. Implemented by
// *api.Client.
type Source interface {
	Notifications(ctx context.Context, userID model.ID) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID model.ID) (int, error)
	MarkRead(ctx context.Context, id model.ID) error
	MarkAllRead(ctx context.Context, userID model.ID) error
	DeleteNotification(ctx context.Context, id model.ID) error
}

// Snapshot is a copy of the engine state for presentation.
type Snapshot struct {
	UserID      model.ID
	Items       []model.Notification
	UnreadCount int
	Loading     bool
	// ListErr and CountErr are the failures of the last applied loads.
	// Err joins them.
	ListErr  error
	CountErr error
	Err      error
}

type mutationKind int

const (
	mutationRead mutationKind = iota + 1
	mutationReadAll
	mutationDelete
)

// mutation is a confirmed change made while a list fetch was in flight.
type mutation struct {
	gen  uint64
	kind mutationKind
	id   model.ID
}

// Engine owns the cached window and the unread counter for one user.
// Read operations degrade on failure; mutations return their error and
// leave state untouched.
type Engine struct {
	src    Source
	userID model.ID
	limit  int
	bus    *bus.Bus
	logger *zap.Logger

	mu       sync.Mutex
	items    []model.Notification
	unread   int
	listErr  error
	countErr error

	// loads counts in-flight list fetches. loadSeq numbers them and
	// appliedSeq is the newest one whose result was applied.
	loads      int
	loadSeq    uint64
	appliedSeq uint64
	// mutGen advances on every confirmed mutation; journal keeps those
	// made while a fetch was in flight so its result can be corrected.
	mutGen  uint64
	journal []mutation
}

// Option configures an Engine.
type Option func(*Engine)

// WithBus publishes notifications.updated on every state change.
func WithBus(b *bus.Bus) Option {
	return func(e *Engine) { e.bus = b }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRecentLimit overrides DefaultRecentLimit.
func WithRecentLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.limit = n
		}
	}
}

// NewEngine returns an Engine for userID.
func NewEngine(src Source, userID model.ID, opts ...Option) (*Engine, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id %d", userID)
	}
	e := &Engine{
		src:    src,
		userID: userID,
		limit:  DefaultRecentLimit,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("notify").With(zap.Int("user_id", int(userID)))
	return e, nil
}

// UserID returns the user the engine serves.
func (e *Engine) UserID() model.ID {
	return e.userID
}

// LoadRecent replaces the cached window with the newest notifications.
// On failure the window becomes empty and the error is recorded in the
// snapshot; it is not returned. A canceled fetch leaves the window as it
// was. Mutations confirmed while the fetch was in flight are applied to
// its result, and a result older than one already applied is dropped.
func (e *Engine) LoadRecent(ctx context.Context) []model.Notification {
	items, _ := e.loadRecent(ctx)
	return items
}

func (e *Engine) loadRecent(ctx context.Context) ([]model.Notification, error) {
	e.mu.Lock()
	e.loads++
	e.loadSeq++
	seq, since := e.loadSeq, e.mutGen
	e.mu.Unlock()
	e.publish()

	items, err := e.src.Notifications(ctx, e.userID)
	if err != nil {
		e.logFailure("load recent notifications", err)
		items = nil
	}

	e.mu.Lock()
	e.loads--
	switch {
	case err != nil && api.IsCanceled(err):
	case seq < e.appliedSeq:
		e.logger.Debug("dropping superseded notification list", zap.Uint64("seq", seq))
	default:
		e.items = SelectRecent(e.replay(items, since), e.limit)
		e.listErr = err
		e.appliedSeq = seq
	}
	if e.loads == 0 {
		e.journal = nil
	}
	out := append([]model.Notification(nil), e.items...)
	e.mu.Unlock()
	e.publish()
	return out, err
}

// replay applies journaled mutations newer than gen to a fetched list.
// The counter is not touched: it was adjusted when each mutation landed.
func (e *Engine) replay(items []model.Notification, gen uint64) []model.Notification {
	for _, m := range e.journal {
		if m.gen <= gen {
			continue
		}
		switch m.kind {
		case mutationRead:
			for i := range items {
				if items[i].ID == m.id {
					items[i].IsRead = true
				}
			}
		case mutationReadAll:
			for i := range items {
				items[i].IsRead = true
			}
		case mutationDelete:
			kept := items[:0]
			for _, n := range items {
				if n.ID != m.id {
					kept = append(kept, n)
				}
			}
			items = kept
		}
	}
	return items
}

// noteMutation must be called with mu held.
func (e *Engine) noteMutation(kind mutationKind, id model.ID) {
	e.mutGen++
	if e.loads > 0 {
		e.journal = append(e.journal, mutation{gen: e.mutGen, kind: kind, id: id})
	}
}

// LoadUnreadCount refreshes the counter from the server. If that fails the
// counter is recomputed from the cached window, which undercounts when
// unread notifications exist outside it. A canceled request changes
// nothing.
func (e *Engine) LoadUnreadCount(ctx context.Context) int {
	n, _ := e.loadUnreadCount(ctx)
	return n
}

func (e *Engine) loadUnreadCount(ctx context.Context) (int, error) {
	n, err := e.src.UnreadCount(ctx, e.userID)
	if err != nil && api.IsCanceled(err) {
		e.logFailure("load unread count", err)
		e.mu.Lock()
		n = e.unread
		e.mu.Unlock()
		return n, err
	}

	e.mu.Lock()
	if err != nil {
		n = countUnread(e.items)
	}
	e.unread = n
	e.countErr = err
	e.mu.Unlock()

	if err != nil {
		e.logFailure("load unread count", err, zap.Int("fallback", n))
	}
	e.publish()
	return n, err
}

// MarkRead marks id as read. The counter drops by one only if id is in the
// cached window and was unread, so repeated calls are harmless.
func (e *Engine) MarkRead(ctx context.Context, id model.ID) error {
	if err := e.src.MarkRead(ctx, id); err != nil {
		e.logger.Warn("mark read failed", zap.Int("id", int(id)), zap.Error(err))
		return err
	}

	e.mu.Lock()
	e.noteMutation(mutationRead, id)
	if i := e.indexOf(id); i >= 0 && !e.items[i].IsRead {
		e.items[i].IsRead = true
		e.decrement()
	}
	e.mu.Unlock()
	e.publish()
	return nil
}

// MarkAllRead marks every notification read and zeroes the counter.
func (e *Engine) MarkAllRead(ctx context.Context) error {
	if err := e.src.MarkAllRead(ctx, e.userID); err != nil {
		e.logger.Warn("mark all read failed", zap.Error(err))
		return err
	}

	e.mu.Lock()
	e.noteMutation(mutationReadAll, 0)
	for i := range e.items {
		e.items[i].IsRead = true
	}
	e.unread = 0
	e.mu.Unlock()
	e.publish()
	return nil
}

// Delete removes id. The counter drops by one if the removed cached record
// was unread.
func (e *Engine) Delete(ctx context.Context, id model.ID) error {
	if err := e.src.DeleteNotification(ctx, id); err != nil {
		e.logger.Warn("delete failed", zap.Int("id", int(id)), zap.Error(err))
		return err
	}

	e.mu.Lock()
	e.noteMutation(mutationDelete, id)
	if i := e.indexOf(id); i >= 0 {
		wasUnread := !e.items[i].IsRead
		e.items = append(e.items[:i:i], e.items[i+1:]...)
		if wasUnread {
			e.decrement()
		}
	}
	e.mu.Unlock()
	e.publish()
	return nil
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		UserID:      e.userID,
		Items:       append([]model.Notification(nil), e.items...),
		UnreadCount: e.unread,
		Loading:     e.loads > 0,
		ListErr:     e.listErr,
		CountErr:    e.countErr,
		Err:         errors.Join(e.listErr, e.countErr),
	}
}

func (e *Engine) publish() {
	if e.bus == nil {
		return
	}
	e.bus.Publish(bus.Event{Kind: bus.KindNotificationsUpdated, Payload: e.Snapshot()})
}

func (e *Engine) indexOf(id model.ID) int {
	for i := range e.items {
		if e.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) decrement() {
	if e.unread > 0 {
		e.unread--
	}
}

func (e *Engine) logFailure(what string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	switch {
	case errors.Is(err, api.ErrUnexpectedShape):
		e.logger.Warn(what+": unexpected response shape, treating as empty", fields...)
	case api.IsCanceled(err):
		e.logger.Debug(what+": canceled", fields...)
	default:
		e.logger.Warn(what+" failed", fields...)
	}
}

// SelectRecent de-duplicates items by id (first occurrence wins), orders
// them newest first and keeps at most limit.
func SelectRecent(items []model.Notification, limit int) []model.Notification {
	seen := make(map[model.ID]struct{}, len(items))
	out := make([]model.Notification, 0, len(items))
	for _, n := range items {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedAt.Time, out[j].CreatedAt.Time
		if !a.Equal(b) {
			return a.After(b)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func countUnread(items []model.Notification) int {
	n := 0
	for _, it := range items {
		if !it.IsRead {
			n++
		}
	}
	return n
}
