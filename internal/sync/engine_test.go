package sync

import (
	"context"
	"errors"
	"path/filepath"
	stdsync "sync"
	"testing"
	"time"

	"github.com/matheus3301/jobdesk/internal/bus"
	"github.com/matheus3301/jobdesk/internal/model"
	"github.com/matheus3301/jobdesk/internal/notify"
	"github.com/matheus3301/jobdesk/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMigrated(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestEnginePersistsPublishedSnapshots(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	e := NewEngine(db, b, nil)
	e.Start(context.Background())
	defer e.Stop()

	b.Publish(bus.Event{Kind: bus.KindNotificationsUpdated, Payload: notify.Snapshot{
		UserID:      3,
		Items:       []model.Notification{{ID: 1, Message: "hi", CreatedAt: model.Timestamp{Time: time.Now()}}},
		UnreadCount: 1,
	}})

	waitFor(t, func() bool {
		s, err := db.LoadSnapshot(3)
		return err == nil && s != nil && len(s.Items) == 1 && s.UnreadCount == 1
	})
}

func TestEngineSkipsLoadingSnapshots(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	e := NewEngine(db, b, nil)
	e.Start(context.Background())

	b.Publish(bus.Event{Kind: bus.KindNotificationsUpdated, Payload: notify.Snapshot{UserID: 3, Loading: true}})
	b.Publish(bus.Event{Kind: bus.KindRefreshFailed, Payload: errors.New("down")})
	time.Sleep(50 * time.Millisecond)
	e.Stop()

	s, err := db.LoadSnapshot(3)
	if err != nil {
		t.Fatal(err)
	}
	if s != nil {
		t.Errorf("snapshot = %+v, want nothing persisted", s)
	}
}

func TestHistoryRecord(t *testing.T) {
	db := testDB(t)
	h := NewHistory(db, nil)

	h.Record(1, nil)
	h.Record(1, errors.New("timeout"))

	got, err := db.RecentRefreshes(1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
}

// heldSource serves a fixed list; while held, Notifications blocks until
// its context ends.
type heldSource struct {
	mu      stdsync.Mutex
	items   []model.Notification
	held    bool
	entered chan struct{}
}

func (s *heldSource) Notifications(ctx context.Context, _ model.ID) ([]model.Notification, error) {
	s.mu.Lock()
	items, held := append([]model.Notification(nil), s.items...), s.held
	s.mu.Unlock()
	if held {
		s.entered <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return items, nil
}

func (s *heldSource) UnreadCount(context.Context, model.ID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		if !it.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *heldSource) MarkRead(context.Context, model.ID) error           { return nil }
func (s *heldSource) MarkAllRead(context.Context, model.ID) error        { return nil }
func (s *heldSource) DeleteNotification(context.Context, model.ID) error { return nil }

func mirroredItems(t *testing.T, db *store.DB, userID model.ID) int {
	t.Helper()
	s, err := db.LoadSnapshot(userID)
	if err != nil {
		t.Fatal(err)
	}
	if s == nil {
		return -1
	}
	return len(s.Items)
}

func TestEngineSkipsDegradedSnapshots(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	e := NewEngine(db, b, nil)
	e.Start(context.Background())

	b.Publish(bus.Event{Kind: bus.KindNotificationsUpdated, Payload: notify.Snapshot{
		UserID: 3,
		Items: []model.Notification{
			{ID: 1, CreatedAt: model.Timestamp{Time: time.Now()}},
			{ID: 2, CreatedAt: model.Timestamp{Time: time.Now()}},
		},
		UnreadCount: 2,
	}})
	waitFor(t, func() bool { return mirroredItems(t, db, 3) == 2 })

	down := errors.New("backend down")
	b.Publish(bus.Event{Kind: bus.KindNotificationsUpdated, Payload: notify.Snapshot{
		UserID: 3, ListErr: down, Err: down,
	}})
	time.Sleep(50 * time.Millisecond)
	e.Stop()

	if n := mirroredItems(t, db, 3); n != 2 {
		t.Errorf("mirror holds %d items after a failed load, want 2", n)
	}
}

func TestCanceledRefreshKeepsMirror(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	mirror := NewEngine(db, b, nil)
	mirror.Start(context.Background())

	src := &heldSource{
		items: []model.Notification{
			{ID: 1, CreatedAt: model.Timestamp{Time: time.Now().Add(-time.Minute)}},
			{ID: 2, IsRead: true, CreatedAt: model.Timestamp{Time: time.Now()}},
		},
		entered: make(chan struct{}, 1),
	}
	engine, err := notify.NewEngine(src, 5, notify.WithBus(b))
	if err != nil {
		t.Fatal(err)
	}
	poller := notify.NewPoller(engine, time.Minute)
	if err := poller.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return mirroredItems(t, db, 5) == 2 })

	// Shutdown cancels a refresh stuck in the list fetch.
	src.mu.Lock()
	src.held = true
	src.mu.Unlock()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Refresh(ctx) }()
	<-src.entered
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Refresh() = %v, want context.Canceled", err)
	}
	time.Sleep(50 * time.Millisecond)
	mirror.Stop()

	if n := len(engine.Snapshot().Items); n != 2 {
		t.Errorf("engine window holds %d items after cancel, want 2", n)
	}
	if n := mirroredItems(t, db, 5); n != 2 {
		t.Errorf("mirror holds %d items after cancel, want 2", n)
	}
}
