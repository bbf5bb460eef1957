package model

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/jobdesk/internal/api"
	dmodel "github.com/matheus3301/jobdesk/internal/model"
)

type fakeBackend struct {
	mu            sync.Mutex
	notifications []dmodel.Notification
	unread        int
	markErr       error
	listCalls     int
}

func (f *fakeBackend) Companies(ctx context.Context) ([]dmodel.Company, error) {
	return []dmodel.Company{{ID: 1, Name: "Acme Robotics", Location: "Berlin"}}, nil
}

func (f *fakeBackend) JobTypes(ctx context.Context) ([]dmodel.JobType, error) {
	return []dmodel.JobType{{ID: 1, Name: "Engineering"}}, nil
}

func (f *fakeBackend) Jobs(ctx context.Context) ([]dmodel.Job, error) {
	return []dmodel.Job{{ID: 10, CompanyID: 1, JobTypeID: 1}}, nil
}

func (f *fakeBackend) Notifications(ctx context.Context, userID dmodel.ID) ([]dmodel.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]dmodel.Notification(nil), f.notifications...), nil
}

func (f *fakeBackend) UnreadCount(ctx context.Context, userID dmodel.ID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread, nil
}

func (f *fakeBackend) MarkRead(ctx context.Context, id dmodel.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.markErr
}

func (f *fakeBackend) MarkAllRead(ctx context.Context, userID dmodel.ID) error {
	return nil
}

func (f *fakeBackend) DeleteNotification(ctx context.Context, id dmodel.ID) error {
	return nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func unreadItems(n int) []dmodel.Notification {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]dmodel.Notification, n)
	for i := range out {
		out[i] = dmodel.Notification{
			ID:        dmodel.ID(i + 1),
			UserID:    7,
			TypeID:    dmodel.NotificationEmail,
			Title:     fmt.Sprintf("n%d", i+1),
			CreatedAt: dmodel.Timestamp{Time: base.Add(time.Duration(i) * time.Minute)},
		}
	}
	return out
}

func waitRefresh(t *testing.T, vm *ViewModel) {
	t.Helper()
	select {
	case <-vm.RefreshCh():
	case <-time.After(2 * time.Second):
		t.Fatal("no refresh signal")
	}
}

func TestQueueSearchAppliesDebouncedQuery(t *testing.T) {
	vm, err := NewViewModel(&fakeBackend{}, Options{Debounce: 10 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, vm.Start())
	defer vm.Stop()

	vm.QueueSearch("ac")
	vm.QueueSearch("acme")

	require.Eventually(t, func() bool {
		return vm.SearchState().Query == "acme" && !vm.SearchState().Loading
	}, 2*time.Second, 5*time.Millisecond)

	st := vm.SearchState()
	require.NoError(t, st.Err)
	require.Len(t, st.Result.Companies, 1)
	require.Len(t, st.Result.Jobs, 1)
	assert.Equal(t, "Acme Robotics", st.Result.Jobs[0].CompanyName)
	waitRefresh(t, vm)
}

func TestNotificationActionsWithoutIdentity(t *testing.T) {
	vm, err := NewViewModel(&fakeBackend{}, Options{})
	require.NoError(t, err)
	require.NoError(t, vm.Start())
	defer vm.Stop()

	assert.False(t, vm.HasNotifications())
	_, ok := vm.Notifications()
	assert.False(t, ok)
	assert.ErrorIs(t, vm.MarkRead(context.Background(), 1), ErrNoIdentity)
	assert.ErrorIs(t, vm.MarkAllRead(context.Background()), ErrNoIdentity)
	assert.ErrorIs(t, vm.Delete(context.Background(), 1), ErrNoIdentity)
	assert.ErrorIs(t, vm.Reload(context.Background()), ErrNoIdentity)
}

func TestStartLoadsNotifications(t *testing.T) {
	backend := &fakeBackend{notifications: unreadItems(3), unread: 3}
	vm, err := NewViewModel(backend, Options{UserID: 7, PollInterval: time.Hour})
	require.NoError(t, err)
	require.NoError(t, vm.Start())
	defer vm.Stop()

	require.Eventually(t, func() bool {
		snap, _ := vm.Notifications()
		return len(snap.Items) == 3 && !snap.Loading
	}, 2*time.Second, 5*time.Millisecond)

	snap, ok := vm.Notifications()
	require.True(t, ok)
	assert.Equal(t, 3, snap.UnreadCount)
	assert.Equal(t, dmodel.ID(3), snap.Items[0].ID)

	require.NoError(t, vm.MarkRead(context.Background(), 3))
	snap, _ = vm.Notifications()
	assert.Equal(t, 2, snap.UnreadCount)
	msg, level := vm.Flash.Current()
	assert.Equal(t, "marked as read", msg)
	assert.Equal(t, LevelInfo, level)
}

func TestFailedMutationFlashesAndKeepsState(t *testing.T) {
	backend := &fakeBackend{
		notifications: unreadItems(2),
		unread:        2,
		markErr:       &api.Error{Kind: api.KindRejected, Op: "mark read", StatusCode: 404},
	}
	vm, err := NewViewModel(backend, Options{UserID: 7, PollInterval: time.Hour})
	require.NoError(t, err)
	defer vm.Stop()
	require.NoError(t, vm.Reload(context.Background()))

	err = vm.MarkRead(context.Background(), 1)
	require.ErrorIs(t, err, api.ErrRejected)

	snap, _ := vm.Notifications()
	assert.Equal(t, 2, snap.UnreadCount)
	msg, level := vm.Flash.Current()
	assert.Equal(t, "couldn't complete action", msg)
	assert.Equal(t, LevelErr, level)
}

func TestSetInteractiveReloadsOnOpen(t *testing.T) {
	backend := &fakeBackend{notifications: unreadItems(1), unread: 1}
	vm, err := NewViewModel(backend, Options{UserID: 7})
	require.NoError(t, err)
	defer vm.Stop()

	vm.SetInteractive(true)
	require.Eventually(t, func() bool { return backend.calls() == 1 }, 2*time.Second, 5*time.Millisecond)

	// Already open: no second load.
	vm.SetInteractive(true)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, backend.calls())
}

func TestStopIsIdempotent(t *testing.T) {
	vm, err := NewViewModel(&fakeBackend{}, Options{UserID: 7, PollInterval: time.Hour})
	require.NoError(t, err)
	require.NoError(t, vm.Start())
	vm.Stop()
	vm.Stop()
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&api.Error{Kind: api.KindNetwork, Op: "list"}, "check your connection"},
		{&api.Error{Kind: api.KindRejected, Op: "delete"}, "couldn't complete action"},
		{&api.Error{Kind: api.KindUnexpectedShape, Op: "count"}, "unexpected server response"},
		{ErrNoIdentity, "no user configured"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DescribeError(tt.err))
	}
}

func TestFlashExpires(t *testing.T) {
	var f Flash
	f.SetLevel(LevelWarn, "hello", time.Hour)
	msg, level := f.Current()
	assert.Equal(t, "hello", msg)
	assert.Equal(t, LevelWarn, level)

	f.Set("gone", -time.Second)
	assert.Empty(t, f.Get())
}
