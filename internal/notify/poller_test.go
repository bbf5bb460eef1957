package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/jobdesk/internal/api"
)

func TestRefreshSkipsListWhileInteractive(t *testing.T) {
	src := newFakeSource(note(1, 1, false))
	e := newEngine(t, src)

	var open atomic.Bool
	p := NewPoller(e, time.Second, WithInteractive(open.Load))

	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, 1, src.callCount("unread"))
	assert.Equal(t, 1, src.callCount("notifications"))

	open.Store(true)
	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, 2, src.callCount("unread"))
	assert.Equal(t, 1, src.callCount("notifications"))
}

func TestRefreshReportsFailure(t *testing.T) {
	src := newFakeSource()
	src.countErr = &api.Error{Kind: api.KindNetwork, Op: "unread_count"}
	e := newEngine(t, src)

	var hooked error
	p := NewPoller(e, time.Second, WithRefreshHook(func(err error) { hooked = err }))
	err := p.Refresh(context.Background())
	assert.ErrorIs(t, err, api.ErrNetwork)
	assert.ErrorIs(t, hooked, api.ErrNetwork)

	src.countErr = nil
	assert.NoError(t, p.Refresh(context.Background()))
	assert.NoError(t, hooked)
}

func TestStartRefreshesImmediatelyAndStops(t *testing.T) {
	src := newFakeSource(note(1, 1, false))
	e := newEngine(t, src)
	p := NewPoller(e, time.Second)

	h, err := p.Start(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return src.callCount("unread") >= 1 }, 500*time.Millisecond, 10*time.Millisecond,
		"first refresh must not wait for the interval")
	require.Eventually(t, func() bool { return src.callCount("unread") >= 2 }, 3*time.Second, 50*time.Millisecond)

	h.Stop()
	h.Stop()
	after := src.callCount("unread")
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, after, src.callCount("unread"), "no refresh may run after Stop")
}

func TestParentCancelStopsRequests(t *testing.T) {
	src := newFakeSource()
	e := newEngine(t, src)
	p := NewPoller(e, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Refresh(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestInteractiveRefreshReportsOnlyThisCycle(t *testing.T) {
	src := newFakeSource(note(1, 1, false))
	src.listErr = &api.Error{Kind: api.KindNetwork, Op: "notifications"}
	e := newEngine(t, src)

	var open atomic.Bool
	p := NewPoller(e, time.Second, WithInteractive(open.Load))
	require.ErrorIs(t, p.Refresh(context.Background()), api.ErrNetwork)

	// The list error stays on the snapshot, but this cycle only loaded
	// the counter and that succeeded.
	open.Store(true)
	assert.NoError(t, p.Refresh(context.Background()))
	assert.Error(t, e.Snapshot().ListErr)
}
