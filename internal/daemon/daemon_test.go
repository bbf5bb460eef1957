package daemon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/matheus3301/jobdesk/internal/api"
	"github.com/matheus3301/jobdesk/internal/bus"
	"github.com/matheus3301/jobdesk/internal/config"
	"github.com/matheus3301/jobdesk/internal/status"
	"github.com/matheus3301/jobdesk/internal/store"
	intsync "github.com/matheus3301/jobdesk/internal/sync"
)

type harness struct {
	db        *store.DB
	bus       *bus.Bus
	machine   *status.Machine
	server    *Server
	refresher *Refresher
	engine    *intsync.Engine
	socket    string
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/unread-count"):
			_, _ = w.Write([]byte(`{"isSuccess":true,"data":1}`))
		case strings.HasPrefix(r.URL.Path, "/api/Notification/user/"):
			_, _ = w.Write([]byte(`[{"id":1,"userId":7,"typeId":1,"message":"offer","isRead":false,"createdAt":"2024-06-01T10:00:00"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setup(t *testing.T, userID int) *harness {
	t.Helper()
	// Short path to stay under the Unix socket path limit.
	tmpDir, err := os.MkdirTemp("/tmp", "jobdesk-test-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	db, err := store.OpenMigrated(filepath.Join(tmpDir, "jobdesk.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	backend := newBackend(t)
	profile := config.DefaultProfile()
	profile.BaseURL = backend.URL
	profile.UserID = userID
	profile.PollInterval = config.Duration{Duration: time.Second}

	client, err := api.NewClient(profile.ClientOptions())
	if err != nil {
		t.Fatal(err)
	}

	logger := zap.NewNop()
	b := bus.New()
	machine := status.NewMachine(b)
	socket := filepath.Join(tmpDir, "d.sock")
	srv, err := NewServer(Params{SessionName: "test", SocketPath: socket}, b, machine, logger)
	if err != nil {
		t.Fatal(err)
	}

	h := &harness{
		db:        db,
		bus:       b,
		machine:   machine,
		server:    srv,
		refresher: NewRefresher(profile, client, b, machine, intsync.NewHistory(db, logger), logger),
		engine:    intsync.NewEngine(db, b, logger),
		socket:    socket,
	}
	h.engine.Start(context.Background())
	go func() { _ = srv.Start() }()
	t.Cleanup(func() {
		h.refresher.Stop()
		h.engine.Stop()
		srv.Stop(context.Background())
	})
	if !WaitAlive(context.Background(), socket, 3*time.Second) {
		t.Fatal("health server did not come up")
	}
	return h
}

func waitStatus(t *testing.T, socket string, want healthpb.HealthCheckResponse_ServingStatus) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	var last healthpb.HealthCheckResponse_ServingStatus
	for time.Now().Before(deadline) {
		st, err := Probe(context.Background(), socket, NotificationsService)
		if err == nil && st == want {
			return
		}
		last = st
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("service status = %s, want %s", last, want)
}

func TestDaemonLifecycle(t *testing.T) {
	h := setup(t, 7)

	waitStatus(t, h.socket, healthpb.HealthCheckResponse_NOT_SERVING)

	if err := h.refresher.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitStatus(t, h.socket, healthpb.HealthCheckResponse_SERVING)
	if h.machine.Current() != status.Ready {
		t.Errorf("state = %s, want READY", h.machine.Current())
	}

	snap := h.refresher.Engine().Snapshot()
	if snap.UnreadCount != 1 || len(snap.Items) != 1 {
		t.Errorf("engine snapshot = %+v", snap)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		s, err := h.db.LoadSnapshot(7)
		if err == nil && s != nil && len(s.Items) == 1 && s.UnreadCount == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("mirror not written: %+v, %v", s, err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	refreshes, err := h.db.RecentRefreshes(7, 10)
	if err != nil || len(refreshes) == 0 || !refreshes[0].OK {
		t.Errorf("refresh history = %+v, %v", refreshes, err)
	}

	h.refresher.Stop()
	if h.machine.Current() != status.Stopped {
		t.Errorf("state after stop = %s, want STOPPED", h.machine.Current())
	}
	waitStatus(t, h.socket, healthpb.HealthCheckResponse_NOT_SERVING)
}

func TestDaemonWithoutIdentity(t *testing.T) {
	h := setup(t, 0)

	if err := h.refresher.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if h.machine.Current() != status.Unauthenticated {
		t.Errorf("state = %s, want UNAUTHENTICATED", h.machine.Current())
	}
	if h.refresher.Engine() != nil {
		t.Error("no engine should run without an identity")
	}

	st, err := Probe(context.Background(), h.socket, "")
	if err != nil || st != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("liveness = %s, %v; want SERVING", st, err)
	}
	waitStatus(t, h.socket, healthpb.HealthCheckResponse_NOT_SERVING)
}

func TestProbeWithoutDaemon(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "none.sock")
	if Alive(context.Background(), socket) {
		t.Error("Alive() should be false without a daemon")
	}
}

func TestModuleGraph(t *testing.T) {
	if err := fx.ValidateApp(Module(Params{SessionName: "test"})); err != nil {
		t.Fatalf("fx graph: %v", err)
	}
}
