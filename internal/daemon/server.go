package daemon

import (
	"context"
	"fmt"
	"net"
	"os"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/matheus3301/jobdesk/internal/bus"
	"github.com/matheus3301/jobdesk/internal/session"
	"github.com/matheus3301/jobdesk/internal/status"
)

// NotificationsService is the health service name tracking the refresh
// cycle. The empty service name reports process liveness.
const NotificationsService = "jobdesk.notifications"

// Server exposes the gRPC health protocol on the session's Unix socket.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
	socketPath string
	bus        *bus.Bus
	machine    *status.Machine
	logger     *zap.Logger
	unsub      func()
}

// NewServer creates a gRPC server bound to the session's Unix domain socket.
func NewServer(p Params, b *bus.Bus, machine *status.Machine, logger *zap.Logger) (*Server, error) {
	socketPath := p.SocketPath
	if socketPath == "" {
		socketPath = session.SocketPath(p.SessionName)
	}

	// A socket left behind by a crashed daemon would make Listen fail.
	if _, err := os.Stat(socketPath); err == nil {
		_ = os.Remove(socketPath)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen unix socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(NotificationsService, healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &Server{
		grpcServer: srv,
		health:     hs,
		listener:   listener,
		socketPath: socketPath,
		bus:        b,
		machine:    machine,
		logger:     logger,
	}, nil
}

// Start follows session status changes and serves until stopped.
func (s *Server) Start() error {
	ch, unsub := s.bus.Subscribe(bus.NamespaceSession, 16)
	s.unsub = unsub
	go func() {
		for evt := range ch {
			if change, ok := evt.Payload.(status.StatusChange); ok {
				s.apply(change.To)
			}
		}
	}()
	s.apply(s.machine.Current())

	s.logger.Info("health server starting", zap.String("socket", s.socketPath))
	return s.grpcServer.Serve(s.listener)
}

func (s *Server) apply(state status.State) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if state == status.Ready {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(NotificationsService, st)
}

// Stop performs a graceful shutdown and removes the socket file.
func (s *Server) Stop(_ context.Context) {
	s.logger.Info("health server stopping")
	if s.unsub != nil {
		s.unsub()
	}
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	_ = os.Remove(s.socketPath)
}
