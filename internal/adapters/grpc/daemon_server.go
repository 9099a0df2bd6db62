package grpc

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/andrescamacho/autobuild-go/internal/application/planner"
)

// SessionServicePrefix prefixes the health service name of each session
const SessionServicePrefix = "autobuild.session/"

// SessionServiceName is the health service reporting one session
func SessionServiceName(sessionID string) string {
	return SessionServicePrefix + sessionID
}

// Service is a server run alongside the gRPC socket, such as the HTTP API
type Service interface {
	Name() string
	Start() error
	Shutdown(ctx context.Context) error
}

// DaemonServer serves the gRPC health service on a unix socket and
// coordinates shutdown of the planner and its companion services.
type DaemonServer struct {
	manager  *planner.SessionManager
	loggers  *LoggerFactory
	listener net.Listener
	health   *health.Server
	services []Service

	shutdownTimeout time.Duration

	// Shutdown coordination
	shutdownChan chan os.Signal
	done         chan struct{}
	stopOnce     sync.Once
	stopping     atomic.Bool
}

// NewDaemonServer creates a new daemon server instance
func NewDaemonServer(
	manager *planner.SessionManager,
	loggers *LoggerFactory,
	socketPath string,
	shutdownTimeout time.Duration,
	services ...Service,
) (*DaemonServer, error) {
	// Remove existing socket file if present
	if err := os.RemoveAll(socketPath); err != nil {
		return nil, fmt.Errorf("failed to remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create unix socket listener: %w", err)
	}

	// Owner only
	if err := os.Chmod(socketPath, 0600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}

	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	server := &DaemonServer{
		manager:         manager,
		loggers:         loggers,
		listener:        listener,
		health:          health.NewServer(),
		services:        services,
		shutdownTimeout: shutdownTimeout,
		shutdownChan:    make(chan os.Signal, 1),
		done:            make(chan struct{}),
	}

	signal.Notify(server.shutdownChan, os.Interrupt, syscall.SIGTERM)

	return server, nil
}

// Start serves until a shutdown signal arrives or a server fails
func (s *DaemonServer) Start() error {
	fmt.Printf("Daemon server listening on unix socket: %s\n", s.listener.Addr().String())

	go s.handleShutdown()

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, s.health)
	s.SyncSessionHealth()

	errChan := make(chan error, len(s.services)+1)
	go func() {
		if err := grpcServer.Serve(s.listener); err != nil {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	for _, svc := range s.services {
		go func(svc Service) {
			fmt.Printf("Starting %s\n", svc.Name())
			if err := svc.Start(); err != nil {
				errChan <- fmt.Errorf("%s error: %w", svc.Name(), err)
			}
		}(svc)
	}

	select {
	case err := <-errChan:
		if s.stopping.Load() {
			// Servers exit as they are shut down
			<-s.done
			grpcServer.GracefulStop()
			return nil
		}
		s.Shutdown()
		<-s.done
		grpcServer.Stop()
		return err
	case <-s.done:
		fmt.Println("Initiating graceful shutdown of gRPC server...")
		grpcServer.GracefulStop()
		return nil
	}
}

// Shutdown asks a running server to stop as if it had been signalled
func (s *DaemonServer) Shutdown() {
	select {
	case s.shutdownChan <- syscall.SIGTERM:
	default:
	}
}

// Done is closed once shutdown has completed
func (s *DaemonServer) Done() <-chan struct{} { return s.done }

func (s *DaemonServer) handleShutdown() {
	<-s.shutdownChan
	s.stopping.Store(true)
	s.stopOnce.Do(func() {
		fmt.Println("\nShutdown signal received, stopping daemon...")
		signal.Stop(s.shutdownChan)

		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.manager.StopAll(ctx); err != nil {
			fmt.Printf("Warning: failed to stop sessions: %v\n", err)
		}
		for _, svc := range s.services {
			if err := svc.Shutdown(ctx); err != nil {
				fmt.Printf("Warning: failed to stop %s: %v\n", svc.Name(), err)
			}
		}
		if s.loggers != nil {
			s.loggers.Wait()
		}

		s.health.Shutdown()
		close(s.done)
	})
}

// SyncSessionHealth publishes SERVING for running sessions and
// NOT_SERVING for the rest.
func (s *DaemonServer) SyncSessionHealth() {
	for _, sess := range s.manager.Sessions() {
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if sess.IsRunning() {
			status = healthpb.HealthCheckResponse_SERVING
		}
		s.health.SetServingStatus(SessionServiceName(sess.ID()), status)
	}
}

// TickListener keeps session health current after every tick
func (s *DaemonServer) TickListener() planner.TickListener {
	return func(ctx context.Context, report planner.TickReport) {
		s.SyncSessionHealth()
	}
}
