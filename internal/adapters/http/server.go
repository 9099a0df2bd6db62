package httpadapter

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"
)

// Server runs the game client API
type Server struct {
	address string
	hertz   *server.Hertz
	closed  atomic.Bool
}

// NewServer builds the API server without starting it
func NewServer(address string, maxBodySize int, handler Handler) *Server {
	opts := []config.Option{
		server.WithHostPorts(address),
		server.WithExitWaitTime(time.Second),
	}
	if maxBodySize > 0 {
		opts = append(opts, server.WithMaxRequestBodySize(maxBodySize))
	}
	h := server.New(opts...)
	h.Use(corsMiddleware())
	handler.RegisterRoutes(h)
	return &Server{address: address, hertz: h}
}

// Hertz exposes the underlying server
func (s *Server) Hertz() *server.Hertz { return s.hertz }

// Name identifies the server in daemon logs
func (s *Server) Name() string { return "HTTP API on " + s.address }

// Start serves until Shutdown
func (s *Server) Start() error {
	err := s.hertz.Run()
	if s.closed.Load() {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.closed.Store(true)
	return s.hertz.Shutdown(ctx)
}
