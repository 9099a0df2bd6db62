package feed

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Server serves the websocket feed and, when given, the metrics endpoint
type Server struct {
	hub      *Hub
	server   *http.Server
	listener net.Listener
}

// NewServer builds a feed server. metrics may be nil.
func NewServer(address, feedPath string, hub *Hub, metricsPath string, metrics http.Handler) *Server {
	mux := http.NewServeMux()
	mux.Handle(feedPath, NewHandler(hub))
	if metrics != nil && metricsPath != "" {
		mux.Handle(metricsPath, metrics)
	}
	return &Server{
		hub: hub,
		server: &http.Server{
			Addr:              address,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Name identifies the server in daemon logs
func (s *Server) Name() string { return "plan feed server on " + s.server.Addr }

// Listen binds the address without serving, so callers learn the bound
// port before Start.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	l, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.listener = l
	return nil
}

// Addr is the bound address, or the configured one before Listen
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Start serves until Shutdown
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown disconnects subscribers and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.server.Shutdown(ctx)
}
