package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// DaemonClientGRPC queries the daemon health service over its unix socket
type DaemonClientGRPC struct {
	conn   *grpc.ClientConn
	client healthpb.HealthClient
}

// NewDaemonClientGRPC creates a new gRPC daemon client
// socketPath should be a Unix domain socket path (e.g., "/tmp/autobuild-daemon.sock")
func NewDaemonClientGRPC(socketPath string) (*DaemonClientGRPC, error) {
	conn, err := grpc.NewClient(
		"unix:"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon socket: %w", err)
	}

	return &DaemonClientGRPC{
		conn:   conn,
		client: healthpb.NewHealthClient(conn),
	}, nil
}

// Close closes the gRPC connection
func (c *DaemonClientGRPC) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Check returns the health of the daemon ("" service) or of one session
func (c *DaemonClientGRPC) Check(ctx context.Context, service string) (*healthpb.HealthCheckResponse, error) {
	resp, err := c.client.Check(ctx, &healthpb.HealthCheckRequest{Service: service}, grpc.WaitForReady(true))
	if err != nil {
		return nil, fmt.Errorf("failed to check health of %q: %w", service, err)
	}
	return resp, nil
}

// CheckSession returns the health of one session
func (c *DaemonClientGRPC) CheckSession(ctx context.Context, sessionID string) (*healthpb.HealthCheckResponse, error) {
	return c.Check(ctx, SessionServiceName(sessionID))
}
