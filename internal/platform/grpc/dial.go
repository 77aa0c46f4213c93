// Package grpc holds client connection helpers for the logs provider API.
package grpc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Connector creates a client connection for an address.
type Connector interface {
	Connect(addr string, opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(addr string, opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error)

// Connect calls fn.
func (fn ConnectorFunc) Connect(addr string, opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
	return fn(addr, opts...)
}

// DialStage names where a dial attempt failed.
type DialStage string

const (
	// DialStageConnect indicates the client could not be created.
	DialStageConnect DialStage = "connect"
	// DialStageHealth indicates the health check never reported SERVING.
	DialStageHealth DialStage = "health"
)

// DialError wraps dial and health check failures with their stage.
type DialError struct {
	Stage DialStage
	Err   error
}

// Error implements the error interface.
func (e *DialError) Error() string {
	if e == nil {
		return "gRPC dial error"
	}
	return fmt.Sprintf("gRPC %s error: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *DialError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DefaultClientDialOptions returns plaintext options with client tracing.
func DefaultClientDialOptions() []gogrpc.DialOption {
	return []gogrpc.DialOption{
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
}

// DialWithHealth connects to addr and waits until service reports SERVING.
// An empty service checks overall server health. The connection is closed
// when the health check fails.
func DialWithHealth(ctx context.Context, connector Connector, addr, service string, timeout time.Duration, logf func(string, ...any), opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(addr) == "" {
		return nil, &DialError{Stage: DialStageConnect, Err: fmt.Errorf("address is required")}
	}
	if connector == nil {
		connector = ConnectorFunc(gogrpc.NewClient)
	}
	if len(opts) == 0 {
		opts = DefaultClientDialOptions()
	}

	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := connector.Connect(addr, opts...)
	if err != nil {
		return nil, &DialError{Stage: DialStageConnect, Err: err}
	}
	if err := WaitForHealth(waitCtx, conn, service, logf); err != nil {
		_ = conn.Close()
		return nil, &DialError{Stage: DialStageHealth, Err: err}
	}
	return conn, nil
}
