package grpc

import (
	"context"
	"fmt"
	"time"

	gogrpc "google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	healthPollStart    = 200 * time.Millisecond
	healthPollMax      = time.Second
	healthCheckTimeout = time.Second
)

// WaitForHealth blocks until the health service behind conn reports service
// as SERVING. The empty service name asks about the whole server.
func WaitForHealth(ctx context.Context, conn *gogrpc.ClientConn, service string, logf func(string, ...any)) error {
	if conn == nil {
		return fmt.Errorf("gRPC connection is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}

	client := grpc_health_v1.NewHealthClient(conn)
	for delay := healthPollStart; ; delay = min(2*delay, healthPollMax) {
		serving, err := checkServing(ctx, client, service)
		if serving {
			logf("%s is serving", healthTarget(service))
			return nil
		}
		logf("%s not ready: %v", healthTarget(service), err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s: %w", healthTarget(service), ctx.Err())
		case <-time.After(delay):
		}
	}
}

// checkServing runs one bounded health check. When the answer is not
// SERVING the error says why.
func checkServing(ctx context.Context, client grpc_health_v1.HealthClient, service string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		return false, err
	}
	if st := resp.GetStatus(); st != grpc_health_v1.HealthCheckResponse_SERVING {
		return false, fmt.Errorf("status %s", st)
	}
	return true, nil
}

func healthTarget(service string) string {
	if service == "" {
		return "gRPC server"
	}
	return fmt.Sprintf("gRPC service %q", service)
}
