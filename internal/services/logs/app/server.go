// Package server wires the logs provider runtime: storage, change hub, gRPC
// and MCP transports, metrics and the optional AMQP bridge.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/louisbranch/logsprovider/internal/platform/timeouts"
	logsservice "github.com/louisbranch/logsprovider/internal/services/logs/api/grpc/logs"
	logsmcp "github.com/louisbranch/logsprovider/internal/services/logs/api/mcp"
	"github.com/louisbranch/logsprovider/internal/services/logs/address"
	"github.com/louisbranch/logsprovider/internal/services/logs/notify"
	logsamqp "github.com/louisbranch/logsprovider/internal/services/logs/notify/amqp"
	"github.com/louisbranch/logsprovider/internal/services/logs/observability"
	"github.com/louisbranch/logsprovider/internal/services/logs/provider"
	"github.com/louisbranch/logsprovider/internal/services/logs/recorder"
	logssqlite "github.com/louisbranch/logsprovider/internal/services/logs/storage/sqlite"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// Config controls the runtime wiring.
type Config struct {
	// GRPCAddr is the gRPC listen address.
	GRPCAddr string
	// HTTPAddr serves /mcp and /metrics. Empty disables HTTP.
	HTTPAddr string
	// DBPath is the SQLite file.
	DBPath string
	// Authority overrides address.DefaultAuthority.
	Authority string
	// AMQPURL enables the change bridge when set.
	AMQPURL string
	// AMQPExchange is the fanout exchange name.
	AMQPExchange string
}

// Server hosts the logs provider transports and storage lifecycle.
type Server struct {
	listener     net.Listener
	httpListener net.Listener
	grpcServer   *grpc.Server
	httpServer   *http.Server
	health       *health.Server
	store        *logssqlite.Store
	hub          *notify.Hub
	recorder     *recorder.Recorder
	consumer     *logsamqp.Consumer
	amqpConn     *amqp.Connection
}

// New creates a configured server listening on the configured addresses.
func New(cfg Config) (*Server, error) {
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "logs.db")
	}

	listener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}
	s := &Server{listener: listener}

	store, err := openLogStore(cfg.DBPath)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.store = store

	metrics := observability.NewMetrics()
	router := address.NewRouter(cfg.Authority, address.DefaultTable)
	s.hub = notify.NewHub()
	s.hub.SetMetrics(metrics)

	p, err := provider.New(store, provider.Options{Router: router, Watcher: s.hub, Metrics: metrics})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create provider: %w", err)
	}
	s.recorder, err = recorder.New(store, router, s.hub)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create recorder: %w", err)
	}

	mcpServer, err := logsmcp.New(p)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create mcp server: %w", err)
	}
	s.hub.AddSink(mcpServer)

	if strings.TrimSpace(cfg.AMQPURL) != "" {
		if err := s.attachAMQP(cfg.AMQPURL, cfg.AMQPExchange); err != nil {
			s.Close()
			return nil, err
		}
	}

	s.grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	s.health = health.NewServer()
	logsservice.RegisterLogsProviderServer(s.grpcServer, logsservice.NewService(p, s.hub))
	grpc_health_v1.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(logsservice.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	if strings.TrimSpace(cfg.HTTPAddr) != "" {
		httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
		}
		s.httpListener = httpListener
		mux := http.NewServeMux()
		mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return mcpServer.MCPServer()
		}, nil))
		mux.Handle("/metrics", metrics.Handler())
		s.httpServer = &http.Server{Handler: mux, ReadHeaderTimeout: timeouts.ReadHeader}
	}

	return s, nil
}

func (s *Server) attachAMQP(url, exchange string) error {
	conn, pubCh, err := logsamqp.Connect(url)
	if err != nil {
		return err
	}
	s.amqpConn = conn
	origin := uuid.NewString()
	publisher, err := logsamqp.NewPublisher(pubCh, exchange, origin)
	if err != nil {
		return err
	}
	consumeCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open amqp consume channel: %w", err)
	}
	consumer, err := logsamqp.NewConsumer(consumeCh, exchange, origin, s.hub)
	if err != nil {
		return err
	}
	s.hub.AddSink(publisher)
	s.consumer = consumer
	return nil
}

// Addr returns the gRPC listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// HTTPAddr returns the MCP and metrics listener address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// Recorder returns the in-process write path.
func (s *Server) Recorder() *recorder.Recorder {
	return s.recorder
}

// Run creates and serves a logs server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts every transport until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	serveErr := make(chan error, 3)
	log.Printf("logs gRPC server listening at %v", s.listener.Addr())
	go func() {
		if err := s.grpcServer.Serve(s.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErr <- fmt.Errorf("serve gRPC: %w", err)
		}
	}()
	if s.httpServer != nil {
		log.Printf("logs HTTP server listening at %v", s.httpListener.Addr())
		go func() {
			if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- fmt.Errorf("serve HTTP: %w", err)
			}
		}()
	}

	consumerCtx, cancelConsumer := context.WithCancel(ctx)
	defer cancelConsumer()
	if s.consumer != nil {
		go func() {
			if err := s.consumer.Run(consumerCtx); err != nil {
				log.Printf("amqp consumer stopped: %v", err)
			}
		}()
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}

	s.health.Shutdown()
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		if shutdownErr := s.httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Printf("shutdown HTTP server: %v", shutdownErr)
		}
		cancel()
	}
	s.hub.Close()
	s.grpcServer.GracefulStop()
	return err
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.hub != nil {
		s.hub.Close()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
	if s.amqpConn != nil {
		if err := s.amqpConn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			log.Printf("close amqp connection: %v", err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close logs store: %v", err)
		}
	}
}

func openLogStore(path string) (*logssqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := logssqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open logs sqlite store: %w", err)
	}
	return store, nil
}
