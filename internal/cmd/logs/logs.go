// Package logs parses logs provider flags and launches the service.
package logs

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/louisbranch/logsprovider/internal/platform/cmd"
	server "github.com/louisbranch/logsprovider/internal/services/logs/app"
	logsamqp "github.com/louisbranch/logsprovider/internal/services/logs/notify/amqp"
)

// Config holds logs command configuration. Tags are read under
// LOGSPROVIDER_.
type Config struct {
	Port         int    `env:"PORT" envDefault:"8095"`
	HTTPAddr     string `env:"HTTP_ADDR" envDefault:"localhost:8096"`
	DBPath       string `env:"DB_PATH" envDefault:"data/logs.db"`
	Authority    string `env:"AUTHORITY"`
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"logs.changes"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.LoadEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The logs gRPC server port")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "MCP and metrics HTTP address (empty disables)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.Authority, "authority", cfg.Authority, "Content URI authority")
	fs.StringVar(&cfg.AMQPURL, "amqp-url", cfg.AMQPURL, "RabbitMQ URL for change events (empty disables)")
	fs.StringVar(&cfg.AMQPExchange, "amqp-exchange", cfg.AMQPExchange, "RabbitMQ fanout exchange for change events")
	if err := entrypoint.ParseFlags(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) serverConfig() server.Config {
	exchange := c.AMQPExchange
	if exchange == "" {
		exchange = logsamqp.DefaultExchange
	}
	return server.Config{
		GRPCAddr:     fmt.Sprintf(":%d", c.Port),
		HTTPAddr:     c.HTTPAddr,
		DBPath:       c.DBPath,
		Authority:    c.Authority,
		AMQPURL:      c.AMQPURL,
		AMQPExchange: exchange,
	}
}

// Run starts the logs provider service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ProgramLogs, func(ctx context.Context) error {
		return server.Run(ctx, cfg.serverConfig())
	})
}
