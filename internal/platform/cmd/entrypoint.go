// Package cmd holds the startup helpers shared by the logs binaries.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/louisbranch/logsprovider/internal/platform/config"
	"github.com/louisbranch/logsprovider/internal/platform/otel"
	"github.com/louisbranch/logsprovider/internal/platform/timeouts"
)

// Program names, used as the telemetry service name and the CLI root.
const (
	ProgramLogs    = "logs"
	ProgramLogsctl = "logsctl"
)

// LoadEnv fills cfg from LOGSPROVIDER_-prefixed variables. Flags parsed
// afterwards override what it sets.
func LoadEnv[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnvWithPrefix(cfg, config.EnvPrefix)
}

// ParseFlags parses args into fs. Bad flag values are reported as
// config.ErrInvalidConfig; flag.ErrHelp passes through unchanged.
func ParseFlags(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag set is required")
	}
	err := fs.Parse(append([]string{}, args...))
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return err
	default:
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
}

// RunWithTelemetry installs tracing for program, calls run and flushes
// spans once run returns.
func RunWithTelemetry(ctx context.Context, program string, run func(context.Context) error) error {
	program = strings.TrimSpace(program)
	switch {
	case program == "":
		return errors.New("program name is required")
	case run == nil:
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	shutdown, err := otel.Setup(ctx, program)
	if err != nil {
		return fmt.Errorf("set up telemetry: %w", err)
	}
	defer flushTelemetry(program, shutdown)
	return run(ctx)
}

func flushTelemetry(program string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Printf("%s: flush telemetry: %v", program, err)
	}
}
