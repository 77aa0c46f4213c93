// Package main runs the logs provider admin CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	logsctl "github.com/louisbranch/logsprovider/internal/cmd/logsctl"
	"github.com/louisbranch/logsprovider/internal/platform/config"
)

func main() {
	log.SetPrefix("[LOGSCTL] ")
	cfg, err := logsctl.LoadConfig()
	if err != nil {
		config.Exit("logsctl", fmt.Errorf("load config: %w", err))
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = logsctl.Execute(ctx, cfg, os.Args[1:])
	stop()
	config.Exit("logsctl", err)
}
