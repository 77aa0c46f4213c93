// Package main starts the logs provider process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	logscmd "github.com/louisbranch/logsprovider/internal/cmd/logs"
	"github.com/louisbranch/logsprovider/internal/platform/config"
)

func main() {
	cfg, err := logscmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exit("logs", err)
	}
	log.SetPrefix("[LOGS] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := logscmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
