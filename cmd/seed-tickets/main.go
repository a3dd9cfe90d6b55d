package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/wildforest/ticketsync/internal/seed"
	"github.com/wildforest/ticketsync/pkg/logger"
)

const runTimeout = 10 * time.Minute

func main() {
	cfg, err := seed.ParseFlags(os.Args[1:], os.Stdout)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		os.Stderr.WriteString("seed-tickets: " + err.Error() + "\n")
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		os.Exit(1)
	}
}

func run(cfg *seed.Config) error {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		return err
	}
	if cfg.Verbose {
		logger.SetLevel(slog.LevelDebug)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	if _, err := seed.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "seed failed", logger.Error(err))
		return err
	}
	return nil
}
