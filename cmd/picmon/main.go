package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"picmon/internal/commands"
)

func main() {
	a, err := commands.New()
	if err != nil {
		slog.Error("init failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, a)
	stop()
	os.Exit(code)
}

type app interface {
	Run(ctx context.Context) error
	UsageError() bool
}

func run(ctx context.Context, a app) int {
	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		if a.UsageError() {
			return 2
		}
		return 1
	}
	slog.Info("shutting down")
	return 0
}
