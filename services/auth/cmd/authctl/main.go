package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Skotchmaster/auth_service/pkg/logging"
	"github.com/Skotchmaster/auth_service/services/auth/internal/cli"
)

func main() {
	slog.SetDefault(logging.NewWithWriter(os.Stderr, os.Getenv("LOG_LEVEL")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("authctl_failed", "error", err)
		stop()
		os.Exit(1)
	}
}
