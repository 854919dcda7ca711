// Command ipops-printer reads a length-prefixed byte stream on stdin,
// coalesces it into frames, renders each frame onto a PDF, and submits the
// PDF to the local "lp" print backend.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ipops/ipops/internal/config"
	"github.com/ipops/ipops/internal/printer"
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) > 1 {
		os.Stderr.WriteString("ipops-printer takes no command-line arguments\n")
		return -1
	}

	settings, err := config.Load(os.Getenv)
	if err != nil {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
		slog.Error("configuration error", "err", err)
		return 2
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: settings.LogLevel})))

	submitter := printer.NewSubmitter()
	if _, err := submitter.LookPath("lp"); err != nil {
		slog.Error("'lp' executable not found on PATH")
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := printer.Run(ctx, os.Stdin, settings, submitter); err != nil {
		slog.Error("printer pipeline failed", "err", err)
		return printer.ExitCode(err)
	}
	return 0
}
