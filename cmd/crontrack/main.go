// Command crontrack runs the heartbeat-job monitor and manages the jobs,
// users, and teams it watches.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for local development; deployment uses real env vars.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "crontrack:", err)
		os.Exit(1)
	}
}
