package main

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Arch199/crontrack/config"
	"github.com/Arch199/crontrack/store"
	"github.com/Arch199/crontrack/store/memory"
	"github.com/Arch199/crontrack/store/postgres"
	"github.com/Arch199/crontrack/store/redis"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "crontrack",
		Short:         "Monitor scheduled jobs and alert when they miss their check-in window",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "crontrack.yaml", "path to the config file")

	root.AddCommand(
		newMonitorCmd(&configPath),
		newCheckinCmd(&configPath),
		newRearmCmd(&configPath),
		newJobCmd(&configPath),
		newUserCmd(&configPath),
		newMigrateCmd(&configPath),
	)
	return root
}

// loadConfig reads and validates the config file for a command invocation.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore builds the configured backend. The caller owns Close.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return memory.New(), nil
	case "postgres":
		return postgres.New(ctx, cfg.Store.DSN)
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
		})
		return redis.New(client), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
