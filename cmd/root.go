package main

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"tasklists/internal/config"
	"tasklists/internal/store"
	"tasklists/internal/task"
	"tasklists/pkg/mq"
)

// openBackend is replaced in tests.
var openBackend = func(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	return store.Open(ctx, cfg.Store)
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "tasklists",
		Short: "Task lists grouped by list name",
		Long: `tasklists serves a small web board of to-do items grouped by list.

Tasks live in MongoDB, MySQL or Redis (store.driver in tasklists.yml).
Lists are not stored on their own: a list exists while it has tasks.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./"+config.DefaultFile+" if present)")

	root.AddCommand(
		newServeCmd(&configPath),
		newTasksCmd(&configPath),
		newAddCmd(&configPath),
		newDeleteCmd(&configPath),
		newExportCmd(&configPath),
		newWatchCmd(&configPath),
	)
	return root
}

// app is the wiring shared by every subcommand.
type app struct {
	cfg     *config.Config
	backend store.Backend
	events  *mq.Redis
	tasks   *task.Manager
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func newEvents(cfg *config.Config) (*mq.Redis, error) {
	if cfg.Events.RedisAddr == "" {
		return nil, nil
	}
	return mq.NewRedis(&redis.Options{Addr: cfg.Events.RedisAddr}, cfg.Events.Namespace)
}

func openApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	events, err := newEvents(cfg)
	if err != nil {
		backend.Close()
		return nil, err
	}

	opts := []task.Option{task.WithViewCache(cfg.Server.ViewCacheTTL)}
	if events != nil {
		opts = append(opts, task.WithPublisher(events))
	}
	return &app{
		cfg:     cfg,
		backend: backend,
		events:  events,
		tasks:   task.NewManager(backend, opts...),
	}, nil
}

func (a *app) Close() {
	if a.events != nil {
		_ = a.events.Close()
	}
	if err := a.backend.Close(); err != nil {
		log.Printf("[Store] Error closing store: %v", err)
	}
}
