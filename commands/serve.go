package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/c360studio/workbench/config"
	"github.com/c360studio/workbench/server"
	"github.com/c360studio/workbench/storage"
	"github.com/c360studio/workbench/watcher"
	"github.com/c360studio/workbench/workflow"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Workbench API server",
		Long: `Serve runs the Workbench REST API. With a NATS URL configured,
artifacts and sessions persist in JetStream KV buckets and artifact
changes feed the knowledge graph; otherwise everything lives in the
data directory on disk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(parent context.Context, cfg *config.Config) error {
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		nc    *nats.Conn
		store storage.ArtifactStore
		sess  workflow.SessionStore
	)

	if cfg.NATS.URL != "" {
		var err error
		nc, err = nats.Connect(cfg.NATS.URL, nats.Name("workbench"))
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer nc.Close()

		js, err := jetstream.New(nc)
		if err != nil {
			return fmt.Errorf("create JetStream context: %w", err)
		}
		kvStore, err := storage.NewStore(ctx, js)
		if err != nil {
			return fmt.Errorf("create KV store: %w", err)
		}
		store = kvStore
		sess = kvStore.Session(ctx)
		logger.Info("Using NATS KV storage", "url", cfg.NATS.URL)
	} else {
		fileStore, err := storage.NewFileStore(cfg.DataPath())
		if err != nil {
			return fmt.Errorf("create file store: %w", err)
		}
		store = fileStore
		sess = fileStore.Session()
		logger.Info("Using file storage", "path", cfg.DataPath())
	}

	sessions := workflow.NewStore(sess, logger)
	srv := server.New(cfg, store, sessions, nc, logger)

	if cfg.Watch.Enabled {
		w, err := watcher.New(watcher.Config{
			Root:     cfg.DataPath(),
			Patterns: cfg.Watch.Patterns,
			Debounce: cfg.Watch.Debounce,
			Logger:   logger,
		})
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		defer w.Stop()

		go func() {
			for evt := range w.Events() {
				srv.NotifyArtifactChanged(evt.Path)
			}
		}()
	}

	return srv.Run(ctx)
}
