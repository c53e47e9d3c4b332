package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kintoreai/kintore/internal/coach"
	"github.com/kintoreai/kintore/internal/config"
	"github.com/kintoreai/kintore/internal/llm"
	"github.com/kintoreai/kintore/internal/memory"
	"github.com/kintoreai/kintore/internal/server"
	"github.com/kintoreai/kintore/internal/session"
	"github.com/kintoreai/kintore/internal/snapshot"
	"github.com/kintoreai/kintore/pkg/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the kintore backend server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Port = port
		}
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			cfg.Debug = true
		}

		if err := config.EnsureDirs(cfg); err != nil {
			return err
		}

		pretty, _ := cmd.Flags().GetBool("pretty")
		logger := log.New(cfg.Debug, pretty)

		// Provider client serves both chat completions and embeddings.
		client := llm.New(llm.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			ChatModel:  cfg.ChatModel,
			EmbedModel: cfg.EmbedModel,
			Timeout:    cfg.LLMTimeout,
		})

		embedFunc := memory.NewRemoteEmbedFunc(client)
		store, err := memory.NewChromemStore(cfg.MemoryDir, embedFunc)
		if err != nil {
			return fmt.Errorf("init memory store: %w", err)
		}
		defer store.Close()
		logger.Info().Str("dir", cfg.MemoryDir).Msg("memory store initialized")

		snaps, err := newSnapshotStore(cfg)
		if err != nil {
			return fmt.Errorf("init snapshot store: %w", err)
		}
		defer snaps.Close()
		logger.Info().Str("backend", cfg.SnapshotBackend).Msg("snapshot store initialized")

		registry := session.NewRegistry(store, snaps, logger)
		c := coach.New(registry, client, logger)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := server.New(cfg, c, logger)
		return srv.Start(ctx)
	},
}

func newSnapshotStore(cfg *config.Config) (snapshot.Store, error) {
	switch cfg.SnapshotBackend {
	case "redis":
		return snapshot.NewRedisStore(snapshot.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.SnapshotTTL,
		}), nil
	case "sqlite":
		return snapshot.NewSQLiteStore(cfg.SnapshotPath)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}
}

func init() {
	serveCmd.Flags().String("host", "", "bind address")
	serveCmd.Flags().Int("port", 0, "listen port")
	serveCmd.Flags().Bool("debug", false, "enable debug logging")
	serveCmd.Flags().Bool("pretty", false, "human-readable log output")
	rootCmd.AddCommand(serveCmd)
}
