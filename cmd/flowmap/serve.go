package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/flowmap/internal/config"
	"github.com/JonMunkholm/flowmap/internal/core"
	"github.com/JonMunkholm/flowmap/internal/logging"
	"github.com/JonMunkholm/flowmap/internal/store"
	"github.com/JonMunkholm/flowmap/internal/web"
)

func newServeCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `serve loads configuration from the environment (and an optional .env
file) and starts the HTTP API. Projects are stored in PostgreSQL when
DATABASE_URL is set, in memory otherwise.`,
		Args: cobra.NoArgs,
		// Logging is configured from the environment instead.
		PersistentPreRun: func(*cobra.Command, []string) {},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Env file to load before reading configuration")
	return cmd
}

func runServe(ctx context.Context, envFile string) error {
	// Overload lets the env file win over inherited variables.
	if err := godotenv.Overload(envFile); err != nil {
		slog.Info("no env file loaded, using environment variables", "file", envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	projects, closeStore, err := openStore(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()

	bucket, err := core.ParseTimeBucket(cfg.Import.TimeBucket)
	if err != nil {
		return err
	}
	loc, err := cfg.Import.Location()
	if err != nil {
		return fmt.Errorf("load time zone: %w", err)
	}

	service := core.NewService(projects, core.PipelineOptions{Bucket: bucket, Location: loc})
	server := web.NewServer(service, cfg)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr())
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// openStore connects to PostgreSQL when a URL is configured and migrates the
// schema; otherwise projects live in memory.
func openStore(ctx context.Context, cfg *config.DatabaseConfig) (core.ProjectStore, func(), error) {
	if cfg.URL == "" {
		slog.Warn("DATABASE_URL not set, projects are kept in memory")
		return store.NewMemory(), func() {}, nil
	}

	pool, err := store.Connect(ctx, store.PoolConfig{
		URL:             cfg.URL,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		MaxConnIdleTime: cfg.MaxConnIdleTime,
	})
	if err != nil {
		return nil, nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	pg := store.NewPostgres(pool)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pg, pool.Close, nil
}
