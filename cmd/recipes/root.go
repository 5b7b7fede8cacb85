package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/recipes/internal/config"
	"github.com/hyperengineering/recipes/internal/recipe"
	"github.com/hyperengineering/recipes/internal/snapshot"
	"github.com/hyperengineering/recipes/internal/store"
	"github.com/hyperengineering/recipes/internal/view"
	"github.com/hyperengineering/recipes/internal/web"
	"github.com/hyperengineering/recipes/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:          "recipes",
	Short:        "Recipes - a small recipe book served over HTTP",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to the YAML config file (overrides RECIPES_CONFIG_PATH)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(recipeCmd)
	rootCmd.AddCommand(backupCmd)
}

// loadConfig honours --config when given and falls back to config.Load.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func storeOptions(cfg *config.Config) store.Options {
	return store.Options{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	slog.Info("configuration loaded")

	slog.SetDefault(newLogger(os.Stdout, cfg.Log))
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	db, err := store.Open(ctx, storeOptions(cfg))
	if err != nil {
		return err
	}
	slog.Info("store initialized", "driver", db.Dialect())

	srv := newServer(cfg, db)
	slog.Info("router initialized")

	var wg sync.WaitGroup
	if cfg.Backup.Interval > 0 {
		uploader, err := snapshot.NewUploader(cfg.Backup.Storage)
		if err != nil {
			db.Close()
			return err
		}
		backupper := snapshot.NewBackupper(db, cfg.Backup.Dir, uploader)
		backupWorker := worker.NewBackupWorker(backupper, time.Duration(cfg.Backup.Interval))
		startWorker(ctx, &wg, "backup", backupWorker.Run)
	}

	// Drain in-flight requests, then let workers finish, then close the store.
	serveErr := serveHTTP(ctx, srv, time.Duration(cfg.Server.ShutdownTimeout))
	cancel()

	wg.Wait()

	if err := db.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return serveErr
}

// serveHTTP runs srv until ctx is done or the listener fails, then shuts it
// down gracefully. A listener failure is returned so the process exits non-zero.
func serveHTTP(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "address", srv.Addr)
		// ErrServerClosed is the expected error after Shutdown.
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown initiated")
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	return runErr
}

// newServer wires the recipe repository, renderer, and router into an http.Server.
func newServer(cfg *config.Config, db *store.DB) *http.Server {
	handler := web.NewHandler(recipe.NewSQLRepository(db), view.NewTemplRenderer(), Version)
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      web.NewRouter(handler),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
