package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/api"
	"github.com/starford/raido/internal/document"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/session"
	"github.com/starford/raido/internal/sse"
	"github.com/starford/raido/internal/store"
)

// Run starts one notebook session: one process, one notebook, one session.
// It serves the local UI surface over HTTP until the session closes or a
// shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("notebook_path", app.notebookPath),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Open the notebook store. No path means a fresh untitled notebook
	// backed by a scratch file until the first save-as.
	nb, untitled, err := openStore(app.notebookPath, cfg.Notebook.ScratchDir)
	if err != nil {
		return fmt.Errorf("open notebook: %w", err)
	}

	// Initialize the SQLite search index.
	db, err := index.Open(indexPath(cfg))
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Run initial sync.
	if err := index.Sync(db, nb, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// The document session: the single-writer core everything else talks to.
	sess, err := session.New(session.Deps{
		Store:     nb,
		Factory:   document.StdFactory{},
		Presenter: api.NewPresenter(broker),
		Rescan: func() {
			if err := index.Sync(db, nb, logger); err != nil {
				logger.Warn("rescan failed", slog.String("error", err.Error()))
			}
		},
		Logger:   logger,
		Untitled: untitled,
	})
	if err != nil {
		return fmt.Errorf("init session: %w", err)
	}
	defer sess.Close()

	// A confirmed close of the session shuts the whole process down.
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	// Build API handler and router.
	h := api.NewHandler(sess, db, stop)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, http.HandlerFunc(broker.ServeHTTP))

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(runCtx)

	// Watch the notebook file for external edits (another editor, a sync
	// tool) and surface them as SSE events.
	g.Go(func() error {
		err := index.Watch(gCtx, nb, logger, func(path string) {
			if syncErr := index.Sync(db, nb, logger); syncErr != nil {
				logger.Warn("external change sync failed", slog.String("error", syncErr.Error()))
			}
			broker.Publish(sse.Event{
				Type: "notebook.external_change",
				Data: map[string]string{"path": path},
			})
		})
		if err != nil {
			logger.Warn("watcher unavailable", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Session stopped successfully")
	return nil
}

// RunMCP starts the session in MCP mode: no HTTP surface, read-only tools
// served over stdio. Logs go to stderr so stdout stays clean for the
// protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	nb, untitled, err := openStore(app.notebookPath, cfg.Notebook.ScratchDir)
	if err != nil {
		return fmt.Errorf("open notebook: %w", err)
	}

	db, err := index.Open(indexPath(cfg))
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Sync(db, nb, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	sess, err := session.New(session.Deps{
		Store:    nb,
		Factory:  document.StdFactory{},
		Logger:   logger,
		Untitled: untitled,
	})
	if err != nil {
		return fmt.Errorf("init session: %w", err)
	}
	defer sess.Close()

	logger.Info("Starting MCP server on stdio", slog.String("notebook_path", nb.CurrentPath()))

	done := make(chan error, 1)
	go func() {
		done <- mcpserver.New(sess, db).ServeStdio()
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-done:
		return err
	}
}

func openStore(notebookPath, scratchDir string) (*store.File, bool, error) {
	if notebookPath == "" {
		nb, err := store.NewTemporary(scratchDir)
		return nb, true, err
	}
	nb, err := store.Open(notebookPath)
	return nb, false, err
}

// indexPath picks the index database location: the configured path, or a
// per-process scratch file (one session per process, one index per session).
func indexPath(cfg *Config) string {
	if cfg.Index.Path != "" {
		return cfg.Index.Path
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("raido-index-%d.db", os.Getpid()))
}
