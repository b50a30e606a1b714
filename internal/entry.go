// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
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

	"github.com/starford/catatan/internal/api"
	"github.com/starford/catatan/internal/markdown"
	"github.com/starford/catatan/internal/mcpserver"
	"github.com/starford/catatan/internal/metrics"
	"github.com/starford/catatan/internal/noteservice"
	"github.com/starford/catatan/internal/sse"
	"github.com/starford/catatan/internal/storage"
	"github.com/starford/catatan/internal/store"
	"github.com/starford/catatan/internal/watcher"
)

// core holds the components every command needs.
type core struct {
	cfg    *Config
	logger *slog.Logger
	db     *store.DB
	images *storage.FS
	svc    *noteservice.Service
}

func (c *core) Close() error {
	return c.db.Close()
}

// setup applies opts, builds the logger and opens storage. events may be nil.
func setup(opts []Option, events noteservice.Publisher) (*core, error) {
	app := &application{logOut: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_dir", cfg.Data.Dir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("timezone", cfg.App.Timezone),
		slog.String("log_level", cfg.App.LogLevel.String()))

	images, err := storage.NewFS(cfg.Data.ImagesDir())
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	return &core{
		cfg:    cfg,
		logger: logger,
		db:     db,
		images: images,
		svc:    noteservice.NewService(db, images, events, cfg.App.Location()),
	}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	c, err := setup(opts, broker)
	if err != nil {
		return err
	}
	defer c.Close()

	cfg, logger := c.cfg, c.logger

	publish := func(kind, id string) {
		broker.PublishNote(sse.NoteChange{Kind: kind, ID: id})
	}

	// Drop references to images deleted while the server was down.
	if err := watcher.Reconcile(ctx, c.db, c.images, logger, publish); err != nil {
		logger.Warn("initial reconcile failed", slog.String("error", err.Error()))
	}

	apiRouter := api.NewRouter(c.svc, api.AuthConfig{
		TokenMode: cfg.Auth.AuthEnabled(),
		Token:     cfg.Auth.Token,
		Owner:     cfg.Auth.Owner,
	}, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Metrics.Enabled {
		metrics.RegisterSSEClients(broker.ClientCount)
		r.Use(metrics.Middleware)
		r.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := c.db.Ping(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)
	r.Mount("/images", api.ImageRouter(c.svc))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start image watcher with SSE callback.
	g.Go(func() error {
		if err := watcher.Watch(gCtx, c.db, c.images, logger, publish); err != nil {
			logger.Error("image watcher stopped", slog.String("error", err.Error()))
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

		// Ends open event streams so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher exits with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdio. Notes created here are owned by
// the configured auth owner.
func RunMCP(_ context.Context, opts ...Option) error {
	c, err := setup(append([]Option{WithLogOutput(os.Stderr)}, opts...), nil)
	if err != nil {
		return err
	}
	defer c.Close()

	c.logger.Info("MCP server starting on stdio")
	return mcpserver.New(c.svc, c.cfg.Auth.Owner).ServeStdio()
}

// ExportNote writes note id as Markdown to w.
func ExportNote(ctx context.Context, id string, w io.Writer, opts ...Option) error {
	c, err := setup(append([]Option{WithLogOutput(os.Stderr)}, opts...), nil)
	if err != nil {
		return err
	}
	defer c.Close()

	n, err := c.svc.FetchByID(ctx, id)
	if err != nil {
		return fmt.Errorf("export %s: %w", id, err)
	}
	out, err := markdown.Export(n, c.svc.Location())
	if err != nil {
		return fmt.Errorf("export %s: %w", id, err)
	}
	_, err = w.Write(out)
	return err
}

// ImportNote creates a note owned by owner from the Markdown in r and
// returns its id.
func ImportNote(ctx context.Context, r io.Reader, owner string, opts ...Option) (string, error) {
	c, err := setup(append([]Option{WithLogOutput(os.Stderr)}, opts...), nil)
	if err != nil {
		return "", err
	}
	defer c.Close()

	src, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("import: read: %w", err)
	}
	doc, err := markdown.Import(src)
	if err != nil {
		return "", fmt.Errorf("import: %w", err)
	}
	id, err := c.svc.Save(ctx, doc.Session(owner, c.svc.Location()), "")
	if err != nil {
		return "", fmt.Errorf("import: %w", err)
	}
	c.logger.Info("note imported", slog.String("id", id), slog.String("owner", owner))
	return id, nil
}
