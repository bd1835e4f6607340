package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/opticalc/internal/api"
	"github.com/eugenenazirov/opticalc/internal/cache"
	"github.com/eugenenazirov/opticalc/internal/config"
	"github.com/eugenenazirov/opticalc/internal/knapsack"
	"github.com/eugenenazirov/opticalc/internal/planner"
	"github.com/eugenenazirov/opticalc/internal/storage"
)

const redisPingTimeout = 2 * time.Second

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage storage.Storage
	cache   cache.Cache
	planner *planner.Service
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server

	closers []func() error
}

// New initializes the application with all dependencies from the provided configuration.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	app := &App{logger: logger}

	store, err := app.openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.storage = store
	app.cache = app.openCache(ctx, cfg)

	var plannerOpts []planner.Option
	if app.cache != nil {
		plannerOpts = append(plannerOpts, planner.WithCache(app.cache))
	}
	solver := knapsack.New(knapsack.WithMaxCells(cfg.MaxTableCells))
	app.planner = planner.New(solver, store, logger, plannerOpts...)

	app.handler = api.NewHandler(app.planner, store)
	app.router = api.NewRouter(app.handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	rootHandler, err := BuildRootHandler(app.router)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to build HTTP handler: %w", err)
	}
	app.server = NewServer(cfg, rootHandler)

	return app, nil
}

func (a *App) openStorage(ctx context.Context, cfg config.Config) (storage.Storage, error) {
	opts := []storage.Option{storage.WithMaxItems(cfg.MaxItems)}
	if cfg.DatabasePath == "" {
		a.logger.Info("using in-memory catalog storage")
		return storage.NewMemoryStorage(opts...), nil
	}

	store, err := storage.NewSQLiteStorage(ctx, cfg.DatabasePath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	a.logger.Info("using sqlite catalog storage", zap.String("path", cfg.DatabasePath))
	return store, nil
}

// openCache returns nil when caching is disabled. An unreachable Redis
// falls back to the in-process cache.
func (a *App) openCache(ctx context.Context, cfg config.Config) cache.Cache {
	if cfg.CacheTTL <= 0 {
		a.logger.Info("result cache disabled")
		return nil
	}
	if cfg.RedisAddr == "" {
		return cache.NewMemory(cfg.CacheTTL)
	}

	rc := cache.NewRedis(cfg.RedisAddr, cfg.CacheTTL)
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		_ = rc.Close()
		a.logger.Warn("redis unavailable, falling back to in-memory cache",
			zap.String("addr", cfg.RedisAddr),
			zap.Error(err),
		)
		return cache.NewMemory(cfg.CacheTTL)
	}
	a.closers = append(a.closers, rc.Close)
	a.logger.Info("using redis result cache", zap.String("addr", cfg.RedisAddr))
	return rc
}

// BuildRootHandler constructs the root HTTP handler that serves static files and routes API requests.
func BuildRootHandler(apiHandler http.Handler) (http.Handler, error) {
	mux := http.NewServeMux()

	staticPath, err := resolveProjectPath(filepath.Join("web", "static"))
	if err != nil {
		return nil, err
	}
	staticDir := http.Dir(staticPath)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(staticDir)))
	mux.Handle("/api/", apiHandler)

	indexPath, err := resolveProjectPath(filepath.Join("web", "templates", "index.html"))
	if err != nil {
		return nil, err
	}
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, indexPath)
	}))

	return mux, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Storage returns the catalog storage backing the API.
func (a *App) Storage() storage.Storage {
	return a.storage
}

// Close releases the database and cache connections. It is safe to call more than once.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// resolveProjectPath locates a file or directory relative to the project root by walking up the directory tree.
func resolveProjectPath(relative string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, relative)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("unable to locate %s", relative)
}
