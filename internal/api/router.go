package api

import (
	"net/http"

	"go.uber.org/zap"
)

// RouterOption configures the behaviour of NewRouter.
type RouterOption func(*routerConfig)

// WithLogging controls whether access logs are emitted.
func WithLogging(enabled bool) RouterOption {
	return func(cfg *routerConfig) {
		cfg.enableLogging = enabled
	}
}

// WithRateLimiter overrides the default request rate limiter (primarily for tests).
func WithRateLimiter(limiter rateLimiter) RouterOption {
	return func(cfg *routerConfig) {
		cfg.rateLimiter = limiter
	}
}

// WithRateLimit configures a token bucket limiter. A zero rate or burst disables limiting.
func WithRateLimit(ratePerSecond float64, burst int) RouterOption {
	return func(cfg *routerConfig) {
		if ratePerSecond <= 0 || burst <= 0 {
			cfg.rateLimiter = nil
			return
		}
		cfg.rateLimiter = newTokenBucketLimiter(ratePerSecond, burst)
	}
}

// WithCompression toggles brotli response compression.
func WithCompression(enabled bool) RouterOption {
	return func(cfg *routerConfig) {
		cfg.enableCompression = enabled
	}
}

type routerConfig struct {
	enableLogging     bool
	enableCompression bool
	logger            *zap.Logger
	rateLimiter       rateLimiter
}

// NewRouter creates an HTTP router with standard middleware.
func NewRouter(handler *Handler, logger *zap.Logger, opts ...RouterOption) http.Handler {
	cfg := routerConfig{
		enableLogging:     true,
		enableCompression: true,
		logger:            logger,
		rateLimiter:       newTokenBucketLimiter(25, 50),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handler.handleHealth)
	mux.HandleFunc("GET /api/items", handler.handleListItems)
	mux.HandleFunc("POST /api/items", handler.handleAddItem)
	mux.HandleFunc("DELETE /api/items", handler.handleClearItems)
	mux.HandleFunc("PUT /api/items/{id}", handler.handleUpdateItem)
	mux.HandleFunc("DELETE /api/items/{id}", handler.handleDeleteItem)
	mux.HandleFunc("POST /api/optimize", handler.handleOptimize)
	mux.HandleFunc("GET /api/runs", handler.handleListRuns)

	var root http.Handler = mux
	if cfg.enableCompression {
		root = compressionMiddleware(root)
	}
	root = corsMiddleware(root)
	root = recoveryMiddleware(cfg.logger, root)
	if cfg.enableLogging {
		root = loggingMiddleware(cfg.logger, root)
	}
	root = rateLimitMiddleware(cfg.rateLimiter, root)
	root = requestIDMiddleware(root)

	return root
}
