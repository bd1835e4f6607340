package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/opticalc/internal/application"
	"github.com/eugenenazirov/opticalc/internal/config"
	"github.com/eugenenazirov/opticalc/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	overrides, err := parseFlags(os.Args[1:])
	kingpin.FatalIfError(err, "invalid arguments")

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app, cfg.ShutdownGracePeriod, logger)
}

// parseFlags maps command-line flags onto config overrides. Flags left at
// their sentinel defaults do not override lower-precedence sources.
func parseFlags(args []string) (*config.CLIOverrides, error) {
	kingpinApp := kingpin.New("opticalc-server", "OptiCalc - budget-constrained purchase planning service")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	port := kingpinApp.Flag("port", "HTTP port exposed by the service").String()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()
	rateLimitRPS := kingpinApp.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurst := kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()
	maxItems := kingpinApp.Flag("max-items", "Maximum number of catalog items").Default("0").Int()
	maxTableCells := kingpinApp.Flag("max-table-cells", "Upper bound on items x budget per optimization").Default("0").Int64()
	databasePath := kingpinApp.Flag("database-path", "SQLite database file (empty keeps the catalog in memory)").String()
	redisAddr := kingpinApp.Flag("redis-addr", "Redis address for the shared result cache").String()

	if _, err := kingpinApp.Parse(args); err != nil {
		return nil, err
	}

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}
	if *port != "" {
		overrides.Port = port
	}
	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}
	if *rateLimitRPS >= 0 {
		overrides.RateLimitRPS = rateLimitRPS
	}
	if *rateLimitBurst >= 0 {
		overrides.RateLimitBurst = rateLimitBurst
	}
	if *maxItems > 0 {
		overrides.MaxItems = maxItems
	}
	if *maxTableCells > 0 {
		overrides.MaxTableCells = maxTableCells
	}
	if *databasePath != "" {
		overrides.DatabasePath = databasePath
	}
	if *redisAddr != "" {
		overrides.RedisAddr = redisAddr
	}

	return overrides, nil
}

// shutdown blocks until SIGINT or SIGTERM, drains the HTTP server and then
// releases the database and cache connections.
func shutdown(app *application.App, timeout time.Duration, logger *zap.Logger) {
	server := app.Server()
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}

	if err := app.Close(); err != nil {
		logger.Warn("failed to release resources", zap.Error(err))
	}
}
