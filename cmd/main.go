package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Houeta/sheetmate-bot/config"
	"github.com/Houeta/sheetmate-bot/internal/bot"
	"github.com/Houeta/sheetmate-bot/internal/cache"
	"github.com/Houeta/sheetmate-bot/internal/metrics"
	"github.com/Houeta/sheetmate-bot/internal/repository"
	"github.com/Houeta/sheetmate-bot/internal/server"
	"github.com/Houeta/sheetmate-bot/internal/service"
	"github.com/Houeta/sheetmate-bot/internal/timesheet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Constants for different environment types.
const (
	envLocal   = "local"
	envDev     = "development"
	envProd    = "production"
	serverPort = 8080
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Initialize the database connection.
	dtb, err := repository.NewDatabase(
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	// Initialize the cache backend. An empty address runs the bot without
	// caching; every request then goes straight to the database and renderer.
	var cacheSvc *cache.Service
	if cfg.Redis.Addr != "" {
		cacheSvc = cache.NewService(logger, cfg.Redis.Addr)
	} else {
		logger.InfoContext(ctx, "Redis address is empty, caching is disabled")
	}

	// Create a new repository instance using the database connection.
	repo := repository.NewRepository(dtb)

	// Build the timesheet renderer for the current reporting period and the
	// service facade the bot talks to.
	generator := timesheet.NewGenerator(time.Now())
	svc := service.New(logger, repo, generator, cacheSvc, appMetrics, cfg.Redis.EmployeeTTL, cfg.Redis.TemplateTTL)

	// Initialize the bot with logger, service, token, and poller timeout.
	mateBot, err := bot.NewBot(logger, svc, appMetrics, cfg.Telegram.Token, cfg.Telegram.PollerTimeout)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	defer stop() // Ensure stop is called to release resources related to signal handling.
	defer dtb.Close()

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Start the bot in a goroutine to allow main to listen for signals.
	go mateBot.Start()

	// Start the monitoring server. The health checker treats a nil cache
	// pinger as "disabled", so only hand it a value when one exists.
	var cachePinger server.CachePinger
	if cacheSvc != nil {
		cachePinger = cacheSvc
	}
	go server.StartMonitoringServer(ctx, logger, reg, dtb, cachePinger, serverPort)

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	// Stop the bot gracefully.
	mateBot.Stop()

	if cacheSvc != nil {
		if err = cacheSvc.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close cache connection", "error", err)
		}
	}

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
