package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	jsonfile "tripquest/adapters/jsonfile"
	mem "tripquest/adapters/memory"
	redisAdapter "tripquest/adapters/redis"
	sqlxAdapter "tripquest/adapters/sqlx"
	"tripquest/api/httpapi"
	"tripquest/config"
	"tripquest/engine"
	"tripquest/quest"
	"tripquest/realtime"
)

// App aggregates the assembled server components.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Hub      *realtime.Hub
	Registry *prometheus.Registry
	Engine   *engine.Engine
	Handler  http.Handler
	Server   *http.Server
}

func provideConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func provideStorage(ctx context.Context, cfg *config.Config) (engine.Storage, error) {
	return setupStorage(ctx, cfg)
}

func provideEngine(cfg *config.Config, storage engine.Storage, hub *realtime.Hub, reg *prometheus.Registry, log *slog.Logger) *engine.Engine {
	opts := []quest.Option{
		quest.WithStorage(storage),
		quest.WithRealtime(hub),
		quest.WithLogger(log),
		quest.WithDispatchMode(engine.DispatchAsync),
		quest.WithEngineOptions(
			engine.WithTotalDestinations(cfg.Engine.TotalDestinations),
			engine.WithVisitAward(cfg.Engine.VisitAward),
			engine.WithBadgeAward(cfg.Engine.BadgeAward),
			engine.WithTickInterval(cfg.Engine.TickInterval),
		),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, quest.WithMetrics(reg))
	}
	return quest.New(opts...)
}

func provideHandler(eng *engine.Engine, hub *realtime.Hub, reg *prometheus.Registry, store engine.Storage, cfg *config.Config) http.Handler {
	opts := httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
	}
	if cfg.Metrics.Enabled {
		opts.MetricsRegistry = reg
		opts.MetricsPath = cfg.Metrics.Path
	}
	if sat, ok := store.(engine.SatelliteStore); ok {
		opts.Satellites = sat
	}
	return httpapi.NewRouter(eng, hub, opts)
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	out := os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	var handler slog.Handler
	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
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

// setupStorage creates the persistence adapter named in the configuration.
func setupStorage(_ context.Context, cfg *config.Config) (engine.Storage, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), nil
	case "file":
		return jsonfile.New(cfg.Storage.File.Path), nil
	case "redis":
		return redisAdapter.New(cfg.Storage.Redis)
	case "sql":
		return sqlxAdapter.New(cfg.Storage.SQL)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}
