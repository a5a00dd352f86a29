package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lexiconlabs/resolution-platform/internal/resolver"
	"github.com/lexiconlabs/resolution-platform/internal/resolver/handler"
	"github.com/lexiconlabs/resolution-platform/internal/tierindex"
	"github.com/lexiconlabs/resolution-platform/internal/vocab"
	"github.com/lexiconlabs/resolution-platform/pkg/config"
	"github.com/lexiconlabs/resolution-platform/pkg/health"
	"github.com/lexiconlabs/resolution-platform/pkg/logger"
	"github.com/lexiconlabs/resolution-platform/pkg/metrics"
	"github.com/lexiconlabs/resolution-platform/pkg/middleware"
	"github.com/lexiconlabs/resolution-platform/pkg/postgres"
	"github.com/lexiconlabs/resolution-platform/pkg/redis"
	"github.com/lexiconlabs/resolution-platform/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting resolve API service", "port", cfg.Server.Port)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetrics(ctx)
		}()
	}

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := vocab.NewStore(db)
	var assembly *tierindex.Assembly
	err = resilience.Retry(ctx, "vocab-load", resilience.RetryConfig{MaxAttempts: 5}, func() error {
		bonds, err := store.LoadBondTable(ctx)
		if err != nil {
			return err
		}
		assembly, err = tierindex.Build(bonds, store.Iterator(ctx), tierindex.TierCaps{
			Tier0: cfg.Resolver.Tier0Max,
			Tier1: cfg.Resolver.Tier1Max,
			Tier2: cfg.Resolver.Tier2Max,
		})
		return err
	})
	if err != nil {
		slog.Error("failed to build tier assembly", "error", err)
		os.Exit(1)
	}

	orch := resolver.NewOrchestrator(assembly, cfg.Resolver)
	if m != nil {
		m.ActiveArenas.Set(float64(orch.ArenaCount()))
	}

	var redisClient *redis.Client
	if rc, err := redis.NewClient(cfg.Redis); err != nil {
		slog.Warn("redis unavailable, token cache runs LRU-only", "error", err)
	} else {
		redisClient = rc
		defer redisClient.Close()
	}
	cache, err := vocab.NewTokenCache(store, redisClient, cfg.Vocab)
	if err != nil {
		slog.Error("failed to create token cache", "error", err)
		os.Exit(1)
	}
	cache.WithMetrics(m)

	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := db.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	if redisClient != nil {
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			if err := redisClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	h := handler.New(orch, m)
	vh := handler.NewVocabHandler(cache)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", checker.LiveHandler())
	mux.HandleFunc("/readyz", checker.ReadyHandler())
	mux.Handle("/v1/resolve", http.HandlerFunc(h.Resolve))
	mux.Handle("/v1/token", http.HandlerFunc(vh.Token))

	var root http.Handler = mux
	root = middleware.Timeout(cfg.Server.RequestTimeout)(root)
	if m != nil {
		root = middleware.Metrics(m)(root)
	}
	root = middleware.RequestID()(root)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("resolve API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	slog.Info("resolve API stopped")
}
