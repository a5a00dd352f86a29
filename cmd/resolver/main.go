package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lexiconlabs/resolution-platform/internal/events"
	"github.com/lexiconlabs/resolution-platform/internal/resolver"
	"github.com/lexiconlabs/resolution-platform/internal/resolver/consumer"
	"github.com/lexiconlabs/resolution-platform/internal/tierindex"
	"github.com/lexiconlabs/resolution-platform/internal/vocab"
	"github.com/lexiconlabs/resolution-platform/pkg/config"
	"github.com/lexiconlabs/resolution-platform/pkg/kafka"
	"github.com/lexiconlabs/resolution-platform/pkg/logger"
	"github.com/lexiconlabs/resolution-platform/pkg/metrics"
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
	slog.Info("starting resolver service")

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
	err = resilience.WithTimeout(ctx, 30*time.Second, "ensure-schema", func(ctx context.Context) error {
		return store.EnsureSchema(ctx)
	})
	if err != nil {
		slog.Error("failed to ensure vocab schema", "error", err)
		os.Exit(1)
	}

	assembly, err := buildAssembly(ctx, store, cfg.Resolver)
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
	minter := vocab.NewMinter(store, cache).WithMetrics(m)

	resolvedProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.RunsResolved)
	defer resolvedProducer.Close()
	mintProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.VocabMint)
	defer mintProducer.Close()
	publisher := events.NewPublisher(resolvedProducer, mintProducer)

	handler := consumer.HandleMessage(orch, minter, publisher, m)
	kafkaConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, handler)
	resolveConsumer := consumer.New(kafkaConsumer)

	slog.Info("resolver service ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.DocumentIngest,
		"group", cfg.Kafka.ConsumerGroup,
		"arenas", orch.ArenaCount(),
	)

	if err := resolveConsumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}

	slog.Info("resolver service stopped")
}

// buildAssembly loads the bond table and vocabulary and builds the tiered
// index, retrying transient store failures.
func buildAssembly(ctx context.Context, store *vocab.Store, cfg config.ResolverConfig) (*tierindex.Assembly, error) {
	var assembly *tierindex.Assembly
	err := resilience.Retry(ctx, "vocab-load", resilience.RetryConfig{MaxAttempts: 5}, func() error {
		bonds, err := store.LoadBondTable(ctx)
		if err != nil {
			return err
		}
		assembly, err = tierindex.Build(bonds, store.Iterator(ctx), tierindex.TierCaps{
			Tier0: cfg.Tier0Max,
			Tier1: cfg.Tier1Max,
			Tier2: cfg.Tier2Max,
		})
		return err
	})
	return assembly, err
}
