package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/pool-bet-platform/internal/pool-settlement/consumer"
	srepo "github.com/radieske/pool-bet-platform/internal/pool-settlement/repo"
	"github.com/radieske/pool-bet-platform/internal/shared/config"
	"github.com/radieske/pool-bet-platform/internal/shared/db"
	sharedkafka "github.com/radieske/pool-bet-platform/internal/shared/kafka"
	"github.com/radieske/pool-bet-platform/internal/shared/logger"
	"github.com/radieske/pool-bet-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	repo := srepo.NewPostgres(pg)

	// consumer group pool-settlement: cada resultado é entregue uma vez
	// por grupo, mesmo com múltiplas réplicas do worker
	reader := sharedkafka.NewReader(cfg.KafkaBrokers, cfg.TopicMatchResults, "pool-settlement")
	defer reader.Close()

	resolvedWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPoolResolved)
	defer resolvedWriter.Close()

	var dlqWriter *sharedkafka.Writer
	if cfg.TopicMatchResultsDLQ != "" {
		dlqWriter = sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchResultsDLQ)
		defer dlqWriter.Close()
	}

	consumed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_messages_consumed_total",
		Help: "Resultados de partida consumidos",
	})
	prometheus.MustRegister(consumed, metrics.PoolsSettled, metrics.SettlementErrors)

	proc := &consumer.Processor{
		Log:      log,
		Reader:   reader,
		Repo:     repo,
		Resolved: resolvedWriter,
		DLQ:      dlqWriter,

		OnConsumed: func() { consumed.Inc() },
		OnSettled:  func() { metrics.PoolsSettled.Inc() },
		OnError:    func(stage string) { metrics.SettlementErrors.WithLabelValues(stage).Inc() },
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return repo.Ping(ctx)
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("pool-settlement-worker started",
		zap.String("consume", cfg.TopicMatchResults),
		zap.String("publish", cfg.TopicPoolResolved),
	)
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("pool-settlement-worker stopped")
}
