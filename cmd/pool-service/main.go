package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	pcache "github.com/radieske/pool-bet-platform/internal/pool-service/cache"
	phttp "github.com/radieske/pool-bet-platform/internal/pool-service/http"
	"github.com/radieske/pool-bet-platform/internal/pool-service/producer"
	prepo "github.com/radieske/pool-bet-platform/internal/pool-service/repo"
	"github.com/radieske/pool-bet-platform/internal/pool-service/wallet"
	sharedcache "github.com/radieske/pool-bet-platform/internal/shared/cache"
	"github.com/radieske/pool-bet-platform/internal/shared/config"
	"github.com/radieske/pool-bet-platform/internal/shared/db"
	sharedkafka "github.com/radieske/pool-bet-platform/internal/shared/kafka"
	"github.com/radieske/pool-bet-platform/internal/shared/logger"
	"github.com/radieske/pool-bet-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("pool-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "pool-service"), zap.String("env", cfg.Env))

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	repo := prepo.NewPostgres(pg)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.Init(initCtx); err != nil {
		log.Fatal("schema init", zap.Error(err))
	}

	// writers de eventos do ciclo de vida do pool
	joinedW := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPoolJoined)
	defer joinedW.Close()
	withdrawnW := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPoolWithdrawn)
	defer withdrawnW.Close()
	claimedW := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWinningsClaimed)
	defer claimedW.Close()
	publ := producer.NewKafkaPublisher(joinedW, withdrawnW, claimedW)

	wcli := wallet.New(cfg.WalletURL)
	catalogCache := pcache.New(redisClient)

	prometheus.MustRegister(metrics.PoolJoins, metrics.PoolWithdrawals, metrics.WalletRejections)

	api := phttp.NewServer(log, repo, wcli, publ, catalogCache,
		time.Duration(cfg.CatalogCacheTTLSeconds)*time.Second, cfg.DefaultPageSize)
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort, // ex: 8083
		Handler: api.Router(),
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := repo.Ping(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})

	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
