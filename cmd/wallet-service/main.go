package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	sharedcache "github.com/radieske/pool-bet-platform/internal/shared/cache"
	"github.com/radieske/pool-bet-platform/internal/shared/config"
	"github.com/radieske/pool-bet-platform/internal/shared/db"
	"github.com/radieske/pool-bet-platform/internal/shared/logger"
	"github.com/radieske/pool-bet-platform/internal/shared/metrics"
	whttp "github.com/radieske/pool-bet-platform/internal/wallet-service/http"
	wrepo "github.com/radieske/pool-bet-platform/internal/wallet-service/repo"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("wallet-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "wallet-service"), zap.String("env", cfg.Env))

	// Postgres guarda carteiras e extrato
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis guarda a projeção wallet_<userId> lida pelo front
	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	repo := wrepo.NewPostgres(pg, wrepo.NewSnapshots(redisClient), log)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.Init(initCtx); err != nil {
		log.Fatal("schema init", zap.Error(err))
	}

	prometheus.MustRegister(metrics.WalletOps, metrics.WalletRejections)

	api := whttp.NewServer(log, repo)
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort, // ex: 8082
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
