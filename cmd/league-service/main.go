package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	lcache "github.com/radieske/pelada-bet-platform/internal/league-service/cache"
	httpapi "github.com/radieske/pelada-bet-platform/internal/league-service/http"
	"github.com/radieske/pelada-bet-platform/internal/league-service/publisher"
	"github.com/radieske/pelada-bet-platform/internal/league-service/repo"
	"github.com/radieske/pelada-bet-platform/internal/league-service/scheduler"
	"github.com/radieske/pelada-bet-platform/internal/shared/cache"
	"github.com/radieske/pelada-bet-platform/internal/shared/config"
	"github.com/radieske/pelada-bet-platform/internal/shared/db"
	"github.com/radieske/pelada-bet-platform/internal/shared/kafka"
	"github.com/radieske/pelada-bet-platform/internal/shared/logger"
	"github.com/radieske/pelada-bet-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Banco (postgres | pgx | sqlite3)
	sqlDB, err := db.Connect(cfg.DBDriver, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := db.Migrate(ctx, sqlDB); err != nil {
		log.Fatal("db migrate", zap.Error(err))
	}

	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (topic match_result_submitted)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchResult)
	defer writer.Close()

	repository := repo.NewPostgres(sqlDB)
	marketsCache := lcache.New(rdb, cfg.MarketsCacheTTL)

	// Métricas Prometheus da escalação
	lineupSeconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "league_lineup_duration_seconds",
		Help:    "tempo de busca da escalação",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{"mode", "result"})
	prometheus.MustRegister(lineupSeconds)

	api := &httpapi.API{
		Repo:      repository,
		Cache:     marketsCache,
		Publisher: publisher.New(writer),
		Log:       log,
		OnLineup: func(mode string, took time.Duration, err error) {
			result := "ok"
			if err != nil {
				result = "error"
			}
			lineupSeconds.WithLabelValues(mode, result).Observe(took.Seconds())
		},
	}

	// Agenda de kickoff: SCHEDULED -> LIVE
	kickoff, err := scheduler.NewKickoff(repository, marketsCache, log, cfg.KickoffScanInterval)
	if err != nil {
		log.Fatal("kickoff scheduler", zap.Error(err))
	}
	if err := kickoff.Start(); err != nil {
		log.Fatal("kickoff start", zap.Error(err))
	}
	defer kickoff.Stop()

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, metrics.All(
		metrics.Check{Name: "db", Fn: sqlDB.PingContext},
		metrics.Check{Name: "redis", Fn: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	))
	defer metricsSrv.Close()

	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = apiSrv.Shutdown(shutdownCtx)
	}()

	log.Info("league-service listening", zap.String("addr", apiSrv.Addr), zap.String("db_driver", cfg.DBDriver))
	if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("api", zap.Error(err))
	}
	log.Info("league-service stopped")
}
