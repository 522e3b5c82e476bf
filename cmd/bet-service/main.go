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

	bhttp "github.com/radieske/pelada-bet-platform/internal/bet-service/http"
	"github.com/radieske/pelada-bet-platform/internal/bet-service/odds"
	kpub "github.com/radieske/pelada-bet-platform/internal/bet-service/producer"
	"github.com/radieske/pelada-bet-platform/internal/bet-service/repo"
	"github.com/radieske/pelada-bet-platform/internal/bet-service/ws"
	"github.com/radieske/pelada-bet-platform/internal/shared/cache"
	"github.com/radieske/pelada-bet-platform/internal/shared/config"
	"github.com/radieske/pelada-bet-platform/internal/shared/db"
	"github.com/radieske/pelada-bet-platform/internal/shared/kafka"
	"github.com/radieske/pelada-bet-platform/internal/shared/logger"
	"github.com/radieske/pelada-bet-platform/internal/shared/metrics"
	"github.com/radieske/pelada-bet-platform/internal/shared/wallet"
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

	// Kafka writer (topic slip_placed)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSlipPlaced)
	defer writer.Close()

	// WebSocket: bilhetes liquidados chegam via Redis Pub/Sub
	hub := ws.NewHub(func(r *http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, rdb, cfg.RedisPubSubChannel, hub, log)

	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bet_slips_total",
		Help: "tentativas de aposta por resultado (PLACED ou código do erro)",
	}, []string{"result"})
	prometheus.MustRegister(placed)

	api := bhttp.NewServer(log, repo.NewPostgres(sqlDB), odds.NewValidator(rdb), wallet.New(cfg.WalletURL), kpub.NewKafkaPublisher(writer), hub.HandleWS)
	api.OnPlaced = func(result string) { placed.WithLabelValues(result).Inc() }

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

	log.Info("bet-service listening", zap.String("addr", apiSrv.Addr), zap.String("wallet", cfg.WalletURL))
	if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("api", zap.Error(err))
	}
	log.Info("bet-service stopped")
}
