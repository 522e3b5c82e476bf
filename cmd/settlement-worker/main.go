package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	leaguerepo "github.com/radieske/pelada-bet-platform/internal/league-service/repo"
	"github.com/radieske/pelada-bet-platform/internal/settlement/consumer"
	"github.com/radieske/pelada-bet-platform/internal/settlement/service"
	"github.com/radieske/pelada-bet-platform/internal/settlement/store"
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

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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

	// Consumer Kafka (consumer group settlement-worker) + writers de saída
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicMatchResult, "settlement-worker")
	defer reader.Close()
	settledW := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSlipSettled)
	defer settledW.Close()
	ratingsW := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRatingsUpdated)
	defer ratingsW.Close()
	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchResultDLQ)
	defer dlq.Close()

	league := leaguerepo.NewPostgres(sqlDB)
	svc := &service.Service{
		Log:       log,
		Store:     store.NewPostgres(sqlDB),
		Matches:   league,
		Ratings:   league,
		Wallet:    wallet.New(cfg.WalletURL),
		Publisher: service.NewKafkaPublisher(settledW, ratingsW),
		Notifier:  service.NewRedisNotifier(rdb, cfg.RedisPubSubChannel),
		Metrics:   service.NewMetrics(prometheus.DefaultRegisterer),
	}

	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_messages_consumed_total", Help: "mensagens consumidas"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, errorsBy)

	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Settler:    svc,
		DLQ:        dlq,
		OnConsumed: func() { consumed.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, metrics.All(
		metrics.Check{Name: "db", Fn: sqlDB.PingContext},
		metrics.Check{Name: "redis", Fn: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	))
	defer metricsSrv.Close()

	log.Info("settlement-worker started", zap.String("topic", cfg.TopicMatchResult))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("settlement-worker stopped")
}
