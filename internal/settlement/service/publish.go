package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/pelada-bet-platform/internal/shared/kafka"
	"github.com/radieske/pelada-bet-platform/pkg/contracts/events"
)

// KafkaPublisher publica slip_settled (chave slipId) e ratings_updated (chave matchId)
type KafkaPublisher struct {
	settled *kafka.JSONPublisher
	ratings *kafka.JSONPublisher
}

func NewKafkaPublisher(settled, ratings *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{settled: kafka.NewJSONPublisher(settled), ratings: kafka.NewJSONPublisher(ratings)}
}

func (p *KafkaPublisher) PublishSlipSettled(ctx context.Context, ev events.SlipSettled) error {
	return p.settled.Publish(ctx, ev.SlipID, ev)
}

func (p *KafkaPublisher) PublishRatingsUpdated(ctx context.Context, ev events.RatingsUpdated) error {
	return p.ratings.Publish(ctx, ev.MatchID, ev)
}

// RedisNotifier repassa o bilhete fechado ao canal lido pelo websocket
type RedisNotifier struct {
	R       *redis.Client
	Channel string
}

func NewRedisNotifier(r *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{R: r, Channel: channel}
}

func (n *RedisNotifier) NotifySlipSettled(ctx context.Context, ev events.SlipSettled) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.R.Publish(ctx, n.Channel, b).Err()
}
