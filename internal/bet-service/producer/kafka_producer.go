package producer

import (
	"context"
	"time"

	"github.com/radieske/pelada-bet-platform/internal/shared/kafka"
	"github.com/radieske/pelada-bet-platform/pkg/contracts/events"
)

type KafkaPublisher struct {
	pub *kafka.JSONPublisher
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{pub: kafka.NewJSONPublisher(w)}
}

// PublishSlipPlaced usa o slipId como chave
func (p *KafkaPublisher) PublishSlipPlaced(ctx context.Context, e events.SlipPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return p.pub.Publish(ctx, e.SlipID, e)
}
