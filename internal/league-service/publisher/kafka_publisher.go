package publisher

import (
	"context"

	"github.com/radieske/pelada-bet-platform/internal/shared/kafka"
	"github.com/radieske/pelada-bet-platform/pkg/contracts/events"
)

// ResultPublisher envia o resultado informado pelo admin para a liquidação
type ResultPublisher struct {
	pub *kafka.JSONPublisher
}

func New(w *kafka.Writer) *ResultPublisher {
	return &ResultPublisher{pub: kafka.NewJSONPublisher(w)}
}

// PublishMatchResult usa o matchId como chave, mantendo a ordem por partida
func (p *ResultPublisher) PublishMatchResult(ctx context.Context, ev events.MatchResultSubmitted) error {
	return p.pub.Publish(ctx, ev.MatchID, ev)
}
