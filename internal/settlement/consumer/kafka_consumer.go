package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/pelada-bet-platform/internal/settlement/service"
	"github.com/radieske/pelada-bet-platform/pkg/contracts/events"
)

type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Settler interface {
	Settle(ctx context.Context, ev events.MatchResultSubmitted) (service.Report, error)
}

// DLQ recebe as mensagens que não puderam ser liquidadas
type DLQ interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Processor consome resultados de partida do Kafka e dispara a liquidação.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa.
type Processor struct {
	Log     *zap.Logger
	Reader  Reader
	Settler Settler
	DLQ     DLQ

	OnConsumed func()               // métricas (counter++)
	OnSettled  func(service.Report) // métricas
	OnError    func(string)         // métricas por fase

	Backoff time.Duration // espera após falha de leitura
}

// Run inicia o loop principal de consumo e liquidação
func (p *Processor) Run(ctx context.Context) error {
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}
		p.handle(ctx, m)
	}
}

func (p *Processor) handle(ctx context.Context, m kafka.Message) {
	var ev events.MatchResultSubmitted
	if err := json.Unmarshal(m.Value, &ev); err != nil || ev.MatchID == "" {
		p.Log.Warn("invalid message", zap.ByteString("key", m.Key), zap.Error(err))
		p.fail("decode")
		p.deadLetter(ctx, m, "decode")
		return
	}

	rep, err := p.Settler.Settle(ctx, ev)
	if err != nil {
		p.Log.Error("settlement failed", zap.String("match_id", ev.MatchID), zap.Error(err))
		p.fail("settle")
		p.deadLetter(ctx, m, err.Error())
		return
	}
	if p.OnSettled != nil {
		p.OnSettled(rep)
	}
}

// deadLetter copia a mensagem para a DLQ com o motivo no header
func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, reason string) {
	if p.DLQ == nil {
		return
	}
	msg := kafka.Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: append(m.Headers, kafka.Header{Key: "dlq_reason", Value: []byte(reason)}),
		Time:    time.Now(),
	}
	if err := p.DLQ.WriteMessages(ctx, msg); err != nil {
		p.Log.Error("dlq write failed", zap.ByteString("key", m.Key), zap.Error(err))
		p.fail("dlq")
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
