package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/pelada-bet-platform/pkg/contracts/events"
)

// StartRedisSubscriber escuta o canal de bilhetes liquidados e repassa cada
// mensagem ao dono do bilhete conectado no Hub.
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub *Hub, log *zap.Logger) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close() // encerra a inscrição ao finalizar o contexto
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				upd, err := decodeSettled(msg.Payload)
				if err != nil {
					log.Warn("ws subscriber unmarshal error", zap.Error(err))
					continue
				}
				hub.Broadcast(upd)
			}
		}
	}()
}

func decodeSettled(payload string) (SlipUpdate, error) {
	var ev events.SlipSettled
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return SlipUpdate{}, err
	}
	return SlipUpdate{UserID: ev.UserID, Payload: ev}, nil
}
