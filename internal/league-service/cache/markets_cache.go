package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/pelada-bet-platform/internal/league/markets"
	scache "github.com/radieske/pelada-bet-platform/internal/shared/cache"
	cmarkets "github.com/radieske/pelada-bet-platform/pkg/contracts/markets"
)

// Cache guarda a grade de mercados por jogador e publica as odds abertas
// de cada partida para o bet-service validar os palpites.
type Cache struct {
	R   *redis.Client
	TTL time.Duration

	json *scache.JSON
}

func New(r *redis.Client, ttl time.Duration) *Cache {
	return &Cache{R: r, TTL: ttl, json: scache.NewJSON(r)}
}

// GetPlayerMarkets lê a grade em cache; ok=false quando expirou
func (c *Cache) GetPlayerMarkets(ctx context.Context, playerID string, dst *[]markets.Line) (bool, error) {
	return c.json.Get(ctx, cmarkets.PlayerMarketsKey(playerID), dst)
}

func (c *Cache) SetPlayerMarkets(ctx context.Context, playerID string, lines []markets.Line) error {
	return c.json.Set(ctx, cmarkets.PlayerMarketsKey(playerID), lines, c.TTL)
}

// InvalidatePlayers descarta a grade dos jogadores (ex.: após recalcular notas)
func (c *Cache) InvalidatePlayers(ctx context.Context, ids ...string) error {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cmarkets.PlayerMarketsKey(id)
	}
	return c.json.Delete(ctx, keys...)
}

// PublishMatchOdds substitui o hash de odds abertas da partida
func (c *Cache) PublishMatchOdds(ctx context.Context, matchID string, odds map[string]float64) error {
	key := cmarkets.OddsKey(matchID)
	fields := make(map[string]any, len(odds))
	for token, odd := range odds {
		fields[token] = strconv.FormatFloat(odd, 'f', 2, 64)
	}

	pipe := c.R.TxPipeline()
	pipe.Del(ctx, key)
	if len(fields) > 0 {
		pipe.HSet(ctx, key, fields)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// CloseMatchOdds remove as odds abertas; apostas novas passam a ser recusadas
func (c *Cache) CloseMatchOdds(ctx context.Context, matchID string) error {
	return c.R.Del(ctx, cmarkets.OddsKey(matchID)).Err()
}
