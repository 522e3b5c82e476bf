package odds

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	cmarkets "github.com/radieske/pelada-bet-platform/pkg/contracts/markets"
)

// ErrMarketClosed indica que a partida não tem odds abertas para o token
var ErrMarketClosed = errors.New("market closed")

type Validator struct {
	Rdb *redis.Client
}

func NewValidator(r *redis.Client) *Validator { return &Validator{Rdb: r} }

// CurrentOdd lê a odd aberta no hash "odds:{matchId}", campo = token
func (v *Validator) CurrentOdd(ctx context.Context, matchID, token string) (float64, error) {
	val, err := v.Rdb.HGet(ctx, cmarkets.OddsKey(matchID), token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrMarketClosed
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(val, 64)
}
