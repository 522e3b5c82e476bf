package rating

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/pelada-bet-platform/internal/league"
)

// Store é o mínimo que a regravação de notas precisa do repositório
type Store interface {
	ListPlayers(ctx context.Context) ([]league.Player, error)
	UpdateRating(ctx context.Context, playerID string, rating float64) error
}

// Summary resume uma rodada de regravação
type Summary struct {
	Updated   int      `json:"updated"`
	Unchanged int      `json:"unchanged"`
	Failed    []string `json:"failed,omitempty"`
}

// Recompute recalcula e grava a nota de todos os jogadores.
// Cada update é independente: uma falha é logada e o laço continua, sem retry.
func Recompute(ctx context.Context, s Store, log *zap.Logger) (Summary, error) {
	players, err := s.ListPlayers(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list players: %w", err)
	}

	var sum Summary
	for _, p := range players {
		r := Rate(p.Stats)
		if r == p.Rating {
			sum.Unchanged++
			continue
		}
		if err := s.UpdateRating(ctx, p.ID, r); err != nil {
			log.Warn("rating update failed", zap.String("playerId", p.ID), zap.Float64("rating", r), zap.Error(err))
			sum.Failed = append(sum.Failed, p.ID)
			continue
		}
		sum.Updated++
	}

	log.Info("ratings recomputed",
		zap.Int("updated", sum.Updated),
		zap.Int("unchanged", sum.Unchanged),
		zap.Int("failed", len(sum.Failed)),
	)
	return sum, nil
}
