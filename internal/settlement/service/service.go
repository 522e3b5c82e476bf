// Package service orquestra a liquidação de uma partida: fecha a partida,
// resolve seleções e bilhetes, movimenta a carteira e regrava as notas.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/pelada-bet-platform/internal/league"
	"github.com/radieske/pelada-bet-platform/internal/league/rating"
	"github.com/radieske/pelada-bet-platform/internal/settlement/resolver"
	"github.com/radieske/pelada-bet-platform/internal/settlement/store"
	"github.com/radieske/pelada-bet-platform/pkg/contracts/events"
)

type Store interface {
	FinishMatch(ctx context.Context, m league.Match, scoreA, scoreB int, stats map[string]league.StatLine, absent map[string]bool) error
	StoredResult(ctx context.Context, matchID string) (map[string]league.StatLine, map[string]bool, error)
	PendingSlips(ctx context.Context, matchID string) ([]resolver.Slip, error)
	SaveLeg(ctx context.Context, legID string, status resolver.LegStatus) error
	SaveSlip(ctx context.Context, r resolver.SlipResult) (bool, error)
	UnpaidSlips(ctx context.Context, matchID string) ([]resolver.SlipResult, error)
	MarkPaid(ctx context.Context, slipID string) error
}

type Matches interface {
	GetMatch(ctx context.Context, id string) (league.Match, error)
}

// Wallet movimenta a reserva feita na aposta (external_ref = slipId)
type Wallet interface {
	Commit(ctx context.Context, userID, externalRef string) error
	Refund(ctx context.Context, userID, externalRef string) error
	Credit(ctx context.Context, userID string, cents int64, externalRef string) (bool, error)
}

type Publisher interface {
	PublishSlipSettled(ctx context.Context, ev events.SlipSettled) error
	PublishRatingsUpdated(ctx context.Context, ev events.RatingsUpdated) error
}

// Notifier avisa o websocket do bet-service
type Notifier interface {
	NotifySlipSettled(ctx context.Context, ev events.SlipSettled) error
}

type Service struct {
	Log       *zap.Logger
	Store     Store
	Matches   Matches
	Ratings   rating.Store
	Wallet    Wallet
	Publisher Publisher
	Notifier  Notifier
	Metrics   *Metrics

	Now func() time.Time
}

// Report resume uma liquidação
type Report struct {
	MatchID string                      `json:"matchId"`
	Resumed bool                        `json:"resumed"` // partida já estava FINISHED
	ScoreA  int                         `json:"scoreA"`
	ScoreB  int                         `json:"scoreB"`
	Legs    int                         `json:"legs"`
	Slips   map[resolver.SlipStatus]int `json:"slips"`
	Paid    int                         `json:"paid"`
	Failed  []string                    `json:"failed,omitempty"` // ids de seleção/bilhete com escrita falha
	Ratings rating.Summary              `json:"ratings"`
}

func PayoutRef(slipID string) string { return "payout:" + slipID }

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Settle liquida a partida do evento. Só a primeira chamada grava o placar e
// as estatísticas; as seguintes retomam com o resultado gravado e concluem o
// que ficou pendente (seleções, bilhetes e carteira), sem repetir o que já foi
// feito.
func (s *Service) Settle(ctx context.Context, ev events.MatchResultSubmitted) (Report, error) {
	rep := Report{MatchID: ev.MatchID, Slips: map[resolver.SlipStatus]int{}}

	m, err := s.Matches.GetMatch(ctx, ev.MatchID)
	if err != nil {
		return rep, fmt.Errorf("load match %s: %w", ev.MatchID, err)
	}

	stats, absent := linesFor(m, ev.Lines)
	rep.ScoreA, rep.ScoreB = resolver.Score(m, stats, absent)

	// 1) Guarda: só a primeira liquidação fecha a partida e soma as estatísticas
	err = s.Store.FinishMatch(ctx, m, rep.ScoreA, rep.ScoreB, stats, absent)
	switch {
	case errors.Is(err, store.ErrAlreadySettled):
		if stats, absent, err = s.Store.StoredResult(ctx, m.ID); err != nil {
			return rep, fmt.Errorf("stored result %s: %w", m.ID, err)
		}
		rep.ScoreA, rep.ScoreB = resolver.Score(m, stats, absent)
		rep.Resumed = true
		s.Log.Info("match already finished, resuming settlement", zap.String("match_id", m.ID))
	case err != nil:
		return rep, fmt.Errorf("finish match %s: %w", m.ID, err)
	}

	// 2) Resolve seleções e bilhetes
	slips, err := s.Store.PendingSlips(ctx, m.ID)
	if err != nil {
		return rep, fmt.Errorf("pending slips %s: %w", m.ID, err)
	}
	out := resolver.Resolve(resolver.Input{Match: m, Stats: stats, Absent: absent, Slips: slips})

	unsaved := map[string]bool{}
	for _, l := range out.Legs {
		if err := s.Store.SaveLeg(ctx, l.LegID, l.Status); err != nil {
			s.Log.Warn("leg update failed", zap.String("leg_id", l.LegID), zap.String("status", string(l.Status)), zap.Error(err))
			s.Metrics.failed("leg")
			rep.Failed = append(rep.Failed, l.LegID)
			unsaved[l.SlipID] = true
			continue
		}
		rep.Legs++
		s.Metrics.leg(string(l.Status))
	}

	for _, r := range out.Slips {
		// bilhete com seleção não gravada fica ABERTO até a próxima tentativa
		if !r.Settled() || unsaved[r.SlipID] {
			continue
		}
		applied, err := s.Store.SaveSlip(ctx, r)
		if err != nil {
			s.Log.Warn("slip update failed", zap.String("slip_id", r.SlipID), zap.String("status", string(r.Status)), zap.Error(err))
			s.Metrics.failed("slip")
			rep.Failed = append(rep.Failed, r.SlipID)
			continue
		}
		if applied {
			rep.Slips[r.Status]++
		}
	}

	// 3) Carteira de todo bilhete fechado e ainda não acertado
	unpaid, err := s.Store.UnpaidSlips(ctx, m.ID)
	if err != nil {
		return rep, fmt.Errorf("unpaid slips %s: %w", m.ID, err)
	}
	for _, r := range unpaid {
		if s.pay(ctx, m.ID, r) {
			rep.Paid++
		} else {
			rep.Failed = append(rep.Failed, r.SlipID)
		}
	}

	// 4) Notas de todos os jogadores
	sum, err := rating.Recompute(ctx, s.Ratings, s.Log)
	if err != nil {
		s.Log.Warn("rating recompute failed", zap.String("match_id", m.ID), zap.Error(err))
		s.Metrics.failed("ratings")
	} else {
		rep.Ratings = sum
		s.Metrics.ratingFailures(len(sum.Failed))
		upd := events.RatingsUpdated{MatchID: m.ID, Updated: sum.Updated, Unchanged: sum.Unchanged, Failed: sum.Failed, Ts: s.now().UTC()}
		if err := s.Publisher.PublishRatingsUpdated(ctx, upd); err != nil {
			s.Log.Warn("publish ratings_updated failed", zap.String("match_id", m.ID), zap.Error(err))
		}
	}

	if rep.Resumed {
		s.Metrics.match("resumed")
	} else {
		s.Metrics.match("settled")
	}
	s.Log.Info("match settled",
		zap.String("match_id", m.ID),
		zap.Int("score_a", rep.ScoreA),
		zap.Int("score_b", rep.ScoreB),
		zap.Int("legs", rep.Legs),
		zap.Int("won", rep.Slips[resolver.SlipWon]),
		zap.Int("lost", rep.Slips[resolver.SlipLost]),
		zap.Int("void", rep.Slips[resolver.SlipVoid]),
		zap.Int("paid", rep.Paid),
		zap.Bool("resumed", rep.Resumed),
		zap.Int("failed", len(rep.Failed)),
	)
	return rep, nil
}

// linesFor monta estatísticas e ausências só dos jogadores escalados
func linesFor(m league.Match, lines []events.PlayerLine) (map[string]league.StatLine, map[string]bool) {
	stats := map[string]league.StatLine{}
	absent := map[string]bool{}
	for _, l := range lines {
		if m.Side(l.PlayerID) == "" {
			continue
		}
		if l.Absent {
			absent[l.PlayerID] = true
			continue
		}
		stats[l.PlayerID] = league.StatLine{Goals: l.Goals, Assists: l.Assists, Tackles: l.Tackles, Saves: l.Saves, Fouls: l.Fouls}
	}
	return stats, absent
}

// pay acerta a carteira de um bilhete fechado, marca como pago e publica o
// evento. Devolve false se a carteira ou a marcação falhou; a próxima
// liquidação da partida tenta de novo.
func (s *Service) pay(ctx context.Context, matchID string, r resolver.SlipResult) bool {
	log := s.Log.With(zap.String("slip_id", r.SlipID), zap.String("status", string(r.Status)))

	if err := s.settleWallet(ctx, r); err != nil {
		log.Warn("wallet settlement failed", zap.Int64("payout_cents", r.PayoutCents), zap.Error(err))
		s.Metrics.failed("wallet")
		return false
	}
	if err := s.Store.MarkPaid(ctx, r.SlipID); err != nil {
		log.Warn("mark paid failed", zap.Error(err))
		s.Metrics.failed("paid")
		return false
	}
	s.Metrics.slip(string(r.Status), r.PayoutCents)

	ev := events.SlipSettled{
		SlipID:      r.SlipID,
		UserID:      r.UserID,
		MatchID:     matchID,
		Status:      string(r.Status),
		Odd:         r.Odd,
		StakeCents:  r.StakeCents,
		PayoutCents: r.PayoutCents,
		Ts:          s.now().UTC(),
	}
	if err := s.Publisher.PublishSlipSettled(ctx, ev); err != nil {
		log.Warn("publish slip_settled failed", zap.Error(err))
	}
	if s.Notifier != nil {
		if err := s.Notifier.NotifySlipSettled(ctx, ev); err != nil {
			log.Warn("notify slip_settled failed", zap.Error(err))
		}
	}
	return true
}

// settleWallet: GANHO efetiva a reserva e credita o prêmio, ANULADO devolve a
// reserva, PERDIDO só efetiva. Tudo idempotente pelo external_ref.
func (s *Service) settleWallet(ctx context.Context, r resolver.SlipResult) error {
	switch r.Status {
	case resolver.SlipWon:
		if err := s.Wallet.Commit(ctx, r.UserID, r.SlipID); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		if _, err := s.Wallet.Credit(ctx, r.UserID, r.PayoutCents, PayoutRef(r.SlipID)); err != nil {
			return fmt.Errorf("credit: %w", err)
		}
	case resolver.SlipVoid:
		if err := s.Wallet.Refund(ctx, r.UserID, r.SlipID); err != nil {
			return fmt.Errorf("refund: %w", err)
		}
	case resolver.SlipLost:
		if err := s.Wallet.Commit(ctx, r.UserID, r.SlipID); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}
	return nil
}
