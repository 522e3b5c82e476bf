// Package store persiste a liquidação: fechamento da partida, estatísticas
// dos jogadores e o novo estado de seleções e bilhetes.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/radieske/pelada-bet-platform/internal/league"
	"github.com/radieske/pelada-bet-platform/internal/settlement/resolver"
)

var (
	ErrNotFound       = errors.New("match not found")
	ErrAlreadySettled = errors.New("match already settled")
	ErrNotSettleable  = errors.New("match cannot be settled in its current status")
)

type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// FinishMatch grava FINISHED com o placar e soma a partida aos contadores dos
// jogadores presentes, tudo numa transação. Só a primeira chamada por partida
// passa; as seguintes recebem ErrAlreadySettled.
func (p *Postgres) FinishMatch(ctx context.Context, m league.Match, scoreA, scoreB int, stats map[string]league.StatLine, absent map[string]bool) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE matches SET status='FINISHED', score_a=$1, score_b=$2, finished_at=CURRENT_TIMESTAMP
		WHERE id=$3 AND status IN ('SCHEDULED','LIVE')`, scoreA, scoreB, m.ID)
	if err != nil {
		return fmt.Errorf("finish match: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return whyNotFinished(ctx, tx, m.ID)
	}

	for _, id := range append(append([]string{}, m.RosterA...), m.RosterB...) {
		line := stats[id]
		if err := insertStats(ctx, tx, m.ID, id, line, absent[id]); err != nil {
			return fmt.Errorf("stats %s: %w", id, err)
		}
		if absent[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE players SET games = games + 1, goals = goals + $1, assists = assists + $2,
				tackles = tackles + $3, saves = saves + $4, fouls = fouls + $5, updated_at = CURRENT_TIMESTAMP
			WHERE id=$6`, line.Goals, line.Assists, line.Tackles, line.Saves, line.Fouls, id); err != nil {
			return fmt.Errorf("player %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func whyNotFinished(ctx context.Context, q execer, matchID string) error {
	var status string
	err := q.QueryRowContext(ctx, `SELECT status FROM matches WHERE id=$1`, matchID).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case err != nil:
		return err
	case status == string(league.MatchFinished):
		return ErrAlreadySettled
	}
	return fmt.Errorf("%w: %s", ErrNotSettleable, status)
}

func insertStats(ctx context.Context, q execer, matchID, playerID string, l league.StatLine, absent bool) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO match_stats (match_id, player_id, goals, assists, tackles, saves, fouls, absent)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		matchID, playerID, l.Goals, l.Assists, l.Tackles, l.Saves, l.Fouls, absent)
	return err
}

// StoredResult lê as linhas gravadas por FinishMatch
func (p *Postgres) StoredResult(ctx context.Context, matchID string) (map[string]league.StatLine, map[string]bool, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT player_id, goals, assists, tackles, saves, fouls, absent
		FROM match_stats WHERE match_id=$1`, matchID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	stats := map[string]league.StatLine{}
	absent := map[string]bool{}
	for rows.Next() {
		var (
			id  string
			l   league.StatLine
			out bool
		)
		if err := rows.Scan(&id, &l.Goals, &l.Assists, &l.Tackles, &l.Saves, &l.Fouls, &out); err != nil {
			return nil, nil, err
		}
		if out {
			absent[id] = true
			continue
		}
		stats[id] = l
	}
	return stats, absent, rows.Err()
}

// PendingSlips devolve os bilhetes abertos com alguma seleção da partida,
// cada um com todas as suas seleções (inclusive de outras partidas). Seleções
// já gravadas voltam com o status atual, o que permite retomar uma liquidação
// interrompida.
func (p *Postgres) PendingSlips(ctx context.Context, matchID string) ([]resolver.Slip, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT s.id, s.user_id, s.stake_cents, s.status
		FROM slips s
		WHERE s.status='ABERTO' AND EXISTS (
			SELECT 1 FROM slip_legs l WHERE l.slip_id = s.id AND l.match_id=$1
		)
		ORDER BY s.created_at, s.id`, matchID)
	if err != nil {
		return nil, err
	}
	var out []resolver.Slip
	for rows.Next() {
		var s resolver.Slip
		if err := rows.Scan(&s.ID, &s.UserID, &s.StakeCents, &s.Status); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Legs, err = p.legs(ctx, out[i].ID); err != nil {
			return nil, fmt.Errorf("legs of %s: %w", out[i].ID, err)
		}
	}
	return out, nil
}

func (p *Postgres) legs(ctx context.Context, slipID string) ([]resolver.Leg, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, match_id, detail, odd, status FROM slip_legs WHERE slip_id=$1 ORDER BY position`, slipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []resolver.Leg
	for rows.Next() {
		var l resolver.Leg
		if err := rows.Scan(&l.ID, &l.MatchID, &l.Token, &l.Odd, &l.Status); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// SaveLeg grava o resultado de uma seleção ainda pendente
func (p *Postgres) SaveLeg(ctx context.Context, legID string, status resolver.LegStatus) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE slip_legs SET status=$1 WHERE id=$2 AND status='PENDING'`, string(status), legID)
	return err
}

// SaveSlip fecha um bilhete aberto. applied=false se ele já estava fechado.
func (p *Postgres) SaveSlip(ctx context.Context, r resolver.SlipResult) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE slips SET status=$1, odd=$2, payout_cents=$3, updated_at=CURRENT_TIMESTAMP
		WHERE id=$4 AND status='ABERTO'`, string(r.Status), r.Odd, r.PayoutCents, r.SlipID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UnpaidSlips devolve os bilhetes fechados com seleção na partida cuja
// carteira ainda não foi acertada
func (p *Postgres) UnpaidSlips(ctx context.Context, matchID string) ([]resolver.SlipResult, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT s.id, s.user_id, s.status, s.odd, s.stake_cents, s.payout_cents
		FROM slips s
		WHERE s.status <> 'ABERTO' AND s.wallet_done = FALSE AND EXISTS (
			SELECT 1 FROM slip_legs l WHERE l.slip_id = s.id AND l.match_id=$1
		)
		ORDER BY s.created_at, s.id`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []resolver.SlipResult
	for rows.Next() {
		var r resolver.SlipResult
		if err := rows.Scan(&r.SlipID, &r.UserID, &r.Status, &r.Odd, &r.StakeCents, &r.PayoutCents); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkPaid registra que a carteira do bilhete foi acertada
func (p *Postgres) MarkPaid(ctx context.Context, slipID string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE slips SET wallet_done = TRUE, updated_at=CURRENT_TIMESTAMP WHERE id=$1`, slipID)
	return err
}
