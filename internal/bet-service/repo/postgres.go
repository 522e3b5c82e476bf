package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("slip not found")

// Postgres implementa operações de persistência de bilhetes
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de bilhetes
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// CreateSlip grava o bilhete ABERTO e as seleções PENDING na mesma transação.
// Os ids são gerados aqui e preenchidos em s.
func (p *Postgres) CreateSlip(ctx context.Context, s *Slip) (string, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	s.ID = uuid.NewString()
	s.Status = "ABERTO"
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO slips (id, user_id, type, stake_cents, odd, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		s.ID, s.UserID, s.Type, s.StakeCents, s.Odd, s.Status); err != nil {
		return "", fmt.Errorf("insert slip: %w", err)
	}

	for i := range s.Legs {
		l := &s.Legs[i]
		l.ID = uuid.NewString()
		l.Status = "PENDING"
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO slip_legs (id, slip_id, match_id, detail, odd, status, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			l.ID, s.ID, l.MatchID, l.Detail, l.Odd, l.Status, i); err != nil {
			return "", fmt.Errorf("insert leg %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return s.ID, nil
}

// DeleteSlip desfaz um bilhete cuja reserva na carteira falhou
func (p *Postgres) DeleteSlip(ctx context.Context, id string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM slip_legs WHERE slip_id=$1`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM slips WHERE id=$1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

const slipCols = `id, user_id, type, stake_cents, odd, status, payout_cents, created_at`

// GetSlip retorna o bilhete com as seleções na ordem em que foram feitas
func (p *Postgres) GetSlip(ctx context.Context, id string) (Slip, error) {
	var s Slip
	err := p.db.QueryRowContext(ctx, `SELECT `+slipCols+` FROM slips WHERE id=$1`, id).
		Scan(&s.ID, &s.UserID, &s.Type, &s.StakeCents, &s.Odd, &s.Status, &s.PayoutCents, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Slip{}, ErrNotFound
	}
	if err != nil {
		return Slip{}, err
	}
	if s.Legs, err = p.legs(ctx, id); err != nil {
		return Slip{}, err
	}
	return s, nil
}

func (p *Postgres) legs(ctx context.Context, slipID string) ([]Leg, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, match_id, detail, odd, status FROM slip_legs WHERE slip_id=$1 ORDER BY position`, slipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Leg
	for rows.Next() {
		var l Leg
		if err := rows.Scan(&l.ID, &l.MatchID, &l.Detail, &l.Odd, &l.Status); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListByUser retorna os bilhetes do usuário, mais recentes primeiro
func (p *Postgres) ListByUser(ctx context.Context, userID string) ([]Slip, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+slipCols+` FROM slips WHERE user_id=$1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	out := []Slip{}
	for rows.Next() {
		var s Slip
		if err := rows.Scan(&s.ID, &s.UserID, &s.Type, &s.StakeCents, &s.Odd, &s.Status, &s.PayoutCents, &s.CreatedAt); err != nil {
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
			return nil, err
		}
	}
	return out, nil
}
