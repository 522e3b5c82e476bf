package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Postgres implementa operações de carteira em banco.
// Sem FOR UPDATE: débitos e mudanças de status são UPDATEs condicionais,
// o que vale tanto no Postgres quanto no SQLite.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
)

// Status das reservas
const (
	ReservationPending   = "PENDING"
	ReservationCommitted = "COMMITTED"
	ReservationRefunded  = "REFUNDED"
)

// LedgerEntry é uma linha do extrato
type LedgerEntry struct {
	ID          string `json:"id"`
	Operation   string `json:"operation"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// walletFor devolve o id da carteira do usuário, criando se não existir
func walletFor(ctx context.Context, q execer, userID string) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, `SELECT id FROM wallets WHERE user_id=$1`, userID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	id = uuid.NewString()
	if _, err = q.ExecContext(ctx,
		`INSERT INTO wallets(id, user_id, balance_cents, version) VALUES($1,$2,0,1)`, id, userID); err != nil {
		return "", fmt.Errorf("create wallet: %w", err)
	}
	return id, nil
}

func existingWallet(ctx context.Context, q execer, userID string) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, `SELECT id FROM wallets WHERE user_id=$1`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return id, err
}

func balanceOf(ctx context.Context, q execer, walletID string) (int64, error) {
	var bal int64
	err := q.QueryRowContext(ctx, `SELECT balance_cents FROM wallets WHERE id=$1`, walletID).Scan(&bal)
	return bal, err
}

func ledger(ctx context.Context, q execer, walletID, op string, amount int64, desc string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO wallet_ledger(id, wallet_id, operation_type, amount_cents, description)
		VALUES($1,$2,$3,$4,$5)`, uuid.NewString(), walletID, op, amount, desc)
	return err
}

// GetOrCreateWallet retorna o walletId e saldo de um usuário, criando a carteira se não existir
func (p *Postgres) GetOrCreateWallet(ctx context.Context, userID string) (walletID string, balance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	if walletID, err = walletFor(ctx, tx, userID); err != nil {
		return "", 0, err
	}
	if balance, err = balanceOf(ctx, tx, walletID); err != nil {
		return "", 0, err
	}
	return walletID, balance, tx.Commit()
}

// Deposit credita saldo. Sem externalRef cada chamada é um depósito novo.
func (p *Postgres) Deposit(ctx context.Context, userID string, amount int64, externalRef string) (walletID string, newBalance int64, err error) {
	if externalRef == "" {
		externalRef = uuid.NewString()
	}
	walletID, newBalance, _, err = p.credit(ctx, userID, amount, "deposit:"+externalRef, "CREDIT")
	return walletID, newBalance, err
}

// Credit paga um prêmio. Idempotente por externalRef: a segunda chamada
// devolve applied=false e não altera o saldo.
func (p *Postgres) Credit(ctx context.Context, userID string, amount int64, externalRef string) (walletID string, newBalance int64, applied bool, err error) {
	return p.credit(ctx, userID, amount, externalRef, "PAYOUT")
}

func (p *Postgres) credit(ctx context.Context, userID string, amount int64, ref, op string) (string, int64, bool, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, false, err
	}
	defer tx.Rollback()

	walletID, err := walletFor(ctx, tx, userID)
	if err != nil {
		return "", 0, false, err
	}

	var seen string
	err = tx.QueryRowContext(ctx, `SELECT id FROM wallet_credits WHERE external_ref=$1`, ref).Scan(&seen)
	switch {
	case err == nil:
		bal, err := balanceOf(ctx, tx, walletID)
		if err != nil {
			return "", 0, false, err
		}
		return walletID, bal, false, tx.Commit()
	case !errors.Is(err, sql.ErrNoRows):
		return "", 0, false, err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_credits(id, wallet_id, external_ref, amount_cents) VALUES($1,$2,$3,$4)`,
		uuid.NewString(), walletID, ref, amount); err != nil {
		return "", 0, false, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE wallets SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`, amount, walletID); err != nil {
		return "", 0, false, err
	}
	if err = ledger(ctx, tx, walletID, op, amount, ref); err != nil {
		return "", 0, false, err
	}

	bal, err := balanceOf(ctx, tx, walletID)
	if err != nil {
		return "", 0, false, err
	}
	return walletID, bal, true, tx.Commit()
}

// Reserve cria uma reserva PENDING e debita saldo (bloqueio).
// Idempotente por (wallet_id, external_ref).
func (p *Postgres) Reserve(ctx context.Context, userID string, amount int64, externalRef string) (reservationID string, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	walletID, err := existingWallet(ctx, tx, userID)
	if err != nil {
		return "", err
	}

	// Idempotência: verifica se já existe reserva para o mesmo external_ref
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM wallet_reservations WHERE wallet_id=$1 AND external_ref=$2`, walletID, externalRef).Scan(&reservationID)
	if err == nil {
		return reservationID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	// débito condicional: não passa se o saldo não cobre
	res, err := tx.ExecContext(ctx, `
		UPDATE wallets SET balance_cents = balance_cents - $1, version = version + 1
		WHERE id=$2 AND balance_cents >= $3`, amount, walletID, amount)
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", ErrInsufficientFunds
	}

	reservationID = uuid.NewString()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_reservations(id, wallet_id, external_ref, amount_cents, status)
		VALUES($1,$2,$3,$4,$5)`, reservationID, walletID, externalRef, amount, ReservationPending); err != nil {
		return "", err
	}
	if err = ledger(ctx, tx, walletID, "RESERVE", amount, "reserve:"+externalRef); err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return reservationID, nil
}

type reservation struct {
	id       string
	walletID string
	amount   int64
	status   string
}

func findReservation(ctx context.Context, q execer, userID, externalRef string) (reservation, error) {
	var r reservation
	err := q.QueryRowContext(ctx, `
		SELECT wr.id, wr.wallet_id, wr.amount_cents, wr.status
		FROM wallet_reservations wr
		JOIN wallets w ON w.id = wr.wallet_id
		WHERE w.user_id=$1 AND wr.external_ref=$2`, userID, externalRef).
		Scan(&r.id, &r.walletID, &r.amount, &r.status)
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrNotFound
	}
	return r, err
}

// transition muda o status da reserva só se ainda estiver PENDING.
// applied=false quando outra chamada já resolveu a reserva.
func transition(ctx context.Context, q execer, resID, to string) (bool, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE wallet_reservations SET status=$1 WHERE id=$2 AND status=$3`, to, resID, ReservationPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Commit efetiva uma reserva, marcando como COMMITTED e registrando débito no ledger.
// Idempotente: se já não estiver PENDING, não faz nada.
func (p *Postgres) Commit(ctx context.Context, userID, externalRef string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	r, err := findReservation(ctx, tx, userID, externalRef)
	if err != nil {
		return err
	}
	applied, err := transition(ctx, tx, r.id, ReservationCommitted)
	if err != nil || !applied {
		return err
	}
	if err = ledger(ctx, tx, r.walletID, "DEBIT", r.amount, "commit:"+externalRef); err != nil {
		return err
	}
	return tx.Commit()
}

// Refund desfaz uma reserva PENDING, devolvendo saldo e registrando no ledger.
// Idempotente: se já não estiver PENDING, não faz nada.
func (p *Postgres) Refund(ctx context.Context, userID, externalRef string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	r, err := findReservation(ctx, tx, userID, externalRef)
	if err != nil {
		return err
	}
	applied, err := transition(ctx, tx, r.id, ReservationRefunded)
	if err != nil || !applied {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE wallets SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`, r.amount, r.walletID); err != nil {
		return err
	}
	if err = ledger(ctx, tx, r.walletID, "REFUND", r.amount, "refund:"+externalRef); err != nil {
		return err
	}
	return tx.Commit()
}

// Ledger devolve o extrato do usuário, mais recente primeiro
func (p *Postgres) Ledger(ctx context.Context, userID string, limit int) ([]LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT l.id, l.operation_type, l.amount_cents, COALESCE(l.description, ''), CAST(l.created_at AS TEXT)
		FROM wallet_ledger l
		JOIN wallets w ON w.id = l.wallet_id
		WHERE w.user_id=$1
		ORDER BY l.created_at DESC, l.id
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LedgerEntry{}
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.Operation, &e.AmountCents, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
