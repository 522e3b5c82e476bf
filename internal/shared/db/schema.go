package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schema é compatível com Postgres e SQLite: ids TEXT gerados no Go,
// CURRENT_TIMESTAMP e nada de RETURNING/SERIAL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS players (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		user_id     TEXT,
		status      TEXT NOT NULL DEFAULT 'DISPONIVEL',
		rating      DOUBLE PRECISION NOT NULL DEFAULT 5.0,
		games       INTEGER NOT NULL DEFAULT 0,
		goals       INTEGER NOT NULL DEFAULT 0,
		assists     INTEGER NOT NULL DEFAULT 0,
		tackles     INTEGER NOT NULL DEFAULT 0,
		saves       INTEGER NOT NULL DEFAULT 0,
		fouls       INTEGER NOT NULL DEFAULT 0,
		created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id           TEXT PRIMARY KEY,
		team_a       TEXT NOT NULL,
		team_b       TEXT NOT NULL,
		scheduled_at TIMESTAMP NOT NULL,
		status       TEXT NOT NULL DEFAULT 'SCHEDULED',
		score_a      INTEGER,
		score_b      INTEGER,
		created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		finished_at  TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS match_roster (
		match_id  TEXT NOT NULL REFERENCES matches(id),
		team      TEXT NOT NULL,
		player_id TEXT NOT NULL REFERENCES players(id),
		position  INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (match_id, player_id)
	)`,
	`CREATE TABLE IF NOT EXISTS match_stats (
		match_id  TEXT NOT NULL REFERENCES matches(id),
		player_id TEXT NOT NULL REFERENCES players(id),
		goals     INTEGER NOT NULL DEFAULT 0,
		assists   INTEGER NOT NULL DEFAULT 0,
		tackles   INTEGER NOT NULL DEFAULT 0,
		saves     INTEGER NOT NULL DEFAULT 0,
		fouls     INTEGER NOT NULL DEFAULT 0,
		absent    BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (match_id, player_id)
	)`,
	`CREATE TABLE IF NOT EXISTS slips (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL,
		type         TEXT NOT NULL,
		stake_cents  BIGINT NOT NULL,
		odd          DOUBLE PRECISION NOT NULL,
		status       TEXT NOT NULL DEFAULT 'ABERTO',
		payout_cents BIGINT NOT NULL DEFAULT 0,
		wallet_done  BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS slip_legs (
		id       TEXT PRIMARY KEY,
		slip_id  TEXT NOT NULL REFERENCES slips(id),
		match_id TEXT NOT NULL,
		detail   TEXT NOT NULL,
		odd      DOUBLE PRECISION NOT NULL,
		status   TEXT NOT NULL DEFAULT 'PENDING',
		position INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_slip_legs_match ON slip_legs (match_id, status)`,
	`CREATE TABLE IF NOT EXISTS wallets (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL UNIQUE,
		balance_cents BIGINT NOT NULL DEFAULT 0,
		version       INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_reservations (
		id           TEXT PRIMARY KEY,
		wallet_id    TEXT NOT NULL REFERENCES wallets(id),
		external_ref TEXT NOT NULL,
		amount_cents BIGINT NOT NULL,
		status       TEXT NOT NULL,
		created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (wallet_id, external_ref)
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_credits (
		id           TEXT PRIMARY KEY,
		wallet_id    TEXT NOT NULL REFERENCES wallets(id),
		external_ref TEXT NOT NULL UNIQUE,
		amount_cents BIGINT NOT NULL,
		created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_ledger (
		id             TEXT PRIMARY KEY,
		wallet_id      TEXT NOT NULL REFERENCES wallets(id),
		operation_type TEXT NOT NULL,
		amount_cents   BIGINT NOT NULL,
		description    TEXT,
		created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// Migrate cria as tabelas que ainda não existem
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
