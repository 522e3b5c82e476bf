package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/pelada-bet-platform/internal/league"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Postgres implementa a persistência de jogadores e partidas.
// As queries também rodam em SQLite (DB_DRIVER=sqlite3).
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório da liga
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const playerCols = `id, name, COALESCE(user_id, ''), status, rating, games, goals, assists, tackles, saves, fouls, created_at`

type scanner interface{ Scan(dest ...any) error }

func scanPlayer(s scanner) (league.Player, error) {
	var p league.Player
	err := s.Scan(&p.ID, &p.Name, &p.UserID, &p.Status, &p.Rating,
		&p.Stats.Games, &p.Stats.Goals, &p.Stats.Assists, &p.Stats.Tackles, &p.Stats.Saves, &p.Stats.Fouls,
		&p.CreatedAt)
	return p, err
}

// CreatePlayer insere um jogador novo com nota piso e contadores zerados
func (p *Postgres) CreatePlayer(ctx context.Context, pl *league.Player) (string, error) {
	id := uuid.NewString()
	status := pl.Status
	if status == "" {
		status = league.PlayerAvailable
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO players (id, name, user_id, status, rating)
		VALUES ($1,$2,$3,$4,$5)`,
		id, pl.Name, nullString(pl.UserID), string(status), 5.0,
	)
	if err != nil {
		return "", fmt.Errorf("insert player: %w", err)
	}
	return id, nil
}

// GetPlayer busca um jogador pelo id
func (p *Postgres) GetPlayer(ctx context.Context, id string) (league.Player, error) {
	pl, err := scanPlayer(p.db.QueryRowContext(ctx, `SELECT `+playerCols+` FROM players WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return league.Player{}, ErrNotFound
	}
	return pl, err
}

// ListPlayers devolve todos os jogadores em ordem de cadastro
func (p *Postgres) ListPlayers(ctx context.Context) ([]league.Player, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+playerCols+` FROM players ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []league.Player
	for rows.Next() {
		pl, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pl)
	}
	return out, rows.Err()
}

// PlayersByIDs devolve os jogadores na ordem dos ids; ids desconhecidos são ignorados
func (p *Postgres) PlayersByIDs(ctx context.Context, ids []string) ([]league.Player, error) {
	all, err := p.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]league.Player, len(all))
	for _, pl := range all {
		byID[pl.ID] = pl
	}
	out := make([]league.Player, 0, len(ids))
	for _, id := range ids {
		if pl, ok := byID[id]; ok {
			out = append(out, pl)
		}
	}
	return out, nil
}

// UpdateRating grava a nota recalculada de um jogador
func (p *Postgres) UpdateRating(ctx context.Context, id string, rating float64) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE players SET rating=$1, updated_at=CURRENT_TIMESTAMP WHERE id=$2`, rating, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// SetPlayerStatus muda a disponibilidade de um jogador
func (p *Postgres) SetPlayerStatus(ctx context.Context, id string, status league.PlayerStatus) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE players SET status=$1, updated_at=CURRENT_TIMESTAMP WHERE id=$2`, string(status), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// CreateMatch grava a partida e os dois elencos na mesma transação
func (p *Postgres) CreateMatch(ctx context.Context, m *league.Match) (string, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id := uuid.NewString()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO matches (id, team_a, team_b, scheduled_at, status)
		VALUES ($1,$2,$3,$4,$5)`,
		id, m.TeamA, m.TeamB, m.ScheduledAt.UTC(), string(league.MatchScheduled)); err != nil {
		return "", fmt.Errorf("insert match: %w", err)
	}

	for team, roster := range map[string][]string{"A": m.RosterA, "B": m.RosterB} {
		for pos, playerID := range roster {
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO match_roster (match_id, team, player_id, position)
				VALUES ($1,$2,$3,$4)`, id, team, playerID, pos); err != nil {
				return "", fmt.Errorf("insert roster: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

const matchCols = `id, team_a, team_b, scheduled_at, status, score_a, score_b`

func scanMatch(s scanner) (league.Match, error) {
	var (
		m      league.Match
		scoreA sql.NullInt64
		scoreB sql.NullInt64
	)
	if err := s.Scan(&m.ID, &m.TeamA, &m.TeamB, &m.ScheduledAt, &m.Status, &scoreA, &scoreB); err != nil {
		return m, err
	}
	if scoreA.Valid && scoreB.Valid {
		m.Score = fmt.Sprintf("%d x %d", scoreA.Int64, scoreB.Int64)
	}
	return m, nil
}

// GetMatch devolve a partida com os elencos
func (p *Postgres) GetMatch(ctx context.Context, id string) (league.Match, error) {
	m, err := scanMatch(p.db.QueryRowContext(ctx, `SELECT `+matchCols+` FROM matches WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return league.Match{}, ErrNotFound
	}
	if err != nil {
		return league.Match{}, err
	}
	if err := p.loadRoster(ctx, &m); err != nil {
		return league.Match{}, err
	}
	return m, nil
}

func (p *Postgres) loadRoster(ctx context.Context, m *league.Match) error {
	rows, err := p.db.QueryContext(ctx,
		`SELECT team, player_id FROM match_roster WHERE match_id=$1 ORDER BY team, position`, m.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var team, playerID string
		if err := rows.Scan(&team, &playerID); err != nil {
			return err
		}
		if team == "A" {
			m.RosterA = append(m.RosterA, playerID)
		} else {
			m.RosterB = append(m.RosterB, playerID)
		}
	}
	return rows.Err()
}

// ListMatches lista partidas, opcionalmente filtrando por status
func (p *Postgres) ListMatches(ctx context.Context, status league.MatchStatus) ([]league.Match, error) {
	q := `SELECT ` + matchCols + ` FROM matches`
	var args []any
	if status != "" {
		q += ` WHERE status=$1`
		args = append(args, string(status))
	}
	q += ` ORDER BY scheduled_at, id`

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	var out []league.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// elencos só depois de fechar o cursor (SQLite usa uma conexão)
	for i := range out {
		if err := p.loadRoster(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateMatchStatus faz a transição manual de status.
// A condição no WHERE garante que duas transições concorrentes não passam as duas.
func (p *Postgres) UpdateMatchStatus(ctx context.Context, id string, to league.MatchStatus) error {
	m, err := p.GetMatch(ctx, id)
	if err != nil {
		return err
	}
	if !m.Status.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, to)
	}
	res, err := p.db.ExecContext(ctx,
		`UPDATE matches SET status=$1 WHERE id=$2 AND status=$3`, string(to), id, string(m.Status))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
	}
	return nil
}

// StartDueMatches move para LIVE as partidas agendadas cujo horário já passou
// e devolve os ids afetados.
func (p *Postgres) StartDueMatches(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id FROM matches WHERE status=$1 AND scheduled_at <= $2`, string(league.MatchScheduled), now.UTC())
	if err != nil {
		return nil, err
	}
	var due []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		due = append(due, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var started []string
	for _, id := range due {
		res, err := p.db.ExecContext(ctx,
			`UPDATE matches SET status=$1 WHERE id=$2 AND status=$3`,
			string(league.MatchLive), id, string(league.MatchScheduled))
		if err != nil {
			return started, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			started = append(started, id)
		}
	}
	return started, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
