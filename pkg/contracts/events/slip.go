package events

import "time"

// SlipLeg é uma seleção dentro dos eventos de bilhete
type SlipLeg struct {
	LegID   string  `json:"leg_id"`
	MatchID string  `json:"match_id"`
	Detail  string  `json:"detail"` // token: GOLS_MAIS_1.5_<player> | VITORIA_A | ...
	Odd     float64 `json:"odd"`
	Status  string  `json:"status,omitempty"`
}

// SlipPlaced é publicado pelo bet-service após reservar o valor apostado
type SlipPlaced struct {
	SlipID      string    `json:"slip_id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"` // SINGLE | PARLAY
	StakeCents  int64     `json:"stake_cents"`
	Odd         float64   `json:"odd"`
	Legs        []SlipLeg `json:"legs"`
	ReservedRef string    `json:"reserved_ref"` // external_ref da reserva na carteira (slipID)
	TsUnixMs    int64     `json:"ts_unix_ms"`
}

// SlipSettled é emitido pelo settlement-worker para cada bilhete fechado
type SlipSettled struct {
	SlipID      string    `json:"slipId"`
	UserID      string    `json:"userId"`
	MatchID     string    `json:"matchId"`
	Status      string    `json:"status"` // GANHO | PERDIDO | ANULADO
	Odd         float64   `json:"odd"`
	StakeCents  int64     `json:"stakeCents"`
	PayoutCents int64     `json:"payoutCents"`
	Ts          time.Time `json:"ts"`
}
