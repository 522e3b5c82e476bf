package repo

import "time"

// Tipos de bilhete, derivados da quantidade de seleções
const (
	TypeSingle = "SINGLE"
	TypeParlay = "PARLAY"
)

// Slip é o bilhete persistido com suas seleções
type Slip struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Type        string    `json:"type"`
	StakeCents  int64     `json:"stakeCents"`
	Odd         float64   `json:"odd"`
	Status      string    `json:"status"`
	PayoutCents int64     `json:"payoutCents"`
	CreatedAt   time.Time `json:"createdAt"`
	Legs        []Leg     `json:"legs"`
}

// Leg é uma seleção; Detail é o token do mercado
type Leg struct {
	ID      string  `json:"id"`
	MatchID string  `json:"matchId"`
	Detail  string  `json:"detail"`
	Odd     float64 `json:"odd"`
	Status  string  `json:"status"`
}

// SlipType devolve SINGLE para uma seleção e PARLAY para mais
func SlipType(legs int) string {
	if legs > 1 {
		return TypeParlay
	}
	return TypeSingle
}
