package dto

import "github.com/radieske/pelada-bet-platform/internal/bet-service/conflict"

type PlaceSlipResponse struct {
	SlipID string  `json:"slipId"`
	Status string  `json:"status"` // ABERTO
	Type   string  `json:"type"`
	Odd    float64 `json:"odd"`
}

// ConflictDetail acompanha o 409 de um bilhete com seleções incompatíveis
type ConflictDetail struct {
	LegIndex int                `json:"legIndex"`
	Conflict *conflict.Conflict `json:"conflict"`
}

// OddChangedDetail acompanha o 409 quando a odd mudou desde que o cliente viu
type OddChangedDetail struct {
	LegIndex int     `json:"legIndex"`
	Seen     float64 `json:"seen"`
	Current  float64 `json:"current"`
}

type CheckResponse struct {
	OK       bool               `json:"ok"`
	Conflict *conflict.Conflict `json:"conflict,omitempty"`
}
