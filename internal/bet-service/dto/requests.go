package dto

// LegRequest é uma seleção como o cliente viu: token e odd exibida
type LegRequest struct {
	MatchID string  `json:"matchId" validate:"required"`
	Detail  string  `json:"detail" validate:"required"` // ex: GOLS_MAIS_0.5_<playerId> | VITORIA_A
	Odd     float64 `json:"odd" validate:"gt=1"`        // odd que o cliente viu
}

type PlaceSlipRequest struct {
	UserID     string       `json:"userId" validate:"required"`
	StakeCents int64        `json:"stakeCents" validate:"gt=0"`
	Legs       []LegRequest `json:"legs" validate:"required,min=1,max=20,dive"`
}

// LegRef identifica uma seleção sem odd, usada na checagem de conflito
type LegRef struct {
	MatchID string `json:"matchId" validate:"required"`
	Detail  string `json:"detail" validate:"required"`
}

type CheckRequest struct {
	Proposed LegRef   `json:"proposed"`
	Existing []LegRef `json:"existing" validate:"dive"`
}
