package dto

import (
	"github.com/radieske/pelada-bet-platform/internal/league"
	"github.com/radieske/pelada-bet-platform/internal/league/markets"
	"github.com/radieske/pelada-bet-platform/internal/league/rating"
)

type PlayerResponse struct {
	league.Player
	Purity rating.Purity `json:"purity"`
}

type PlayerMarketsResponse struct {
	PlayerID string         `json:"playerId"`
	Name     string         `json:"name,omitempty"`
	Team     string         `json:"team,omitempty"`
	Rating   float64        `json:"rating"`
	Lines    []markets.Line `json:"lines"`
	Cached   bool           `json:"cached,omitempty"`
}

// MatchOddsResponse: Open=false quando a partida já saiu de SCHEDULED
type MatchOddsResponse struct {
	MatchID string                  `json:"matchId"`
	Status  league.MatchStatus      `json:"status"`
	Open    bool                    `json:"open"`
	Result  markets.ResultOdds      `json:"result"`
	Players []PlayerMarketsResponse `json:"players"`
}

type CreatedResponse struct {
	ID string `json:"id"`
}

type ResultAcceptedResponse struct {
	MatchID string `json:"matchId"`
	Status  string `json:"status"` // SUBMITTED
}
