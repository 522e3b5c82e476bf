// Package resolver decide o resultado de seleções e bilhetes a partir do
// placar e das estatísticas de uma partida encerrada. Não grava nada; quem
// chama persiste o Outcome.
package resolver

import (
	"github.com/shopspring/decimal"

	"github.com/radieske/pelada-bet-platform/internal/league"
	"github.com/radieske/pelada-bet-platform/pkg/contracts/markets"
)

// LegStatus é o estado de uma seleção
type LegStatus string

const (
	LegPending LegStatus = "PENDING"
	LegWon     LegStatus = "WON"
	LegLost    LegStatus = "LOST"
	LegVoid    LegStatus = "VOID"
)

// SlipStatus é o estado de um bilhete
type SlipStatus string

const (
	SlipOpen SlipStatus = "ABERTO"
	SlipWon  SlipStatus = "GANHO"
	SlipLost SlipStatus = "PERDIDO"
	SlipVoid SlipStatus = "ANULADO"
)

// Leg é uma seleção de um bilhete
type Leg struct {
	ID      string
	MatchID string
	Token   string
	Odd     float64
	Status  LegStatus
}

// Slip é um bilhete com todas as suas seleções, inclusive de outras partidas
type Slip struct {
	ID         string
	UserID     string
	StakeCents int64
	Status     SlipStatus
	Legs       []Leg
}

// Input é tudo que a liquidação de uma partida precisa
type Input struct {
	Match  league.Match
	Stats  map[string]league.StatLine // por jogador, só desta partida
	Absent map[string]bool
	Slips  []Slip
}

// LegResult é o novo estado de uma seleção desta partida
type LegResult struct {
	LegID  string    `json:"legId"`
	SlipID string    `json:"slipId"`
	Status LegStatus `json:"status"`
}

// SlipResult é o fechamento de um bilhete. Payout é o valor a creditar:
// stake × odd quando GANHO, stake quando ANULADO, zero caso contrário.
type SlipResult struct {
	SlipID      string     `json:"slipId"`
	UserID      string     `json:"userId"`
	Status      SlipStatus `json:"status"`
	Odd         float64    `json:"odd"`
	StakeCents  int64      `json:"stakeCents"`
	PayoutCents int64      `json:"payoutCents"`
}

// Settled diz se o bilhete foi fechado nesta liquidação
func (r SlipResult) Settled() bool { return r.Status != SlipOpen }

// Outcome é o resultado completo da liquidação
type Outcome struct {
	ScoreA int             `json:"scoreA"`
	ScoreB int             `json:"scoreB"`
	Result markets.Outcome `json:"result"`
	Legs   []LegResult     `json:"legs"`
	Slips  []SlipResult    `json:"slips"`
}

// Score soma os gols dos jogadores escalados e presentes de cada time
func Score(m league.Match, stats map[string]league.StatLine, absent map[string]bool) (a, b int) {
	for _, id := range m.RosterA {
		if !absent[id] {
			a += stats[id].Goals
		}
	}
	for _, id := range m.RosterB {
		if !absent[id] {
			b += stats[id].Goals
		}
	}
	return a, b
}

// ResultOf converte um placar no palpite vencedor
func ResultOf(a, b int) markets.Outcome {
	switch {
	case a > b:
		return markets.HomeWin
	case a < b:
		return markets.AwayWin
	}
	return markets.Draw
}

// Resolve avalia as seleções pendentes da partida e fecha os bilhetes que
// ficarem completos. Bilhetes já fechados são ignorados.
func Resolve(in Input) Outcome {
	out := Outcome{}
	out.ScoreA, out.ScoreB = Score(in.Match, in.Stats, in.Absent)
	out.Result = ResultOf(out.ScoreA, out.ScoreB)

	for _, slip := range in.Slips {
		if slip.Status != "" && slip.Status != SlipOpen {
			continue
		}
		legs := make([]Leg, len(slip.Legs))
		copy(legs, slip.Legs)
		for i := range legs {
			if legs[i].MatchID != in.Match.ID || legs[i].Status != LegPending {
				continue
			}
			legs[i].Status = LegStatusFor(in, out.Result, legs[i].Token)
			out.Legs = append(out.Legs, LegResult{LegID: legs[i].ID, SlipID: slip.ID, Status: legs[i].Status})
		}
		out.Slips = append(out.Slips, Aggregate(slip, legs))
	}
	return out
}

// LegStatusFor avalia uma seleção da partida
func LegStatusFor(in Input, result markets.Outcome, token string) LegStatus {
	d, err := markets.Parse(token)
	if err != nil {
		return LegVoid
	}
	if d.Category == markets.CategoryMatchResult {
		if d.Outcome == result {
			return LegWon
		}
		return LegLost
	}
	// ausente ou fora dos elencos anula a seleção
	if in.Absent[d.PlayerID] || in.Match.Side(d.PlayerID) == "" {
		return LegVoid
	}
	if d.Holds(in.Stats[d.PlayerID].Value(d.Stat)) {
		return LegWon
	}
	return LegLost
}

// Aggregate fecha um bilhete a partir do estado atual de todas as seleções
func Aggregate(slip Slip, legs []Leg) SlipResult {
	res := SlipResult{SlipID: slip.ID, UserID: slip.UserID, StakeCents: slip.StakeCents}

	var won, lost, void, pending int
	odd := decimal.NewFromInt(1)
	for _, l := range legs {
		switch l.Status {
		case LegWon:
			won++
			odd = odd.Mul(decimal.NewFromFloat(l.Odd))
		case LegLost:
			lost++
		case LegVoid:
			void++
		default:
			pending++
			odd = odd.Mul(decimal.NewFromFloat(l.Odd))
		}
	}
	res.Odd = odd.Round(2).InexactFloat64()

	stake := decimal.NewFromInt(slip.StakeCents)
	switch {
	case lost > 0:
		res.Status = SlipLost
	case pending > 0:
		res.Status = SlipOpen
	case void == len(legs):
		res.Status = SlipVoid
		res.Odd = 1
		res.PayoutCents = slip.StakeCents
	default:
		res.Status = SlipWon
		res.PayoutCents = stake.Mul(odd.Round(2)).Floor().IntPart()
	}
	return res
}
