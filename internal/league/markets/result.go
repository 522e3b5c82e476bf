package markets

import (
	"math"

	cmarkets "github.com/radieske/pelada-bet-platform/pkg/contracts/markets"
)

const (
	HouseMargin = 1.15
	MinOdd      = 1.01
	// DrawBase é a chance bruta de empate entre times de força igual
	DrawBase = 0.28
)

// ResultOdds são as odds 1x2 de uma partida, com margem da casa
type ResultOdds struct {
	TeamA     float64 `json:"teamA"`
	Draw      float64 `json:"draw"`
	TeamB     float64 `json:"teamB"`
	ProbTeamA float64 `json:"probTeamA"`
	ProbDraw  float64 `json:"probDraw"`
	ProbTeamB float64 `json:"probTeamB"`
}

// ByOutcome devolve a odd do palpite informado
func (r ResultOdds) ByOutcome(o cmarkets.Outcome) float64 {
	switch o {
	case cmarkets.HomeWin:
		return r.TeamA
	case cmarkets.AwayWin:
		return r.TeamB
	}
	return r.Draw
}

// MatchResultOdds converte a soma das notas de cada time em odds 1x2.
// Share linear por time, empate encolhe conforme a diferença de força,
// normaliza para 1 e divide a odd justa pela margem de 15%.
func MatchResultOdds(sumA, sumB float64) ResultOdds {
	pA, pB, gap := 0.5, 0.5, 0.0
	if total := sumA + sumB; total > 0 {
		pA = sumA / total
		pB = sumB / total
		gap = math.Abs(sumA-sumB) / total
	}
	draw := DrawBase * (1 - gap)

	norm := pA + pB + draw
	pA, pB, draw = pA/norm, pB/norm, draw/norm

	return ResultOdds{
		TeamA:     marginOdd(pA),
		Draw:      marginOdd(draw),
		TeamB:     marginOdd(pB),
		ProbTeamA: pA,
		ProbDraw:  draw,
		ProbTeamB: pB,
	}
}

func marginOdd(p float64) float64 {
	if p <= 0 {
		return MaxOdd
	}
	odd := 1 / (p * HouseMargin)
	odd = math.Round(odd*100) / 100
	return math.Max(odd, MinOdd)
}

// SumRatings soma as notas de um elenco
func SumRatings(ratings []float64) float64 {
	var s float64
	for _, r := range ratings {
		s += r
	}
	return s
}
