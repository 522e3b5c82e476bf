// Package markets precifica mercados de jogador (Poisson, sem margem) e o
// mercado de resultado da partida (share linear, margem de 15%).
package markets

import (
	"math"

	"github.com/radieske/pelada-bet-platform/internal/league"
	cmarkets "github.com/radieske/pelada-bet-platform/pkg/contracts/markets"
)

const (
	// MaxOdd é o teto aplicado a qualquer odd de mercado de jogador
	MaxOdd = 100.0
	// BlockedAbove marca o mercado como bloqueado; com o teto de 100 nunca é atingido
	BlockedAbove = 999.0
)

// Lambda é a taxa por jogo usada como média da Poisson
func Lambda(total, games int) float64 {
	if games <= 0 {
		return 0
	}
	return float64(total) / float64(games)
}

// PMF devolve P(X=k) = λ^k e^-λ / k! para X ~ Poisson(λ)
func PMF(k int, lambda float64) float64 {
	if k < 0 {
		return 0
	}
	fact := 1.0
	for i := 2; i <= k; i++ {
		fact *= float64(i)
	}
	return math.Pow(lambda, float64(k)) * math.Exp(-lambda) / fact
}

// Under devolve P(X < threshold), soma direta de k=0..threshold-1
func Under(threshold int, lambda float64) float64 {
	var cdf float64
	for k := 0; k < threshold; k++ {
		cdf += PMF(k, lambda)
	}
	return math.Min(cdf, 1)
}

// Over devolve P(X >= threshold)
func Over(threshold int, lambda float64) float64 {
	return 1 - Under(threshold, lambda)
}

// OddFromProbability converte probabilidade em odd justa.
// nil significa mercado bloqueado: a UI mostra cadeado, nunca um botão de aposta.
func OddFromProbability(p float64) *float64 {
	if p <= 0 || p > 1 {
		return nil
	}
	odd := math.Min(1/p, MaxOdd)
	if odd > BlockedAbove {
		return nil
	}
	odd = math.Round(odd*100) / 100
	return &odd
}

// Line é um par over/under de uma estatística
type Line struct {
	Stat      cmarkets.Stat `json:"stat"`
	Line      float64       `json:"line"`
	Over      *float64      `json:"over"`
	Under     *float64      `json:"under"`
	OverKey   string        `json:"overKey"`
	UnderKey  string        `json:"underKey"`
	Lambda    float64       `json:"lambda"`
	OverProb  float64       `json:"overProb"`
	UnderProb float64       `json:"underProb"`
}

// PlayerMarkets monta a grade completa de mercados de um jogador
func PlayerMarkets(p league.Player) []Line {
	out := make([]Line, 0, len(cmarkets.Stats)*len(cmarkets.Lines))
	for _, st := range cmarkets.Stats {
		lambda := Lambda(p.Stats.Total(st), p.Stats.Games)
		for _, ln := range cmarkets.Lines {
			out = append(out, PriceLine(st, ln, lambda, p.ID))
		}
	}
	return out
}

// PriceLine precifica uma única linha over/under
func PriceLine(st cmarkets.Stat, line, lambda float64, playerID string) Line {
	threshold := int(math.Ceil(line))
	over := Over(threshold, lambda)
	under := Under(threshold, lambda)
	return Line{
		Stat:      st,
		Line:      line,
		Lambda:    lambda,
		OverProb:  over,
		UnderProb: under,
		Over:      OddFromProbability(over),
		Under:     OddFromProbability(under),
		OverKey:   cmarkets.PlayerDetail(st, cmarkets.Over, line, playerID).String(),
		UnderKey:  cmarkets.PlayerDetail(st, cmarkets.Under, line, playerID).String(),
	}
}
