// Package rating calcula a nota (5.0–10.0) de um jogador a partir dos
// contadores acumulados.
package rating

import (
	"math"

	"github.com/radieske/pelada-bet-platform/internal/league"
)

const (
	Floor      = 5.0
	Ceiling    = 10.0
	Amplitude  = 5.0
	Inflection = 5.0 // produção média por jogo que resulta em nota 7.5
	Steepness  = 0.5

	weightGoal   = 3.0
	weightAssist = 2.0
	weightTackle = 0.5
	weightSave   = 0.8
	weightFoul   = 0.2
)

// Production é a pontuação ponderada acumulada, antes da média por jogo
func Production(s league.Stats) float64 {
	return float64(s.Goals)*weightGoal +
		float64(s.Assists)*weightAssist +
		float64(s.Tackles)*weightTackle +
		float64(s.Saves)*weightSave -
		float64(s.Fouls)*weightFoul
}

// Rate converte os contadores em nota via curva logística.
// Sem jogos a nota é o piso, nunca divide por zero.
func Rate(s league.Stats) float64 {
	if s.Games <= 0 {
		return Floor
	}
	avg := Production(s) / float64(s.Games)
	r := Floor + Amplitude/(1+math.Exp(-Steepness*(avg-Inflection)))
	r = math.Max(Floor, math.Min(Ceiling, r))
	return math.Round(r*10) / 10
}

// Purity são as notas de pureza de posição usadas pelo gerador rápido
type Purity struct {
	Goalkeeper      float64 `json:"goalkeeper"`
	Striker         float64 `json:"striker"`
	HoldingMidfield float64 `json:"holdingMidfield"`
}

// PurityOf calcula as notas de pureza por jogo. Goleiro perde pontos por gols e
// assistências, atacante por defesas, volante por gols.
func PurityOf(s league.Stats) Purity {
	if s.Games <= 0 {
		return Purity{}
	}
	g := float64(s.Games)
	goals := float64(s.Goals) / g
	assists := float64(s.Assists) / g
	tackles := float64(s.Tackles) / g
	saves := float64(s.Saves) / g

	return Purity{
		Goalkeeper:      saves - 0.5*(goals+assists),
		Striker:         goals + 0.3*assists - 0.5*saves,
		HoldingMidfield: tackles + 0.3*assists - 0.5*goals,
	}
}
