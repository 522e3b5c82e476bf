package lineup

import (
	"github.com/radieske/pelada-bet-platform/internal/league"
)

// Role é um arquétipo de posição
type Role string

const (
	Goalkeeper Role = "GOLEIRO"
	CenterBack Role = "ZAGUEIRO"
	FullBack   Role = "LATERAL"
	HoldingMid Role = "VOLANTE"
	Playmaker  Role = "MEIA"
	Winger     Role = "PONTA"
	Striker    Role = "ATACANTE"

	// Utility completa o elenco quando as cotas somam menos que o tamanho do time
	Utility Role = "CORINGA"
)

// Priority é a ordem fixa em que as cotas são preenchidas
var Priority = []Role{Goalkeeper, CenterBack, FullBack, HoldingMid, Playmaker, Winger, Striker}

const numRoles = 7

func roleIndex(r Role) int {
	for i, p := range Priority {
		if p == r {
			return i
		}
	}
	return -1
}

// Profile é um jogador anotado com as notas calculadas para a escalação
type Profile struct {
	Player   league.Player    `json:"player"`
	Rating   float64          `json:"rating"`
	Attack   float64          `json:"attack"`
	Defense  float64          `json:"defense"`
	Aptitude map[Role]float64 `json:"aptitude"`
	Primary  Role             `json:"primary"`

	apt [numRoles]float64
}

// Assignment é um jogador escalado em um dos times
type Assignment struct {
	Profile
	Role Role `json:"role"`
}

// NewProfile calcula as três notas universais e as sete aptidões por posição
// a partir das taxas por jogo.
func NewProfile(p league.Player) Profile {
	var g, a, t, s float64
	if games := float64(p.Stats.Games); games > 0 {
		g = float64(p.Stats.Goals) / games
		a = float64(p.Stats.Assists) / games
		t = float64(p.Stats.Tackles) / games
		s = float64(p.Stats.Saves) / games
	}

	pr := Profile{
		Player:  p,
		Rating:  p.Rating,
		Attack:  g + 0.7*a,
		Defense: t + 0.8*s,
	}
	pr.apt = [numRoles]float64{
		s - 0.5*(g+a), // goleiro: gols e assistências contaminam
		t + 0.1*g,
		0.6*t + 0.8*a,
		0.8*t + 0.4*a,
		a + 0.5*g,
		0.8 * (g + a),
		g + 0.3*a,
	}

	pr.Aptitude = make(map[Role]float64, numRoles)
	best := 0
	for i, r := range Priority {
		pr.Aptitude[r] = pr.apt[i]
		if pr.apt[i] > pr.apt[best] {
			best = i
		}
	}
	pr.Primary = Priority[best]
	return pr
}

// Totals são as somas usadas no custo de desequilíbrio
type Totals struct {
	Rating  float64 `json:"rating"`
	Attack  float64 `json:"attack"`
	Defense float64 `json:"defense"`
}

const (
	weightRating  = 1.5
	weightAttack  = 1.0
	weightDefense = 1.0
)

// Cost é o custo ponderado de desequilíbrio entre dois times
func Cost(a, b Totals) float64 {
	return weightRating*abs(a.Rating-b.Rating) +
		weightAttack*abs(a.Attack-b.Attack) +
		weightDefense*abs(a.Defense-b.Defense)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func totalsOf(team []Assignment) Totals {
	var t Totals
	for _, a := range team {
		t.Rating += a.Rating
		t.Attack += a.Attack
		t.Defense += a.Defense
	}
	return t
}
