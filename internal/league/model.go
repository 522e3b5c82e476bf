// Package league reúne os tipos de domínio da liga: jogadores, partidas e
// estatísticas. Os algoritmos ficam nos subpacotes rating, markets e lineup.
package league

import (
	"time"

	"github.com/radieske/pelada-bet-platform/pkg/contracts/markets"
)

// PlayerStatus é a disponibilidade de um jogador
type PlayerStatus string

const (
	PlayerAvailable PlayerStatus = "DISPONIVEL"
	PlayerInjured   PlayerStatus = "LESIONADO"
	PlayerSuspended PlayerStatus = "SUSPENSO"
)

// Stats são os contadores acumulados de um jogador
type Stats struct {
	Games   int `json:"games"`
	Goals   int `json:"goals"`
	Assists int `json:"assists"`
	Tackles int `json:"tackles"`
	Saves   int `json:"saves"`
	Fouls   int `json:"fouls"`
}

// StatLine são os números de um jogador em uma única partida
type StatLine struct {
	Goals   int `json:"goals" validate:"gte=0"`
	Assists int `json:"assists" validate:"gte=0"`
	Tackles int `json:"tackles" validate:"gte=0"`
	Saves   int `json:"saves" validate:"gte=0"`
	Fouls   int `json:"fouls" validate:"gte=0"`
}

// Value devolve o número da estatística usada por um mercado de jogador
func (l StatLine) Value(s markets.Stat) int {
	switch s {
	case markets.StatGoals:
		return l.Goals
	case markets.StatAssists:
		return l.Assists
	case markets.StatTackles:
		return l.Tackles
	case markets.StatSaves:
		return l.Saves
	}
	return 0
}

// Add soma uma partida aos contadores acumulados
func (s Stats) Add(l StatLine) Stats {
	return Stats{
		Games:   s.Games + 1,
		Goals:   s.Goals + l.Goals,
		Assists: s.Assists + l.Assists,
		Tackles: s.Tackles + l.Tackles,
		Saves:   s.Saves + l.Saves,
		Fouls:   s.Fouls + l.Fouls,
	}
}

// Total devolve o acumulado de uma estatística de mercado
func (s Stats) Total(st markets.Stat) int {
	return StatLine{Goals: s.Goals, Assists: s.Assists, Tackles: s.Tackles, Saves: s.Saves, Fouls: s.Fouls}.Value(st)
}

// Player é a linha de jogador. Rating é derivado e sobrescrito após cada partida.
type Player struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	UserID    string       `json:"userId,omitempty"`
	Status    PlayerStatus `json:"status"`
	Rating    float64      `json:"rating"`
	Stats     Stats        `json:"stats"`
	CreatedAt time.Time    `json:"createdAt"`
}

// MatchStatus é o ciclo de vida de uma partida
type MatchStatus string

const (
	MatchScheduled MatchStatus = "SCHEDULED"
	MatchLive      MatchStatus = "LIVE"
	MatchFinished  MatchStatus = "FINISHED"
	MatchPostponed MatchStatus = "POSTPONED"
)

// CanTransition diz se a mudança de status pode ser feita manualmente.
// FINISHED só é gravado pela liquidação.
func (s MatchStatus) CanTransition(to MatchStatus) bool {
	switch s {
	case MatchScheduled:
		return to == MatchLive || to == MatchPostponed
	case MatchLive:
		return to == MatchPostponed
	case MatchPostponed:
		return to == MatchScheduled
	}
	return false
}

// Match é uma partida entre dois times montados pela escalação
type Match struct {
	ID          string      `json:"id"`
	TeamA       string      `json:"teamA"`
	TeamB       string      `json:"teamB"`
	ScheduledAt time.Time   `json:"scheduledAt"`
	Status      MatchStatus `json:"status"`
	RosterA     []string    `json:"rosterA"`
	RosterB     []string    `json:"rosterB"`
	Score       string      `json:"score,omitempty"`
}

// Side devolve "A", "B" ou "" conforme o elenco do jogador
func (m Match) Side(playerID string) string {
	for _, id := range m.RosterA {
		if id == playerID {
			return "A"
		}
	}
	for _, id := range m.RosterB {
		if id == playerID {
			return "B"
		}
	}
	return ""
}
