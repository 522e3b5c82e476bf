// Package conflict detecta seleções incompatíveis dentro de um mesmo bilhete.
// A checagem é consultiva: roda antes de gravar e não é uma restrição do banco.
package conflict

import (
	"fmt"
	"math"

	"github.com/radieske/pelada-bet-platform/pkg/contracts/markets"
)

// Kind é o tipo de conflito encontrado
type Kind string

const (
	KindMatchResult   Kind = "MATCH_RESULT"
	KindSameType      Kind = "SAME_TYPE"
	KindRedundant     Kind = "REDUNDANT_BET"
	KindContradictory Kind = "CONTRADICTORY_OVER_UNDER"
)

// Action é uma resolução oferecida ao apostador
type Action string

const (
	ActionReplace      Action = "REPLACE"
	ActionCancel       Action = "CANCEL"
	ActionKeepExisting Action = "KEEP_EXISTING"
)

// Leg é uma seleção já interpretada
type Leg struct {
	MatchID string
	Detail  markets.Detail
}

// NewLeg interpreta o token de uma seleção
func NewLeg(matchID, token string) (Leg, error) {
	d, err := markets.Parse(token)
	if err != nil {
		return Leg{}, err
	}
	return Leg{MatchID: matchID, Detail: d}, nil
}

// Conflict descreve a seleção existente que conflita com a nova
type Conflict struct {
	Kind     Kind     `json:"kind"`
	Index    int      `json:"existingIndex"`
	Existing string   `json:"existing"`
	Proposed string   `json:"proposed"`
	Actions  []Action `json:"actions"`
	Message  string   `json:"message"`
}

func (c *Conflict) Error() string { return string(c.Kind) + ": " + c.Message }

// Check compara a nova seleção com as do bilhete em andamento e devolve o
// primeiro conflito, ou nil.
func Check(leg Leg, existing []Leg) *Conflict {
	for i, ex := range existing {
		if ex.MatchID != leg.MatchID {
			continue
		}
		if c := compare(leg.Detail, ex.Detail); c != nil {
			c.Index = i
			c.Existing = ex.Detail.String()
			c.Proposed = leg.Detail.String()
			return c
		}
	}
	return nil
}

// CheckSlip valida cada seleção contra as anteriores do mesmo bilhete
func CheckSlip(legs []Leg) (int, *Conflict) {
	for i := 1; i < len(legs); i++ {
		if c := Check(legs[i], legs[:i]); c != nil {
			return i, c
		}
	}
	return -1, nil
}

func compare(nw, ex markets.Detail) *Conflict {
	if nw.Category != ex.Category {
		return nil
	}
	if nw.Category == markets.CategoryMatchResult {
		return &Conflict{
			Kind:    KindMatchResult,
			Actions: []Action{ActionReplace, ActionCancel},
			Message: "only one match result selection is allowed per match",
		}
	}
	if nw.PlayerID != ex.PlayerID || nw.Stat != ex.Stat {
		return nil
	}

	if nw.Direction == ex.Direction {
		if moreSpecific(nw, ex) {
			return &Conflict{
				Kind:    KindSameType,
				Actions: []Action{ActionReplace, ActionCancel},
				Message: fmt.Sprintf("%s %s %v is stricter than the %v already on the slip", nw.Stat, nw.Direction, nw.Line, ex.Line),
			}
		}
		return &Conflict{
			Kind:    KindRedundant,
			Actions: []Action{ActionKeepExisting, ActionCancel},
			Message: fmt.Sprintf("%s %s %v is already covered by the %v on the slip", nw.Stat, nw.Direction, nw.Line, ex.Line),
		}
	}

	over, under := nw, ex
	if nw.Direction == markets.Under {
		over, under = ex, nw
	}
	// MAIS n => X >= ceil(n); MENOS m => X <= floor(m)
	if over.Threshold() > int(math.Floor(under.Line)) {
		return &Conflict{
			Kind:    KindContradictory,
			Actions: []Action{ActionReplace, ActionCancel},
			Message: fmt.Sprintf("%s over %v and under %v cannot both win", nw.Stat, over.Line, under.Line),
		}
	}
	return nil
}

// moreSpecific diz se a nova linha restringe mais que a existente na mesma direção
func moreSpecific(nw, ex markets.Detail) bool {
	if nw.Direction == markets.Over {
		return nw.Line > ex.Line
	}
	return nw.Line < ex.Line
}
