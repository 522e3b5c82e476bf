package markets

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Category separa mercados de resultado da partida e mercados de jogador
type Category string

const (
	CategoryMatchResult Category = "RESULTADO"
	CategoryPlayer      Category = "JOGADOR"
)

// Stat é a estatística de um mercado de jogador
type Stat string

const (
	StatGoals   Stat = "GOLS"
	StatAssists Stat = "ASSISTENCIAS"
	StatTackles Stat = "DESARMES"
	StatSaves   Stat = "DEFESAS"
)

// Stats lista as estatísticas na ordem em que os mercados são exibidos
var Stats = []Stat{StatGoals, StatAssists, StatTackles, StatSaves}

// Lines são as linhas over/under oferecidas para cada estatística
var Lines = []float64{0.5, 1.5, 2.5, 3.5}

// Direction é o lado de um mercado over/under
type Direction string

const (
	Over  Direction = "MAIS"
	Under Direction = "MENOS"
)

// Outcome é o palpite de um mercado de resultado
type Outcome string

const (
	HomeWin Outcome = "VITORIA_A"
	Draw    Outcome = "EMPATE"
	AwayWin Outcome = "VITORIA_B"
)

var ErrInvalidToken = errors.New("invalid bet detail token")

// Detail é a forma estruturada do token de aposta.
// Formatos aceitos (compatíveis com dados já gravados):
//
//	<STAT>_<MAIS|MENOS>_<linha>_<playerId>
//	VITORIA_A | VITORIA_B | EMPATE
type Detail struct {
	Category  Category
	Outcome   Outcome
	Stat      Stat
	Direction Direction
	Line      float64
	PlayerID  string
}

// ResultDetail monta o detalhe de um mercado de resultado
func ResultDetail(o Outcome) Detail {
	return Detail{Category: CategoryMatchResult, Outcome: o}
}

// PlayerDetail monta o detalhe de um mercado de jogador
func PlayerDetail(stat Stat, dir Direction, line float64, playerID string) Detail {
	return Detail{Category: CategoryPlayer, Stat: stat, Direction: dir, Line: line, PlayerID: playerID}
}

// String serializa o detalhe no formato de token gravado no banco
func (d Detail) String() string {
	if d.Category == CategoryMatchResult {
		return string(d.Outcome)
	}
	return fmt.Sprintf("%s_%s_%s_%s", d.Stat, d.Direction, strconv.FormatFloat(d.Line, 'f', -1, 64), d.PlayerID)
}

// Threshold devolve o inteiro que a linha separa: MAIS 1.5 => X >= 2, MENOS 1.5 => X < 2
func (d Detail) Threshold() int {
	return int(math.Ceil(d.Line))
}

// Holds avalia o predicado over/under contra o valor observado
func (d Detail) Holds(value int) bool {
	if d.Direction == Over {
		return value >= d.Threshold()
	}
	return value < d.Threshold()
}

// Parse interpreta um token de aposta
func Parse(token string) (Detail, error) {
	switch Outcome(token) {
	case HomeWin, Draw, AwayWin:
		return ResultDetail(Outcome(token)), nil
	}

	parts := strings.SplitN(token, "_", 4)
	if len(parts) != 4 {
		return Detail{}, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	stat, err := ParseStat(parts[0])
	if err != nil {
		return Detail{}, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	dir := Direction(parts[1])
	if dir != Over && dir != Under {
		return Detail{}, fmt.Errorf("%w: direction %q", ErrInvalidToken, parts[1])
	}
	line, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || line < 0 || line-math.Floor(line) != 0.5 {
		return Detail{}, fmt.Errorf("%w: line %q", ErrInvalidToken, parts[2])
	}
	if parts[3] == "" {
		return Detail{}, fmt.Errorf("%w: missing player", ErrInvalidToken)
	}
	return PlayerDetail(stat, dir, line, parts[3]), nil
}

// ParseStat valida o nome de uma estatística
func ParseStat(s string) (Stat, error) {
	for _, st := range Stats {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown stat %q", s)
}
