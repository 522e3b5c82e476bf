// Package lineup monta dois times equilibrados a partir do elenco disponível.
//
// O otimizador é exato: percorre todas as combinações de jogadores que
// atendem às cotas de posição e devolve o par com menor custo de
// desequilíbrio. O custo é O(C(n,k)²) e só é viável para elencos de pelada
// (algumas dezenas de jogadores).
package lineup

import (
	"fmt"
	"sort"

	"github.com/radieske/pelada-bet-platform/internal/league"
)

const (
	MinRosterSize = 4
	MaxRosterSize = 11

	// maxPool limita o elenco ao tamanho da máscara de bits usada no cache
	maxPool = 64
)

// Request são os parâmetros da escalação
type Request struct {
	RosterSize int          `json:"rosterSize"`
	Roles      map[Role]int `json:"roles"`
}

// Result é a escalação escolhida
type Result struct {
	TeamA     []Assignment    `json:"teamA"`
	TeamB     []Assignment    `json:"teamB"`
	Bench     []Profile       `json:"bench"`
	Injured   []league.Player `json:"injured"`
	TotalsA   Totals          `json:"totalsA"`
	TotalsB   Totals          `json:"totalsB"`
	Cost      float64         `json:"cost"`
	Evaluated int             `json:"evaluatedPairs"`
}

// Optimize escolhe os dois times de menor custo de desequilíbrio.
// Empates ficam com o primeiro par encontrado na ordem de enumeração.
func Optimize(players []league.Player, req Request) (*Result, error) {
	pool, injured := splitInjured(players)

	msgs := validateRequest(req)
	if len(msgs) == 0 {
		if need := 2 * req.RosterSize; len(pool) < need {
			msgs = append(msgs, fmt.Sprintf("need at least %d available players, have %d", need, len(pool)))
		} else if len(pool) > maxPool {
			msgs = append(msgs, fmt.Sprintf("at most %d available players are supported, have %d", maxPool, len(pool)))
		}
	}
	if len(msgs) > 0 {
		return nil, &Error{Kind: KindValidation, Messages: msgs}
	}

	s := newSearch(pool, req)
	bestA, bestB, cost, stats := s.run()
	if stats.feasibleA == 0 {
		return nil, &Error{Kind: KindNoFeasibleRoster, Messages: []string{
			fmt.Sprintf("no group of %d available players can fill the role quotas", req.RosterSize),
		}}
	}
	if stats.pairs == 0 {
		return nil, &Error{Kind: KindNoComplementaryPair, Messages: []string{
			"no two disjoint rosters can both fill the role quotas",
		}}
	}

	res := &Result{
		TeamA:     s.team(bestA),
		TeamB:     s.team(bestB),
		Injured:   injured,
		Cost:      cost,
		Evaluated: stats.pairs,
	}
	for i, p := range s.profiles {
		if bestA&bit(i) == 0 && bestB&bit(i) == 0 {
			res.Bench = append(res.Bench, p)
		}
	}
	res.TotalsA = totalsOf(res.TeamA)
	res.TotalsB = totalsOf(res.TeamB)
	return res, nil
}

func validateRequest(req Request) []string {
	var msgs []string
	if req.RosterSize < MinRosterSize || req.RosterSize > MaxRosterSize {
		msgs = append(msgs, fmt.Sprintf("roster size must be between %d and %d, got %d", MinRosterSize, MaxRosterSize, req.RosterSize))
	}

	names := make([]string, 0, len(req.Roles))
	for r := range req.Roles {
		names = append(names, string(r))
	}
	sort.Strings(names)

	sum := 0
	for _, name := range names {
		r := Role(name)
		n := req.Roles[r]
		switch {
		case roleIndex(r) < 0:
			msgs = append(msgs, fmt.Sprintf("unknown role %q", name))
		case n < 0:
			msgs = append(msgs, fmt.Sprintf("role %s count cannot be negative", name))
		default:
			sum += n
		}
	}
	if n, ok := req.Roles[Goalkeeper]; ok && n != 1 {
		msgs = append(msgs, fmt.Sprintf("exactly one %s is required, got %d", Goalkeeper, n))
	}
	if _, ok := req.Roles[Goalkeeper]; !ok {
		sum++ // goleiro implícito
	}
	if req.RosterSize >= MinRosterSize && sum > req.RosterSize {
		msgs = append(msgs, fmt.Sprintf("role quotas add up to %d, more than the roster size %d", sum, req.RosterSize))
	}
	return msgs
}

func splitInjured(players []league.Player) (pool, injured []league.Player) {
	for _, p := range players {
		if p.Status == league.PlayerInjured {
			injured = append(injured, p)
			continue
		}
		pool = append(pool, p)
	}
	return pool, injured
}

type search struct {
	k        int
	quotas   [numRoles]int
	profiles []Profile
	feasible map[uint64]bool
}

type searchStats struct {
	feasibleA int
	pairs     int
}

func newSearch(pool []league.Player, req Request) *search {
	s := &search{
		k:        req.RosterSize,
		profiles: make([]Profile, len(pool)),
		feasible: make(map[uint64]bool),
	}
	for i, p := range pool {
		s.profiles[i] = NewProfile(p)
	}
	s.quotas[roleIndex(Goalkeeper)] = 1
	for r, n := range req.Roles {
		if i := roleIndex(r); i >= 0 && r != Goalkeeper {
			s.quotas[i] = n
		}
	}
	return s
}

func bit(i int) uint64 { return uint64(1) << uint(i) }

func maskOf(combo []int) uint64 {
	var m uint64
	for _, i := range combo {
		m |= bit(i)
	}
	return m
}

func (s *search) run() (bestA, bestB uint64, bestCost float64, st searchStats) {
	n := len(s.profiles)
	found := false
	rest := make([]int, 0, n)
	b := make([]int, s.k)

	outer := NewCombinations(n, s.k)
	for a := outer.Next(); a != nil; a = outer.Next() {
		maskA := maskOf(a)
		if !s.isFeasible(a, maskA) {
			continue
		}
		st.feasibleA++
		totA := s.totals(a)

		// Um B cujo menor índice é menor que o de A já foi visto como (B, A)
		// com o mesmo custo e antes na enumeração, então só olhamos para frente.
		rest = rest[:0]
		for j := a[0] + 1; j < n; j++ {
			if maskA&bit(j) == 0 {
				rest = append(rest, j)
			}
		}

		inner := NewCombinations(len(rest), s.k)
		for c := inner.Next(); c != nil; c = inner.Next() {
			for i, ci := range c {
				b[i] = rest[ci]
			}
			maskB := maskOf(b)
			if !s.isFeasible(b, maskB) {
				continue
			}
			st.pairs++
			cost := Cost(totA, s.totals(b))
			if !found || cost < bestCost {
				found = true
				bestA, bestB, bestCost = maskA, maskB, cost
			}
		}
	}
	return bestA, bestB, bestCost, st
}

func (s *search) isFeasible(combo []int, mask uint64) bool {
	if ok, seen := s.feasible[mask]; seen {
		return ok
	}
	_, ok := s.assign(combo)
	s.feasible[mask] = ok
	return ok
}

func (s *search) totals(combo []int) Totals {
	var t Totals
	for _, i := range combo {
		t.Rating += s.profiles[i].Rating
		t.Attack += s.profiles[i].Attack
		t.Defense += s.profiles[i].Defense
	}
	return t
}

// assign preenche as cotas na ordem de Priority, pegando os melhores por
// aptidão entre os ainda livres, mesmo com aptidão negativa; a combinação só
// é rejeitada se faltar gente para a cota. Empates ficam com a ordem de entrada.
// É uma heurística de viabilidade, não uma prova de alocação ótima.
func (s *search) assign(combo []int) ([]Role, bool) {
	roles := make([]Role, len(combo))
	taken := make([]bool, len(combo))
	cand := make([]int, 0, len(combo))

	for ri, r := range Priority {
		need := s.quotas[ri]
		if need == 0 {
			continue
		}
		cand = cand[:0]
		for pos := range combo {
			if !taken[pos] {
				cand = append(cand, pos)
			}
		}
		if len(cand) < need {
			return nil, false
		}
		sort.SliceStable(cand, func(x, y int) bool {
			return s.profiles[combo[cand[x]]].apt[ri] > s.profiles[combo[cand[y]]].apt[ri]
		})
		for _, pos := range cand[:need] {
			taken[pos] = true
			roles[pos] = r
		}
	}
	for pos := range roles {
		if !taken[pos] {
			roles[pos] = Utility
		}
	}
	return roles, true
}

func (s *search) team(mask uint64) []Assignment {
	combo := make([]int, 0, s.k)
	for i := range s.profiles {
		if mask&bit(i) != 0 {
			combo = append(combo, i)
		}
	}
	roles, _ := s.assign(combo)
	team := make([]Assignment, len(combo))
	for pos, i := range combo {
		team[pos] = Assignment{Profile: s.profiles[i], Role: roles[pos]}
	}
	return team
}
