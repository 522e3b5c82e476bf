package lineup

import (
	"fmt"
	"sort"

	"github.com/radieske/pelada-bet-platform/internal/league"
	"github.com/radieske/pelada-bet-platform/internal/league/rating"
)

// QuickSplit é o gerador antigo, de passada única: os dois goleiros mais puros
// vão um para cada lado e o resto é distribuído em serpentina pela nota.
// Não garante cotas nem custo mínimo.
func QuickSplit(players []league.Player, rosterSize int) (*Result, error) {
	if rosterSize < MinRosterSize || rosterSize > MaxRosterSize {
		return nil, &Error{Kind: KindValidation, Messages: []string{
			fmt.Sprintf("roster size must be between %d and %d, got %d", MinRosterSize, MaxRosterSize, rosterSize),
		}}
	}
	pool, injured := splitInjured(players)
	if len(pool) < 2*rosterSize {
		return nil, &Error{Kind: KindValidation, Messages: []string{
			fmt.Sprintf("need at least %d available players, have %d", 2*rosterSize, len(pool)),
		}}
	}

	purity := make([]rating.Purity, len(pool))
	order := make([]int, len(pool))
	for i, p := range pool {
		purity[i] = rating.PurityOf(p.Stats)
		order[i] = i
	}

	sort.SliceStable(order, func(x, y int) bool {
		return purity[order[x]].Goalkeeper > purity[order[y]].Goalkeeper
	})
	keepers := order[:2]
	rest := append([]int(nil), order[2:]...)
	sort.SliceStable(rest, func(x, y int) bool {
		return pool[rest[x]].Rating > pool[rest[y]].Rating
	})

	res := &Result{Injured: injured}
	res.TeamA = append(res.TeamA, Assignment{Profile: NewProfile(pool[keepers[0]]), Role: Goalkeeper})
	res.TeamB = append(res.TeamB, Assignment{Profile: NewProfile(pool[keepers[1]]), Role: Goalkeeper})

	// serpentina começando pelo B: B, A, A, B, B, A, ...
	for n, i := range rest {
		pr := NewProfile(pool[i])
		role := HoldingMid
		if purity[i].Striker > purity[i].HoldingMidfield {
			role = Striker
		}
		toB := n%4 == 0 || n%4 == 3
		switch {
		case toB && len(res.TeamB) < rosterSize:
			res.TeamB = append(res.TeamB, Assignment{Profile: pr, Role: role})
		case !toB && len(res.TeamA) < rosterSize:
			res.TeamA = append(res.TeamA, Assignment{Profile: pr, Role: role})
		case len(res.TeamB) < rosterSize:
			res.TeamB = append(res.TeamB, Assignment{Profile: pr, Role: role})
		case len(res.TeamA) < rosterSize:
			res.TeamA = append(res.TeamA, Assignment{Profile: pr, Role: role})
		default:
			res.Bench = append(res.Bench, pr)
		}
	}

	res.TotalsA = totalsOf(res.TeamA)
	res.TotalsB = totalsOf(res.TeamB)
	res.Cost = Cost(res.TotalsA, res.TotalsB)
	return res, nil
}
