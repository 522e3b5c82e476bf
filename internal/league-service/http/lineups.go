package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/pelada-bet-platform/internal/league"
	"github.com/radieske/pelada-bet-platform/internal/league-service/dto"
	"github.com/radieske/pelada-bet-platform/internal/league/lineup"
	"github.com/radieske/pelada-bet-platform/internal/shared/httpx"
)

func (a *API) optimalLineup(w http.ResponseWriter, r *http.Request) {
	a.lineup(w, r, "optimal", func(players []league.Player, req dto.LineupRequest) (*lineup.Result, error) {
		roles := make(map[lineup.Role]int, len(req.Roles))
		for name, n := range req.Roles {
			roles[lineup.Role(name)] = n
		}
		return lineup.Optimize(players, lineup.Request{RosterSize: req.RosterSize, Roles: roles})
	})
}

func (a *API) quickLineup(w http.ResponseWriter, r *http.Request) {
	a.lineup(w, r, "quick", func(players []league.Player, req dto.LineupRequest) (*lineup.Result, error) {
		return lineup.QuickSplit(players, req.RosterSize)
	})
}

type lineupFunc func([]league.Player, dto.LineupRequest) (*lineup.Result, error)

func (a *API) lineup(w http.ResponseWriter, r *http.Request, mode string, run lineupFunc) {
	var req dto.LineupRequest
	if !httpx.Decode(w, r, &req) {
		return
	}

	players, missing, err := a.lineupPool(r, req.PlayerIDs)
	if err != nil {
		httpx.Internal(w, a.Log, "load players failed", err)
		return
	}
	if len(missing) > 0 {
		msgs := make([]string, len(missing))
		for i, id := range missing {
			msgs[i] = fmt.Sprintf("unknown player %q", id)
		}
		httpx.WriteErrors(w, http.StatusUnprocessableEntity, string(lineup.KindValidation), msgs)
		return
	}

	start := time.Now()
	res, err := run(players, req)
	took := time.Since(start)
	if a.OnLineup != nil {
		a.OnLineup(mode, took, err)
	}

	if err != nil {
		var le *lineup.Error
		if !errors.As(err, &le) {
			httpx.Internal(w, a.Log, "lineup failed", err)
			return
		}
		status := http.StatusConflict
		if le.Kind == lineup.KindValidation {
			status = http.StatusUnprocessableEntity
		}
		httpx.WriteErrors(w, status, string(le.Kind), le.Messages)
		return
	}

	a.Log.Info("lineup generated",
		zap.String("mode", mode),
		zap.Int("pool", len(players)),
		zap.Int("pairs", res.Evaluated),
		zap.Float64("cost", res.Cost),
		zap.Duration("took", took),
	)
	httpx.WriteJSON(w, http.StatusOK, res)
}

// lineupPool devolve os jogadores pedidos (ou todos) e os ids desconhecidos
func (a *API) lineupPool(r *http.Request, ids []string) ([]league.Player, []string, error) {
	if len(ids) == 0 {
		players, err := a.Repo.ListPlayers(r.Context())
		return players, nil, err
	}
	players, err := a.Repo.PlayersByIDs(r.Context(), ids)
	if err != nil {
		return nil, nil, err
	}
	found := make(map[string]bool, len(players))
	for _, p := range players {
		found[p.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return players, missing, nil
}
