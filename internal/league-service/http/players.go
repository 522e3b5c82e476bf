package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/pelada-bet-platform/internal/league"
	"github.com/radieske/pelada-bet-platform/internal/league-service/dto"
	"github.com/radieske/pelada-bet-platform/internal/league/markets"
	"github.com/radieske/pelada-bet-platform/internal/league/rating"
	"github.com/radieske/pelada-bet-platform/internal/league/search"
	"github.com/radieske/pelada-bet-platform/internal/shared/httpx"
)

// listPlayers lista os jogadores; com ?q= filtra por nome aproximado
func (a *API) listPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := a.Repo.ListPlayers(r.Context())
	if err != nil {
		httpx.Internal(w, a.Log, "list players failed", err)
		return
	}
	hits := search.Players(players, r.URL.Query().Get("q"), queryInt(r, "limit", 0))
	httpx.WriteJSON(w, http.StatusOK, hits)
}

func (a *API) createPlayer(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePlayerRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	p := league.Player{Name: req.Name, UserID: req.UserID, Status: league.PlayerStatus(req.Status)}
	id, err := a.Repo.CreatePlayer(r.Context(), &p)
	if err != nil {
		httpx.Internal(w, a.Log, "create player failed", err)
		return
	}
	a.Log.Info("player created", zap.String("player_id", id), zap.String("name", req.Name))
	httpx.WriteJSON(w, http.StatusCreated, dto.CreatedResponse{ID: id})
}

func (a *API) getPlayer(w http.ResponseWriter, r *http.Request) {
	p, err := a.Repo.GetPlayer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.notFoundOr500(w, err, "player")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.PlayerResponse{Player: p, Purity: rating.PurityOf(p.Stats)})
}

func (a *API) setPlayerStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.PlayerStatusRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.Repo.SetPlayerStatus(r.Context(), id, league.PlayerStatus(req.Status)); err != nil {
		a.notFoundOr500(w, err, "player")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// recomputeRatings regrava a nota de todos e descarta as grades em cache
func (a *API) recomputeRatings(w http.ResponseWriter, r *http.Request) {
	sum, err := rating.Recompute(r.Context(), a.Repo, a.Log)
	if err != nil {
		httpx.Internal(w, a.Log, "recompute ratings failed", err)
		return
	}
	if players, err := a.Repo.ListPlayers(r.Context()); err == nil {
		ids := make([]string, len(players))
		for i, p := range players {
			ids[i] = p.ID
		}
		if err := a.Cache.InvalidatePlayers(r.Context(), ids...); err != nil {
			a.Log.Warn("invalidate markets cache failed", zap.Error(err))
		}
	}
	httpx.WriteJSON(w, http.StatusOK, sum)
}

// playerMarkets retorna a grade over/under, preferencialmente do cache
func (a *API) playerMarkets(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var lines []markets.Line
	if ok, err := a.Cache.GetPlayerMarkets(r.Context(), id, &lines); err == nil && ok {
		httpx.WriteJSON(w, http.StatusOK, dto.PlayerMarketsResponse{PlayerID: id, Lines: lines, Cached: true})
		return
	}

	p, err := a.Repo.GetPlayer(r.Context(), id)
	if err != nil {
		a.notFoundOr500(w, err, "player")
		return
	}
	lines = markets.PlayerMarkets(p)
	if err := a.Cache.SetPlayerMarkets(r.Context(), id, lines); err != nil {
		a.Log.Warn("cache player markets failed", zap.String("player_id", id), zap.Error(err))
	}
	httpx.WriteJSON(w, http.StatusOK, dto.PlayerMarketsResponse{
		PlayerID: p.ID,
		Name:     p.Name,
		Rating:   p.Rating,
		Lines:    lines,
	})
}
