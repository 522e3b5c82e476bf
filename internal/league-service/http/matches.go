package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/pelada-bet-platform/internal/league"
	"github.com/radieske/pelada-bet-platform/internal/league-service/dto"
	"github.com/radieske/pelada-bet-platform/internal/league-service/repo"
	"github.com/radieske/pelada-bet-platform/internal/league/markets"
	"github.com/radieske/pelada-bet-platform/internal/shared/httpx"
	cmarkets "github.com/radieske/pelada-bet-platform/pkg/contracts/markets"
)

func (a *API) listMatches(w http.ResponseWriter, r *http.Request) {
	status := league.MatchStatus(r.URL.Query().Get("status"))
	ms, err := a.Repo.ListMatches(r.Context(), status)
	if err != nil {
		httpx.Internal(w, a.Log, "list matches failed", err)
		return
	}
	if ms == nil {
		ms = []league.Match{}
	}
	httpx.WriteJSON(w, http.StatusOK, ms)
}

func (a *API) getMatch(w http.ResponseWriter, r *http.Request) {
	m, err := a.Repo.GetMatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.notFoundOr500(w, err, "match")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, m)
}

// createMatch grava a partida como SCHEDULED e já abre as odds
func (a *API) createMatch(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMatchRequest
	if !httpx.Decode(w, r, &req) {
		return
	}

	ids := append(append([]string(nil), req.RosterA...), req.RosterB...)
	players, err := a.Repo.PlayersByIDs(r.Context(), ids)
	if err != nil {
		httpx.Internal(w, a.Log, "load players failed", err)
		return
	}
	if msgs := validateRosters(req, players); len(msgs) > 0 {
		httpx.WriteErrors(w, http.StatusUnprocessableEntity, "VALIDATION", msgs)
		return
	}

	m := league.Match{
		TeamA:       req.TeamA,
		TeamB:       req.TeamB,
		ScheduledAt: req.ScheduledAt,
		Status:      league.MatchScheduled,
		RosterA:     req.RosterA,
		RosterB:     req.RosterB,
	}
	id, err := a.Repo.CreateMatch(r.Context(), &m)
	if err != nil {
		httpx.Internal(w, a.Log, "create match failed", err)
		return
	}
	m.ID = id

	if _, err := a.openOdds(r.Context(), m); err != nil {
		a.Log.Warn("open odds failed", zap.String("match_id", id), zap.Error(err))
	}
	a.Log.Info("match created",
		zap.String("match_id", id),
		zap.Int("roster_a", len(m.RosterA)),
		zap.Int("roster_b", len(m.RosterB)),
	)
	httpx.WriteJSON(w, http.StatusCreated, dto.CreatedResponse{ID: id})
}

func validateRosters(req dto.CreateMatchRequest, players []league.Player) []string {
	var msgs []string
	byID := make(map[string]league.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	seen := map[string]bool{}
	for _, roster := range [][]string{req.RosterA, req.RosterB} {
		for _, id := range roster {
			if seen[id] {
				msgs = append(msgs, fmt.Sprintf("player %q appears more than once", id))
				continue
			}
			seen[id] = true
			p, ok := byID[id]
			switch {
			case !ok:
				msgs = append(msgs, fmt.Sprintf("unknown player %q", id))
			case p.Status != league.PlayerAvailable:
				msgs = append(msgs, fmt.Sprintf("player %q is %s", id, p.Status))
			}
		}
	}
	return msgs
}

// matchOdds devolve o 1x2 e a grade de cada jogador escalado.
// Com a partida agendada, as odds também são gravadas para validar apostas.
func (a *API) matchOdds(w http.ResponseWriter, r *http.Request) {
	m, err := a.Repo.GetMatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.notFoundOr500(w, err, "match")
		return
	}

	resp, err := a.openOdds(r.Context(), m)
	if err != nil {
		httpx.Internal(w, a.Log, "price match failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (a *API) openOdds(ctx context.Context, m league.Match) (dto.MatchOddsResponse, error) {
	resp, odds, err := a.priceMatch(ctx, m)
	if err != nil {
		return resp, err
	}
	if m.Status != league.MatchScheduled {
		return resp, nil
	}
	if err := a.Cache.PublishMatchOdds(ctx, m.ID, odds); err != nil {
		a.Log.Warn("publish odds failed", zap.String("match_id", m.ID), zap.Error(err))
		return resp, nil
	}
	resp.Open = true
	return resp, nil
}

// priceMatch calcula a resposta e o mapa token -> odd
func (a *API) priceMatch(ctx context.Context, m league.Match) (dto.MatchOddsResponse, map[string]float64, error) {
	players, err := a.Repo.PlayersByIDs(ctx, append(append([]string(nil), m.RosterA...), m.RosterB...))
	if err != nil {
		return dto.MatchOddsResponse{}, nil, err
	}

	var ratingsA, ratingsB []float64
	resp := dto.MatchOddsResponse{MatchID: m.ID, Status: m.Status}
	odds := map[string]float64{}
	for _, p := range players {
		side := m.Side(p.ID)
		if side == "A" {
			ratingsA = append(ratingsA, p.Rating)
		} else {
			ratingsB = append(ratingsB, p.Rating)
		}

		lines := markets.PlayerMarkets(p)
		for _, ln := range lines {
			if ln.Over != nil {
				odds[ln.OverKey] = *ln.Over
			}
			if ln.Under != nil {
				odds[ln.UnderKey] = *ln.Under
			}
		}
		resp.Players = append(resp.Players, dto.PlayerMarketsResponse{
			PlayerID: p.ID,
			Name:     p.Name,
			Team:     side,
			Rating:   p.Rating,
			Lines:    lines,
		})
	}

	resp.Result = markets.MatchResultOdds(markets.SumRatings(ratingsA), markets.SumRatings(ratingsB))
	for _, o := range []cmarkets.Outcome{cmarkets.HomeWin, cmarkets.Draw, cmarkets.AwayWin} {
		odds[cmarkets.ResultDetail(o).String()] = resp.Result.ByOutcome(o)
	}
	return resp, odds, nil
}

func (a *API) setMatchStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.MatchStatusRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	to := league.MatchStatus(req.Status)

	err := a.Repo.UpdateMatchStatus(r.Context(), id, to)
	switch {
	case errors.Is(err, repo.ErrInvalidTransition):
		httpx.WriteError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
		return
	case err != nil:
		a.notFoundOr500(w, err, "match")
		return
	}

	if to == league.MatchScheduled {
		if m, err := a.Repo.GetMatch(r.Context(), id); err == nil {
			if _, err := a.openOdds(r.Context(), m); err != nil {
				a.Log.Warn("reopen odds failed", zap.String("match_id", id), zap.Error(err))
			}
		}
	} else if err := a.Cache.CloseMatchOdds(r.Context(), id); err != nil {
		a.Log.Warn("close odds failed", zap.String("match_id", id), zap.Error(err))
	}

	a.Log.Info("match status changed", zap.String("match_id", id), zap.String("status", req.Status))
	w.WriteHeader(http.StatusNoContent)
}

// submitResult valida o resultado do admin e publica para a liquidação.
// Nada é gravado aqui: placar, estatísticas e notas são aplicados pelo worker.
func (a *API) submitResult(w http.ResponseWriter, r *http.Request) {
	var req dto.MatchResultRequest
	if !httpx.Decode(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	m, err := a.Repo.GetMatch(r.Context(), id)
	if err != nil {
		a.notFoundOr500(w, err, "match")
		return
	}
	switch m.Status {
	case league.MatchFinished:
		httpx.WriteError(w, http.StatusConflict, "ALREADY_SETTLED", "match already finished")
		return
	case league.MatchPostponed:
		httpx.WriteError(w, http.StatusConflict, "INVALID_STATUS", "match is postponed")
		return
	}

	ev, msgs := req.Event(m, time.Now())
	if len(msgs) > 0 {
		httpx.WriteErrors(w, http.StatusUnprocessableEntity, "VALIDATION", msgs)
		return
	}

	if err := a.Publisher.PublishMatchResult(r.Context(), ev); err != nil {
		httpx.Internal(w, a.Log, "publish match result failed", err)
		return
	}
	if err := a.Cache.CloseMatchOdds(r.Context(), id); err != nil {
		a.Log.Warn("close odds failed", zap.String("match_id", id), zap.Error(err))
	}

	a.Log.Info("match result submitted",
		zap.String("match_id", id),
		zap.Int("lines", len(ev.Lines)),
		zap.String("by", req.SubmittedBy),
	)
	httpx.WriteJSON(w, http.StatusAccepted, dto.ResultAcceptedResponse{MatchID: id, Status: "SUBMITTED"})
}
