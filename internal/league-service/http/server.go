package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/pelada-bet-platform/internal/league"
	"github.com/radieske/pelada-bet-platform/internal/league-service/repo"
	"github.com/radieske/pelada-bet-platform/internal/league/markets"
	"github.com/radieske/pelada-bet-platform/internal/shared/httpx"
	"github.com/radieske/pelada-bet-platform/pkg/contracts/events"
)

// Repo é o acesso a jogadores e partidas usado pela API
type Repo interface {
	ListPlayers(ctx context.Context) ([]league.Player, error)
	UpdateRating(ctx context.Context, id string, rating float64) error
	CreatePlayer(ctx context.Context, p *league.Player) (string, error)
	GetPlayer(ctx context.Context, id string) (league.Player, error)
	PlayersByIDs(ctx context.Context, ids []string) ([]league.Player, error)
	SetPlayerStatus(ctx context.Context, id string, status league.PlayerStatus) error
	CreateMatch(ctx context.Context, m *league.Match) (string, error)
	GetMatch(ctx context.Context, id string) (league.Match, error)
	ListMatches(ctx context.Context, status league.MatchStatus) ([]league.Match, error)
	UpdateMatchStatus(ctx context.Context, id string, to league.MatchStatus) error
}

// MarketsCache guarda grades de jogador e as odds abertas por partida
type MarketsCache interface {
	GetPlayerMarkets(ctx context.Context, playerID string, dst *[]markets.Line) (bool, error)
	SetPlayerMarkets(ctx context.Context, playerID string, lines []markets.Line) error
	InvalidatePlayers(ctx context.Context, ids ...string) error
	PublishMatchOdds(ctx context.Context, matchID string, odds map[string]float64) error
	CloseMatchOdds(ctx context.Context, matchID string) error
}

// ResultPublisher envia o resultado lançado para a liquidação
type ResultPublisher interface {
	PublishMatchResult(ctx context.Context, ev events.MatchResultSubmitted) error
}

// API expõe os endpoints REST da liga: jogadores, escalação, partidas e mercados
type API struct {
	Repo      Repo
	Cache     MarketsCache
	Publisher ResultPublisher
	Log       *zap.Logger

	// OnLineup é chamado ao fim de cada escalação (mode = optimal|quick)
	OnLineup func(mode string, took time.Duration, err error)
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/v1/players", a.listPlayers)                         // Lista/busca jogadores
	r.Post("/v1/players", a.createPlayer)                       // Cadastra jogador
	r.Post("/v1/players/ratings/recompute", a.recomputeRatings) // Regrava as notas
	r.Get("/v1/players/{id}", a.getPlayer)                      // Jogador + pureza
	r.Patch("/v1/players/{id}/status", a.setPlayerStatus)       // Disponibilidade
	r.Get("/v1/players/{id}/markets", a.playerMarkets)          // Grade over/under

	r.Post("/v1/lineups", a.optimalLineup)     // Escalação exata
	r.Post("/v1/lineups/quick", a.quickLineup) // Gerador rápido

	r.Get("/v1/matches", a.listMatches)
	r.Post("/v1/matches", a.createMatch)
	r.Get("/v1/matches/{id}", a.getMatch)
	r.Get("/v1/matches/{id}/odds", a.matchOdds)
	r.Patch("/v1/matches/{id}/status", a.setMatchStatus)
	r.Post("/v1/matches/{id}/result", a.submitResult)
	return r
}

func (a *API) notFoundOr500(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, repo.ErrNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", what+" not found")
		return
	}
	httpx.Internal(w, a.Log, "load "+what+" failed", err)
}

func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return def
	}
	return n
}
