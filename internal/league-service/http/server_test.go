package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/pelada-bet-platform/internal/league"
	"github.com/radieske/pelada-bet-platform/internal/league-service/repo"
	"github.com/radieske/pelada-bet-platform/internal/league/markets"
	"github.com/radieske/pelada-bet-platform/internal/shared/httpx"
	"github.com/radieske/pelada-bet-platform/pkg/contracts/events"
	cmarkets "github.com/radieske/pelada-bet-platform/pkg/contracts/markets"
)

type fakeRepo struct {
	players map[string]league.Player
	order   []string
	matches map[string]league.Match
	ratings map[string]float64
}

func newFakeRepo(players ...league.Player) *fakeRepo {
	f := &fakeRepo{players: map[string]league.Player{}, matches: map[string]league.Match{}, ratings: map[string]float64{}}
	for _, p := range players {
		f.players[p.ID] = p
		f.order = append(f.order, p.ID)
	}
	return f
}

func (f *fakeRepo) ListPlayers(context.Context) ([]league.Player, error) {
	out := make([]league.Player, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.players[id])
	}
	return out, nil
}

func (f *fakeRepo) UpdateRating(_ context.Context, id string, r float64) error {
	f.ratings[id] = r
	return nil
}

func (f *fakeRepo) CreatePlayer(_ context.Context, p *league.Player) (string, error) {
	p.ID = "p-new"
	f.players[p.ID] = *p
	f.order = append(f.order, p.ID)
	return p.ID, nil
}

func (f *fakeRepo) GetPlayer(_ context.Context, id string) (league.Player, error) {
	p, ok := f.players[id]
	if !ok {
		return league.Player{}, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) PlayersByIDs(_ context.Context, ids []string) ([]league.Player, error) {
	var out []league.Player
	for _, id := range ids {
		if p, ok := f.players[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) SetPlayerStatus(_ context.Context, id string, s league.PlayerStatus) error {
	p, ok := f.players[id]
	if !ok {
		return repo.ErrNotFound
	}
	p.Status = s
	f.players[id] = p
	return nil
}

func (f *fakeRepo) CreateMatch(_ context.Context, m *league.Match) (string, error) {
	m.ID = "m-new"
	f.matches[m.ID] = *m
	return m.ID, nil
}

func (f *fakeRepo) GetMatch(_ context.Context, id string) (league.Match, error) {
	m, ok := f.matches[id]
	if !ok {
		return league.Match{}, repo.ErrNotFound
	}
	return m, nil
}

func (f *fakeRepo) ListMatches(_ context.Context, s league.MatchStatus) ([]league.Match, error) {
	var out []league.Match
	for _, m := range f.matches {
		if s == "" || m.Status == s {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateMatchStatus(_ context.Context, id string, to league.MatchStatus) error {
	m, ok := f.matches[id]
	if !ok {
		return repo.ErrNotFound
	}
	if !m.Status.CanTransition(to) {
		return repo.ErrInvalidTransition
	}
	m.Status = to
	f.matches[id] = m
	return nil
}

type fakeCache struct {
	lines       map[string][]markets.Line
	odds        map[string]map[string]float64
	closed      []string
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{lines: map[string][]markets.Line{}, odds: map[string]map[string]float64{}}
}

func (c *fakeCache) GetPlayerMarkets(_ context.Context, id string, dst *[]markets.Line) (bool, error) {
	l, ok := c.lines[id]
	*dst = l
	return ok, nil
}

func (c *fakeCache) SetPlayerMarkets(_ context.Context, id string, l []markets.Line) error {
	c.lines[id] = l
	return nil
}

func (c *fakeCache) InvalidatePlayers(_ context.Context, ids ...string) error {
	c.invalidated += len(ids)
	return nil
}

func (c *fakeCache) PublishMatchOdds(_ context.Context, id string, odds map[string]float64) error {
	c.odds[id] = odds
	return nil
}

func (c *fakeCache) CloseMatchOdds(_ context.Context, id string) error {
	c.closed = append(c.closed, id)
	delete(c.odds, id)
	return nil
}

type fakePublisher struct{ sent []events.MatchResultSubmitted }

func (p *fakePublisher) PublishMatchResult(_ context.Context, ev events.MatchResultSubmitted) error {
	p.sent = append(p.sent, ev)
	return nil
}

func player(id, name string, goals, tackles, saves int, r float64) league.Player {
	return league.Player{
		ID:     id,
		Name:   name,
		Status: league.PlayerAvailable,
		Rating: r,
		Stats:  league.Stats{Games: 10, Goals: goals, Tackles: tackles, Saves: saves},
	}
}

func roster() []league.Player {
	return []league.Player{
		player("gk1", "Marcos", 0, 1, 40, 7),
		player("gk2", "Dida", 0, 2, 35, 6.5),
		player("z1", "Lúcio", 1, 30, 0, 6),
		player("z2", "Aldair", 0, 25, 0, 6),
		player("a1", "Romário", 12, 0, 0, 8),
		player("a2", "Bebeto", 9, 1, 0, 7),
		player("v1", "Dunga", 1, 15, 0, 6.5),
		player("v2", "Mauro Silva", 0, 18, 0, 6.2),
	}
}

type env struct {
	api   *API
	repo  *fakeRepo
	cache *fakeCache
	pub   *fakePublisher
	srv   http.Handler
}

func newEnv() *env {
	e := &env{repo: newFakeRepo(roster()...), cache: newFakeCache(), pub: &fakePublisher{}}
	e.api = &API{Repo: e.repo, Cache: e.cache, Publisher: e.pub, Log: zap.NewNop()}
	e.srv = e.api.Router()
	return e
}

func (e *env) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func (e *env) seedMatch(status league.MatchStatus) {
	e.repo.matches["m1"] = league.Match{
		ID:          "m1",
		TeamA:       "Azul",
		TeamB:       "Branco",
		ScheduledAt: time.Now().Add(time.Hour),
		Status:      status,
		RosterA:     []string{"gk1", "z1", "a1", "v1"},
		RosterB:     []string{"gk2", "z2", "a2", "v2"},
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httpx.ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func TestListPlayersSearch(t *testing.T) {
	e := newEnv()
	rec := e.do(http.MethodGet, "/v1/players?q=romario", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var hits []struct {
		Player league.Player `json:"player"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&hits); err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 || hits[0].Player.ID != "a1" {
		t.Fatalf("hits = %+v", hits)
	}
}

func TestCreatePlayerValidation(t *testing.T) {
	e := newEnv()
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "ok", body: `{"name":"Careca"}`, want: http.StatusCreated},
		{name: "missing name", body: `{}`, want: http.StatusUnprocessableEntity},
		{name: "bad status", body: `{"name":"Careca","status":"FERIAS"}`, want: http.StatusUnprocessableEntity},
		{name: "unknown field", body: `{"name":"Careca","age":30}`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := e.do(http.MethodPost, "/v1/players", tt.body); rec.Code != tt.want {
				t.Fatalf("status %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestGetPlayerNotFound(t *testing.T) {
	e := newEnv()
	rec := e.do(http.MethodGet, "/v1/players/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "NOT_FOUND" {
		t.Errorf("code %s", code)
	}
}

func TestPlayerMarketsUsesCache(t *testing.T) {
	e := newEnv()
	rec := e.do(http.MethodGet, "/v1/players/a1/markets", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if len(e.cache.lines["a1"]) != len(cmarkets.Stats)*len(cmarkets.Lines) {
		t.Fatalf("cached %d lines", len(e.cache.lines["a1"]))
	}

	rec = e.do(http.MethodGet, "/v1/players/a1/markets", "")
	var resp struct {
		Cached bool `json:"cached"`
	}
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if !resp.Cached {
		t.Error("second call should come from cache")
	}
}

func TestRecomputeRatings(t *testing.T) {
	e := newEnv()
	rec := e.do(http.MethodPost, "/v1/players/ratings/recompute", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if len(e.repo.ratings) == 0 {
		t.Error("no rating written")
	}
	if e.cache.invalidated != len(roster()) {
		t.Errorf("invalidated %d markets", e.cache.invalidated)
	}
}

func TestLineups(t *testing.T) {
	var modes []string
	e := newEnv()
	e.api.OnLineup = func(mode string, _ time.Duration, _ error) { modes = append(modes, mode) }

	// oito atacantes puros: o gol fica com o primeiro do ranking de aptidão
	var scorers []string
	for _, id := range []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8"} {
		e.repo.players[id] = player(id, id, 5, 0, 0, 6)
		scorers = append(scorers, `"`+id+`"`)
	}
	onlyScorers := `{"rosterSize":4,"playerIds":[` + strings.Join(scorers, ",") + `]}`

	tests := []struct {
		name string
		path string
		body string
		want int
		code string
	}{
		{name: "optimal", path: "/v1/lineups", body: `{"rosterSize":4,"roles":{"GOLEIRO":1}}`, want: http.StatusOK},
		{name: "quick", path: "/v1/lineups/quick", body: `{"rosterSize":4}`, want: http.StatusOK},
		{name: "two keepers", path: "/v1/lineups", body: `{"rosterSize":4,"roles":{"GOLEIRO":2}}`, want: http.StatusUnprocessableEntity, code: "VALIDATION"},
		{name: "unknown player", path: "/v1/lineups", body: `{"rosterSize":4,"playerIds":["gk1","zzz"]}`, want: http.StatusUnprocessableEntity, code: "VALIDATION"},
		{name: "no saves anywhere", path: "/v1/lineups", body: onlyScorers, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
			if tt.code != "" {
				if code := errorCode(t, rec); code != tt.code {
					t.Errorf("code %s, want %s", code, tt.code)
				}
			}
		})
	}
	if len(modes) != 4 || modes[1] != "quick" {
		t.Errorf("OnLineup modes = %v", modes)
	}
}

func TestCreateMatchOpensOdds(t *testing.T) {
	e := newEnv()
	body := `{"teamA":"Azul","teamB":"Branco","scheduledAt":"2030-01-01T20:00:00Z",
		"rosterA":["gk1","z1","a1","v1"],"rosterB":["gk2","z2","a2","v2"]}`
	rec := e.do(http.MethodPost, "/v1/matches", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	odds := e.cache.odds["m-new"]
	if odds[string(cmarkets.HomeWin)] < markets.MinOdd || odds[string(cmarkets.Draw)] < markets.MinOdd {
		t.Fatalf("result odds not published: %v", odds)
	}
	if _, ok := odds["GOLS_MAIS_0.5_a1"]; !ok {
		t.Error("player market not published")
	}
}

func TestCreateMatchRosterErrors(t *testing.T) {
	e := newEnv()
	e.repo.players["v2"] = func() league.Player { p := e.repo.players["v2"]; p.Status = league.PlayerInjured; return p }()

	body := `{"teamA":"Azul","teamB":"Branco","scheduledAt":"2030-01-01T20:00:00Z",
		"rosterA":["gk1","z1","ghost"],"rosterB":["gk1","v2"]}`
	rec := e.do(http.MethodPost, "/v1/matches", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d", rec.Code)
	}
	var resp httpx.ErrorBody
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Error.Messages) != 3 {
		t.Fatalf("messages = %v", resp.Error.Messages)
	}
}

func TestMatchOddsOnlyOpenWhenScheduled(t *testing.T) {
	e := newEnv()
	e.seedMatch(league.MatchLive)

	rec := e.do(http.MethodGet, "/v1/matches/m1/odds", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp struct {
		Open    bool `json:"open"`
		Players []struct {
			Team string `json:"team"`
		} `json:"players"`
	}
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Open || len(e.cache.odds) != 0 {
		t.Error("LIVE match must not publish odds")
	}
	if len(resp.Players) != 8 || resp.Players[0].Team != "A" {
		t.Errorf("players = %+v", resp.Players)
	}
}

func TestMatchStatusTransitions(t *testing.T) {
	e := newEnv()
	e.seedMatch(league.MatchScheduled)

	if rec := e.do(http.MethodPatch, "/v1/matches/m1/status", `{"status":"LIVE"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("SCHEDULED -> LIVE: %d", rec.Code)
	}
	if len(e.cache.closed) != 1 {
		t.Error("odds not closed on kickoff")
	}
	rec := e.do(http.MethodPatch, "/v1/matches/m1/status", `{"status":"SCHEDULED"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("LIVE -> SCHEDULED: %d", rec.Code)
	}
	if rec := e.do(http.MethodPatch, "/v1/matches/m1/status", `{"status":"FINISHED"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("FINISHED by hand: %d", rec.Code)
	}
}

func TestSubmitResult(t *testing.T) {
	e := newEnv()
	e.seedMatch(league.MatchLive)

	body := `{"submittedBy":"admin","lines":[{"playerId":"a1","goals":2},{"playerId":"a2","goals":1}],"absent":["v2"]}`
	rec := e.do(http.MethodPost, "/v1/matches/m1/result", body)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	if len(e.pub.sent) != 1 {
		t.Fatalf("published %d events", len(e.pub.sent))
	}
	ev := e.pub.sent[0]
	if ev.MatchID != "m1" || len(ev.Lines) != 3 || !ev.Lines[2].Absent || ev.Lines[2].PlayerID != "v2" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestSubmitResultRejects(t *testing.T) {
	tests := []struct {
		name   string
		status league.MatchStatus
		body   string
		want   int
		code   string
	}{
		{name: "finished", status: league.MatchFinished, body: `{"submittedBy":"admin","lines":[]}`, want: http.StatusConflict, code: "ALREADY_SETTLED"},
		{name: "postponed", status: league.MatchPostponed, body: `{"submittedBy":"admin","lines":[]}`, want: http.StatusConflict, code: "INVALID_STATUS"},
		{name: "not on roster", status: league.MatchLive, body: `{"submittedBy":"admin","lines":[{"playerId":"ghost","goals":1}]}`, want: http.StatusUnprocessableEntity, code: "VALIDATION"},
		{name: "duplicate", status: league.MatchLive, body: `{"submittedBy":"admin","lines":[{"playerId":"a1"},{"playerId":"a1"}]}`, want: http.StatusUnprocessableEntity, code: "VALIDATION"},
		{name: "negative goals", status: league.MatchLive, body: `{"submittedBy":"admin","lines":[{"playerId":"a1","goals":-1}]}`, want: http.StatusUnprocessableEntity, code: "VALIDATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			e.seedMatch(tt.status)
			rec := e.do(http.MethodPost, "/v1/matches/m1/result", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
			if code := errorCode(t, rec); code != tt.code {
				t.Errorf("code %s, want %s", code, tt.code)
			}
			if len(e.pub.sent) != 0 {
				t.Error("rejected result was published")
			}
		})
	}
}
