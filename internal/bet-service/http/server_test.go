package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/pelada-bet-platform/internal/bet-service/odds"
	"github.com/radieske/pelada-bet-platform/internal/bet-service/repo"
	"github.com/radieske/pelada-bet-platform/internal/shared/wallet"
	"github.com/radieske/pelada-bet-platform/pkg/contracts/events"
)

type fakeRepo struct {
	slips   map[string]repo.Slip
	deleted []string
	seq     int
}

func (f *fakeRepo) CreateSlip(_ context.Context, s *repo.Slip) (string, error) {
	f.seq++
	s.ID = "slip-" + string(rune('0'+f.seq))
	s.Status = "ABERTO"
	for i := range s.Legs {
		s.Legs[i].ID = s.ID + "-leg"
		s.Legs[i].Status = "PENDING"
	}
	f.slips[s.ID] = *s
	return s.ID, nil
}

func (f *fakeRepo) DeleteSlip(_ context.Context, id string) error {
	delete(f.slips, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRepo) GetSlip(_ context.Context, id string) (repo.Slip, error) {
	s, ok := f.slips[id]
	if !ok {
		return repo.Slip{}, repo.ErrNotFound
	}
	return s, nil
}

func (f *fakeRepo) ListByUser(_ context.Context, userID string) ([]repo.Slip, error) {
	out := []repo.Slip{}
	for _, s := range f.slips {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeOdds map[string]float64

func (f fakeOdds) CurrentOdd(_ context.Context, matchID, token string) (float64, error) {
	if matchID == "down" {
		return 0, errors.New("connection refused")
	}
	v, ok := f[matchID+"/"+token]
	if !ok {
		return 0, odds.ErrMarketClosed
	}
	return v, nil
}

type fakeWallet struct {
	err      error
	lost     bool // reserva feita, mas a resposta se perde
	reserved map[string]int64
	refunded []string
}

func (f *fakeWallet) Reserve(_ context.Context, _ string, cents int64, ref string) (string, error) {
	if f.lost {
		f.reserved[ref] = cents
		return "", context.DeadlineExceeded
	}
	if f.err != nil {
		return "", f.err
	}
	f.reserved[ref] = cents
	return "res-" + ref, nil
}

func (f *fakeWallet) Refund(_ context.Context, _ string, ref string) error {
	if _, ok := f.reserved[ref]; !ok {
		return wallet.ErrNotFound
	}
	delete(f.reserved, ref)
	f.refunded = append(f.refunded, ref)
	return nil
}

type fakePublisher struct{ placed []events.SlipPlaced }

func (f *fakePublisher) PublishSlipPlaced(_ context.Context, e events.SlipPlaced) error {
	f.placed = append(f.placed, e)
	return nil
}

type env struct {
	srv    *Server
	repo   *fakeRepo
	wallet *fakeWallet
	publ   *fakePublisher
	seen   []string
}

func newEnv() *env {
	o := fakeOdds{
		"m1/GOLS_MAIS_0.5_p1": 1.85,
		"m1/GOLS_MAIS_1.5_p1": 3.10,
		"m1/VITORIA_A":        2.10,
		"m1/EMPATE":           3.40,
		"m2/VITORIA_B":        1.50,
	}
	e := &env{
		repo:   &fakeRepo{slips: map[string]repo.Slip{}},
		wallet: &fakeWallet{reserved: map[string]int64{}},
		publ:   &fakePublisher{},
	}
	e.srv = NewServer(zap.NewNop(), e.repo, o, e.wallet, e.publ, nil)
	e.srv.OnPlaced = func(result string) { e.seen = append(e.seen, result) }
	return e
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(rec, req)
	return rec
}

type errBody struct {
	Error struct {
		Code   string          `json:"code"`
		Detail json.RawMessage `json:"detail"`
	} `json:"error"`
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) errBody {
	t.Helper()
	var b errBody
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return b
}

func leg(match, detail string, odd float64) map[string]any {
	return map[string]any{"matchId": match, "detail": detail, "odd": odd}
}

func slip(legs ...map[string]any) map[string]any {
	return map[string]any{"userId": "u1", "stakeCents": 1000, "legs": legs}
}

func TestPlaceParlay(t *testing.T) {
	e := newEnv()
	rec := e.do(t, http.MethodPost, "/slips", slip(
		leg("m1", "GOLS_MAIS_0.5_p1", 1.85),
		leg("m2", "VITORIA_B", 1.50),
	))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	var resp struct {
		SlipID string  `json:"slipId"`
		Status string  `json:"status"`
		Type   string  `json:"type"`
		Odd    float64 `json:"odd"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Type != repo.TypeParlay || resp.Status != "ABERTO" {
		t.Fatalf("resp = %+v", resp)
	}
	// 1.85 × 1.50 = 2.775 → 2.78
	if resp.Odd != 2.78 {
		t.Fatalf("odd = %v, want 2.78", resp.Odd)
	}
	if e.wallet.reserved[resp.SlipID] != 1000 {
		t.Fatalf("reserved = %v", e.wallet.reserved)
	}
	if len(e.publ.placed) != 1 || e.publ.placed[0].ReservedRef != resp.SlipID || len(e.publ.placed[0].Legs) != 2 {
		t.Fatalf("published = %+v", e.publ.placed)
	}
	if len(e.seen) != 1 || e.seen[0] != "PLACED" {
		t.Fatalf("observed = %v", e.seen)
	}
}

func TestPlaceSingleKeepsLegOdd(t *testing.T) {
	e := newEnv()
	rec := e.do(t, http.MethodPost, "/slips", slip(leg("m1", "VITORIA_A", 2.1)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	var resp struct {
		Type string  `json:"type"`
		Odd  float64 `json:"odd"`
	}
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Type != repo.TypeSingle || resp.Odd != 2.1 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestPlaceRejects(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"no legs", map[string]any{"userId": "u1", "stakeCents": 1000, "legs": []any{}}, http.StatusUnprocessableEntity, "VALIDATION"},
		{"zero stake", map[string]any{"userId": "u1", "stakeCents": 0, "legs": []any{leg("m1", "VITORIA_A", 2.1)}}, http.StatusUnprocessableEntity, "VALIDATION"},
		{"bad token", slip(leg("m1", "GOLS_TALVEZ_1_p1", 2.0)), http.StatusUnprocessableEntity, "INVALID_DETAIL"},
		{"two results", slip(leg("m1", "VITORIA_A", 2.1), leg("m1", "EMPATE", 3.4)), http.StatusConflict, "BET_CONFLICT"},
		{"same type", slip(leg("m1", "GOLS_MAIS_0.5_p1", 1.85), leg("m1", "GOLS_MAIS_1.5_p1", 3.1)), http.StatusConflict, "BET_CONFLICT"},
		{"market closed", slip(leg("m9", "VITORIA_A", 2.1)), http.StatusConflict, "MARKET_CLOSED"},
		{"odd moved", slip(leg("m1", "VITORIA_A", 2.0)), http.StatusConflict, "ODD_CHANGED"},
		{"odds down", slip(leg("down", "VITORIA_A", 2.0)), http.StatusServiceUnavailable, "ODDS_UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			rec := e.do(t, http.MethodPost, "/slips", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tt.status, rec.Body)
			}
			if b := decodeErr(t, rec); b.Error.Code != tt.code {
				t.Fatalf("code = %q, want %q", b.Error.Code, tt.code)
			}
			if len(e.repo.slips) != 0 || len(e.wallet.reserved) != 0 || len(e.publ.placed) != 0 {
				t.Fatal("rejected slip must leave no trace")
			}
		})
	}
}

func TestConflictDetailPointsAtLeg(t *testing.T) {
	e := newEnv()
	rec := e.do(t, http.MethodPost, "/slips", slip(
		leg("m2", "VITORIA_B", 1.5),
		leg("m1", "VITORIA_A", 2.1),
		leg("m1", "EMPATE", 3.4),
	))
	b := decodeErr(t, rec)
	var d struct {
		LegIndex int `json:"legIndex"`
		Conflict struct {
			Kind    string   `json:"kind"`
			Index   int      `json:"existingIndex"`
			Actions []string `json:"actions"`
		} `json:"conflict"`
	}
	if err := json.Unmarshal(b.Error.Detail, &d); err != nil {
		t.Fatal(err)
	}
	if d.LegIndex != 2 || d.Conflict.Index != 1 || d.Conflict.Kind != "MATCH_RESULT" {
		t.Fatalf("detail = %+v", d)
	}
}

func TestOddChangedDetail(t *testing.T) {
	e := newEnv()
	rec := e.do(t, http.MethodPost, "/slips", slip(leg("m1", "VITORIA_A", 2.0)))
	var d struct {
		Seen    float64 `json:"seen"`
		Current float64 `json:"current"`
	}
	if err := json.Unmarshal(decodeErr(t, rec).Error.Detail, &d); err != nil {
		t.Fatal(err)
	}
	if d.Seen != 2.0 || d.Current != 2.1 {
		t.Fatalf("detail = %+v", d)
	}
}

func TestWalletFailureRollsBackSlip(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		lost     bool
		status   int
		code     string
		refunded int
	}{
		{name: "insufficient", err: wallet.ErrInsufficientFunds, status: http.StatusConflict, code: "INSUFFICIENT_FUNDS"},
		{name: "no wallet", err: wallet.ErrNotFound, status: http.StatusNotFound, code: "WALLET_NOT_FOUND"},
		{name: "wallet down", err: errors.New("dial tcp: refused"), status: http.StatusBadGateway, code: "WALLET_UNAVAILABLE"},
		{name: "reserved but response lost", lost: true, status: http.StatusBadGateway, code: "WALLET_UNAVAILABLE", refunded: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			e.wallet.err = tt.err
			e.wallet.lost = tt.lost
			rec := e.do(t, http.MethodPost, "/slips", slip(leg("m1", "VITORIA_A", 2.1)))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if b := decodeErr(t, rec); b.Error.Code != tt.code {
				t.Fatalf("code = %q", b.Error.Code)
			}
			if len(e.repo.slips) != 0 || len(e.repo.deleted) != 1 {
				t.Fatalf("slips = %v deleted = %v", e.repo.slips, e.repo.deleted)
			}
			if len(e.publ.placed) != 0 {
				t.Fatal("slip_placed published for a slip without reservation")
			}
			if len(e.wallet.refunded) != tt.refunded || len(e.wallet.reserved) != 0 {
				t.Fatalf("refunded = %v still reserved = %v", e.wallet.refunded, e.wallet.reserved)
			}
		})
	}
}

func TestCheckLeg(t *testing.T) {
	tests := []struct {
		name     string
		proposed map[string]any
		existing []map[string]any
		ok       bool
		kind     string
	}{
		{
			name:     "other match is free",
			proposed: map[string]any{"matchId": "m2", "detail": "VITORIA_A"},
			existing: []map[string]any{{"matchId": "m1", "detail": "VITORIA_B"}},
			ok:       true,
		},
		{
			name:     "over then under below is contradictory",
			proposed: map[string]any{"matchId": "m1", "detail": "GOLS_MENOS_0.5_p1"},
			existing: []map[string]any{{"matchId": "m1", "detail": "GOLS_MAIS_1.5_p1"}},
			kind:     "CONTRADICTORY_OVER_UNDER",
		},
		{
			name:     "second result",
			proposed: map[string]any{"matchId": "m1", "detail": "EMPATE"},
			existing: []map[string]any{{"matchId": "m1", "detail": "VITORIA_A"}},
			kind:     "MATCH_RESULT",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			rec := e.do(t, http.MethodPost, "/slips/check", map[string]any{"proposed": tt.proposed, "existing": tt.existing})
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
			}
			var resp struct {
				OK       bool `json:"ok"`
				Conflict *struct {
					Kind string `json:"kind"`
				} `json:"conflict"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.OK != tt.ok {
				t.Fatalf("ok = %v", resp.OK)
			}
			if !tt.ok && (resp.Conflict == nil || resp.Conflict.Kind != tt.kind) {
				t.Fatalf("conflict = %+v, want %s", resp.Conflict, tt.kind)
			}
		})
	}
}

func TestGetAndListSlips(t *testing.T) {
	e := newEnv()
	rec := e.do(t, http.MethodPost, "/slips", slip(leg("m1", "VITORIA_A", 2.1)))
	var placed struct {
		SlipID string `json:"slipId"`
	}
	_ = json.NewDecoder(rec.Body).Decode(&placed)

	if rec := e.do(t, http.MethodGet, "/slips/"+placed.SlipID, nil); rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/slips/nope", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/slips", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("list without user = %d", rec.Code)
	}

	rec = e.do(t, http.MethodGet, "/slips?userId=u1", nil)
	var list []repo.Slip
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != placed.SlipID {
		t.Fatalf("list = %+v", list)
	}
}
