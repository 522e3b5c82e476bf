package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/pelada-bet-platform/internal/league"
	"github.com/radieske/pelada-bet-platform/internal/settlement/resolver"
	"github.com/radieske/pelada-bet-platform/internal/settlement/store"
	"github.com/radieske/pelada-bet-platform/pkg/contracts/events"
)

type fakeStore struct {
	finished bool
	scoreA   int
	scoreB   int
	stats    map[string]league.StatLine
	absent   map[string]bool

	slips []resolver.Slip
	legs  map[string]resolver.LegStatus  // seleções gravadas
	saved map[string]resolver.SlipResult // bilhetes fechados
	paid  map[string]bool

	failLegID   string
	failPending error
}

func (f *fakeStore) FinishMatch(_ context.Context, _ league.Match, a, b int, stats map[string]league.StatLine, absent map[string]bool) error {
	if f.finished {
		return store.ErrAlreadySettled
	}
	f.finished, f.scoreA, f.scoreB = true, a, b
	f.stats, f.absent = stats, absent
	return nil
}

func (f *fakeStore) StoredResult(context.Context, string) (map[string]league.StatLine, map[string]bool, error) {
	return f.stats, f.absent, nil
}

// PendingSlips devolve os bilhetes abertos com as seleções no estado gravado
func (f *fakeStore) PendingSlips(_ context.Context, matchID string) ([]resolver.Slip, error) {
	if f.failPending != nil {
		return nil, f.failPending
	}
	var out []resolver.Slip
	for _, s := range f.slips {
		if _, closed := f.saved[s.ID]; closed {
			continue
		}
		cp := s
		cp.Legs = make([]resolver.Leg, len(s.Legs))
		inMatch := false
		for i, l := range s.Legs {
			if st, ok := f.legs[l.ID]; ok {
				l.Status = st
			}
			inMatch = inMatch || l.MatchID == matchID
			cp.Legs[i] = l
		}
		if inMatch {
			out = append(out, cp)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveLeg(_ context.Context, id string, st resolver.LegStatus) error {
	if id == f.failLegID {
		return errors.New("deadlock")
	}
	if _, ok := f.legs[id]; !ok {
		f.legs[id] = st
	}
	return nil
}

func (f *fakeStore) SaveSlip(_ context.Context, r resolver.SlipResult) (bool, error) {
	if _, ok := f.saved[r.SlipID]; ok {
		return false, nil
	}
	f.saved[r.SlipID] = r
	return true, nil
}

func (f *fakeStore) UnpaidSlips(context.Context, string) ([]resolver.SlipResult, error) {
	var out []resolver.SlipResult
	for _, s := range f.slips {
		if r, ok := f.saved[s.ID]; ok && !f.paid[s.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkPaid(_ context.Context, id string) error {
	f.paid[id] = true
	return nil
}

type fakeMatches struct{ m league.Match }

func (f fakeMatches) GetMatch(_ context.Context, id string) (league.Match, error) {
	if id != f.m.ID {
		return league.Match{}, errors.New("not found")
	}
	return f.m, nil
}

type fakeRatings struct{ updated map[string]float64 }

func (f *fakeRatings) ListPlayers(context.Context) ([]league.Player, error) {
	return []league.Player{
		{ID: "a1", Rating: 5, Stats: league.Stats{Games: 1, Goals: 2}},
		{ID: "b1", Rating: 5, Stats: league.Stats{Games: 1, Goals: 1}},
	}, nil
}

func (f *fakeRatings) UpdateRating(_ context.Context, id string, r float64) error {
	f.updated[id] = r
	return nil
}

type fakeWallet struct {
	calls   []string
	failFor string
}

func (f *fakeWallet) Commit(_ context.Context, user, ref string) error {
	if ref == f.failFor {
		return errors.New("wallet down")
	}
	f.calls = append(f.calls, "commit:"+ref)
	return nil
}

func (f *fakeWallet) Refund(_ context.Context, user, ref string) error {
	f.calls = append(f.calls, "refund:"+ref)
	return nil
}

func (f *fakeWallet) Credit(_ context.Context, user string, cents int64, ref string) (bool, error) {
	f.calls = append(f.calls, "credit:"+ref)
	return true, nil
}

type fakePublisher struct {
	settled []events.SlipSettled
	ratings []events.RatingsUpdated
}

func (f *fakePublisher) PublishSlipSettled(_ context.Context, ev events.SlipSettled) error {
	f.settled = append(f.settled, ev)
	return nil
}

func (f *fakePublisher) PublishRatingsUpdated(_ context.Context, ev events.RatingsUpdated) error {
	f.ratings = append(f.ratings, ev)
	return nil
}

type fakeNotifier struct{ sent []string }

func (f *fakeNotifier) NotifySlipSettled(_ context.Context, ev events.SlipSettled) error {
	f.sent = append(f.sent, ev.SlipID)
	return nil
}

func pending(id, match, token string, odd float64) resolver.Leg {
	return resolver.Leg{ID: id, MatchID: match, Token: token, Odd: odd, Status: resolver.LegPending}
}

type env struct {
	svc    *Service
	store  *fakeStore
	wallet *fakeWallet
	publ   *fakePublisher
	notif  *fakeNotifier
}

func newEnv() *env {
	e := &env{
		store: &fakeStore{
			legs:  map[string]resolver.LegStatus{},
			saved: map[string]resolver.SlipResult{},
			paid:  map[string]bool{},
			slips: []resolver.Slip{
				{ID: "s1", UserID: "u1", StakeCents: 1000, Legs: []resolver.Leg{pending("l1", "m1", "VITORIA_A", 2.0)}},
				{ID: "s2", UserID: "u2", StakeCents: 500, Legs: []resolver.Leg{pending("l2", "m1", "GOLS_MAIS_0.5_b2", 1.8)}},
				{ID: "s3", UserID: "u1", StakeCents: 1000, Legs: []resolver.Leg{pending("l3", "m1", "EMPATE", 3.0)}},
				{ID: "s4", UserID: "u3", StakeCents: 1000, Legs: []resolver.Leg{
					pending("l4", "m2", "EMPATE", 3.0),
					pending("l5", "m1", "GOLS_MAIS_1.5_a1", 1.5),
				}},
			},
		},
		wallet: &fakeWallet{},
		publ:   &fakePublisher{},
		notif:  &fakeNotifier{},
	}
	e.svc = &Service{
		Log:       zap.NewNop(),
		Store:     e.store,
		Matches:   fakeMatches{m: league.Match{ID: "m1", RosterA: []string{"a1", "a2"}, RosterB: []string{"b1", "b2"}}},
		Ratings:   &fakeRatings{updated: map[string]float64{}},
		Wallet:    e.wallet,
		Publisher: e.publ,
		Notifier:  e.notif,
		Metrics:   NewMetrics(prometheus.NewRegistry()),
		Now:       func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return e
}

func result() events.MatchResultSubmitted {
	return events.MatchResultSubmitted{
		MatchID: "m1",
		Lines: []events.PlayerLine{
			{PlayerID: "a1", Goals: 2},
			{PlayerID: "b1", Goals: 1, Saves: 4},
			{PlayerID: "b2", Absent: true},
			{PlayerID: "intruder", Goals: 9},
		},
	}
}

func TestSettle(t *testing.T) {
	e := newEnv()
	rep, err := e.svc.Settle(context.Background(), result())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Resumed || rep.ScoreA != 2 || rep.ScoreB != 1 || rep.Paid != 3 {
		t.Fatalf("report = %+v", rep)
	}
	if e.store.scoreA != 2 || e.store.scoreB != 1 {
		t.Fatalf("finished with %d x %d", e.store.scoreA, e.store.scoreB)
	}

	wantLegs := map[string]resolver.LegStatus{"l1": resolver.LegWon, "l2": resolver.LegVoid, "l3": resolver.LegLost, "l5": resolver.LegWon}
	if !reflect.DeepEqual(e.store.legs, wantLegs) {
		t.Fatalf("legs = %v", e.store.legs)
	}

	wantSlips := map[resolver.SlipStatus]int{resolver.SlipWon: 1, resolver.SlipVoid: 1, resolver.SlipLost: 1}
	if !reflect.DeepEqual(rep.Slips, wantSlips) {
		t.Fatalf("slips = %v", rep.Slips)
	}
	if _, ok := e.store.saved["s4"]; ok {
		t.Fatal("parlay with a pending leg in another match was closed")
	}
	if got := e.store.saved["s1"]; got.PayoutCents != 2000 {
		t.Fatalf("s1 payout = %d", got.PayoutCents)
	}

	wantWallet := []string{"commit:s1", "credit:payout:s1", "refund:s2", "commit:s3"}
	if !reflect.DeepEqual(e.wallet.calls, wantWallet) {
		t.Fatalf("wallet calls = %v", e.wallet.calls)
	}
	if len(e.publ.settled) != 3 || len(e.notif.sent) != 3 {
		t.Fatalf("settled published = %d notified = %d", len(e.publ.settled), len(e.notif.sent))
	}
	if ev := e.publ.settled[0]; ev.MatchID != "m1" || ev.Status != "GANHO" || !ev.Ts.Equal(e.svc.Now()) {
		t.Fatalf("slip_settled = %+v", ev)
	}
	if len(e.publ.ratings) != 1 || e.publ.ratings[0].Updated != 2 {
		t.Fatalf("ratings_updated = %+v", e.publ.ratings)
	}
}

func TestSettleTwiceMovesMoneyOnce(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	if _, err := e.svc.Settle(ctx, result()); err != nil {
		t.Fatal(err)
	}
	calls := len(e.wallet.calls)

	// placar diferente no reenvio não muda nada: vale o resultado gravado
	again := result()
	again.Lines[0].Goals = 0
	rep, err := e.svc.Settle(ctx, again)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Resumed || rep.ScoreA != 2 || rep.ScoreB != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.Legs != 0 || rep.Paid != 0 || len(rep.Slips) != 0 {
		t.Fatalf("replay redid work: %+v", rep)
	}
	if len(e.wallet.calls) != calls || len(e.publ.settled) != 3 {
		t.Fatalf("replay moved money: wallet=%v", e.wallet.calls)
	}
}

func TestSettleKeepsGoingOnRowFailures(t *testing.T) {
	e := newEnv()
	e.store.failLegID = "l3"
	e.wallet.failFor = "s1"

	rep, err := e.svc.Settle(context.Background(), result())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rep.Failed, []string{"l3", "s1"}) {
		t.Fatalf("failed = %v", rep.Failed)
	}
	if rep.Legs != 3 {
		t.Fatalf("legs saved = %d", rep.Legs)
	}
	// s3 fica aberto até a seleção l3 ser gravada
	if _, ok := e.store.saved["s3"]; ok {
		t.Fatal("slip closed with an unsaved leg")
	}
	// s1 falhou na carteira, s2 seguiu normalmente
	if len(e.publ.settled) != 1 || e.publ.settled[0].SlipID != "s2" {
		t.Fatalf("published = %+v", e.publ.settled)
	}
}

func TestSettleRetryFinishesPartialRun(t *testing.T) {
	tests := []struct {
		name      string
		fail      func(e *env)
		heal      func(e *env)
		firstErr  bool
		firstCall []string
	}{
		{
			name:      "wallet down",
			fail:      func(e *env) { e.wallet.failFor = "s1" },
			heal:      func(e *env) { e.wallet.failFor = "" },
			firstCall: []string{"refund:s2", "commit:s3"},
		},
		{
			name:      "leg write failed",
			fail:      func(e *env) { e.store.failLegID = "l3" },
			heal:      func(e *env) { e.store.failLegID = "" },
			firstCall: []string{"commit:s1", "credit:payout:s1", "refund:s2"},
		},
		{
			name:     "pending slips unavailable",
			fail:     func(e *env) { e.store.failPending = errors.New("db down") },
			heal:     func(e *env) { e.store.failPending = nil },
			firstErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			ctx := context.Background()
			tt.fail(e)

			_, err := e.svc.Settle(ctx, result())
			if (err != nil) != tt.firstErr {
				t.Fatalf("first run err = %v", err)
			}
			if !e.store.finished {
				t.Fatal("match should be finished after the first run")
			}
			if !reflect.DeepEqual(e.wallet.calls, tt.firstCall) {
				t.Fatalf("first run wallet calls = %v", e.wallet.calls)
			}

			tt.heal(e)
			rep, err := e.svc.Settle(ctx, result())
			if err != nil {
				t.Fatal(err)
			}
			if !rep.Resumed || len(rep.Failed) != 0 {
				t.Fatalf("retry report = %+v", rep)
			}

			// cada bilhete acertado uma única vez somando as duas rodadas
			want := map[string]int{"commit:s1": 1, "credit:payout:s1": 1, "refund:s2": 1, "commit:s3": 1}
			got := map[string]int{}
			for _, c := range e.wallet.calls {
				got[c]++
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("wallet calls = %v", e.wallet.calls)
			}
			wantLegs := map[string]resolver.LegStatus{"l1": resolver.LegWon, "l2": resolver.LegVoid, "l3": resolver.LegLost, "l5": resolver.LegWon}
			if !reflect.DeepEqual(e.store.legs, wantLegs) {
				t.Fatalf("legs = %v", e.store.legs)
			}
			if len(e.publ.settled) != 3 || !e.store.paid["s1"] || !e.store.paid["s3"] {
				t.Fatalf("published = %d paid = %v", len(e.publ.settled), e.store.paid)
			}
		})
	}
}

func TestSettleUnknownMatch(t *testing.T) {
	e := newEnv()
	if _, err := e.svc.Settle(context.Background(), events.MatchResultSubmitted{MatchID: "nope"}); err == nil {
		t.Fatal("expected error for unknown match")
	}
	if e.store.finished {
		t.Fatal("unknown match must not be finished")
	}
}
