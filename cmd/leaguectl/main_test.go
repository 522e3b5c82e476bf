package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/pelada-bet-platform/internal/league"
	"github.com/radieske/pelada-bet-platform/internal/league-service/repo"
	"github.com/radieske/pelada-bet-platform/internal/shared/db"
	"github.com/radieske/pelada-bet-platform/pkg/contracts/events"
)

type fixture struct {
	a       *app
	out     *bytes.Buffer
	players []string
	match   string
	sent    []events.MatchResultSubmitted
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	conn, err := db.OpenMemory(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	f := &fixture{out: &bytes.Buffer{}}
	r := repo.NewPostgres(conn)
	for _, name := range []string{"Ana", "Bia", "Caio", "Duda", "Edu", "Fabi", "Gil", "Hugo"} {
		id, err := r.CreatePlayer(ctx, &league.Player{Name: name})
		if err != nil {
			t.Fatal(err)
		}
		f.players = append(f.players, id)
	}
	f.match, err = r.CreateMatch(ctx, &league.Match{
		TeamA:       "Azul",
		TeamB:       "Branco",
		ScheduledAt: time.Now().Add(time.Hour),
		RosterA:     f.players[:2],
		RosterB:     f.players[2:4],
	})
	if err != nil {
		t.Fatal(err)
	}

	f.a = &app{
		out:  f.out,
		log:  zap.NewNop(),
		repo: r,
		publish: func(_ context.Context, ev events.MatchResultSubmitted) error {
			f.sent = append(f.sent, ev)
			return nil
		},
	}
	return f
}

func (f *fixture) run(args ...string) error {
	root := newRootCmd(f.a)
	root.SetArgs(args)
	root.SetErr(&bytes.Buffer{})
	return root.ExecuteContext(context.Background())
}

func writeStats(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stats.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRatingsRecompute(t *testing.T) {
	f := newFixture(t)
	if err := f.run("ratings", "recompute"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(f.out.String(), `"unchanged"`) {
		t.Fatalf("output = %s", f.out.String())
	}
}

func TestLineupQuick(t *testing.T) {
	f := newFixture(t)
	if err := f.run("lineup", "--size", "4", "--quick"); err != nil {
		t.Fatal(err)
	}
	out := f.out.String()
	if !strings.Contains(out, "TIME A") || !strings.Contains(out, "TIME B") {
		t.Fatalf("output = %s", out)
	}
}

func TestLineupTooFewPlayers(t *testing.T) {
	f := newFixture(t)
	if err := f.run("lineup", "--size", "5"); err == nil {
		t.Fatal("expected error for 8 players and size 5")
	}
}

func TestMarkets(t *testing.T) {
	f := newFixture(t)
	if err := f.run("markets", "--player", f.players[0]); err != nil {
		t.Fatal(err)
	}
	out := f.out.String()
	if !strings.Contains(out, "Ana") || !strings.Contains(out, "STAT") {
		t.Fatalf("output = %s", out)
	}

	if err := f.run("markets", "--player", "missing"); err == nil {
		t.Fatal("expected error for unknown player")
	}
}

func TestSettle(t *testing.T) {
	f := newFixture(t)

	ok := writeStats(t, `{"lines":[{"playerId":"`+f.players[0]+`","goals":2}],"absent":["`+f.players[3]+`"]}`)
	if err := f.run("settle", "--match", f.match, "--stats", ok); err != nil {
		t.Fatal(err)
	}
	if len(f.sent) != 1 {
		t.Fatalf("published %d events", len(f.sent))
	}
	ev := f.sent[0]
	if ev.MatchID != f.match || ev.SubmittedBy != "leaguectl" || len(ev.Lines) != 2 {
		t.Fatalf("event = %+v", ev)
	}
	if !ev.Lines[1].Absent {
		t.Fatalf("absent line = %+v", ev.Lines[1])
	}

	tests := []struct {
		name string
		args []string
	}{
		{"not on roster", []string{"--match", f.match, "--stats", writeStats(t, `{"lines":[{"playerId":"ghost"}]}`)}},
		{"negative stat", []string{"--match", f.match, "--stats", writeStats(t, `{"lines":[{"playerId":"`+f.players[0]+`","goals":-1}]}`)}},
		{"bad json", []string{"--match", f.match, "--stats", writeStats(t, `{`)}},
		{"unknown match", []string{"--match", "nope", "--stats", ok}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.run(append([]string{"settle"}, tt.args...)...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if len(f.sent) != 1 {
		t.Fatalf("rejected results were published: %d", len(f.sent))
	}
}
