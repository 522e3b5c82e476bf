package search

import (
	"testing"

	"github.com/radieske/pelada-bet-platform/internal/league"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"João":            "joao",
		"  Zé   Ramalho ": "ze ramalho",
		"CONCEIÇÃO":       "conceicao",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPlayers(t *testing.T) {
	players := []league.Player{
		{ID: "1", Name: "João Silva"},
		{ID: "2", Name: "Joaquim Souza"},
		{ID: "3", Name: "Marcos Conceição"},
		{ID: "4", Name: "Zé Ramalho"},
	}

	tests := []struct {
		name  string
		q     string
		limit int
		want  []string
	}{
		{name: "empty query lists everyone alphabetically", q: "", want: []string{"1", "2", "3", "4"}},
		{name: "accent insensitive substring", q: "JOÃO silva", want: []string{"1"}},
		{name: "typo tolerated", q: "conseicao", want: []string{"3"}},
		{name: "missing letter", q: "ramalo", want: []string{"4"}},
		{name: "limit", q: "", limit: 2, want: []string{"1", "2"}},
		{name: "nothing close", q: "xyzxyz", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := Players(players, tt.q, tt.limit)
			if len(hits) != len(tt.want) {
				t.Fatalf("got %d hits %+v, want %v", len(hits), hits, tt.want)
			}
			for i, h := range hits {
				if h.Player.ID != tt.want[i] {
					t.Errorf("hit %d = %s, want %s", i, h.Player.ID, tt.want[i])
				}
			}
		})
	}
}
