package markets

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		want    Detail
		wantErr bool
	}{
		{
			name:  "home win",
			token: "VITORIA_A",
			want:  ResultDetail(HomeWin),
		},
		{
			name:  "draw",
			token: "EMPATE",
			want:  ResultDetail(Draw),
		},
		{
			name:  "goals over",
			token: "GOLS_MAIS_0.5_7c1f",
			want:  PlayerDetail(StatGoals, Over, 0.5, "7c1f"),
		},
		{
			name:  "player id with underscores is kept whole",
			token: "DEFESAS_MENOS_2.5_abc_def",
			want:  PlayerDetail(StatSaves, Under, 2.5, "abc_def"),
		},
		{name: "unknown stat", token: "CHUTES_MAIS_0.5_x", wantErr: true},
		{name: "unknown direction", token: "GOLS_ACIMA_0.5_x", wantErr: true},
		{name: "integer line", token: "GOLS_MAIS_1_x", wantErr: true},
		{name: "missing player", token: "GOLS_MAIS_1.5_", wantErr: true},
		{name: "garbage", token: "VITORIA", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Fatalf("Parse(%q) error = %v, want ErrInvalidToken", tt.token, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.token, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.token, got, tt.want)
			}
			if got.String() != tt.token {
				t.Errorf("String() = %q, want %q", got.String(), tt.token)
			}
		})
	}
}

func TestDetailHolds(t *testing.T) {
	over := PlayerDetail(StatGoals, Over, 1.5, "p")
	under := PlayerDetail(StatGoals, Under, 1.5, "p")

	if over.Threshold() != 2 {
		t.Fatalf("Threshold() = %d, want 2", over.Threshold())
	}
	for v, want := range map[int]bool{0: false, 1: false, 2: true, 5: true} {
		if got := over.Holds(v); got != want {
			t.Errorf("over 1.5 Holds(%d) = %v, want %v", v, got, want)
		}
		if got := under.Holds(v); got == want {
			t.Errorf("under 1.5 Holds(%d) = %v, want %v", v, got, !want)
		}
	}
}
