// Package search encontra jogadores pelo nome, ignorando acentos e caixa e
// tolerando erros de digitação.
package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/radieske/pelada-bet-platform/internal/league"
)

// Threshold é a similaridade mínima para um nome aproximado entrar no resultado
const Threshold = 0.6

// Hit é um jogador encontrado e a similaridade com a busca (0..1)
type Hit struct {
	Player league.Player `json:"player"`
	Score  float64       `json:"score"`
}

// Normalize deixa o nome em minúsculas, sem acentos e com espaços simples
func Normalize(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(name))
	if err != nil {
		folded = strings.ToLower(name)
	}
	return strings.Join(strings.Fields(folded), " ")
}

// Players filtra e ordena os jogadores pela similaridade com q.
// Busca vazia devolve todos em ordem alfabética. limit <= 0 não limita.
func Players(players []league.Player, q string, limit int) []Hit {
	query := Normalize(q)
	hits := make([]Hit, 0, len(players))
	for _, p := range players {
		if score := Score(query, Normalize(p.Name)); score > 0 {
			hits = append(hits, Hit{Player: p, Score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return Normalize(hits[i].Player.Name) < Normalize(hits[j].Player.Name)
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// Score compara uma busca e um nome já normalizados. 0 significa sem match.
func Score(query, name string) float64 {
	switch {
	case query == "":
		return 1
	case strings.Contains(name, query):
		return 1
	case fuzzy.Match(query, name):
		return 0.9
	}

	best := similarity(query, name)
	for _, word := range strings.Fields(name) {
		if s := similarity(query, word); s > best {
			best = s
		}
	}
	if best < Threshold {
		return 0
	}
	return best
}

func similarity(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 0
	}
	return 1 - float64(fuzzy.LevenshteinDistance(a, b))/float64(maxLen)
}
