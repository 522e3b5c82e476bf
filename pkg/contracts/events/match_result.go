package events

import "time"

// PlayerLine são os números de um jogador na partida encerrada
type PlayerLine struct {
	PlayerID string `json:"player_id"`
	Goals    int    `json:"goals"`
	Assists  int    `json:"assists"`
	Tackles  int    `json:"tackles"`
	Saves    int    `json:"saves"`
	Fouls    int    `json:"fouls"`
	Absent   bool   `json:"absent"`
}

// MatchResultSubmitted é publicado pelo league-service quando o admin lança
// o resultado de uma partida. O placar não vem no evento: é derivado dos gols.
type MatchResultSubmitted struct {
	MatchID     string       `json:"match_id"`
	Lines       []PlayerLine `json:"lines"`
	SubmittedBy string       `json:"submitted_by,omitempty"`
	TsUnixMs    int64        `json:"ts_unix_ms"`
}

// RatingsUpdated é emitido após a regravação das notas
type RatingsUpdated struct {
	MatchID   string    `json:"match_id,omitempty"`
	Updated   int       `json:"updated"`
	Unchanged int       `json:"unchanged"`
	Failed    []string  `json:"failed,omitempty"`
	Ts        time.Time `json:"ts"`
}
