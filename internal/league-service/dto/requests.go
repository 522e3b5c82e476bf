package dto

import "time"

type CreatePlayerRequest struct {
	Name   string `json:"name" validate:"required,min=2,max=80"`
	UserID string `json:"userId,omitempty"`
	Status string `json:"status,omitempty" validate:"omitempty,oneof=DISPONIVEL LESIONADO SUSPENSO"`
}

type PlayerStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=DISPONIVEL LESIONADO SUSPENSO"`
}

// LineupRequest: playerIds vazio usa todos os jogadores cadastrados
type LineupRequest struct {
	RosterSize int            `json:"rosterSize" validate:"required"`
	Roles      map[string]int `json:"roles,omitempty"`
	PlayerIDs  []string       `json:"playerIds,omitempty"`
}

type CreateMatchRequest struct {
	TeamA       string    `json:"teamA" validate:"required"`
	TeamB       string    `json:"teamB" validate:"required"`
	ScheduledAt time.Time `json:"scheduledAt" validate:"required"`
	RosterA     []string  `json:"rosterA" validate:"required,min=1,dive,required"`
	RosterB     []string  `json:"rosterB" validate:"required,min=1,dive,required"`
}

type MatchStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=SCHEDULED LIVE POSTPONED"`
}

// StatLine é a linha de um jogador no resultado informado pelo admin
type StatLine struct {
	PlayerID string `json:"playerId" validate:"required"`
	Goals    int    `json:"goals" validate:"gte=0"`
	Assists  int    `json:"assists" validate:"gte=0"`
	Tackles  int    `json:"tackles" validate:"gte=0"`
	Saves    int    `json:"saves" validate:"gte=0"`
	Fouls    int    `json:"fouls" validate:"gte=0"`
}

type MatchResultRequest struct {
	Lines       []StatLine `json:"lines" validate:"dive"`
	Absent      []string   `json:"absent,omitempty" validate:"dive,required"`
	SubmittedBy string     `json:"submittedBy" validate:"required"`
}
