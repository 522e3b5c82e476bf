package dto

import (
	"fmt"
	"time"

	"github.com/radieske/pelada-bet-platform/internal/league"
	"github.com/radieske/pelada-bet-platform/pkg/contracts/events"
)

// Event valida o resultado contra os elencos da partida e monta o evento.
// Ausentes sem linha entram com Absent=true e números zerados.
func (req MatchResultRequest) Event(m league.Match, now time.Time) (events.MatchResultSubmitted, []string) {
	var msgs []string
	ev := events.MatchResultSubmitted{
		MatchID:     m.ID,
		SubmittedBy: req.SubmittedBy,
		TsUnixMs:    now.UnixMilli(),
	}

	pos := map[string]int{}
	for _, l := range req.Lines {
		if m.Side(l.PlayerID) == "" {
			msgs = append(msgs, fmt.Sprintf("player %q is not on the match roster", l.PlayerID))
			continue
		}
		if _, dup := pos[l.PlayerID]; dup {
			msgs = append(msgs, fmt.Sprintf("duplicate line for player %q", l.PlayerID))
			continue
		}
		pos[l.PlayerID] = len(ev.Lines)
		ev.Lines = append(ev.Lines, events.PlayerLine{
			PlayerID: l.PlayerID,
			Goals:    l.Goals,
			Assists:  l.Assists,
			Tackles:  l.Tackles,
			Saves:    l.Saves,
			Fouls:    l.Fouls,
		})
	}

	for _, pid := range req.Absent {
		if m.Side(pid) == "" {
			msgs = append(msgs, fmt.Sprintf("absent player %q is not on the match roster", pid))
			continue
		}
		if i, ok := pos[pid]; ok {
			ev.Lines[i].Absent = true
			continue
		}
		pos[pid] = len(ev.Lines)
		ev.Lines = append(ev.Lines, events.PlayerLine{PlayerID: pid, Absent: true})
	}
	return ev, msgs
}
