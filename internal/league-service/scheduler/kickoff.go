package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Matches é o que o agendador precisa do repositório
type Matches interface {
	StartDueMatches(ctx context.Context, now time.Time) ([]string, error)
}

// OddsCloser remove as odds abertas das partidas que começaram
type OddsCloser interface {
	CloseMatchOdds(ctx context.Context, matchID string) error
}

// Kickoff move partidas agendadas para LIVE quando o horário chega
type Kickoff struct {
	s        gocron.Scheduler
	repo     Matches
	odds     OddsCloser
	log      *zap.Logger
	interval time.Duration
	now      func() time.Time
}

func NewKickoff(repo Matches, odds OddsCloser, log *zap.Logger, interval time.Duration) (*Kickoff, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Kickoff{s: s, repo: repo, odds: odds, log: log, interval: interval, now: time.Now}, nil
}

func (k *Kickoff) Start() error {
	_, err := k.s.NewJob(
		gocron.DurationJob(k.interval),
		gocron.NewTask(k.scan),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create kickoff job: %w", err)
	}
	k.s.Start()
	return nil
}

func (k *Kickoff) Stop() error {
	return k.s.Shutdown()
}

// scan roda uma varredura; devolve quantas partidas começaram
func (k *Kickoff) scan() int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	started, err := k.repo.StartDueMatches(ctx, k.now())
	if err != nil {
		k.log.Error("kickoff scan failed", zap.Error(err))
	}
	for _, id := range started {
		if k.odds != nil {
			if err := k.odds.CloseMatchOdds(ctx, id); err != nil {
				k.log.Warn("close odds failed", zap.String("match_id", id), zap.Error(err))
			}
		}
		k.log.Info("match kicked off", zap.String("match_id", id))
	}
	return len(started)
}
