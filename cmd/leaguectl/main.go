// Command leaguectl é a CLI de administração da liga.
//
// Uso:
//
//	leaguectl ratings recompute
//	leaguectl lineup --size 5 --role GOLEIRO=1 --role ATACANTE=1 [--quick]
//	leaguectl markets --player <id>
//	leaguectl settle --match <id> --stats resultado.json
package main

import (
	"context"
	"database/sql"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/radieske/pelada-bet-platform/internal/league-service/publisher"
	"github.com/radieske/pelada-bet-platform/internal/league-service/repo"
	"github.com/radieske/pelada-bet-platform/internal/shared/config"
	"github.com/radieske/pelada-bet-platform/internal/shared/db"
	"github.com/radieske/pelada-bet-platform/internal/shared/kafka"
	"github.com/radieske/pelada-bet-platform/internal/shared/logger"
	"github.com/radieske/pelada-bet-platform/pkg/contracts/events"
)

// app reúne as dependências dos comandos; abertas sob demanda em open()
type app struct {
	out     io.Writer
	log     *zap.Logger
	repo    *repo.Postgres
	publish func(ctx context.Context, ev events.MatchResultSubmitted) error

	closers []func() error
}

func main() {
	_ = godotenv.Load(".env")

	a := &app{out: os.Stdout}
	defer a.close()

	if err := newRootCmd(a).Execute(); err != nil {
		a.close()
		os.Exit(1)
	}
}

// open conecta banco e Kafka a partir do ambiente
func (a *app) open(ctx context.Context) error {
	if a.repo != nil {
		return nil
	}
	cfg := config.Load()
	log, err := logger.New("leaguectl", cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	a.log = log

	var conn *sql.DB
	if conn, err = db.Connect(cfg.DBDriver, cfg.PostgresDSN); err != nil {
		return err
	}
	a.closers = append(a.closers, conn.Close)
	if err := db.Migrate(ctx, conn); err != nil {
		return err
	}
	a.repo = repo.NewPostgres(conn)

	w := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchResult)
	a.closers = append(a.closers, w.Close)
	a.publish = publisher.New(w).PublishMatchResult
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "leaguectl",
		Short:         "Pelada league admin CLI",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
	}
	root.SetOut(a.out)

	root.AddCommand(ratingsCmd(a))
	root.AddCommand(lineupCmd(a))
	root.AddCommand(marketsCmd(a))
	root.AddCommand(settleCmd(a))
	return root
}
