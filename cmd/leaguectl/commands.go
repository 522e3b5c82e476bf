package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/radieske/pelada-bet-platform/internal/league"
	"github.com/radieske/pelada-bet-platform/internal/league-service/dto"
	"github.com/radieske/pelada-bet-platform/internal/league/lineup"
	"github.com/radieske/pelada-bet-platform/internal/league/markets"
	"github.com/radieske/pelada-bet-platform/internal/league/rating"
	"github.com/radieske/pelada-bet-platform/internal/shared/httpx"
)

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --------------------------------------------------------------------------
// ratings
// --------------------------------------------------------------------------

func ratingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratings",
		Short: "Player rating maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "recompute",
		Short: "Recompute and store every player's rating",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sum, err := rating.Recompute(cmd.Context(), a.repo, a.log)
			if err != nil {
				return err
			}
			return printJSON(cmd, sum)
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// lineup
// --------------------------------------------------------------------------

func lineupCmd(a *app) *cobra.Command {
	var (
		size    int
		roles   map[string]int
		players []string
		quick   bool
	)
	cmd := &cobra.Command{
		Use:   "lineup",
		Short: "Build two balanced teams",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := a.repo.ListPlayers(cmd.Context())
			if len(players) > 0 {
				pool, err = a.repo.PlayersByIDs(cmd.Context(), players)
			}
			if err != nil {
				return err
			}

			var res *lineup.Result
			if quick {
				res, err = lineup.QuickSplit(pool, size)
			} else {
				req := lineup.Request{RosterSize: size, Roles: map[lineup.Role]int{}}
				for name, n := range roles {
					req.Roles[lineup.Role(strings.ToUpper(name))] = n
				}
				res, err = lineup.Optimize(pool, req)
			}
			if err != nil {
				return err
			}
			printTeams(cmd, res)
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", 5, "Players per team")
	cmd.Flags().StringToIntVar(&roles, "role", nil, "Role quota, e.g. --role GOLEIRO=1")
	cmd.Flags().StringSliceVar(&players, "players", nil, "Player ids (default: everyone)")
	cmd.Flags().BoolVar(&quick, "quick", false, "Use the quick generator")
	return cmd
}

func printTeams(cmd *cobra.Command, res *lineup.Result) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, team := range []struct {
		name string
		list []lineup.Assignment
		tot  lineup.Totals
	}{{"A", res.TeamA, res.TotalsA}, {"B", res.TeamB, res.TotalsB}} {
		fmt.Fprintf(tw, "TIME %s\tROLE\tRATING\n", team.name)
		for _, as := range team.list {
			fmt.Fprintf(tw, "%s\t%s\t%.1f\n", as.Player.Name, as.Role, as.Rating)
		}
		fmt.Fprintf(tw, "total\t\t%.1f\n\n", team.tot.Rating)
	}
	fmt.Fprintf(tw, "cost\t%.3f\t(%d pairs)\n", res.Cost, res.Evaluated)
	_ = tw.Flush()
}

// --------------------------------------------------------------------------
// markets
// --------------------------------------------------------------------------

func marketsCmd(a *app) *cobra.Command {
	var playerID string
	cmd := &cobra.Command{
		Use:   "markets",
		Short: "Print a player's over/under grid",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.repo.GetPlayer(cmd.Context(), playerID)
			if err != nil {
				return fmt.Errorf("player %s: %w", playerID, err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "%s (%.1f, %d games)\n", p.Name, p.Rating, p.Stats.Games)
			fmt.Fprintln(tw, "STAT\tLINE\tOVER\tUNDER")
			for _, l := range markets.PlayerMarkets(p) {
				fmt.Fprintf(tw, "%s\t%.1f\t%s\t%s\n", l.Stat, l.Line, oddText(l.Over), oddText(l.Under))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&playerID, "player", "", "Player id")
	_ = cmd.MarkFlagRequired("player")
	return cmd
}

func oddText(odd *float64) string {
	if odd == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *odd)
}

// --------------------------------------------------------------------------
// settle
// --------------------------------------------------------------------------

func settleCmd(a *app) *cobra.Command {
	var matchID, statsPath, by string
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Submit a match result for settlement",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(statsPath)
			if err != nil {
				return err
			}
			var req dto.MatchResultRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return fmt.Errorf("parse %s: %w", statsPath, err)
			}
			if by != "" {
				req.SubmittedBy = by
			}
			if msgs := httpx.Validate(req); len(msgs) > 0 {
				return errors.New(strings.Join(msgs, "; "))
			}

			m, err := a.repo.GetMatch(cmd.Context(), matchID)
			if err != nil {
				return fmt.Errorf("match %s: %w", matchID, err)
			}
			if m.Status == league.MatchFinished || m.Status == league.MatchPostponed {
				return fmt.Errorf("match %s is %s", matchID, m.Status)
			}
			ev, msgs := req.Event(m, time.Now())
			if len(msgs) > 0 {
				return errors.New(strings.Join(msgs, "; "))
			}
			if err := a.publish(cmd.Context(), ev); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "result for %s submitted (%d lines)\n", matchID, len(ev.Lines))
			return nil
		},
	}
	cmd.Flags().StringVar(&matchID, "match", "", "Match id")
	cmd.Flags().StringVar(&statsPath, "stats", "", "JSON file with lines/absent")
	cmd.Flags().StringVar(&by, "by", "leaguectl", "Submitted by")
	_ = cmd.MarkFlagRequired("match")
	_ = cmd.MarkFlagRequired("stats")
	return cmd
}
