package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/fortuna/scaha-mcp/internal/events"
	"github.com/fortuna/scaha-mcp/internal/extract"
	"github.com/fortuna/scaha-mcp/internal/navigator"
	"github.com/fortuna/scaha-mcp/internal/scaha"
	"github.com/fortuna/scaha-mcp/internal/service"
)

type queryFlags struct {
	season   string
	division string
	team     string
	name     string
	number   string
	category string
	date     string
	start    string
	end      string
	limit    int
}

func newQueryCmd(cfg *Config) *cobra.Command {
	f := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Runs a single league query and prints the result as JSON.",
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.season, "season", "", "season, e.g. 2025/26")
	pf.StringVar(&f.division, "division", "", "division or schedule, e.g. 14U B")
	pf.StringVar(&f.team, "team", "", "team name, e.g. Jr. Kings (1)")

	run := func(fn func(ctx context.Context, svc *service.Service) (any, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cfg, events.Nop)
			if err != nil {
				return err
			}
			out, err := fn(cmd.Context(), svc)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
	}

	options := &cobra.Command{
		Use:   "options",
		Short: "Lists the seasons, schedules and teams offered after applying the selection.",
		RunE: run(func(ctx context.Context, svc *service.Service) (any, error) {
			return svc.ListScheduleOptions(ctx, navigator.Query{Season: f.season, Schedule: f.division, Team: f.team})
		}),
	}

	standings := &cobra.Command{
		Use:   "standings --season <season> --division <division>",
		Short: "Prints a division's standings.",
		RunE: run(func(ctx context.Context, svc *service.Service) (any, error) {
			return svc.DivisionStandings(ctx, f.season, f.division)
		}),
	}

	teamStats := &cobra.Command{
		Use:   "team-stats --season <season> --division <division> --team <team>",
		Short: "Prints one team's standings row.",
		RunE: run(func(ctx context.Context, svc *service.Service) (any, error) {
			return svc.TeamStats(ctx, f.season, f.division, f.team)
		}),
	}

	leaders := &cobra.Command{
		Use:   "leaders --season <season> --division <division> [--category players|goalies] [--limit n]",
		Short: "Prints the division leaderboard.",
		RunE: run(func(ctx context.Context, svc *service.Service) (any, error) {
			return svc.DivisionPlayerStats(ctx, service.DivisionStatsQuery{
				Season:   f.season,
				Division: f.division,
				Team:     f.team,
				Category: scaha.StatsCategory(f.category),
				Limit:    f.limit,
			})
		}),
	}
	leaders.Flags().StringVar(&f.category, "category", string(scaha.CategoryPlayers), "players or goalies")
	leaders.Flags().IntVar(&f.limit, "limit", 0, "maximum rows (0 for all)")

	player := &cobra.Command{
		Use:   "player --season <season> --division <division> --team <team> (--name <name> | --number <n>)",
		Short: "Prints one player's statistics.",
		RunE: run(func(ctx context.Context, svc *service.Service) (any, error) {
			return svc.PlayerStats(ctx, f.season, f.division, f.team, extract.PlayerQuery{Name: f.name, Number: f.number})
		}),
	}
	player.Flags().StringVar(&f.name, "name", "", "player name")
	player.Flags().StringVar(&f.number, "number", "", "jersey number")

	roster := &cobra.Command{
		Use:   "roster --season <season> --division <division> --team <team>",
		Short: "Prints a team's skaters and goalies.",
		RunE: run(func(ctx context.Context, svc *service.Service) (any, error) {
			return svc.TeamRoster(ctx, f.season, f.division, f.team)
		}),
	}

	schedule := &cobra.Command{
		Use:   "schedule --season <season> --division <schedule> --team <team>",
		Short: "Prints a team's games.",
		RunE: run(func(ctx context.Context, svc *service.Service) (any, error) {
			return svc.Schedule(ctx, service.ScheduleQuery{
				Season:   f.season,
				Schedule: f.division,
				Team:     f.team,
				Date:     f.date,
				Start:    f.start,
				End:      f.end,
				Limit:    f.limit,
			})
		}),
	}
	schedule.Flags().StringVar(&f.date, "date", "", "only games on this date (YYYY-MM-DD)")
	schedule.Flags().StringVar(&f.start, "start", "", "only games on or after this date")
	schedule.Flags().StringVar(&f.end, "end", "", "only games on or before this date")
	schedule.Flags().IntVar(&f.limit, "limit", 0, "maximum games (0 for all)")

	scheduleCSV := &cobra.Command{
		Use:   "schedule-csv --season <season> --division <schedule> --team <team>",
		Short: "Prints a team's schedule export with its file name.",
		RunE: run(func(ctx context.Context, svc *service.Service) (any, error) {
			return svc.ScheduleCSV(ctx, f.season, f.division, f.team)
		}),
	}

	cmd.AddCommand(options, standings, teamStats, leaders, player, roster, schedule, scheduleCSV)
	return cmd
}
