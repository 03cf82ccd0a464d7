package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/fortuna/scaha-mcp/internal/extract"
	"github.com/fortuna/scaha-mcp/internal/navigator"
	"github.com/fortuna/scaha-mcp/internal/scaha"
)

// StandingsResult is a division's standings table
type StandingsResult struct {
	Season     string            `json:"season"`
	Division   string            `json:"division"`
	Teams      []scaha.TeamStats `json:"teams"`
	TotalTeams int               `json:"total_teams"`
}

// DivisionStatsQuery selects a division leaderboard
type DivisionStatsQuery struct {
	Season   string
	Division string
	Team     string
	Category scaha.StatsCategory
	Limit    int
}

// RankedPlayer is a skater with its leaderboard position
type RankedPlayer struct {
	Rank int `json:"rank"`
	scaha.PlayerStats
}

// RankedGoalie is a goalie with its leaderboard position
type RankedGoalie struct {
	Rank int `json:"rank"`
	scaha.GoalieStats
}

// DivisionStatsResult is a ranked, optionally truncated leaderboard
type DivisionStatsResult struct {
	Season        string              `json:"season"`
	Division      string              `json:"division"`
	TeamFilter    *string             `json:"team_filter"`
	Category      scaha.StatsCategory `json:"category"`
	TotalCount    int                 `json:"total_count"`
	ReturnedCount int                 `json:"returned_count"`
	HasMore       bool                `json:"has_more"`
	Players       []RankedPlayer      `json:"players,omitempty"`
	Goalies       []RankedGoalie      `json:"goalies,omitempty"`
}

// ScheduleQuery selects a team schedule and optional date filters.
// Dates are YYYY-MM-DD; Start and End are inclusive.
type ScheduleQuery struct {
	Season   string
	Schedule string
	Team     string
	Date     string
	Start    string
	End      string
	Limit    int
}

// CSVFile is a schedule export ready to hand to a client
type CSVFile struct {
	Filename   string `json:"filename"`
	Mime       string `json:"mime"`
	DataBase64 string `json:"data_base64"`
	SizeBytes  int    `json:"size_bytes"`
}

// ListScheduleOptions returns the seasons, schedules and teams the scoreboard
// offers after applying q
func (s *Service) ListScheduleOptions(ctx context.Context, q navigator.Query) (scaha.OptionState, error) {
	c := s.begin(ctx, "list_schedule_options", s.scoreboard, q)

	state, err := s.scoreboard.Navigate(ctx, q)
	if err != nil {
		return scaha.OptionState{}, c.end(ctx, 0, err)
	}
	defer state.Close()

	opts := state.Options
	return opts, c.end(ctx, len(opts.Seasons)+len(opts.Schedules)+len(opts.Teams), nil)
}

// DivisionStandings returns the standings of one division. A division
// without a standings table yields an empty result.
func (s *Service) DivisionStandings(ctx context.Context, season, division string) (StandingsResult, error) {
	q := navigator.Query{Season: season, Schedule: division}
	c := s.begin(ctx, "get_division_standings", s.scoreboard, q)

	teams, err := s.standings(ctx, q)
	if err != nil {
		return StandingsResult{}, c.end(ctx, 0, err)
	}

	return StandingsResult{
		Season:     season,
		Division:   division,
		Teams:      teams,
		TotalTeams: len(teams),
	}, c.end(ctx, len(teams), nil)
}

// TeamStats returns one team's standings row
func (s *Service) TeamStats(ctx context.Context, season, division, team string) (scaha.TeamStats, error) {
	q := navigator.Query{Season: season, Schedule: division}
	c := s.begin(ctx, "get_team_stats", s.scoreboard, q)

	teams, err := s.standings(ctx, q)
	if err != nil {
		return scaha.TeamStats{}, c.end(ctx, 0, err)
	}

	stats, ok := extract.FindTeam(teams, team)
	if !ok {
		return scaha.TeamStats{}, c.end(ctx, 0, &scaha.NotFoundError{
			Kind:  "team",
			Query: team,
			Scope: fmt.Sprintf("in %s division for %s season", division, season),
		})
	}
	return stats, c.end(ctx, 1, nil)
}

func (s *Service) standings(ctx context.Context, q navigator.Query) ([]scaha.TeamStats, error) {
	state, err := s.scoreboard.Navigate(ctx, q)
	if err != nil {
		return nil, err
	}
	defer state.Close()

	return extract.Standings(state.HTML)
}

// DivisionPlayerStats returns a division leaderboard. Skaters are ranked by
// points, goalies by save percentage; the limit applies after ranking.
func (s *Service) DivisionPlayerStats(ctx context.Context, dq DivisionStatsQuery) (DivisionStatsResult, error) {
	if dq.Category == "" {
		dq.Category = scaha.CategoryPlayers
	}
	q := navigator.Query{Season: dq.Season, Schedule: dq.Division, Team: dq.Team}
	c := s.begin(ctx, "get_division_player_stats", s.stats, q)

	result := DivisionStatsResult{
		Season:   dq.Season,
		Division: dq.Division,
		Category: dq.Category,
	}
	if dq.Team != "" {
		team := dq.Team
		result.TeamFilter = &team
	}

	switch dq.Category {
	case scaha.CategoryPlayers:
		players, err := s.players(ctx, q)
		if err != nil {
			return DivisionStatsResult{}, c.end(ctx, 0, err)
		}
		sort.SliceStable(players, func(i, j int) bool { return players[i].Pts > players[j].Pts })

		result.TotalCount = len(players)
		players = truncate(players, dq.Limit)
		result.Players = make([]RankedPlayer, len(players))
		for i, p := range players {
			result.Players[i] = RankedPlayer{Rank: i + 1, PlayerStats: p}
		}
		result.ReturnedCount = len(players)

	case scaha.CategoryGoalies:
		goalies, err := s.goalies(ctx, q)
		if err != nil {
			return DivisionStatsResult{}, c.end(ctx, 0, err)
		}
		sort.SliceStable(goalies, func(i, j int) bool { return saveRateLess(goalies[j], goalies[i]) })

		result.TotalCount = len(goalies)
		goalies = truncate(goalies, dq.Limit)
		result.Goalies = make([]RankedGoalie, len(goalies))
		for i, g := range goalies {
			result.Goalies[i] = RankedGoalie{Rank: i + 1, GoalieStats: g}
		}
		result.ReturnedCount = len(goalies)

	default:
		return DivisionStatsResult{}, c.end(ctx, 0, fmt.Errorf("unknown stats category %q", dq.Category))
	}

	result.HasMore = result.ReturnedCount < result.TotalCount
	return result, c.end(ctx, result.ReturnedCount, nil)
}

// saveRateLess orders goalies by save percentage with missing rates lowest
func saveRateLess(a, b scaha.GoalieStats) bool {
	switch {
	case a.SvPct == nil:
		return b.SvPct != nil
	case b.SvPct == nil:
		return false
	default:
		return *a.SvPct < *b.SvPct
	}
}

func truncate[T any](rows []T, limit int) []T {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

// PlayerStats looks one skater up on a team by jersey number or name
func (s *Service) PlayerStats(ctx context.Context, season, division, team string, who extract.PlayerQuery) (scaha.PlayerStats, error) {
	if who.Name == "" && who.Number == "" {
		return scaha.PlayerStats{}, fmt.Errorf("must provide either player name or number")
	}

	q := navigator.Query{Season: season, Schedule: division, Team: team}
	c := s.begin(ctx, "get_player_stats", s.stats, q)

	players, err := s.players(ctx, q)
	if err != nil {
		return scaha.PlayerStats{}, c.end(ctx, 0, err)
	}

	player, ok := extract.FindPlayer(players, who)
	if !ok {
		id := who.Name
		if who.Number != "" {
			id = "#" + who.Number
		}
		return scaha.PlayerStats{}, c.end(ctx, 0, &scaha.NotFoundError{
			Kind:  "player",
			Query: id,
			Scope: "on " + team,
		})
	}
	return player, c.end(ctx, 1, nil)
}

// TeamRoster returns the skaters and goalies of one team
func (s *Service) TeamRoster(ctx context.Context, season, division, team string) (scaha.TeamRoster, error) {
	q := navigator.Query{Season: season, Schedule: division, Team: team}
	c := s.begin(ctx, "get_team_roster", s.stats, q)

	state, err := s.stats.Navigate(ctx, q)
	if err != nil {
		return scaha.TeamRoster{}, c.end(ctx, 0, err)
	}
	defer state.Close()

	players, err := triggerPlayers(ctx, state, team)
	if err != nil {
		return scaha.TeamRoster{}, c.end(ctx, 0, err)
	}
	goalies, err := triggerGoalies(ctx, state, team)
	if err != nil {
		return scaha.TeamRoster{}, c.end(ctx, 0, err)
	}

	if len(players) == 0 && len(goalies) == 0 {
		notFound := &scaha.NotFoundError{
			Kind:  "roster",
			Query: team,
			Scope: "in division " + division,
		}
		return scaha.TeamRoster{}, c.end(ctx, 0, fmt.Errorf("%w: %w", notFound, scaha.ErrEmpty))
	}

	name := team
	switch {
	case len(players) > 0:
		name = players[0].Team
	case len(goalies) > 0:
		name = goalies[0].Team
	}

	return scaha.TeamRoster{
		Team:     name,
		Division: division,
		Season:   season,
		Players:  players,
		Goalies:  goalies,
	}, c.end(ctx, len(players)+len(goalies), nil)
}

func (s *Service) players(ctx context.Context, q navigator.Query) ([]scaha.PlayerStats, error) {
	state, err := s.stats.Navigate(ctx, q)
	if err != nil {
		return nil, err
	}
	defer state.Close()
	return triggerPlayers(ctx, state, q.Team)
}

func (s *Service) goalies(ctx context.Context, q navigator.Query) ([]scaha.GoalieStats, error) {
	state, err := s.stats.Navigate(ctx, q)
	if err != nil {
		return nil, err
	}
	defer state.Close()
	return triggerGoalies(ctx, state, q.Team)
}

func triggerPlayers(ctx context.Context, state *navigator.State, team string) ([]scaha.PlayerStats, error) {
	html, err := state.Trigger(ctx, state.Layout.PlayersButtonID, state.Layout.PlayersTableID)
	if err != nil {
		return nil, err
	}
	return extract.Players(html, state.Layout.PlayersTableID, team)
}

func triggerGoalies(ctx context.Context, state *navigator.State, team string) ([]scaha.GoalieStats, error) {
	html, err := state.Trigger(ctx, state.Layout.GoaliesButtonID, state.Layout.GoaliesTableID)
	if err != nil {
		return nil, err
	}
	return extract.Goalies(html, state.Layout.GoaliesTableID, team)
}

// Schedule returns a team's games, filtered by date
func (s *Service) Schedule(ctx context.Context, sq ScheduleQuery) ([]scaha.Game, error) {
	q := navigator.Query{Season: sq.Season, Schedule: sq.Schedule, Team: sq.Team}
	c := s.begin(ctx, "get_schedule", s.scoreboard, q)

	data, err := s.scheduleCSV(ctx, q)
	if err != nil {
		return nil, c.end(ctx, 0, err)
	}

	games := filterGames(extract.ParseScheduleCSV(data), sq)
	return games, c.end(ctx, len(games), nil)
}

func filterGames(games []scaha.Game, sq ScheduleQuery) []scaha.Game {
	out := make([]scaha.Game, 0, len(games))
	for _, g := range games {
		if sq.Date != "" && g.Date != sq.Date {
			continue
		}
		if sq.Start != "" && g.Date < sq.Start {
			continue
		}
		if sq.End != "" && g.Date > sq.End {
			continue
		}
		out = append(out, g)
	}
	return truncate(out, sq.Limit)
}

// ScheduleCSV returns a team's schedule as a named CSV export
func (s *Service) ScheduleCSV(ctx context.Context, season, schedule, team string) (CSVFile, error) {
	q := navigator.Query{Season: season, Schedule: schedule, Team: team}
	c := s.begin(ctx, "get_schedule_csv", s.scoreboard, q)

	data, err := s.scheduleCSV(ctx, q)
	if err != nil {
		return CSVFile{}, c.end(ctx, 0, err)
	}

	file := CSVFile{
		Filename:   ExportFilename(season, schedule, team, s.clock.Now()),
		Mime:       "text/csv",
		DataBase64: base64.StdEncoding.EncodeToString([]byte(data)),
		SizeBytes:  len(data),
	}
	return file, c.end(ctx, len(extract.ParseScheduleCSV(data)), nil)
}

func (s *Service) scheduleCSV(ctx context.Context, q navigator.Query) (string, error) {
	state, err := s.scoreboard.Navigate(ctx, q)
	if err != nil {
		return "", err
	}
	defer state.Close()

	data, ok, err := extract.ScheduleTableCSV(state.HTML)
	if err != nil {
		return "", err
	}
	if !ok {
		log.Debug().
			Str("component", "service").
			Str("team", q.Team).
			Msg("no schedule table on page, exporting header only")
		return extract.EncodeScheduleCSV(nil), nil
	}
	return data, nil
}
