// Package tools exposes the league queries as MCP tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/fortuna/scaha-mcp/internal/extract"
	"github.com/fortuna/scaha-mcp/internal/navigator"
	"github.com/fortuna/scaha-mcp/internal/scaha"
	"github.com/fortuna/scaha-mcp/internal/service"
)

// Server identity reported to MCP clients
const (
	ServerName    = "scaha-mcp"
	ServerVersion = "1.0.0"
)

// ListScheduleOptionsInput holds the optional selections for list_schedule_options
type ListScheduleOptionsInput struct {
	Season   string `json:"season,omitempty" jsonschema:"Optional season name to target, e.g. SCAHA 2025/26 Season"`
	Schedule string `json:"schedule,omitempty" jsonschema:"Optional schedule name to target, e.g. 14U B Regular Season"`
	Team     string `json:"team,omitempty" jsonschema:"Optional team name to target"`
}

// DivisionInput identifies a division for get_division_standings
type DivisionInput struct {
	Season   string `json:"season" jsonschema:"Season identifier, e.g. 2025/26 or 2025-26"`
	Division string `json:"division" jsonschema:"Division name, e.g. 14U B"`
}

// TeamStatsInput identifies a team for get_team_stats
type TeamStatsInput struct {
	Season   string `json:"season" jsonschema:"Season identifier, e.g. 2025/26"`
	Division string `json:"division" jsonschema:"Division name"`
	TeamSlug string `json:"team_slug" jsonschema:"Team name or identifier"`
}

// DivisionPlayerStatsInput selects the leaderboard for get_division_player_stats
type DivisionPlayerStatsInput struct {
	Season   string `json:"season" jsonschema:"Season identifier, e.g. 2025/26"`
	Division string `json:"division" jsonschema:"Division name, e.g. 14U B"`
	TeamSlug string `json:"team_slug,omitempty" jsonschema:"Optional team filter, e.g. Jr. Kings"`
	Category string `json:"category,omitempty" jsonschema:"players (default) or goalies"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Optional maximum number of ranked rows"`
}

// PlayerRef names a player by name, jersey number or both
type PlayerRef struct {
	Name   string `json:"name,omitempty" jsonschema:"Player name or part of it"`
	Number string `json:"number,omitempty" jsonschema:"Jersey number, matched exactly"`
}

// PlayerStatsInput identifies a player for get_player_stats
type PlayerStatsInput struct {
	Season   string    `json:"season" jsonschema:"Season identifier, e.g. 2025/26"`
	Division string    `json:"division" jsonschema:"Division name"`
	TeamSlug string    `json:"team_slug" jsonschema:"Team name"`
	Player   PlayerRef `json:"player" jsonschema:"Player to look up by name or number"`
}

// TeamRosterInput identifies a team for get_team_roster
type TeamRosterInput struct {
	Season   string `json:"season" jsonschema:"Season identifier, e.g. 2025/26"`
	Division string `json:"division" jsonschema:"Division name, e.g. 14U B"`
	TeamSlug string `json:"team_slug" jsonschema:"Team name, e.g. Jr. Kings (1)"`
}

// ScheduleInput selects and filters games for get_schedule
type ScheduleInput struct {
	Season   string `json:"season" jsonschema:"Season name, e.g. 2025/26"`
	Schedule string `json:"schedule" jsonschema:"Schedule name, e.g. 14U B"`
	Team     string `json:"team" jsonschema:"Team name, e.g. Jr. Kings (1)"`
	Date     string `json:"date,omitempty" jsonschema:"Only games on this date (YYYY-MM-DD)"`
	Start    string `json:"start_date,omitempty" jsonschema:"Only games on or after this date (YYYY-MM-DD)"`
	End      string `json:"end_date,omitempty" jsonschema:"Only games on or before this date (YYYY-MM-DD)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Optional maximum number of games"`
}

// ScheduleCSVInput identifies the schedule exported by get_schedule_csv
type ScheduleCSVInput struct {
	Season   string `json:"season" jsonschema:"Season name, e.g. 2025/26"`
	Schedule string `json:"schedule" jsonschema:"Schedule name, e.g. 14U B Regular Season"`
	Team     string `json:"team" jsonschema:"Team name, e.g. Jr. Kings (1)"`
}

// rosterOutput adds summary sizes to a roster
type rosterOutput struct {
	scaha.TeamRoster
	PlayerCount int `json:"player_count"`
	GoalieCount int `json:"goalie_count"`
}

type handlers struct {
	svc *service.Service
}

// NewServer creates an MCP server with every league tool registered
func NewServer(svc *service.Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)
	Register(server, svc)
	return server
}

// Register adds the league tools to server
func Register(server *mcp.Server, svc *service.Service) {
	h := &handlers{svc: svc}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_schedule_options",
		Description: "List available seasons, schedules, and teams from the scoreboard page",
	}, h.listScheduleOptions)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_division_standings",
		Description: "Get the standings table of a division: games played, wins, losses, ties, points and goal totals for every team",
	}, h.divisionStandings)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_team_stats",
		Description: "Get one team's statistics from the division standings",
	}, h.teamStats)

	mcp.AddTool(server, &mcp.Tool{
		Name: "get_division_player_stats",
		Description: "Get player statistics rankings for a division, sorted by points (goalies by save percentage), " +
			"optionally filtered by team. Use it for questions like who leads the division in scoring",
	}, h.divisionPlayerStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_player_stats",
		Description: "Get one player's season statistics by name or jersey number",
	}, h.playerStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_team_roster",
		Description: "Get the skaters and goalies of a team with their season statistics",
	}, h.teamRoster)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_schedule",
		Description: "Get a team's game schedule with optional date filters",
	}, h.schedule)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_schedule_csv",
		Description: "Download a team's schedule as a base64-encoded CSV file",
	}, h.scheduleCSV)
}

func (h *handlers) listScheduleOptions(ctx context.Context, _ *mcp.CallToolRequest, in ListScheduleOptionsInput) (*mcp.CallToolResult, any, error) {
	opts, err := h.svc.ListScheduleOptions(ctx, navigator.Query{
		Season:   in.Season,
		Schedule: in.Schedule,
		Team:     in.Team,
	})
	return respond("list_schedule_options", opts, err)
}

func (h *handlers) divisionStandings(ctx context.Context, _ *mcp.CallToolRequest, in DivisionInput) (*mcp.CallToolResult, any, error) {
	if err := required("season", in.Season, "division", in.Division); err != nil {
		return toolError(err), nil, nil
	}
	result, err := h.svc.DivisionStandings(ctx, in.Season, in.Division)
	return respond("get_division_standings", result, err)
}

func (h *handlers) teamStats(ctx context.Context, _ *mcp.CallToolRequest, in TeamStatsInput) (*mcp.CallToolResult, any, error) {
	if err := required("season", in.Season, "division", in.Division, "team_slug", in.TeamSlug); err != nil {
		return toolError(err), nil, nil
	}
	stats, err := h.svc.TeamStats(ctx, in.Season, in.Division, in.TeamSlug)
	return respond("get_team_stats", stats, err)
}

func (h *handlers) divisionPlayerStats(ctx context.Context, _ *mcp.CallToolRequest, in DivisionPlayerStatsInput) (*mcp.CallToolResult, any, error) {
	if err := required("season", in.Season, "division", in.Division); err != nil {
		return toolError(err), nil, nil
	}
	category := scaha.StatsCategory(in.Category)
	switch category {
	case "", scaha.CategoryPlayers, scaha.CategoryGoalies:
	default:
		return toolError(fmt.Errorf("category must be %q or %q", scaha.CategoryPlayers, scaha.CategoryGoalies)), nil, nil
	}
	if in.Limit < 0 {
		return toolError(fmt.Errorf("limit must not be negative")), nil, nil
	}

	result, err := h.svc.DivisionPlayerStats(ctx, service.DivisionStatsQuery{
		Season:   in.Season,
		Division: in.Division,
		Team:     in.TeamSlug,
		Category: category,
		Limit:    in.Limit,
	})
	return respond("get_division_player_stats", result, err)
}

func (h *handlers) playerStats(ctx context.Context, _ *mcp.CallToolRequest, in PlayerStatsInput) (*mcp.CallToolResult, any, error) {
	if err := required("season", in.Season, "division", in.Division, "team_slug", in.TeamSlug); err != nil {
		return toolError(err), nil, nil
	}
	stats, err := h.svc.PlayerStats(ctx, in.Season, in.Division, in.TeamSlug, extract.PlayerQuery{
		Name:   in.Player.Name,
		Number: in.Player.Number,
	})
	return respond("get_player_stats", stats, err)
}

func (h *handlers) teamRoster(ctx context.Context, _ *mcp.CallToolRequest, in TeamRosterInput) (*mcp.CallToolResult, any, error) {
	if err := required("season", in.Season, "division", in.Division, "team_slug", in.TeamSlug); err != nil {
		return toolError(err), nil, nil
	}
	roster, err := h.svc.TeamRoster(ctx, in.Season, in.Division, in.TeamSlug)
	return respond("get_team_roster", rosterOutput{
		TeamRoster:  roster,
		PlayerCount: len(roster.Players),
		GoalieCount: len(roster.Goalies),
	}, err)
}

func (h *handlers) schedule(ctx context.Context, _ *mcp.CallToolRequest, in ScheduleInput) (*mcp.CallToolResult, any, error) {
	if err := required("season", in.Season, "schedule", in.Schedule, "team", in.Team); err != nil {
		return toolError(err), nil, nil
	}
	games, err := h.svc.Schedule(ctx, service.ScheduleQuery{
		Season:   in.Season,
		Schedule: in.Schedule,
		Team:     in.Team,
		Date:     in.Date,
		Start:    in.Start,
		End:      in.End,
		Limit:    in.Limit,
	})
	return respond("get_schedule", games, err)
}

func (h *handlers) scheduleCSV(ctx context.Context, _ *mcp.CallToolRequest, in ScheduleCSVInput) (*mcp.CallToolResult, any, error) {
	if err := required("season", in.Season, "schedule", in.Schedule, "team", in.Team); err != nil {
		return toolError(err), nil, nil
	}
	file, err := h.svc.ScheduleCSV(ctx, in.Season, in.Schedule, in.Team)
	return respond("get_schedule_csv", file, err)
}

// required checks name/value pairs and reports the first empty one
func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%s is required", pairs[i])
		}
	}
	return nil
}

func respond(tool string, v any, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		log.Debug().Str("component", "mcp").Str("tool", tool).Err(err).Msg("tool returned error")
		return toolError(err), nil, nil
	}
	return toolJSON(v), nil, nil
}

func toolJSON(v any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(fmt.Errorf("encode result: %w", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: err.Error()},
		},
	}
}
