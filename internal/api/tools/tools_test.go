package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/scaha-mcp/internal/ingest/jsf"
	"github.com/fortuna/scaha-mcp/internal/navigator"
	"github.com/fortuna/scaha-mcp/internal/scahatest"
	"github.com/fortuna/scaha-mcp/internal/service"
)

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	srv := scahatest.NewServer()
	t.Cleanup(srv.Close)

	transport := navigator.NewHTTPTransport(jsf.NewClient())
	server := NewServer(service.New(service.Config{
		BaseURL:    srv.URL,
		Scoreboard: transport,
		Stats:      transport,
	}))

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	return session
}

func call(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)

	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestListTools(t *testing.T) {
	session := connect(t)

	res, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"list_schedule_options",
		"get_division_standings",
		"get_team_stats",
		"get_division_player_stats",
		"get_player_stats",
		"get_team_roster",
		"get_schedule",
		"get_schedule_csv",
	}, names)
}

func TestDivisionStandingsTool(t *testing.T) {
	session := connect(t)

	text, isErr := call(t, session, "get_division_standings", map[string]any{"season": "2025/26", "division": "14U B"})
	require.False(t, isErr, text)

	var out struct {
		Season     string `json:"season"`
		TotalTeams int    `json:"total_teams"`
		Teams      []struct {
			Team   string `json:"team"`
			Points int    `json:"points"`
		} `json:"teams"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.Equal(t, "2025/26", out.Season)
	assert.Equal(t, 3, out.TotalTeams)
	assert.Equal(t, "Jr. Kings (1)", out.Teams[0].Team)
	assert.Equal(t, 15, out.Teams[0].Points)
}

func TestHistoricalSeasonIsToolError(t *testing.T) {
	session := connect(t)

	text, isErr := call(t, session, "get_division_standings", map[string]any{"season": "2024/25", "division": "14U B"})
	assert.True(t, isErr)
	assert.Contains(t, text, "historical data")
}

func TestPlayerStatsToolRequiresNameOrNumber(t *testing.T) {
	session := connect(t)

	text, isErr := call(t, session, "get_player_stats", map[string]any{
		"season":    "2025/26",
		"division":  "14U B",
		"team_slug": "Jr. Kings (1)",
		"player":    map[string]any{},
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "name or number")
}

func TestTeamRosterTool(t *testing.T) {
	session := connect(t)

	text, isErr := call(t, session, "get_team_roster", map[string]any{
		"season":    "2025/26",
		"division":  "14U B",
		"team_slug": "Jr. Kings (1)",
	})
	require.False(t, isErr, text)

	var out struct {
		Team        string `json:"team"`
		PlayerCount int    `json:"player_count"`
		GoalieCount int    `json:"goalie_count"`
		Goalies     []struct {
			SvPct *float64 `json:"sv_pct"`
		} `json:"goalies"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.Equal(t, "Jr. Kings (1)", out.Team)
	assert.Equal(t, 2, out.PlayerCount)
	assert.Equal(t, 1, out.GoalieCount)
	require.NotNil(t, out.Goalies[0].SvPct)
}

func TestScheduleToolUnplayedScores(t *testing.T) {
	session := connect(t)

	text, isErr := call(t, session, "get_schedule", map[string]any{
		"season":   "2025/26",
		"schedule": "14U B",
		"team":     "Jr. Kings (1)",
		"date":     "2025-10-04",
	})
	require.False(t, isErr, text)

	var games []map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &games))
	require.Len(t, games, 1)
	assert.Equal(t, "--", games[0]["home_score"])
	assert.Equal(t, "Ice Dogs", games[0]["away"])
}

func TestDivisionPlayerStatsToolRejectsCategory(t *testing.T) {
	session := connect(t)

	text, isErr := call(t, session, "get_division_player_stats", map[string]any{
		"season":   "2025/26",
		"division": "14U B",
		"category": "referees",
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "category")
}
