package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fortuna/scaha-mcp/internal/scaha"
)

func TestExportFilename(t *testing.T) {
	at := time.Date(2025, 11, 2, 8, 5, 9, 123000000, time.UTC)

	tests := []struct {
		season, schedule, team string
		want                   string
	}{
		{"2025/26", "14U B Regular Season", "Jr. Kings (1)", "SCAHA_2025-26_14U-B_Jr_Kings_1_2025-11-02T08-05-09.csv"},
		{"SCAHA 2024-25 Season", "12U A", "Heat", "SCAHA_2024-25_12U-A_Heat_2025-11-02T08-05-09.csv"},
		{"2025", "10U B Div 2", "Ice-Dogs", "SCAHA_2025-25_10U-BDiv2_Ice-Dogs_2025-11-02T08-05-09.csv"},
		{"2025/26", "14U B Regular Season", "Jr. Kings", "SCAHA_2025-26_14U-B_Jr_Kings_2025-11-02T08-05-09.csv"},
		{"current", "Girls Open", "Lady Ducks", "SCAHA_unknown_Girls-Open_Lady_Ducks_2025-11-02T08-05-09.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ExportFilename(tt.season, tt.schedule, tt.team, at))
		})
	}
}

func TestFilterGames(t *testing.T) {
	games := []scaha.Game{
		{GameID: "1", Date: "2025-09-13"},
		{GameID: "2", Date: "2025-10-04"},
		{GameID: "3", Date: "2025-11-15"},
	}

	ids := func(gs []scaha.Game) []string {
		out := []string{}
		for _, g := range gs {
			out = append(out, g.GameID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(filterGames(games, ScheduleQuery{})))
	assert.Equal(t, []string{"2"}, ids(filterGames(games, ScheduleQuery{Date: "2025-10-04"})))
	assert.Equal(t, []string{"2", "3"}, ids(filterGames(games, ScheduleQuery{Start: "2025-10-01"})))
	assert.Equal(t, []string{"1", "2"}, ids(filterGames(games, ScheduleQuery{End: "2025-10-04"})))
	assert.Equal(t, []string{"1"}, ids(filterGames(games, ScheduleQuery{Limit: 1})))
	assert.Empty(t, filterGames(games, ScheduleQuery{Date: "2026-01-01"}))
}
