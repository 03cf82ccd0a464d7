package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/scaha-mcp/internal/scaha"
)

const standingsMinCells = 9

// Standings extracts team rows from every standings-shaped table of a page
// or fragment. Columns are Team, GP, W, L, T, Points, GF, GA, GD.
func Standings(html string) ([]scaha.TeamStats, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}

	standings := []scaha.TeamStats{}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		if isScheduleTable(table) {
			return
		}
		table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
			if team, ok := standingsRow(rowCells(row)); ok {
				standings = append(standings, team)
			}
		})
	})
	return standings, nil
}

func standingsRow(cells []string) (scaha.TeamStats, bool) {
	if len(cells) < standingsMinCells {
		return scaha.TeamStats{}, false
	}
	team := cells[0]
	if team == "" || team == "Team" || strings.Contains(team, "Select") {
		return scaha.TeamStats{}, false
	}
	return scaha.TeamStats{
		Team:   team,
		GP:     parseIntOrZero(cells[1]),
		W:      parseIntOrZero(cells[2]),
		L:      parseIntOrZero(cells[3]),
		T:      parseIntOrZero(cells[4]),
		Points: parseIntOrZero(cells[5]),
		GF:     parseIntOrZero(cells[6]),
		GA:     parseIntOrZero(cells[7]),
		GD:     parseIntOrZero(cells[8]),
	}, true
}

// FindTeam returns the standings row whose team name matches query
func FindTeam(standings []scaha.TeamStats, query string) (scaha.TeamStats, bool) {
	for _, team := range standings {
		if TeamNamesMatch(team.Team, query) {
			return team, true
		}
	}
	return scaha.TeamStats{}, false
}
