package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/scaha-mcp/internal/scaha"
)

const (
	playerMinCells = 8
	goalieMinCells = 9
)

// Players extracts skater rows from the player totals table. When tableID is
// not present in the markup every table is scanned. A non-empty team keeps
// only the rows whose team matches it.
func Players(html, tableID, team string) ([]scaha.PlayerStats, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}

	players := []scaha.PlayerStats{}
	statsRows(doc, tableID).Each(func(_ int, row *goquery.Selection) {
		cells := rowCells(row)
		if !isStatsRow(cells, playerMinCells) {
			return
		}
		if team != "" && !TeamNamesMatch(cells[2], team) {
			return
		}
		players = append(players, scaha.PlayerStats{
			Number: cells[0],
			Name:   cells[1],
			Team:   cells[2],
			GP:     parseIntOrZero(cells[3]),
			G:      parseIntOrZero(cells[4]),
			A:      parseIntOrZero(cells[5]),
			Pts:    parseIntOrZero(cells[6]),
			PIMs:   parseIntOrZero(cells[7]),
		})
	})
	return players, nil
}

// Goalies extracts goalie rows from the goalie totals table, with the same
// table and team rules as Players.
func Goalies(html, tableID, team string) ([]scaha.GoalieStats, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}

	goalies := []scaha.GoalieStats{}
	statsRows(doc, tableID).Each(func(_ int, row *goquery.Selection) {
		cells := rowCells(row)
		if !isStatsRow(cells, goalieMinCells) {
			return
		}
		if team != "" && !TeamNamesMatch(cells[2], team) {
			return
		}
		goalies = append(goalies, scaha.GoalieStats{
			Number: cells[0],
			Name:   cells[1],
			Team:   cells[2],
			GP:     parseIntOrZero(cells[3]),
			Mins:   parseIntOrZero(cells[4]),
			Shots:  parseIntOrZero(cells[5]),
			Saves:  parseIntOrZero(cells[6]),
			SvPct:  parseFloatOrNil(cells[7]),
			GAA:    parseFloatOrNil(cells[8]),
		})
	})
	return goalies, nil
}

func statsRows(doc *goquery.Document, tableID string) *goquery.Selection {
	if tableID != "" {
		if rows := doc.Find(`table[id="` + tableID + `"] tbody tr`); rows.Length() > 0 {
			return rows
		}
	}
	return doc.Find("table tbody tr")
}

func isStatsRow(cells []string, minCells int) bool {
	return len(cells) >= minCells && cells[0] != "" && cells[1] != "" && cells[1] != "Name"
}
