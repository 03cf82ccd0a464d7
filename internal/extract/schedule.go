package extract

import (
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/scaha-mcp/internal/scaha"
)

// ScheduleHeader is the first line of every schedule CSV export
const ScheduleHeader = `"Game #","Date","Time","Type","Status","Home","Score","Away","Score","Venue","Rink"`

const scheduleFields = 11

var gameNumberPattern = regexp.MustCompile(`^\d+$`)

// isScheduleTable reports whether a table's header names both a game and a date column
func isScheduleTable(table *goquery.Selection) bool {
	var headers []string
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.ToLower(strings.TrimSpace(th.Text())))
	})
	text := strings.Join(headers, " ")
	return strings.Contains(text, "game") && strings.Contains(text, "date")
}

// ScheduleTableCSV renders the team schedule table of a scoreboard page as
// CSV. It reports false when the page carries no schedule table and no
// game-shaped rows.
func ScheduleTableCSV(html string) (string, bool, error) {
	doc, err := parse(html)
	if err != nil {
		return "", false, err
	}

	var rows [][]string
	found := false
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		if !isScheduleTable(table) {
			return true
		}
		found = true
		table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
			if cells := rowCells(row); len(cells) >= scheduleFields {
				rows = append(rows, cells[:scheduleFields])
			}
		})
		return false
	})

	if !found {
		doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
			cells := rowCells(row)
			if len(cells) >= scheduleFields && gameNumberPattern.MatchString(cells[0]) {
				rows = append(rows, cells[:scheduleFields])
			}
		})
		if len(rows) == 0 {
			return "", false, nil
		}
	}

	return encodeRows(rows), true, nil
}

// EncodeScheduleCSV renders games in the export format
func EncodeScheduleCSV(games []scaha.Game) string {
	rows := make([][]string, 0, len(games))
	for _, g := range games {
		rows = append(rows, []string{
			g.GameID, g.Date, g.Time, g.Type, g.Status,
			g.Home, g.HomeScore.String(),
			g.Away, g.AwayScore.String(),
			g.Venue, g.Rink,
		})
	}
	return encodeRows(rows)
}

// encodeRows writes the header then one line per row with every field quoted
func encodeRows(rows [][]string) string {
	var b strings.Builder
	b.WriteString(ScheduleHeader)
	for _, row := range rows {
		b.WriteByte('\n')
		for i, field := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(field, `"`, `""`))
			b.WriteByte('"')
		}
	}
	return b.String()
}

// ParseScheduleCSV decodes a schedule export. The header line is skipped, as
// are rows with fewer than eleven fields or broken quoting.
func ParseScheduleCSV(data string) []scaha.Game {
	r := csv.NewReader(strings.NewReader(strings.TrimSpace(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	games := []scaha.Game{}
	header := true
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			break
		}
		if header {
			header = false
			continue
		}
		if len(record) < scheduleFields {
			continue
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		games = append(games, scaha.Game{
			GameID:    record[0],
			Date:      record[1],
			Time:      record[2],
			Type:      record[3],
			Status:    record[4],
			Home:      record[5],
			HomeScore: scaha.ParseScore(record[6]),
			Away:      record[7],
			AwayScore: scaha.ParseScore(record[8]),
			Venue:     record[9],
			Rink:      record[10],
		})
	}
	return games
}
