// Package extract turns SCAHA result tables into typed records.
//
// Extraction never fails on a malformed row: short rows, header rows and
// placeholder rows are skipped and unparsable numeric cells become zero.
package extract

import (
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/scaha-mcp/internal/ingest/dom"
)

// rowCells returns the trimmed text of every td in a table row
func rowCells(row *goquery.Selection) []string {
	var cells []string
	row.Find("td").Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(td.Text()))
	})
	return cells
}

// parseIntOrZero reads the leading integer of a cell ("12 (OT)" -> 12) and
// returns 0 when the cell does not start with a number.
func parseIntOrZero(s string) int {
	prefix := numericPrefix(s, false)
	if prefix == "" {
		return 0
	}
	v, err := strconv.Atoi(prefix)
	if err != nil {
		return 0
	}
	return v
}

// parseFloatOrNil reads the leading decimal of a cell (".905", "2.67").
// Cells such as "-" or "N/A" yield nil.
func parseFloatOrNil(s string) *float64 {
	prefix := numericPrefix(s, true)
	if prefix == "" {
		return nil
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// numericPrefix returns the longest leading numeric prefix of s, optionally
// allowing one decimal point.
func numericPrefix(s string, decimal bool) string {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits, dot := 0, false
scan:
	for ; end < len(s); end++ {
		switch c := s[end]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && decimal && !dot:
			dot = true
		default:
			break scan
		}
	}
	if digits == 0 {
		return ""
	}
	return strings.TrimSuffix(s[:end], ".")
}

func parse(html string) (*goquery.Document, error) {
	return dom.ParseHTML(html)
}
