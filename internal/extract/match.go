package extract

import (
	"regexp"
	"strings"

	"github.com/fortuna/scaha-mcp/internal/scaha"
)

var (
	punctuationPattern = regexp.MustCompile(`[^\w\s]`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// NormalizeName lower-cases a team or player name, strips punctuation and
// collapses whitespace: "Jr. Kings (1)" becomes "jr kings 1".
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = punctuationPattern.ReplaceAllString(name, "")
	name = whitespacePattern.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// TeamNamesMatch compares two team names after normalization
func TeamNamesMatch(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}

// PlayerQuery identifies a player by jersey number or by name
type PlayerQuery struct {
	Name   string
	Number string
}

// FindPlayer looks a player up. A number must match the jersey exactly
// ("07" does not match "7"); a name matches exactly after normalization
// first, then as a substring.
func FindPlayer(players []scaha.PlayerStats, q PlayerQuery) (scaha.PlayerStats, bool) {
	if q.Number != "" {
		for _, p := range players {
			if p.Number == q.Number {
				return p, true
			}
		}
		return scaha.PlayerStats{}, false
	}

	if q.Name == "" {
		return scaha.PlayerStats{}, false
	}
	want := NormalizeName(q.Name)
	for _, p := range players {
		if NormalizeName(p.Name) == want {
			return p, true
		}
	}
	for _, p := range players {
		if strings.Contains(NormalizeName(p.Name), want) {
			return p, true
		}
	}
	return scaha.PlayerStats{}, false
}
