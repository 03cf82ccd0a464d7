package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	seasonYearPattern = regexp.MustCompile(`(\d{4})[/-]?(\d{2,4})?`)
	tierPattern       = regexp.MustCompile(`(?i)(\d+U)\s*([A-Z]+(?:\s*Div\s*\d+)?)`)
	spacePattern      = regexp.MustCompile(`\s+`)
	unsafeNamePattern = regexp.MustCompile(`[^a-zA-Z0-9-]+`)
)

const filenameTimestamp = "2006-01-02T15-04-05"

// ExportFilename names a schedule export:
// SCAHA_<yyyy-yy>_<tier>_<team>_<timestamp>.csv
func ExportFilename(season, schedule, team string, at time.Time) string {
	return fmt.Sprintf("SCAHA_%s_%s_%s_%s.csv",
		seasonYears(season),
		scheduleTier(schedule),
		strings.Trim(unsafeNamePattern.ReplaceAllString(team, "_"), "_"),
		at.UTC().Format(filenameTimestamp),
	)
}

// seasonYears turns "2025/26" into "2025-26"; a lone year repeats its last two digits
func seasonYears(season string) string {
	m := seasonYearPattern.FindStringSubmatch(season)
	if m == nil {
		return "unknown"
	}
	if m[2] == "" {
		return m[1] + "-" + m[1][2:]
	}
	return m[1] + "-" + m[2]
}

// scheduleTier turns "14U B Regular Season" into "14U-B"
func scheduleTier(schedule string) string {
	m := tierPattern.FindStringSubmatch(schedule)
	if m == nil {
		return spacePattern.ReplaceAllString(schedule, "-")
	}
	return m[1] + "-" + spacePattern.ReplaceAllString(m[2], "")
}
