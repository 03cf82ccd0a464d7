package navigator

import (
	"regexp"
	"strings"

	"github.com/fortuna/scaha-mcp/internal/extract"
	"github.com/fortuna/scaha-mcp/internal/ingest/dom"
	"github.com/fortuna/scaha-mcp/internal/scaha"
)

var (
	regularSeasonSuffix = regexp.MustCompile(`(?i)\s*regular season\s*$`)
	spaceRun            = regexp.MustCompile(`\s+`)
)

// SeasonVariants expands a season query into the label forms the site uses:
// "2024-25" also tries "2024/25", "SCAHA 2024/25" and "SCAHA 2024/25 Season".
func SeasonVariants(query string) []string {
	raw := strings.TrimSpace(query)
	if raw == "" {
		return nil
	}
	slashed := spaceRun.ReplaceAllString(strings.ReplaceAll(raw, "-", "/"), " ")
	return dedupe(raw, slashed, "SCAHA "+slashed, "SCAHA "+slashed+" Season")
}

// ScheduleVariants expands a division or schedule query: "14U B" also tries
// "14U B Regular Season" and "14U B Season", and "14U B Regular Season" also
// tries "14U B".
func ScheduleVariants(query string) []string {
	raw := strings.TrimSpace(query)
	if raw == "" {
		return nil
	}
	base := strings.TrimSpace(regularSeasonSuffix.ReplaceAllString(raw, ""))
	return dedupe(base+" Regular Season", raw, base+" Season", base)
}

// Variants returns the query variants tried for a control
func Variants(c dom.Control, query string) []string {
	switch c {
	case dom.Season:
		return SeasonVariants(query)
	case dom.Schedule:
		return ScheduleVariants(query)
	default:
		return dedupe(strings.TrimSpace(query))
	}
}

// FindOption matches a query against option labels: an exact case-insensitive
// match first, then a case-insensitive substring match. Placeholder entries
// ("Select Team", value "0") never match.
func FindOption(options []scaha.SelectOption, query string) (scaha.SelectOption, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return scaha.SelectOption{}, false
	}
	for _, opt := range options {
		if !isPlaceholder(opt) && strings.ToLower(opt.Label) == q {
			return opt, true
		}
	}
	for _, opt := range options {
		if !isPlaceholder(opt) && strings.Contains(strings.ToLower(opt.Label), q) {
			return opt, true
		}
	}
	return scaha.SelectOption{}, false
}

// ResolveOption tries each variant in turn. When none matches literally the
// labels are compared once more with punctuation ignored, so that "Jr Kings 1"
// still finds "Jr. Kings (1)".
func ResolveOption(options []scaha.SelectOption, variants []string) (scaha.SelectOption, bool) {
	for _, v := range variants {
		if opt, ok := FindOption(options, v); ok {
			return opt, true
		}
	}
	for _, v := range variants {
		want := extract.NormalizeName(v)
		if want == "" {
			continue
		}
		for _, opt := range options {
			if !isPlaceholder(opt) && extract.NormalizeName(opt.Label) == want {
				return opt, true
			}
		}
		for _, opt := range options {
			if !isPlaceholder(opt) && strings.Contains(extract.NormalizeName(opt.Label), want) {
				return opt, true
			}
		}
	}
	return scaha.SelectOption{}, false
}

func dedupe(values ...string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func isPlaceholder(opt scaha.SelectOption) bool {
	return opt.Value == "" || opt.Value == "0"
}
