// Package dom infers the roles of the form controls on the SCAHA JSF pages.
//
// The upstream component ids (j_id_4k, j_id_4n, ...) are generated by the
// framework and drift between deployments, so controls are identified by
// what their options and labels say rather than by id.
package dom

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/scaha-mcp/internal/scaha"
)

// DefaultFormID is used when no select sits inside an identified form
const DefaultFormID = "j_id_4d"

// PageKind identifies which upstream page a document came from
type PageKind int

const (
	Scoreboard PageKind = iota
	StatsCentral
)

func (k PageKind) String() string {
	switch k {
	case Scoreboard:
		return "scoreboard"
	case StatsCentral:
		return "stats central"
	default:
		return fmt.Sprintf("page(%d)", int(k))
	}
}

// Control is one of the navigable dropdowns
type Control int

const (
	Season Control = iota
	Schedule
	Team
)

func (c Control) String() string {
	switch c {
	case Season:
		return "season"
	case Schedule:
		return "schedule"
	case Team:
		return "team"
	default:
		return fmt.Sprintf("control(%d)", int(c))
	}
}

// Layout holds the detected ids and field names of one page's form
type Layout struct {
	Kind        PageKind
	FormID      string
	SubmitField string

	SeasonSelectID   string
	SeasonField      string
	ScheduleSelectID string
	ScheduleField    string
	TeamSelectID     string
	TeamField        string

	PlayersButtonID string
	GoaliesButtonID string
	PlayersTableID  string
	GoaliesTableID  string
}

// SelectID returns the element id of the given control
func (l Layout) SelectID(c Control) string {
	switch c {
	case Season:
		return l.SeasonSelectID
	case Schedule:
		return l.ScheduleSelectID
	default:
		return l.TeamSelectID
	}
}

// Field returns the form field name of the given control
func (l Layout) Field(c Control) string {
	switch c {
	case Season:
		return l.SeasonField
	case Schedule:
		return l.ScheduleField
	default:
		return l.TeamField
	}
}

// HasTeam reports whether the page carries a team control distinct from the
// season and schedule controls
func (l Layout) HasTeam() bool {
	return l.TeamField != "" && l.TeamField != l.SeasonField && l.TeamField != l.ScheduleField
}

type selectNode struct {
	id      string
	name    string
	formID  string
	options []scaha.SelectOption
}

type buttonNode struct {
	id   string
	text string
}

var (
	yearPairPattern = regexp.MustCompile(`\d{4}[/-]\d{2}`)
	schedulePattern = regexp.MustCompile(`(?i)regular season|schedule`)
)

// ParseHTML converts raw HTML to a goquery Document for parsing
func ParseHTML(htmlContent string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// Parse detects the layout of a page and returns it with the option lists of its controls
func Parse(htmlContent string, kind PageKind) (Layout, scaha.OptionState, error) {
	doc, err := ParseHTML(htmlContent)
	if err != nil {
		return Layout{}, scaha.OptionState{}, err
	}
	layout, state := detect(doc, kind)
	return layout, state, nil
}

// ParseScoreboardPage parses the scoreboard page or one of its partial updates
func ParseScoreboardPage(htmlContent string) (Layout, scaha.OptionState, error) {
	return Parse(htmlContent, Scoreboard)
}

// ParseStatsCentralPage parses the stats central page or one of its partial updates
func ParseStatsCentralPage(htmlContent string) (Layout, scaha.OptionState, error) {
	return Parse(htmlContent, StatsCentral)
}

func detect(doc *goquery.Document, kind PageKind) (Layout, scaha.OptionState) {
	selects := collectSelects(doc)

	season := -1
	for i, sel := range selects {
		if anyLabelMatches(sel.options, yearPairPattern) {
			season = i
			break
		}
	}
	if season < 0 && len(selects) > 0 {
		season = 0
	}

	schedule := -1
	for i, sel := range selects {
		if i != season && anyLabelMatches(sel.options, schedulePattern) {
			schedule = i
			break
		}
	}
	if schedule < 0 && len(selects) > 1 && season != 1 {
		schedule = 1
	}
	if schedule < 0 {
		schedule = firstUnclaimed(len(selects), season)
	}

	team := -1
	if kind == Scoreboard {
		team = firstUnclaimed(len(selects), season, schedule)
		if team < 0 && len(selects) > 0 {
			team = len(selects) - 1
		}
	}

	formID := DefaultFormID
	for _, idx := range []int{season, schedule, team} {
		if idx >= 0 && selects[idx].formID != "" {
			formID = selects[idx].formID
			break
		}
	}

	layout := Layout{
		Kind:        kind,
		FormID:      formID,
		SubmitField: formID + "_SUBMIT",
	}
	var state scaha.OptionState

	layout.SeasonSelectID, layout.SeasonField = controlNames(selects, season, formID+":j_id_4kInner")
	state.Seasons = optionsAt(selects, season)

	if kind == StatsCentral {
		layout.ScheduleSelectID, layout.ScheduleField = controlNames(selects, schedule, formID+":schedulelistInner")
	} else {
		layout.ScheduleSelectID, layout.ScheduleField = controlNames(selects, schedule, formID+":j_id_4nInner")
	}
	state.Schedules = optionsAt(selects, schedule)

	if kind == Scoreboard {
		layout.TeamSelectID, layout.TeamField = controlNames(selects, team, formID+":j_id_4qInner")
		state.Teams = optionsAt(selects, team)
	}

	if kind == StatsCentral {
		detectStatsControls(doc, &layout)
	}

	return layout, state
}

func detectStatsControls(doc *goquery.Document, layout *Layout) {
	var buttons []buttonNode
	doc.Find(`button, input[type="submit"]`).Each(func(_ int, s *goquery.Selection) {
		id := s.AttrOr("id", "")
		if id == "" {
			id = s.AttrOr("name", "")
		}
		text := strings.TrimSpace(s.Text())
		if text == "" {
			text = strings.TrimSpace(s.AttrOr("value", ""))
		}
		buttons = append(buttons, buttonNode{id: id, text: text})
	})

	layout.PlayersButtonID = findButton(buttons, "players", 0, layout.FormID+":j_id_4w")
	layout.GoaliesButtonID = findButton(buttons, "goalies", 1, layout.FormID+":j_id_4x")

	layout.PlayersTableID = doc.Find(`table[id*="playertotals"]`).First().AttrOr("id", "")
	if layout.PlayersTableID == "" {
		layout.PlayersTableID = layout.FormID + ":playertotals"
	}
	layout.GoaliesTableID = doc.Find(`table[id*="goalietotals"]`).First().AttrOr("id", "")
	if layout.GoaliesTableID == "" {
		layout.GoaliesTableID = layout.FormID + ":goalietotals"
	}
}

// findButton picks the first button whose text mentions keyword, then the
// button at fallbackIdx, then the first button, then the framework default.
func findButton(buttons []buttonNode, keyword string, fallbackIdx int, def string) string {
	for _, b := range buttons {
		if b.id != "" && strings.Contains(strings.ToLower(b.text), keyword) {
			return b.id
		}
	}
	if fallbackIdx < len(buttons) && buttons[fallbackIdx].id != "" {
		return buttons[fallbackIdx].id
	}
	if len(buttons) > 0 && buttons[0].id != "" {
		return buttons[0].id
	}
	return def
}

func collectSelects(doc *goquery.Document) []selectNode {
	var nodes []selectNode
	doc.Find("select").Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, selectNode{
			id:      s.AttrOr("id", ""),
			name:    s.AttrOr("name", ""),
			formID:  s.Closest("form").AttrOr("id", ""),
			options: parseOptions(s),
		})
	})
	return nodes
}

// parseOptions reads the options of a select. As in a browser, an option
// without a value attribute submits its label, and when no option carries the
// selected attribute the first one is the active choice.
func parseOptions(sel *goquery.Selection) []scaha.SelectOption {
	options := []scaha.SelectOption{}
	anySelected := false
	sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		_, selected := opt.Attr("selected")
		anySelected = anySelected || selected
		label := strings.TrimSpace(opt.Text())
		value, ok := opt.Attr("value")
		if !ok {
			value = label
		}
		options = append(options, scaha.SelectOption{
			Value:    value,
			Label:    label,
			Selected: selected,
		})
	})
	if !anySelected && len(options) > 0 && !sel.Is("[multiple]") {
		options[0].Selected = true
	}
	return options
}

func anyLabelMatches(options []scaha.SelectOption, re *regexp.Regexp) bool {
	for _, opt := range options {
		if re.MatchString(opt.Label) {
			return true
		}
	}
	return false
}

func firstUnclaimed(n int, claimed ...int) int {
	for i := 0; i < n; i++ {
		taken := false
		for _, c := range claimed {
			if c == i {
				taken = true
				break
			}
		}
		if !taken {
			return i
		}
	}
	return -1
}

func controlNames(selects []selectNode, idx int, def string) (id, field string) {
	if idx < 0 {
		return def, def
	}
	sel := selects[idx]
	id = sel.id
	if id == "" {
		id = def
	}
	field = sel.name
	if field == "" {
		field = sel.id
	}
	if field == "" {
		field = def
	}
	return id, field
}

func optionsAt(selects []selectNode, idx int) []scaha.SelectOption {
	if idx < 0 {
		return []scaha.SelectOption{}
	}
	return selects[idx].options
}
