// Package scahatest serves a small imitation of the SCAHA scoreboard and
// stats central pages for tests.
//
// The server keeps JSF-like per-session state: a session cookie, a view state
// that must be echoed back and advances on every postback, and partial
// responses wrapping the refreshed form in CDATA. Like the real site it keeps
// serving the cached season when a postback switches seasons, and it renames
// the team control after the first postback.
package scahatest

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/mux"
)

const (
	FormID        = "j_id_4d"
	SeasonField   = FormID + ":j_id_4kInner"
	ScheduleField = FormID + ":j_id_4nInner"
	StatsSchedule = FormID + ":schedulelistInner"
	TeamField     = FormID + ":j_id_4qInner"
	DriftedTeam   = FormID + ":j_id_4rInner"
	PlayersButton = FormID + ":j_id_4w"
	GoaliesButton = FormID + ":j_id_4x"
	PlayersTable  = FormID + ":playertotals"
	GoaliesTable  = FormID + ":goalietotals"
	StandingsID   = FormID + ":parts"
	ScheduleTable = FormID + ":teamschedule"

	sessionCookie  = "JSESSIONID"
	viewStateField = "javax.faces.ViewState"
	submitField    = FormID + "_SUBMIT"
)

// DefaultSeason is the season the server selects on a fresh page
const DefaultSeason = "10"

type option struct{ value, label string }

var seasons = []option{
	{"9", "SCAHA 2024/25 Season"},
	{"10", "SCAHA 2025/26 Season"},
}

var schedules = map[string][]option{
	"10": {
		{"101", "14U B Regular Season"},
		{"102", "12U A Regular Season"},
	},
	"9": {
		{"91", "14U B Regular Season"},
	},
}

var teams = map[string][]option{
	"101": {
		{"1001", "Jr. Kings (1)"},
		{"1002", "Heat"},
		{"1003", "Ice Dogs"},
	},
	"102": {
		{"2001", "Wave"},
	},
}

var standings = map[string][][]string{
	"101": {
		{"Jr. Kings (1)", "10", "7", "2", "1", "15", "41", "20", "21"},
		{"Heat", "10", "5", "4", "1", "11", "30", "28", "2"},
		{"Ice Dogs", "10", "1", "8", "1", "3", "15", "38", "-23"},
	},
}

var games = map[string][][]string{
	"101": {
		{"1001", "2025-09-13", "10:00:00", "Game", "Final", "Heat", "2", "Jr. Kings (1)", "4", "Toyota Sports Performance Center", "Rink 1"},
		{"1017", "2025-10-04", "18:15:00", "Game", "Scheduled", "Jr. Kings (1)", "--", "Ice Dogs", "--", "Great Park Ice", "Rink 3"},
		{"1030", "2025-11-02", "08:00:00", "Game", "Scheduled", "Ice Dogs", "--", "Heat", "--", "Great Park Ice", "Rink 2"},
		{"1042", "2025-11-15", "12:30:00", "Game", "Scheduled", "Jr. Kings (1)", "--", "Heat", "--", "Toyota Sports Performance Center", "Rink 2"},
	},
}

var players = map[string][][]string{
	"101": {
		{"7", "Alex Carter", "Jr. Kings (1)", "10", "8", "6", "14", "2"},
		{"19", "Ben Ortiz", "Jr. Kings (1)", "10", "5", "11", "16", "0"},
		{"07", "Chris Lee", "Heat", "9", "3", "3", "6", "4"},
	},
}

var goalies = map[string][][]string{
	"101": {
		{"30", "Sam Reed", "Jr. Kings (1)", "8", "360", "210", "194", ".924", "2.67"},
		{"1", "Max Fox", "Heat", "2", "90", "40", "35", "-", "-"},
	},
}

type session struct {
	viewState int
	season    string
	schedule  string
	team      string
	view      string
	drifted   bool
}

// Server is a running fake of the upstream site
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	sessions  map[string]*session
	nextID    int
	postbacks int
	gets      int
	override  string
}

// NewServer starts the fake; callers must Close it
func NewServer() *Server {
	s := &Server{sessions: make(map[string]*session)}

	router := mux.NewRouter()
	router.PathPrefix("/scaha/scoreboard.xhtml").HandlerFunc(s.handle(s.renderScoreboard))
	router.PathPrefix("/scaha/statscentral.xhtml").HandlerFunc(s.handle(s.renderStatsCentral))

	s.Server = httptest.NewServer(router)
	return s
}

// ScoreboardURL returns the scoreboard page URL
func (s *Server) ScoreboardURL() string {
	return s.URL + "/scaha/scoreboard.xhtml"
}

// StatsCentralURL returns the stats central page URL
func (s *Server) StatsCentralURL() string {
	return s.URL + "/scaha/statscentral.xhtml"
}

// Postbacks returns the number of accepted postbacks
func (s *Server) Postbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.postbacks
}

// AnswerPostbacks makes every later postback return body with a 200 status
// instead of the refreshed form, as the site does for redirects and errors.
func (s *Server) AnswerPostbacks(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = body
}

// PageLoads returns the number of initial page loads served
func (s *Server) PageLoads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

type renderFunc func(sess *session) string

func (s *Server) handle(render renderFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		switch r.Method {
		case http.MethodGet:
			s.gets++
			s.nextID++
			id := fmt.Sprintf("sess%d", s.nextID)
			sess := &session{viewState: 1, season: DefaultSeason, schedule: "0", team: "0"}
			s.sessions[id] = sess

			http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: id, Path: "/scaha"})
			w.Header().Set("Content-Type", "text/html;charset=UTF-8")
			fmt.Fprintf(w, `<!DOCTYPE html><html><head><title>SCAHA</title></head><body>%s</body></html>`,
				strings.Replace(render(sess), "</form>",
					fmt.Sprintf(`<input type="hidden" name="%s" id="j_id1:%s:0" value="vs-%d"/></form>`, viewStateField, viewStateField, sess.viewState), 1))

		case http.MethodPost:
			cookie, err := r.Cookie(sessionCookie)
			if err != nil {
				http.Error(w, "missing session", http.StatusInternalServerError)
				return
			}
			sess, ok := s.sessions[cookie.Value]
			if !ok || !strings.HasSuffix(r.URL.Path, ";jsessionid="+cookie.Value) {
				http.Error(w, "unknown session", http.StatusInternalServerError)
				return
			}
			if err := r.ParseForm(); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if r.PostForm.Get(viewStateField) != fmt.Sprintf("vs-%d", sess.viewState) {
				http.Error(w, "javax.faces.application.ViewExpiredException", http.StatusInternalServerError)
				return
			}
			if r.PostForm.Get(submitField) != "1" {
				http.Error(w, "missing submit marker", http.StatusBadRequest)
				return
			}

			s.postbacks++
			w.Header().Set("Content-Type", "text/xml;charset=UTF-8")
			if s.override != "" {
				fmt.Fprint(w, s.override)
				return
			}

			sess.viewState++
			sess.apply(r)

			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><partial-response><changes>`+
				`<update id="%s"><![CDATA[%s]]></update>`+
				`<update id="j_id1:%s:0"><![CDATA[vs-%d]]></update>`+
				`</changes></partial-response>`,
				FormID, render(sess), viewStateField, sess.viewState)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

// apply updates the session from a postback. A season change is accepted but
// the cached season keeps being served.
func (sess *session) apply(r *http.Request) {
	form := r.PostForm

	if form.Has(PlayersButton) {
		sess.view = "players"
		return
	}
	if form.Has(GoaliesButton) {
		sess.view = "goalies"
		return
	}

	teamField := TeamField
	if sess.drifted {
		teamField = DriftedTeam
	}

	schedule := form.Get(ScheduleField)
	if form.Has(StatsSchedule) {
		schedule = form.Get(StatsSchedule)
	}
	if schedule == "" {
		schedule = "0"
	}
	team := "0"
	if v := form.Get(teamField); v != "" && schedule == sess.schedule {
		team = v
	}

	sess.schedule = schedule
	sess.team = team
	sess.view = ""
	sess.drifted = true
}

func (s *Server) renderScoreboard(sess *session) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<form id="%s" name="%s" method="post" action="/scaha/scoreboard.xhtml">`, FormID, FormID)
	b.WriteString(`<input type="hidden" name="` + submitField + `" value="1"/>`)

	writeSelect(&b, SeasonField, seasons, sess.season, "")
	writeSelect(&b, ScheduleField, schedules[sess.season], sess.schedule, "Select Schedule")

	teamField := TeamField
	if sess.drifted {
		teamField = DriftedTeam
	}
	var teamOptions []option
	if sess.schedule != "0" {
		teamOptions = teams[sess.schedule]
	}
	writeSelect(&b, teamField, teamOptions, sess.team, "Select Team")

	if rows, ok := standings[sess.schedule]; ok {
		writeTable(&b, StandingsID, []string{"Team", "GP", "W", "L", "T", "Points", "GF", "GA", "GD"}, rows)
	}

	if sess.team != "0" {
		label := labelOf(teams[sess.schedule], sess.team)
		var rows [][]string
		for _, g := range games[sess.schedule] {
			if g[5] == label || g[7] == label {
				rows = append(rows, g)
			}
		}
		writeTable(&b, ScheduleTable,
			[]string{"Game #", "Date", "Time", "Type", "Status", "Home", "Score", "Away", "Score", "Venue", "Rink"}, rows)
	}

	b.WriteString(`</form>`)
	return b.String()
}

func (s *Server) renderStatsCentral(sess *session) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<form id="%s" name="%s" method="post" action="/scaha/statscentral.xhtml">`, FormID, FormID)
	b.WriteString(`<input type="hidden" name="` + submitField + `" value="1"/>`)

	writeSelect(&b, SeasonField, seasons, sess.season, "")
	writeSelect(&b, StatsSchedule, schedules[sess.season], sess.schedule, "Select Schedule")

	fmt.Fprintf(&b, `<button id="%s" name="%s" type="submit">Players</button>`, PlayersButton, PlayersButton)
	fmt.Fprintf(&b, `<button id="%s" name="%s" type="submit">Goalies</button>`, GoaliesButton, GoaliesButton)

	switch sess.view {
	case "players":
		writeTable(&b, PlayersTable, []string{"#", "Name", "Team", "GP", "G", "A", "Pts", "PIMs"}, players[sess.schedule])
	case "goalies":
		writeTable(&b, GoaliesTable, []string{"#", "Name", "Team", "GP", "Mins", "Shots", "Saves", "SV%", "GAA"}, goalies[sess.schedule])
	}

	b.WriteString(`</form>`)
	return b.String()
}

func writeSelect(b *strings.Builder, id string, options []option, selected, placeholder string) {
	fmt.Fprintf(b, `<select id="%s" name="%s" size="1">`, id, id)
	if placeholder != "" {
		writeOption(b, option{"0", placeholder}, selected)
	}
	for _, opt := range options {
		writeOption(b, opt, selected)
	}
	b.WriteString(`</select>`)
}

func writeOption(b *strings.Builder, opt option, selected string) {
	attr := ""
	if opt.value == selected {
		attr = ` selected="selected"`
	}
	fmt.Fprintf(b, `<option value="%s"%s>%s</option>`, opt.value, attr, html.EscapeString(opt.label))
}

func writeTable(b *strings.Builder, id string, headers []string, rows [][]string) {
	fmt.Fprintf(b, `<table id="%s"><thead><tr>`, id)
	for _, h := range headers {
		fmt.Fprintf(b, `<th>%s</th>`, html.EscapeString(h))
	}
	b.WriteString(`</tr></thead><tbody>`)
	for _, row := range rows {
		b.WriteString(`<tr>`)
		for _, cell := range row {
			fmt.Fprintf(b, `<td>%s</td>`, html.EscapeString(cell))
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table>`)
}

func labelOf(options []option, value string) string {
	for _, opt := range options {
		if opt.value == value {
			return opt.label
		}
	}
	return ""
}
