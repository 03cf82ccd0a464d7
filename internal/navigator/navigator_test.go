package navigator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/scaha-mcp/internal/extract"
	"github.com/fortuna/scaha-mcp/internal/ingest/dom"
	"github.com/fortuna/scaha-mcp/internal/ingest/jsf"
	"github.com/fortuna/scaha-mcp/internal/scaha"
	"github.com/fortuna/scaha-mcp/internal/scahatest"
)

const selectedPage = `<form id="f">
  <select id="f:season" name="f:season">
    <option value="9">SCAHA 2024/25 Season</option>
    <option value="10" selected="selected">SCAHA 2025/26 Season</option>
  </select>
  <select id="f:sched" name="f:sched">
    <option value="0">Select Schedule</option>
    <option value="101" selected="selected">14U B Regular Season</option>
  </select>
  <select id="f:team" name="f:team">
    <option value="0">Select Team</option>
    <option value="1001" selected="selected">Jr. Kings (1)</option>
  </select>
</form>`

type fakePage struct {
	selects  []Selection
	response string
	err      error
	closed   bool
}

func (p *fakePage) Select(_ context.Context, sel Selection) (string, error) {
	p.selects = append(p.selects, sel)
	return p.response, p.err
}

func (p *fakePage) Trigger(context.Context, TriggerRequest) (string, error) {
	return p.response, p.err
}

func (p *fakePage) Close() { p.closed = true }

type fakeTransport struct {
	html string
	page *fakePage
}

func (t *fakeTransport) Name() string { return "fake" }

func (t *fakeTransport) Open(context.Context, string) (Page, string, error) {
	return t.page, t.html, nil
}

func TestNavigateSkipsSelectedOptions(t *testing.T) {
	page := &fakePage{}
	nav := New(&fakeTransport{html: selectedPage, page: page}, "http://scaha.test", dom.Scoreboard)

	state, err := nav.Navigate(context.Background(), Query{Season: "2025/26", Schedule: "14U B", Team: "Jr. Kings (1)"})
	require.NoError(t, err)
	defer state.Close()

	assert.Empty(t, page.selects, "already selected options must not post back")
	assert.Zero(t, state.Postbacks)
	assert.False(t, page.closed)
}

func TestNavigateRejectsNonDefaultSeasonBeforePosting(t *testing.T) {
	page := &fakePage{}
	nav := New(&fakeTransport{html: selectedPage, page: page}, "http://scaha.test", dom.Scoreboard)

	_, err := nav.Navigate(context.Background(), Query{Season: "2024-25", Schedule: "14U B"})
	require.Error(t, err)

	var historical *scaha.HistoricalDataUnavailableError
	require.True(t, errors.As(err, &historical))
	assert.Equal(t, "2024-25", historical.Season)
	assert.Equal(t, "SCAHA 2025/26 Season", historical.Default)
	assert.Empty(t, page.selects)
	assert.True(t, page.closed, "page is released on error")
}

func TestNavigateUnknownOption(t *testing.T) {
	page := &fakePage{}
	nav := New(&fakeTransport{html: selectedPage, page: page}, "http://scaha.test", dom.Scoreboard)

	_, err := nav.Navigate(context.Background(), Query{Schedule: "10U AA"})
	require.Error(t, err)
	assert.True(t, scaha.IsNotFound(err))
	assert.Contains(t, err.Error(), `"10U AA"`)
	assert.True(t, page.closed)
}

func TestNavigateTransportFailureClosesPage(t *testing.T) {
	html := `<form id="f">
  <select id="f:season" name="f:season"><option value="10" selected>SCAHA 2025/26 Season</option></select>
  <select id="f:sched" name="f:sched">
    <option value="0" selected>Select Schedule</option>
    <option value="101">14U B Regular Season</option>
  </select>
</form>`
	page := &fakePage{err: &scaha.TransportError{Op: "POST", URL: "http://scaha.test", StatusCode: 500}}
	nav := New(&fakeTransport{html: html, page: page}, "http://scaha.test", dom.Scoreboard)

	_, err := nav.Navigate(context.Background(), Query{Schedule: "14U B"})
	require.Error(t, err)
	assert.True(t, scaha.IsTransport(err))
	assert.True(t, page.closed)

	page = &fakePage{}
	nav = New(&fakeTransport{html: html, page: page}, "http://scaha.test", dom.Scoreboard)
	_, err = nav.Navigate(context.Background(), Query{Schedule: "Select"})
	require.Error(t, err)
	assert.True(t, scaha.IsNotFound(err), "placeholders are never matched")
}

func TestNavigateSelectsDownstreamControls(t *testing.T) {
	page := &fakePage{response: `<form id="f">
  <select id="f:season" name="f:season"><option value="10" selected>SCAHA 2025/26 Season</option></select>
  <select id="f:sched" name="f:sched">
    <option value="0">Select Schedule</option>
    <option value="101">14U B Regular Season</option>
  </select>
  <select id="f:team2" name="f:team2"><option value="0">Select Team</option><option value="1001">Heat</option></select>
</form>`}
	html := `<form id="f">
  <select id="f:season" name="f:season"><option value="10" selected>SCAHA 2025/26 Season</option></select>
  <select id="f:sched" name="f:sched">
    <option value="0" selected>Select Schedule</option>
    <option value="101">14U B Regular Season</option>
  </select>
  <select id="f:team" name="f:team"><option value="0">Select Team</option></select>
</form>`
	nav := New(&fakeTransport{html: html, page: page}, "http://scaha.test", dom.Scoreboard)

	state, err := nav.Navigate(context.Background(), Query{Schedule: "14u b"})
	require.NoError(t, err)
	defer state.Close()

	require.Len(t, page.selects, 1)
	sel := page.selects[0]
	assert.Equal(t, dom.Schedule, sel.Control)
	assert.Equal(t, "101", sel.Value)
	assert.Equal(t, "f:sched", sel.Layout.ScheduleField)

	opt, ok := scaha.SelectedOption(state.Options.Schedules)
	require.True(t, ok)
	assert.Equal(t, "101", opt.Value, "selection is carried into the refreshed options")
	assert.Equal(t, "f:team2", state.Layout.TeamField)
	assert.Equal(t, page.response, state.HTML)
}

func TestNavigateFailsWhenPostbackReturnsNothing(t *testing.T) {
	html := `<form id="f">
  <select id="f:season" name="f:season"><option value="10" selected>SCAHA 2025/26 Season</option></select>
  <select id="f:sched" name="f:sched">
    <option value="0" selected>Select Schedule</option>
    <option value="101">14U B Regular Season</option>
  </select>
</form>`
	page := &fakePage{}
	nav := New(&fakeTransport{html: html, page: page}, "http://scaha.test", dom.Scoreboard)

	_, err := nav.Navigate(context.Background(), Query{Schedule: "14U B"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty page after postback")
	assert.True(t, page.closed)
}

func TestNavigateTeamWithoutTeamControl(t *testing.T) {
	html := `<form id="f">
  <select id="f:season" name="f:season"><option value="10" selected>SCAHA 2025/26 Season</option></select>
  <select id="f:sched" name="f:sched">
    <option value="0">Select Schedule</option>
    <option value="101" selected>14U B Regular Season</option>
  </select>
</form>`

	page := &fakePage{}
	nav := New(&fakeTransport{html: html, page: page}, "http://scaha.test", dom.Scoreboard)
	_, err := nav.Navigate(context.Background(), Query{Schedule: "14U B", Team: "Nonexistent Team"})
	require.Error(t, err)
	assert.True(t, scaha.IsNotFound(err))
	assert.Contains(t, err.Error(), `"Nonexistent Team"`)
	assert.Empty(t, page.selects)
	assert.True(t, page.closed)

	page = &fakePage{}
	nav = New(&fakeTransport{html: html, page: page}, "http://scaha.test", dom.StatsCentral)
	state, err := nav.Navigate(context.Background(), Query{Schedule: "14U B", Team: "Heat"})
	require.NoError(t, err, "stats central filters rows by team instead")
	state.Close()
}

func TestNavigateOverHTTPRejectsPostbackWithoutUpdate(t *testing.T) {
	for name, body := range map[string]string{
		"redirect":      `<?xml version="1.0"?><partial-response><redirect url="/scaha/scoreboard.xhtml"/></partial-response>`,
		"empty changes": `<?xml version="1.0"?><partial-response><changes/></partial-response>`,
		"server error":  `<?xml version="1.0"?><partial-response><error><error-name>javax.faces.application.ViewExpiredException</error-name><error-message><![CDATA[view expired]]></error-message></error></partial-response>`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := scahatest.NewServer()
			defer srv.Close()
			srv.AnswerPostbacks(body)

			nav := New(NewHTTPTransport(jsf.NewClient()), srv.ScoreboardURL(), dom.Scoreboard)
			_, err := nav.Navigate(context.Background(), Query{Schedule: "12U A"})
			require.Error(t, err)
			assert.True(t, scaha.IsTransport(err))
		})
	}
}

func TestQueryVariants(t *testing.T) {
	assert.Equal(t, []string{"2024-25", "2024/25", "SCAHA 2024/25", "SCAHA 2024/25 Season"}, SeasonVariants("2024-25"))
	assert.Equal(t, []string{"2025/26", "SCAHA 2025/26", "SCAHA 2025/26 Season"}, SeasonVariants(" 2025/26 "))
	assert.Equal(t, []string{"14U B Regular Season", "14U B", "14U B Season"}, ScheduleVariants("14U B"))
	assert.Equal(t, []string{"14U B Regular Season", "14U B regular season", "14U B Season", "14U B"}, ScheduleVariants("14U B regular season"))
	assert.Nil(t, ScheduleVariants(""))
}

func TestResolveOption(t *testing.T) {
	options := []scaha.SelectOption{
		{Value: "0", Label: "Select Team"},
		{Value: "1001", Label: "Jr. Kings (1)"},
		{Value: "1004", Label: "Jr. Kings (2)"},
		{Value: "1002", Label: "Heat"},
	}

	opt, ok := ResolveOption(options, []string{"heat"})
	require.True(t, ok)
	assert.Equal(t, "1002", opt.Value)

	opt, ok = ResolveOption(options, []string{"Jr. Kings"})
	require.True(t, ok)
	assert.Equal(t, "1001", opt.Value, "substring match takes the first option")

	opt, ok = ResolveOption(options, []string{"Jr Kings 2"})
	require.True(t, ok)
	assert.Equal(t, "1004", opt.Value, "punctuation-insensitive fallback")

	_, ok = ResolveOption(options, []string{"team"})
	assert.False(t, ok)
}

func TestNavigateOverHTTP(t *testing.T) {
	srv := scahatest.NewServer()
	defer srv.Close()

	nav := New(NewHTTPTransport(jsf.NewClient()), srv.ScoreboardURL(), dom.Scoreboard)
	ctx := context.Background()

	state, err := nav.Navigate(ctx, Query{Season: "2025/26", Schedule: "14U B", Team: "Jr. Kings (1)"})
	require.NoError(t, err)
	defer state.Close()

	assert.Equal(t, 2, state.Postbacks)
	assert.Equal(t, 2, srv.Postbacks())
	assert.Equal(t, scahatest.DriftedTeam, state.Layout.TeamField, "team control is re-detected after a postback")

	team, ok := scaha.SelectedOption(state.Options.Teams)
	require.True(t, ok)
	assert.Equal(t, "Jr. Kings (1)", team.Label)

	data, ok, err := extract.ScheduleTableCSV(state.HTML)
	require.NoError(t, err)
	require.True(t, ok)
	games := extract.ParseScheduleCSV(data)
	require.Len(t, games, 3)
	assert.Equal(t, "1001", games[0].GameID)
	assert.Equal(t, scaha.PlayedScore(4), games[0].AwayScore)
}

func TestNavigateOverHTTPRejectsHistoricalSeason(t *testing.T) {
	srv := scahatest.NewServer()
	defer srv.Close()

	nav := New(NewHTTPTransport(jsf.NewClient()), srv.ScoreboardURL(), dom.Scoreboard)

	_, err := nav.Navigate(context.Background(), Query{Season: "2024/25", Schedule: "14U B"})
	require.Error(t, err)
	assert.True(t, scaha.IsHistoricalDataUnavailable(err))
	assert.Zero(t, srv.Postbacks())
}

func TestStatsCentralTriggerOverHTTP(t *testing.T) {
	srv := scahatest.NewServer()
	defer srv.Close()

	nav := New(NewHTTPTransport(jsf.NewClient()), srv.StatsCentralURL(), dom.StatsCentral)
	ctx := context.Background()

	state, err := nav.Navigate(ctx, Query{Season: "2025-26", Schedule: "14U B", Team: "ignored on stats pages"})
	require.NoError(t, err)
	defer state.Close()

	html, err := state.Trigger(ctx, state.Layout.PlayersButtonID, state.Layout.PlayersTableID)
	require.NoError(t, err)

	players, err := extract.Players(html, state.Layout.PlayersTableID, "")
	require.NoError(t, err)
	require.Len(t, players, 3)
	assert.Equal(t, "Alex Carter", players[0].Name)

	html, err = state.Trigger(ctx, state.Layout.GoaliesButtonID, state.Layout.GoaliesTableID)
	require.NoError(t, err)

	goalies, err := extract.Goalies(html, state.Layout.GoaliesTableID, "")
	require.NoError(t, err)
	require.Len(t, goalies, 2)
	assert.Equal(t, 3, srv.Postbacks(), "one schedule postback and two triggers, each with a fresh view state")
}
