package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scoreboardPage = `<html><body>
<form id="j_id_4c" name="j_id_4c">
  <select id="j_id_4c:j_id_4zInner" name="j_id_4c:j_id_4zInner">
    <option value="0">Select Team</option>
    <option value="1001" selected="selected">Jr. Kings (1)</option>
  </select>
  <select id="j_id_4c:seasonInner" name="j_id_4c:seasonInner">
    <option value="9">SCAHA 2024/25 Season</option>
    <option value="10" selected="selected">SCAHA 2025/26 Season</option>
  </select>
  <select id="j_id_4c:schedInner" name="j_id_4c:schedInner">
    <option value="0">Select Schedule</option>
    <option value="101" selected="selected">14U B Regular Season</option>
  </select>
</form>
</body></html>`

func TestParseScoreboardPageDetectsControlsByContent(t *testing.T) {
	layout, state, err := ParseScoreboardPage(scoreboardPage)
	require.NoError(t, err)

	assert.Equal(t, "j_id_4c", layout.FormID)
	assert.Equal(t, "j_id_4c_SUBMIT", layout.SubmitField)
	assert.Equal(t, "j_id_4c:seasonInner", layout.SeasonSelectID)
	assert.Equal(t, "j_id_4c:schedInner", layout.ScheduleField)
	assert.Equal(t, "j_id_4c:j_id_4zInner", layout.TeamSelectID)
	assert.True(t, layout.HasTeam())

	require.Len(t, state.Seasons, 2)
	assert.Equal(t, "SCAHA 2025/26 Season", state.Seasons[1].Label)
	assert.True(t, state.Seasons[1].Selected)
	assert.False(t, state.Seasons[0].Selected)
	require.Len(t, state.Teams, 2)
	assert.Equal(t, "1001", state.Teams[1].Value)
}

func TestParseFallsBackToDocumentOrder(t *testing.T) {
	html := `<form id="f">
  <select id="a" name="a"><option value="1">Alpha</option></select>
  <select id="b" name="b"><option value="2">Bravo</option></select>
  <select id="c"><option value="3">Charlie</option></select>
</form>`

	layout, state, err := ParseScoreboardPage(html)
	require.NoError(t, err)

	assert.Equal(t, "a", layout.SeasonField)
	assert.Equal(t, "b", layout.ScheduleField)
	assert.Equal(t, "c", layout.TeamSelectID)
	assert.Equal(t, "c", layout.TeamField, "field falls back to the id when name is missing")
	assert.True(t, state.Teams[0].Selected, "first option is active when none is marked")
}

func TestParseWithoutSelectsUsesDefaults(t *testing.T) {
	layout, state, err := ParseScoreboardPage(`<div>maintenance</div>`)
	require.NoError(t, err)

	assert.Equal(t, DefaultFormID, layout.FormID)
	assert.Equal(t, "j_id_4d:j_id_4kInner", layout.SeasonField)
	assert.Equal(t, "j_id_4d:j_id_4nInner", layout.ScheduleField)
	assert.Equal(t, "j_id_4d:j_id_4qInner", layout.TeamField)
	assert.Empty(t, state.Seasons)
	assert.Empty(t, state.Teams)
}

func TestParseStatsCentralPage(t *testing.T) {
	html := `<form id="j_id_4d">
  <select id="j_id_4d:j_id_4kInner" name="j_id_4d:j_id_4kInner">
    <option value="10" selected>SCAHA 2025/26 Season</option>
  </select>
  <select id="j_id_4d:schedulelistInner" name="j_id_4d:schedulelistInner">
    <option value="101">14U B Regular Season</option>
  </select>
  <button id="j_id_4d:j_id_51" name="j_id_4d:j_id_51">Goalies</button>
  <input type="submit" id="j_id_4d:j_id_50" value="Players"/>
  <table id="j_id_4d:playertotals_v2"><tbody></tbody></table>
</form>`

	layout, state, err := ParseStatsCentralPage(html)
	require.NoError(t, err)

	assert.False(t, layout.HasTeam())
	assert.Empty(t, state.Teams)
	assert.Equal(t, "j_id_4d:schedulelistInner", layout.ScheduleSelectID)
	assert.Equal(t, "j_id_4d:j_id_50", layout.PlayersButtonID)
	assert.Equal(t, "j_id_4d:j_id_51", layout.GoaliesButtonID)
	assert.Equal(t, "j_id_4d:playertotals_v2", layout.PlayersTableID)
	assert.Equal(t, "j_id_4d:goalietotals", layout.GoaliesTableID)
}

func TestButtonFallbacks(t *testing.T) {
	html := `<form id="f">
  <select id="s"><option>2025/26</option></select>
  <button id="first">Go</button>
  <button id="second">Go again</button>
</form>`

	layout, _, err := ParseStatsCentralPage(html)
	require.NoError(t, err)

	assert.Equal(t, "first", layout.PlayersButtonID)
	assert.Equal(t, "second", layout.GoaliesButtonID)
	assert.Equal(t, "f:playertotals", layout.PlayersTableID)
}
