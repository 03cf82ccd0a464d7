package scaha

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ScoreUnplayed is the sentinel rendered for games without a final score.
const ScoreUnplayed = "--"

var leadingDigits = regexp.MustCompile(`^\d+`)

// SelectOption is a single entry of an upstream dropdown
type SelectOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// OptionState holds the option lists of the season, schedule and team controls
type OptionState struct {
	Seasons   []SelectOption `json:"seasons"`
	Schedules []SelectOption `json:"schedules"`
	Teams     []SelectOption `json:"teams"`
}

// SelectedOption returns the active option of a list, if any.
func SelectedOption(options []SelectOption) (SelectOption, bool) {
	for _, opt := range options {
		if opt.Selected {
			return opt, true
		}
	}
	return SelectOption{}, false
}

// TeamStats represents one standings row
type TeamStats struct {
	Team   string `json:"team"`
	GP     int    `json:"gp"`
	W      int    `json:"w"`
	L      int    `json:"l"`
	T      int    `json:"t"`
	Points int    `json:"points"`
	GF     int    `json:"gf"`
	GA     int    `json:"ga"`
	GD     int    `json:"gd"`
}

// PlayerStats represents a skater's season totals
type PlayerStats struct {
	Number string `json:"number"`
	Name   string `json:"name"`
	Team   string `json:"team"`
	GP     int    `json:"gp"`
	G      int    `json:"g"`
	A      int    `json:"a"`
	Pts    int    `json:"pts"`
	PIMs   int    `json:"pims"`
}

// GoalieStats represents a goalie's season totals.
// SvPct and GAA are nil when the upstream cell is not numeric.
type GoalieStats struct {
	Number string   `json:"number"`
	Name   string   `json:"name"`
	Team   string   `json:"team"`
	GP     int      `json:"gp"`
	Mins   int      `json:"mins"`
	Shots  int      `json:"shots"`
	Saves  int      `json:"saves"`
	SvPct  *float64 `json:"sv_pct"`
	GAA    *float64 `json:"gaa"`
}

// Score is a game score that is either a number or the unplayed sentinel
type Score struct {
	Value  int
	Played bool
}

// PlayedScore builds a numeric score.
func PlayedScore(v int) Score {
	return Score{Value: v, Played: true}
}

// ParseScore reads the leading integer of a score cell, so "4 (OT)" and
// "3 SO" are scores. "--", blank and cells without a leading number are
// unplayed.
func ParseScore(s string) Score {
	digits := leadingDigits.FindString(strings.TrimSpace(s))
	if digits == "" {
		return Score{}
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return Score{}
	}
	return PlayedScore(v)
}

// String renders the score as it appears in the CSV export
func (s Score) String() string {
	if !s.Played {
		return ScoreUnplayed
	}
	return strconv.Itoa(s.Value)
}

// MarshalJSON encodes played scores as numbers and unplayed ones as "--".
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Played {
		return json.Marshal(ScoreUnplayed)
	}
	return json.Marshal(s.Value)
}

// UnmarshalJSON accepts either a number or the "--" sentinel.
func (s *Score) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*s = PlayedScore(n)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("score must be a number or %q: %w", ScoreUnplayed, err)
	}
	*s = ParseScore(str)
	return nil
}

// Game represents one row of a team schedule
type Game struct {
	GameID    string `json:"game_id"`
	Date      string `json:"date"` // YYYY-MM-DD
	Time      string `json:"time"` // HH:MM:SS
	Type      string `json:"type"`
	Status    string `json:"status"`
	Home      string `json:"home"`
	HomeScore Score  `json:"home_score"`
	Away      string `json:"away"`
	AwayScore Score  `json:"away_score"`
	Venue     string `json:"venue"`
	Rink      string `json:"rink"`
}

// TeamRoster bundles the skaters and goalies of one team
type TeamRoster struct {
	Team     string        `json:"team"`
	Division string        `json:"division"`
	Season   string        `json:"season"`
	Players  []PlayerStats `json:"players"`
	Goalies  []GoalieStats `json:"goalies"`
}

// StatsCategory selects the stats-central view
type StatsCategory string

const (
	CategoryPlayers StatsCategory = "players"
	CategoryGoalies StatsCategory = "goalies"
)
