package navigator

import (
	"context"

	"github.com/fortuna/scaha-mcp/internal/ingest/dom"
	"github.com/fortuna/scaha-mcp/internal/scaha"
)

// Selection asks a page to switch one control to a new option
type Selection struct {
	Layout  dom.Layout
	Options scaha.OptionState
	Control dom.Control
	Value   string
}

// TriggerRequest asks a page to press a button and return the results
type TriggerRequest struct {
	Layout   dom.Layout
	Options  scaha.OptionState
	ButtonID string
	TableID  string
}

// Page is one live upstream page owned by a single query
type Page interface {
	// Select applies a selection and returns the refreshed markup, or an
	// empty string when the upstream response carried no update.
	Select(ctx context.Context, sel Selection) (string, error)

	// Trigger presses a button and returns the markup holding its results
	Trigger(ctx context.Context, req TriggerRequest) (string, error)

	Close()
}

// Transport opens upstream pages. Each Open starts an independent session.
type Transport interface {
	Name() string
	Open(ctx context.Context, url string) (Page, string, error)
}

// controlsOf returns the controls a layout carries, in navigation order
func controlsOf(layout dom.Layout) []dom.Control {
	if layout.HasTeam() {
		return []dom.Control{dom.Season, dom.Schedule, dom.Team}
	}
	return []dom.Control{dom.Season, dom.Schedule}
}

// optionsFor returns the option list of one control
func optionsFor(state scaha.OptionState, c dom.Control) []scaha.SelectOption {
	switch c {
	case dom.Season:
		return state.Seasons
	case dom.Schedule:
		return state.Schedules
	default:
		return state.Teams
	}
}

// currentValue is the active option value of a control, "0" when none is active
func currentValue(state scaha.OptionState, c dom.Control) string {
	if opt, ok := scaha.SelectedOption(optionsFor(state, c)); ok && opt.Value != "" {
		return opt.Value
	}
	return "0"
}
