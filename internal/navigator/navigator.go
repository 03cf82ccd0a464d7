// Package navigator drives the season, schedule and team selection protocol
// of a SCAHA page.
//
// Each query opens its own page, resolves free-text queries against the
// option lists the page discloses, and only posts back when the wanted
// option is not already the active one. The upstream ids may change after a
// postback, so the layout is re-detected from every refreshed document.
package navigator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/fortuna/scaha-mcp/internal/ingest/dom"
	"github.com/fortuna/scaha-mcp/internal/scaha"
)

// Query holds the free-text selections to apply. Empty fields keep the
// upstream default.
type Query struct {
	Season   string
	Schedule string
	Team     string
}

func (q Query) forControl(c dom.Control) string {
	switch c {
	case dom.Season:
		return q.Season
	case dom.Schedule:
		return q.Schedule
	default:
		return q.Team
	}
}

// Navigator opens one kind of upstream page through a transport
type Navigator struct {
	transport Transport
	url       string
	kind      dom.PageKind
}

// New creates a navigator for the page at url
func New(transport Transport, url string, kind dom.PageKind) *Navigator {
	return &Navigator{transport: transport, url: url, kind: kind}
}

// Transport returns the strategy this navigator uses
func (n *Navigator) Transport() Transport {
	return n.transport
}

// State is a navigated page, ready for extraction. The caller owns it and
// must Close it.
type State struct {
	Layout    dom.Layout
	Options   scaha.OptionState
	HTML      string
	Postbacks int

	page Page
}

// Close releases the underlying session or browser
func (s *State) Close() {
	if s.page != nil {
		s.page.Close()
		s.page = nil
	}
}

// Trigger presses a button on the navigated page and returns the result markup
func (s *State) Trigger(ctx context.Context, buttonID, tableID string) (string, error) {
	html, err := s.page.Trigger(ctx, TriggerRequest{
		Layout:   s.Layout,
		Options:  s.Options,
		ButtonID: buttonID,
		TableID:  tableID,
	})
	if err != nil {
		return "", fmt.Errorf("trigger %s: %w", buttonID, err)
	}
	s.Postbacks++
	return html, nil
}

// Navigate opens a fresh page and applies q control by control. The season
// can only be confirmed, never switched: the upstream keeps serving its cached
// season after a season postback, so a non-default season fails with
// HistoricalDataUnavailableError before anything is posted.
func (n *Navigator) Navigate(ctx context.Context, q Query) (*State, error) {
	page, html, err := n.transport.Open(ctx, n.url)
	if err != nil {
		return nil, err
	}

	layout, options, err := dom.Parse(html, n.kind)
	if err != nil {
		page.Close()
		return nil, err
	}
	state := &State{Layout: layout, Options: options, HTML: html, page: page}

	for _, control := range []dom.Control{dom.Season, dom.Schedule, dom.Team} {
		if err := n.apply(ctx, state, control, q.forControl(control)); err != nil {
			state.Close()
			return nil, err
		}
	}

	log.Debug().
		Str("component", "navigator").
		Str("page", n.kind.String()).
		Str("transport", n.transport.Name()).
		Int("postbacks", state.Postbacks).
		Msg("navigation complete")

	return state, nil
}

func (n *Navigator) apply(ctx context.Context, state *State, control dom.Control, query string) error {
	if query == "" {
		return nil
	}
	if control == dom.Team && !state.Layout.HasTeam() {
		// Stats central lists every team of a schedule; the team filters rows.
		if n.kind == dom.StatsCentral {
			return nil
		}
		return &scaha.NotFoundError{
			Kind:  control.String(),
			Query: query,
			Scope: fmt.Sprintf("on the %s page: no team selection offered", n.kind),
		}
	}

	options := optionsFor(state.Options, control)
	target, ok := ResolveOption(options, Variants(control, query))
	if !ok {
		return &scaha.NotFoundError{
			Kind:  control.String(),
			Query: query,
			Scope: fmt.Sprintf("on the %s page", n.kind),
		}
	}

	if target.Selected {
		log.Debug().
			Str("component", "navigator").
			Str("control", control.String()).
			Str("option", target.Label).
			Msg("already selected")
		return nil
	}

	if control == dom.Season {
		current, _ := scaha.SelectedOption(options)
		return &scaha.HistoricalDataUnavailableError{Season: query, Default: current.Label}
	}

	html, err := state.page.Select(ctx, Selection{
		Layout:  state.Layout,
		Options: state.Options,
		Control: control,
		Value:   target.Value,
	})
	if err != nil {
		return fmt.Errorf("select %s %q: %w", control, target.Label, err)
	}
	state.Postbacks++

	if html == "" {
		return fmt.Errorf("select %s %q: empty page after postback", control, target.Label)
	}

	layout, refreshed, err := dom.Parse(html, n.kind)
	if err != nil {
		return err
	}
	markSelected(&refreshed, control, target.Value)
	state.Layout, state.Options, state.HTML = layout, refreshed, html

	log.Debug().
		Str("component", "navigator").
		Str("control", control.String()).
		Str("option", target.Label).
		Msg("selected")
	return nil
}

// markSelected makes value the active option of a control when the refreshed
// list still offers it.
func markSelected(state *scaha.OptionState, control dom.Control, value string) {
	options := optionsFor(*state, control)
	found := false
	for _, opt := range options {
		if opt.Value == value {
			found = true
			break
		}
	}
	if !found {
		return
	}
	for i := range options {
		options[i].Selected = options[i].Value == value
	}
}
