// Package service answers league queries by driving a fresh upstream session
// per call and extracting records from the resulting page.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/fortuna/scaha-mcp/internal/events"
	"github.com/fortuna/scaha-mcp/internal/ingest/dom"
	"github.com/fortuna/scaha-mcp/internal/navigator"
)

const (
	// DefaultBaseURL is the public SCAHA site
	DefaultBaseURL = "https://www.scaha.net"

	scoreboardPath   = "/scaha/scoreboard.xhtml"
	statsCentralPath = "/scaha/statscentral.xhtml"
)

// Config wires the service to its transports and observers
type Config struct {
	BaseURL    string
	Scoreboard navigator.Transport
	Stats      navigator.Transport
	Clock      clockwork.Clock
	Observer   events.Observer
}

// Service exposes the league queries
type Service struct {
	scoreboard *navigator.Navigator
	stats      *navigator.Navigator
	clock      clockwork.Clock
	observer   events.Observer
}

// New creates a service. Missing clock and observer default to the real clock
// and a no-op observer.
func New(cfg Config) *Service {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Observer == nil {
		cfg.Observer = events.Nop
	}

	return &Service{
		scoreboard: navigator.New(cfg.Scoreboard, base+scoreboardPath, dom.Scoreboard),
		stats:      navigator.New(cfg.Stats, base+statsCentralPath, dom.StatsCentral),
		clock:      cfg.Clock,
		observer:   cfg.Observer,
	}
}

// call tracks one query from start to finish
type call struct {
	s     *Service
	ev    events.QueryEvent
	start time.Time
}

func (s *Service) begin(ctx context.Context, tool string, nav *navigator.Navigator, q navigator.Query) *call {
	start := s.clock.Now()
	c := &call{
		s:     s,
		start: start,
		ev: events.QueryEvent{
			ID:        uuid.NewString(),
			Tool:      tool,
			Transport: nav.Transport().Name(),
			Season:    q.Season,
			Division:  q.Schedule,
			Team:      q.Team,
			Phase:     events.PhaseStarted,
			At:        start,
		},
	}
	s.observer.Observe(ctx, c.ev)
	return c
}

// end reports the outcome and passes err through
func (c *call) end(ctx context.Context, rows int, err error) error {
	ev := c.ev
	ev.At = c.s.clock.Now()
	ev.DurationMS = ev.At.Sub(c.start).Milliseconds()
	ev.Rows = rows

	logger := log.With().
		Str("component", "service").
		Str("query_id", ev.ID).
		Str("tool", ev.Tool).
		Int64("duration_ms", ev.DurationMS).
		Logger()

	if err != nil {
		ev.Phase = events.PhaseFailed
		ev.Error = err.Error()
		logger.Warn().Err(err).Msg("query failed")
	} else {
		ev.Phase = events.PhaseCompleted
		logger.Info().Int("rows", rows).Msg("query completed")
	}

	c.s.observer.Observe(ctx, ev)
	return err
}
