// Package events describes the lifecycle of tool queries for the optional
// observers (websocket feed, Redis stream, query log). Events never carry
// scraped records, only what was asked and how it went.
package events

import (
	"context"
	"time"
)

// Phase is the lifecycle step an event reports
type Phase string

const (
	PhaseStarted   Phase = "started"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
)

// QueryEvent reports one step of a query
type QueryEvent struct {
	ID         string    `json:"id"`
	Tool       string    `json:"tool"`
	Transport  string    `json:"transport,omitempty"`
	Season     string    `json:"season,omitempty"`
	Division   string    `json:"division,omitempty"`
	Team       string    `json:"team,omitempty"`
	Phase      Phase     `json:"phase"`
	Rows       int       `json:"rows,omitempty"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// Observer receives query events. Implementations must not block the query
// for long and must be safe for concurrent use.
type Observer interface {
	Observe(ctx context.Context, ev QueryEvent)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ctx context.Context, ev QueryEvent)

func (f ObserverFunc) Observe(ctx context.Context, ev QueryEvent) { f(ctx, ev) }

// Multi fans events out to every observer in order
type Multi []Observer

func (m Multi) Observe(ctx context.Context, ev QueryEvent) {
	for _, o := range m {
		if o != nil {
			o.Observe(ctx, ev)
		}
	}
}

// Nop discards events
var Nop Observer = ObserverFunc(func(context.Context, QueryEvent) {})
