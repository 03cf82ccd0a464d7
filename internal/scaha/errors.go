package scaha

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned when navigation succeeded but no rows were extracted.
var ErrEmpty = errors.New("no rows extracted")

// TransportError reports a failed or non-successful request to the upstream site
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: upstream returned HTTP %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a query that matched no available option or record
type NotFoundError struct {
	Kind  string // season, schedule, team, player, roster, ...
	Query string
	Scope string
}

func (e *NotFoundError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("%s %q not found %s", e.Kind, e.Query, e.Scope)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.Query)
}

// HistoricalDataUnavailableError is returned when a non-default season is requested.
// The upstream postback path serves the previously cached season for such requests.
type HistoricalDataUnavailableError struct {
	Season  string
	Default string
}

func (e *HistoricalDataUnavailableError) Error() string {
	return fmt.Sprintf(
		"historical data for season %q is unavailable: the site only serves the current season (%s) reliably through this path; "+
			"use full-page browser navigation or consult scaha.net directly",
		e.Season, e.Default,
	)
}

// IsNotFound reports whether err carries a NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsHistoricalDataUnavailable reports whether err carries a HistoricalDataUnavailableError
func IsHistoricalDataUnavailable(err error) bool {
	var target *HistoricalDataUnavailableError
	return errors.As(err, &target)
}

// IsTransport reports whether err carries a TransportError
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}
