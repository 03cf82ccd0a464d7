package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fortuna/scaha-mcp/internal/events"
)

const upsertQueryRun = `
	INSERT INTO query_runs (id, tool, transport, season, division, team, status, row_count, duration_ms, error, started_at, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO UPDATE SET
		transport   = EXCLUDED.transport,
		status      = EXCLUDED.status,
		row_count   = EXCLUDED.row_count,
		duration_ms = EXCLUDED.duration_ms,
		error       = EXCLUDED.error,
		finished_at = EXCLUDED.finished_at
`

const writeTimeout = 2 * time.Second

// QueryRun is one row of the query log
type QueryRun struct {
	ID         string
	Tool       string
	Transport  string
	Season     string
	Division   string
	Team       string
	Status     string
	Rows       int
	DurationMS int64
	Error      string
	StartedAt  time.Time
	FinishedAt sql.NullTime
}

// QueryRunFromEvent maps a lifecycle event onto its log row. The start time
// of a finished query is recovered from its duration.
func QueryRunFromEvent(ev events.QueryEvent) QueryRun {
	run := QueryRun{
		ID:         ev.ID,
		Tool:       ev.Tool,
		Transport:  ev.Transport,
		Season:     ev.Season,
		Division:   ev.Division,
		Team:       ev.Team,
		Status:     string(ev.Phase),
		Rows:       ev.Rows,
		DurationMS: ev.DurationMS,
		Error:      ev.Error,
		StartedAt:  ev.At,
	}
	if ev.Phase != events.PhaseStarted {
		run.StartedAt = ev.At.Add(-time.Duration(ev.DurationMS) * time.Millisecond)
		run.FinishedAt = sql.NullTime{Time: ev.At, Valid: true}
	}
	return run
}

// QueryLog records query lifecycle events in the query_runs table
type QueryLog struct {
	db *Database
}

// NewQueryLog creates a query log on an open database
func NewQueryLog(db *Database) *QueryLog {
	return &QueryLog{db: db}
}

// Record upserts the row for ev
func (q *QueryLog) Record(ctx context.Context, ev events.QueryEvent) error {
	run := QueryRunFromEvent(ev)
	_, err := q.db.DB().ExecContext(ctx, upsertQueryRun,
		run.ID, run.Tool, run.Transport, run.Season, run.Division, run.Team,
		run.Status, run.Rows, run.DurationMS, run.Error, run.StartedAt, run.FinishedAt,
	)
	return err
}

// Recent returns the latest runs, newest first
func (q *QueryLog) Recent(ctx context.Context, limit int) ([]QueryRun, error) {
	rows, err := q.db.DB().QueryContext(ctx, `
		SELECT id, tool, transport, season, division, team, status, row_count, duration_ms, error, started_at, finished_at
		FROM query_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []QueryRun
	for rows.Next() {
		var r QueryRun
		if err := rows.Scan(&r.ID, &r.Tool, &r.Transport, &r.Season, &r.Division, &r.Team,
			&r.Status, &r.Rows, &r.DurationMS, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Observe records ev, logging instead of failing the query when the database is unavailable
func (q *QueryLog) Observe(ctx context.Context, ev events.QueryEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := q.Record(ctx, ev); err != nil {
		log.Warn().
			Str("component", "store").
			Str("query_id", ev.ID).
			Err(err).
			Msg("failed to record query run")
	}
}
