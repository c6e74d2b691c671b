package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/event"
	"github.com/Arch199/crontrack/id"
)

// RecordEvent appends an event to its job's history.
func (s *Store) RecordEvent(ctx context.Context, e *event.Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO crontrack_job_events (id, job_id, kind, at, seen, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID.String(), e.JobID.String(), string(e.Kind), e.At, e.Seen, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("crontrack/postgres: record event: %w", err)
	}
	return nil
}

// ListEventsForJob returns a job's events, newest first.
func (s *Store) ListEventsForJob(ctx context.Context, jobID id.JobID) ([]*event.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, job_id, kind, at, seen, created_at, updated_at
		FROM crontrack_job_events
		WHERE job_id = $1
		ORDER BY at DESC, id DESC`,
		jobID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("crontrack/postgres: list events: %w", err)
	}
	defer rows.Close()

	var events []*event.Event
	for rows.Next() {
		e, scanErr := scanEvent(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("crontrack/postgres: scan event row: %w", scanErr)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("crontrack/postgres: iterate event rows: %w", err)
	}
	return events, nil
}

// MarkSeen acknowledges an event.
func (s *Store) MarkSeen(ctx context.Context, eventID id.EventID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE crontrack_job_events
		SET seen = TRUE, updated_at = NOW()
		WHERE id = $1`,
		eventID.String(),
	)
	if err != nil {
		return fmt.Errorf("crontrack/postgres: mark event seen: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return crontrack.ErrEventNotFound
	}
	return nil
}

// DeleteEventsForJob removes a job's history.
func (s *Store) DeleteEventsForJob(ctx context.Context, jobID id.JobID) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM crontrack_job_events WHERE job_id = $1`,
		jobID.String(),
	)
	if err != nil {
		return fmt.Errorf("crontrack/postgres: delete events: %w", err)
	}
	return nil
}

// scanEvent scans a single event row.
func scanEvent(row pgx.Row) (*event.Event, error) {
	var (
		e       event.Event
		idStr   string
		jobStr  string
		kindStr string
	)
	err := row.Scan(&idStr, &jobStr, &kindStr, &e.At, &e.Seen, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	e.ID, err = id.ParseEventID(idStr)
	if err != nil {
		return nil, fmt.Errorf("crontrack/postgres: parse event id %q: %w", idStr, err)
	}
	e.JobID, err = id.ParseJobID(jobStr)
	if err != nil {
		return nil, fmt.Errorf("crontrack/postgres: parse job id %q: %w", jobStr, err)
	}
	e.Kind = event.Kind(kindStr)
	return &e, nil
}
