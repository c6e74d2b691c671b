package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/alert"
	"github.com/Arch199/crontrack/id"
)

// GetAlert retrieves the ledger entry for a (job, user) pair.
func (s *Store) GetAlert(ctx context.Context, jobID id.JobID, userID id.UserID) (*alert.Alert, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, job_id, user_id, last_alert, created_at, updated_at
		FROM crontrack_job_alerts
		WHERE job_id = $1 AND user_id = $2`,
		jobID.String(), userID.String(),
	)

	a, err := scanAlert(row)
	if err != nil {
		if isNoRows(err) {
			return nil, crontrack.ErrAlertNotFound
		}
		return nil, fmt.Errorf("crontrack/postgres: get alert: %w", err)
	}
	return a, nil
}

// RecordAlert upserts the entry for a (job, user) pair, stamping
// LastAlert = at. ON CONFLICT on the (job_id, user_id) primary key makes
// the upsert atomic under concurrent callers.
func (s *Store) RecordAlert(ctx context.Context, jobID id.JobID, userID id.UserID, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO crontrack_job_alerts (id, job_id, user_id, last_alert, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (job_id, user_id)
		DO UPDATE SET last_alert = EXCLUDED.last_alert, updated_at = NOW()`,
		id.NewAlertID().String(), jobID.String(), userID.String(), at,
	)
	if err != nil {
		return fmt.Errorf("crontrack/postgres: record alert: %w", err)
	}
	return nil
}

// ListAlertsForJob returns every ledger entry for a job.
func (s *Store) ListAlertsForJob(ctx context.Context, jobID id.JobID) ([]*alert.Alert, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, job_id, user_id, last_alert, created_at, updated_at
		FROM crontrack_job_alerts
		WHERE job_id = $1
		ORDER BY user_id ASC`,
		jobID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("crontrack/postgres: list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*alert.Alert
	for rows.Next() {
		a, scanErr := scanAlert(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("crontrack/postgres: scan alert row: %w", scanErr)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("crontrack/postgres: iterate alert rows: %w", err)
	}
	return alerts, nil
}

// DeleteAlertsForJob removes a job's ledger entries.
func (s *Store) DeleteAlertsForJob(ctx context.Context, jobID id.JobID) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM crontrack_job_alerts WHERE job_id = $1`,
		jobID.String(),
	)
	if err != nil {
		return fmt.Errorf("crontrack/postgres: delete alerts: %w", err)
	}
	return nil
}

// scanAlert scans a single ledger row.
func scanAlert(row pgx.Row) (*alert.Alert, error) {
	var (
		a       alert.Alert
		idStr   string
		jobStr  string
		userStr string
	)
	err := row.Scan(&idStr, &jobStr, &userStr, &a.LastAlert, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.ID, err = id.ParseAlertID(idStr)
	if err != nil {
		return nil, fmt.Errorf("crontrack/postgres: parse alert id %q: %w", idStr, err)
	}
	a.JobID, err = id.ParseJobID(jobStr)
	if err != nil {
		return nil, fmt.Errorf("crontrack/postgres: parse job id %q: %w", jobStr, err)
	}
	a.UserID, err = id.ParseUserID(userStr)
	if err != nil {
		return nil, fmt.Errorf("crontrack/postgres: parse user id %q: %w", userStr, err)
	}
	return &a, nil
}
