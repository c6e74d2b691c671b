package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/id"
	"github.com/Arch199/crontrack/job"
)

// CreateJob persists a new job.
func (s *Store) CreateJob(ctx context.Context, j *job.Job) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO crontrack_jobs (
			id, name, description, schedule, time_window,
			next_run, last_notified, last_failed,
			owner_id, team_id, group_id,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11,
			$12, $13
		)`,
		j.ID.String(), j.Name, j.Description, j.Schedule, j.TimeWindow,
		j.NextRun, j.LastNotified, j.LastFailed,
		j.OwnerID.String(), nullableID(j.TeamID), nullableID(j.GroupID),
		j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return crontrack.ErrJobAlreadyExists
		}
		return fmt.Errorf("crontrack/postgres: create job: %w", err)
	}
	return nil
}

const jobColumns = `
	id, name, description, schedule, time_window,
	next_run, last_notified, last_failed,
	owner_id, team_id, group_id,
	created_at, updated_at`

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM crontrack_jobs WHERE id = $1`,
		jobID.String(),
	)

	j, err := scanJob(row)
	if err != nil {
		if isNoRows(err) {
			return nil, crontrack.ErrJobNotFound
		}
		return nil, fmt.Errorf("crontrack/postgres: get job: %w", err)
	}
	return j, nil
}

// ListJobs returns jobs ordered by creation time.
func (s *Store) ListJobs(ctx context.Context, opts job.ListOpts) ([]*job.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM crontrack_jobs ORDER BY created_at ASC, id ASC`
	args := []interface{}{}
	argIdx := 1

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("crontrack/postgres: list jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// UpdateJob persists changes to an existing job.
func (s *Store) UpdateJob(ctx context.Context, j *job.Job) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE crontrack_jobs SET
			name = $2, description = $3, schedule = $4, time_window = $5,
			next_run = $6, last_notified = $7, last_failed = $8,
			owner_id = $9, team_id = $10, group_id = $11,
			updated_at = NOW()
		WHERE id = $1`,
		j.ID.String(), j.Name, j.Description, j.Schedule, j.TimeWindow,
		j.NextRun, j.LastNotified, j.LastFailed,
		j.OwnerID.String(), nullableID(j.TeamID), nullableID(j.GroupID),
	)
	if err != nil {
		return fmt.Errorf("crontrack/postgres: update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return crontrack.ErrJobNotFound
	}
	return nil
}

// DeleteJob removes a job. Ledger entries cascade via the foreign key.
func (s *Store) DeleteJob(ctx context.Context, jobID id.JobID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM crontrack_jobs WHERE id = $1`, jobID.String())
	if err != nil {
		return fmt.Errorf("crontrack/postgres: delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return crontrack.ErrJobNotFound
	}
	return nil
}

// RecordCheckIn stamps LastNotified for a job.
func (s *Store) RecordCheckIn(ctx context.Context, jobID id.JobID, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE crontrack_jobs SET last_notified = $2, updated_at = NOW() WHERE id = $1`,
		jobID.String(), at,
	)
	if err != nil {
		return fmt.Errorf("crontrack/postgres: record check-in: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return crontrack.ErrJobNotFound
	}
	return nil
}

// ClearFailure re-arms a job: clears LastFailed and LastNotified.
func (s *Store) ClearFailure(ctx context.Context, jobID id.JobID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE crontrack_jobs SET last_failed = NULL, last_notified = NULL, updated_at = NOW() WHERE id = $1`,
		jobID.String(),
	)
	if err != nil {
		return fmt.Errorf("crontrack/postgres: clear failure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return crontrack.ErrJobNotFound
	}
	return nil
}

// CreateGroup persists a new job group.
func (s *Store) CreateGroup(ctx context.Context, g *job.Group) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO crontrack_groups (
			id, name, description, owner_id, team_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		g.ID.String(), g.Name, g.Description,
		g.OwnerID.String(), nullableID(g.TeamID),
		g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("crontrack/postgres: create group: %w", err)
	}
	return nil
}

// GetGroup retrieves a job group by ID.
func (s *Store) GetGroup(ctx context.Context, groupID id.GroupID) (*job.Group, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, description, owner_id, team_id, created_at, updated_at
		FROM crontrack_groups
		WHERE id = $1`,
		groupID.String(),
	)

	g, err := scanGroup(row)
	if err != nil {
		if isNoRows(err) {
			return nil, crontrack.ErrGroupNotFound
		}
		return nil, fmt.Errorf("crontrack/postgres: get group: %w", err)
	}
	return g, nil
}

// ListGroups returns all job groups ordered by creation time.
func (s *Store) ListGroups(ctx context.Context) ([]*job.Group, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, owner_id, team_id, created_at, updated_at
		FROM crontrack_groups
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("crontrack/postgres: list groups: %w", err)
	}
	defer rows.Close()

	var groups []*job.Group
	for rows.Next() {
		g, scanErr := scanGroup(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("crontrack/postgres: scan group row: %w", scanErr)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("crontrack/postgres: iterate group rows: %w", err)
	}
	return groups, nil
}

// DeleteGroup removes a job group. Jobs detach via ON DELETE SET NULL.
func (s *Store) DeleteGroup(ctx context.Context, groupID id.GroupID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM crontrack_groups WHERE id = $1`, groupID.String())
	if err != nil {
		return fmt.Errorf("crontrack/postgres: delete group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return crontrack.ErrGroupNotFound
	}
	return nil
}

// scanJob scans a single job row.
func scanJob(row pgx.Row) (*job.Job, error) {
	var (
		j        job.Job
		idStr    string
		ownerStr string
		teamStr  *string
		groupStr *string
	)
	err := row.Scan(
		&idStr, &j.Name, &j.Description, &j.Schedule, &j.TimeWindow,
		&j.NextRun, &j.LastNotified, &j.LastFailed,
		&ownerStr, &teamStr, &groupStr,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	j.ID, err = id.ParseJobID(idStr)
	if err != nil {
		return nil, fmt.Errorf("crontrack/postgres: parse job id %q: %w", idStr, err)
	}
	j.OwnerID, err = id.ParseUserID(ownerStr)
	if err != nil {
		return nil, fmt.Errorf("crontrack/postgres: parse owner id %q: %w", ownerStr, err)
	}
	if teamStr != nil {
		if parsed, parseErr := id.ParseTeamID(*teamStr); parseErr == nil {
			j.TeamID = parsed
		}
	}
	if groupStr != nil {
		if parsed, parseErr := id.ParseGroupID(*groupStr); parseErr == nil {
			j.GroupID = parsed
		}
	}

	return &j, nil
}

// collectJobs collects all jobs from query rows.
func collectJobs(rows pgx.Rows) ([]*job.Job, error) {
	var jobs []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("crontrack/postgres: scan job row: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("crontrack/postgres: iterate job rows: %w", err)
	}
	return jobs, nil
}

// scanGroup scans a single group row.
func scanGroup(row pgx.Row) (*job.Group, error) {
	var (
		g        job.Group
		idStr    string
		ownerStr string
		teamStr  *string
	)
	err := row.Scan(
		&idStr, &g.Name, &g.Description, &ownerStr, &teamStr,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	g.ID, err = id.ParseGroupID(idStr)
	if err != nil {
		return nil, fmt.Errorf("crontrack/postgres: parse group id %q: %w", idStr, err)
	}
	g.OwnerID, err = id.ParseUserID(ownerStr)
	if err != nil {
		return nil, fmt.Errorf("crontrack/postgres: parse owner id %q: %w", ownerStr, err)
	}
	if teamStr != nil {
		if parsed, parseErr := id.ParseTeamID(*teamStr); parseErr == nil {
			g.TeamID = parsed
		}
	}

	return &g, nil
}

// nullableID maps the Nil ID to SQL NULL so optional references stay clean.
func nullableID(v id.ID) *string {
	if v.IsNil() {
		return nil
	}
	s := v.String()
	return &s
}
