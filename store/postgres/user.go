package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/id"
	"github.com/Arch199/crontrack/user"
)

// CreateUser persists a new user.
func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO crontrack_users (
			id, name, email, phone, timezone,
			alert_method, alert_buffer, personal_alerts,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID.String(), u.Name, u.Email, u.Phone, u.Timezone,
		string(u.AlertMethod), u.AlertBuffer, u.PersonalAlerts,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return crontrack.ErrUserAlreadyExists
		}
		return fmt.Errorf("crontrack/postgres: create user: %w", err)
	}
	return nil
}

const userColumns = `
	id, name, email, phone, timezone,
	alert_method, alert_buffer, personal_alerts,
	created_at, updated_at`

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM crontrack_users WHERE id = $1`,
		userID.String(),
	)

	u, err := scanUser(row)
	if err != nil {
		if isNoRows(err) {
			return nil, crontrack.ErrUserNotFound
		}
		return nil, fmt.Errorf("crontrack/postgres: get user: %w", err)
	}
	return u, nil
}

// UpdateUser persists changes to an existing user.
func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE crontrack_users SET
			name = $2, email = $3, phone = $4, timezone = $5,
			alert_method = $6, alert_buffer = $7, personal_alerts = $8,
			updated_at = NOW()
		WHERE id = $1`,
		u.ID.String(), u.Name, u.Email, u.Phone, u.Timezone,
		string(u.AlertMethod), u.AlertBuffer, u.PersonalAlerts,
	)
	if err != nil {
		return fmt.Errorf("crontrack/postgres: update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return crontrack.ErrUserNotFound
	}
	return nil
}

// DeleteUser removes a user. Memberships and ledger entries cascade.
func (s *Store) DeleteUser(ctx context.Context, userID id.UserID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM crontrack_users WHERE id = $1`, userID.String())
	if err != nil {
		return fmt.Errorf("crontrack/postgres: delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return crontrack.ErrUserNotFound
	}
	return nil
}

// CreateTeam persists a new team.
func (s *Store) CreateTeam(ctx context.Context, t *user.Team) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO crontrack_teams (id, name, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID.String(), t.Name, t.CreatorID.String(), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return crontrack.ErrTeamAlreadyExists
		}
		return fmt.Errorf("crontrack/postgres: create team: %w", err)
	}
	return nil
}

// GetTeam retrieves a team by ID.
func (s *Store) GetTeam(ctx context.Context, teamID id.TeamID) (*user.Team, error) {
	var (
		t          user.Team
		idStr      string
		creatorStr string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, creator_id, created_at, updated_at
		FROM crontrack_teams
		WHERE id = $1`,
		teamID.String(),
	).Scan(&idStr, &t.Name, &creatorStr, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, crontrack.ErrTeamNotFound
		}
		return nil, fmt.Errorf("crontrack/postgres: get team: %w", err)
	}

	t.ID, err = id.ParseTeamID(idStr)
	if err != nil {
		return nil, fmt.Errorf("crontrack/postgres: parse team id %q: %w", idStr, err)
	}
	t.CreatorID, err = id.ParseUserID(creatorStr)
	if err != nil {
		return nil, fmt.Errorf("crontrack/postgres: parse creator id %q: %w", creatorStr, err)
	}
	return &t, nil
}

// DeleteTeam removes a team. Memberships cascade; jobs referencing the
// team fall back to owner-only alerting via ON DELETE SET NULL.
func (s *Store) DeleteTeam(ctx context.Context, teamID id.TeamID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM crontrack_teams WHERE id = $1`, teamID.String())
	if err != nil {
		return fmt.Errorf("crontrack/postgres: delete team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return crontrack.ErrTeamNotFound
	}
	return nil
}

// AddMember creates or updates a membership.
func (s *Store) AddMember(ctx context.Context, m *user.Membership) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO crontrack_team_members (team_id, user_id, alerts_on)
		VALUES ($1, $2, $3)
		ON CONFLICT (team_id, user_id)
		DO UPDATE SET alerts_on = EXCLUDED.alerts_on`,
		m.TeamID.String(), m.UserID.String(), m.AlertsOn,
	)
	if err != nil {
		return fmt.Errorf("crontrack/postgres: add member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership.
func (s *Store) RemoveMember(ctx context.Context, teamID id.TeamID, userID id.UserID) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM crontrack_team_members WHERE team_id = $1 AND user_id = $2`,
		teamID.String(), userID.String(),
	)
	if err != nil {
		return fmt.Errorf("crontrack/postgres: remove member: %w", err)
	}
	return nil
}

// ListTeamMembers returns every member of the team with their per-team
// alert flag.
func (s *Store) ListTeamMembers(ctx context.Context, teamID id.TeamID) ([]*user.Member, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM crontrack_teams WHERE id = $1)`,
		teamID.String(),
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("crontrack/postgres: check team: %w", err)
	}
	if !exists {
		return nil, crontrack.ErrTeamNotFound
	}

	rows, err := s.pool.Query(ctx, `
		SELECT
			u.id, u.name, u.email, u.phone, u.timezone,
			u.alert_method, u.alert_buffer, u.personal_alerts,
			u.created_at, u.updated_at,
			m.alerts_on
		FROM crontrack_team_members m
		JOIN crontrack_users u ON u.id = m.user_id
		WHERE m.team_id = $1
		ORDER BY u.id ASC`,
		teamID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("crontrack/postgres: list team members: %w", err)
	}
	defer rows.Close()

	var members []*user.Member
	for rows.Next() {
		var (
			u         user.User
			idStr     string
			methodStr string
			alertsOn  bool
		)
		scanErr := rows.Scan(
			&idStr, &u.Name, &u.Email, &u.Phone, &u.Timezone,
			&methodStr, &u.AlertBuffer, &u.PersonalAlerts,
			&u.CreatedAt, &u.UpdatedAt,
			&alertsOn,
		)
		if scanErr != nil {
			return nil, fmt.Errorf("crontrack/postgres: scan member row: %w", scanErr)
		}
		u.AlertMethod = user.AlertMethod(methodStr)
		u.ID, scanErr = id.ParseUserID(idStr)
		if scanErr != nil {
			return nil, fmt.Errorf("crontrack/postgres: parse user id %q: %w", idStr, scanErr)
		}
		members = append(members, &user.Member{User: &u, AlertsOn: alertsOn})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("crontrack/postgres: iterate member rows: %w", err)
	}
	return members, nil
}

// scanUser scans a single user row.
func scanUser(row pgx.Row) (*user.User, error) {
	var (
		u         user.User
		idStr     string
		methodStr string
	)
	err := row.Scan(
		&idStr, &u.Name, &u.Email, &u.Phone, &u.Timezone,
		&methodStr, &u.AlertBuffer, &u.PersonalAlerts,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.AlertMethod = user.AlertMethod(methodStr)
	u.ID, err = id.ParseUserID(idStr)
	if err != nil {
		return nil, fmt.Errorf("crontrack/postgres: parse user id %q: %w", idStr, err)
	}
	return &u, nil
}
