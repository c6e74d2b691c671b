package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/id"
	"github.com/Arch199/crontrack/user"
)

// ── JSON models ──

type userEntity struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Timezone       string    `json:"timezone,omitempty"`
	AlertMethod    string    `json:"alert_method"`
	AlertBuffer    int       `json:"alert_buffer"`
	PersonalAlerts bool      `json:"personal_alerts"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toUserEntity(u *user.User) *userEntity {
	return &userEntity{
		ID:             u.ID.String(),
		Name:           u.Name,
		Email:          u.Email,
		Phone:          u.Phone,
		Timezone:       u.Timezone,
		AlertMethod:    string(u.AlertMethod),
		AlertBuffer:    u.AlertBuffer,
		PersonalAlerts: u.PersonalAlerts,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func fromUserEntity(e *userEntity) (*user.User, error) {
	uID, err := id.ParseUserID(e.ID)
	if err != nil {
		return nil, fmt.Errorf("crontrack/redis: parse user id: %w", err)
	}

	return &user.User{
		Entity: crontrack.Entity{
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
		ID:             uID,
		Name:           e.Name,
		Email:          e.Email,
		Phone:          e.Phone,
		Timezone:       e.Timezone,
		AlertMethod:    user.AlertMethod(e.AlertMethod),
		AlertBuffer:    e.AlertBuffer,
		PersonalAlerts: e.PersonalAlerts,
	}, nil
}

type teamEntity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatorID string    `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ── User Store ──

// CreateUser persists a new user.
func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	uID := u.ID.String()
	key := userKey(uID)

	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("crontrack/redis: create user check exists: %w", err)
	}
	if exists > 0 {
		return crontrack.ErrUserAlreadyExists
	}

	// Check for duplicate email.
	existing, err := s.rdb.HGet(ctx, userEmailsKey, u.Email).Result()
	if err != nil && !isRedisNil(err) {
		return fmt.Errorf("crontrack/redis: create user check email: %w", err)
	}
	if existing != "" {
		return crontrack.ErrUserAlreadyExists
	}

	if setErr := s.setEntity(ctx, key, toUserEntity(u)); setErr != nil {
		return fmt.Errorf("crontrack/redis: create user set: %w", setErr)
	}

	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, userIDsKey, uID)
	pipe.HSet(ctx, userEmailsKey, u.Email, uID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("crontrack/redis: create user indexes: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	var e userEntity
	if err := s.getEntity(ctx, userKey(userID.String()), &e); err != nil {
		if isRedisNil(err) {
			return nil, crontrack.ErrUserNotFound
		}
		return nil, fmt.Errorf("crontrack/redis: get user: %w", err)
	}
	return fromUserEntity(&e)
}

// UpdateUser persists changes to an existing user.
func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	key := userKey(u.ID.String())

	var old userEntity
	if err := s.getEntity(ctx, key, &old); err != nil {
		if isRedisNil(err) {
			return crontrack.ErrUserNotFound
		}
		return fmt.Errorf("crontrack/redis: update user get: %w", err)
	}

	e := toUserEntity(u)
	e.UpdatedAt = time.Now().UTC()
	if setErr := s.setEntity(ctx, key, e); setErr != nil {
		return fmt.Errorf("crontrack/redis: update user set: %w", setErr)
	}

	if old.Email != u.Email {
		pipe := s.rdb.TxPipeline()
		pipe.HDel(ctx, userEmailsKey, old.Email)
		pipe.HSet(ctx, userEmailsKey, u.Email, u.ID.String())
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("crontrack/redis: update user email index: %w", err)
		}
	}
	return nil
}

// DeleteUser removes a user.
func (s *Store) DeleteUser(ctx context.Context, userID id.UserID) error {
	uID := userID.String()
	key := userKey(uID)

	var e userEntity
	if err := s.getEntity(ctx, key, &e); err != nil {
		if isRedisNil(err) {
			return crontrack.ErrUserNotFound
		}
		return fmt.Errorf("crontrack/redis: delete user get: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, userIDsKey, uID)
	pipe.HDel(ctx, userEmailsKey, e.Email)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("crontrack/redis: delete user: %w", err)
	}
	return nil
}

// ── Team Store ──

// CreateTeam persists a new team.
func (s *Store) CreateTeam(ctx context.Context, t *user.Team) error {
	tID := t.ID.String()
	key := teamKey(tID)

	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("crontrack/redis: create team check exists: %w", err)
	}
	if exists > 0 {
		return crontrack.ErrTeamAlreadyExists
	}

	e := &teamEntity{
		ID:        tID,
		Name:      t.Name,
		CreatorID: t.CreatorID.String(),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if setErr := s.setEntity(ctx, key, e); setErr != nil {
		return fmt.Errorf("crontrack/redis: create team set: %w", setErr)
	}
	return nil
}

// GetTeam retrieves a team by ID.
func (s *Store) GetTeam(ctx context.Context, teamID id.TeamID) (*user.Team, error) {
	var e teamEntity
	if err := s.getEntity(ctx, teamKey(teamID.String()), &e); err != nil {
		if isRedisNil(err) {
			return nil, crontrack.ErrTeamNotFound
		}
		return nil, fmt.Errorf("crontrack/redis: get team: %w", err)
	}

	tID, err := id.ParseTeamID(e.ID)
	if err != nil {
		return nil, fmt.Errorf("crontrack/redis: parse team id: %w", err)
	}
	creatorID, err := id.ParseUserID(e.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("crontrack/redis: parse creator id: %w", err)
	}

	return &user.Team{
		Entity: crontrack.Entity{
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
		ID:        tID,
		Name:      e.Name,
		CreatorID: creatorID,
	}, nil
}

// DeleteTeam removes a team and its memberships.
func (s *Store) DeleteTeam(ctx context.Context, teamID id.TeamID) error {
	tID := teamID.String()
	key := teamKey(tID)

	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("crontrack/redis: delete team exists: %w", err)
	}
	if exists == 0 {
		return crontrack.ErrTeamNotFound
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, membersKey(tID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("crontrack/redis: delete team: %w", err)
	}
	return nil
}

// AddMember creates or updates a membership. The members Hash maps user ID
// to the per-team alert flag.
func (s *Store) AddMember(ctx context.Context, m *user.Membership) error {
	tID := m.TeamID.String()

	exists, err := s.rdb.Exists(ctx, teamKey(tID)).Result()
	if err != nil {
		return fmt.Errorf("crontrack/redis: add member check team: %w", err)
	}
	if exists == 0 {
		return crontrack.ErrTeamNotFound
	}
	exists, err = s.rdb.Exists(ctx, userKey(m.UserID.String())).Result()
	if err != nil {
		return fmt.Errorf("crontrack/redis: add member check user: %w", err)
	}
	if exists == 0 {
		return crontrack.ErrUserNotFound
	}

	flag := "0"
	if m.AlertsOn {
		flag = "1"
	}
	if err := s.rdb.HSet(ctx, membersKey(tID), m.UserID.String(), flag).Err(); err != nil {
		return fmt.Errorf("crontrack/redis: add member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership.
func (s *Store) RemoveMember(ctx context.Context, teamID id.TeamID, userID id.UserID) error {
	if err := s.rdb.HDel(ctx, membersKey(teamID.String()), userID.String()).Err(); err != nil {
		return fmt.Errorf("crontrack/redis: remove member: %w", err)
	}
	return nil
}

// ListTeamMembers returns every member of the team with their per-team
// alert flag.
func (s *Store) ListTeamMembers(ctx context.Context, teamID id.TeamID) ([]*user.Member, error) {
	tID := teamID.String()

	exists, err := s.rdb.Exists(ctx, teamKey(tID)).Result()
	if err != nil {
		return nil, fmt.Errorf("crontrack/redis: list members check team: %w", err)
	}
	if exists == 0 {
		return nil, crontrack.ErrTeamNotFound
	}

	flags, err := s.rdb.HGetAll(ctx, membersKey(tID)).Result()
	if err != nil {
		return nil, fmt.Errorf("crontrack/redis: list members: %w", err)
	}

	members := make([]*user.Member, 0, len(flags))
	for uID, flag := range flags {
		var e userEntity
		if getErr := s.getEntity(ctx, userKey(uID), &e); getErr != nil {
			continue
		}
		u, convErr := fromUserEntity(&e)
		if convErr != nil {
			continue
		}
		members = append(members, &user.Member{User: u, AlertsOn: flag == "1"})
	}

	sort.Slice(members, func(i, k int) bool {
		return members[i].User.ID.String() < members[k].User.ID.String()
	})
	return members, nil
}
