package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/id"
	"github.com/Arch199/crontrack/job"
)

// ── JSON models ──

type jobEntity struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	Schedule     string     `json:"schedule"`
	TimeWindow   int        `json:"time_window"`
	NextRun      time.Time  `json:"next_run"`
	LastNotified *time.Time `json:"last_notified,omitempty"`
	LastFailed   *time.Time `json:"last_failed,omitempty"`
	OwnerID      string     `json:"owner_id"`
	TeamID       string     `json:"team_id,omitempty"`
	GroupID      string     `json:"group_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toJobEntity(j *job.Job) *jobEntity {
	return &jobEntity{
		ID:           j.ID.String(),
		Name:         j.Name,
		Description:  j.Description,
		Schedule:     j.Schedule,
		TimeWindow:   j.TimeWindow,
		NextRun:      j.NextRun,
		LastNotified: j.LastNotified,
		LastFailed:   j.LastFailed,
		OwnerID:      j.OwnerID.String(),
		TeamID:       j.TeamID.String(),
		GroupID:      j.GroupID.String(),
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}

func fromJobEntity(e *jobEntity) (*job.Job, error) {
	jID, err := id.ParseJobID(e.ID)
	if err != nil {
		return nil, fmt.Errorf("crontrack/redis: parse job id: %w", err)
	}
	ownerID, err := id.ParseUserID(e.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("crontrack/redis: parse owner id: %w", err)
	}

	j := &job.Job{
		Entity: crontrack.Entity{
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
		ID:           jID,
		Name:         e.Name,
		Description:  e.Description,
		Schedule:     e.Schedule,
		TimeWindow:   e.TimeWindow,
		NextRun:      e.NextRun,
		LastNotified: e.LastNotified,
		LastFailed:   e.LastFailed,
		OwnerID:      ownerID,
	}
	if e.TeamID != "" {
		if parsed, parseErr := id.ParseTeamID(e.TeamID); parseErr == nil {
			j.TeamID = parsed
		}
	}
	if e.GroupID != "" {
		if parsed, parseErr := id.ParseGroupID(e.GroupID); parseErr == nil {
			j.GroupID = parsed
		}
	}
	return j, nil
}

type groupEntity struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"owner_id"`
	TeamID      string    `json:"team_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toGroupEntity(g *job.Group) *groupEntity {
	return &groupEntity{
		ID:          g.ID.String(),
		Name:        g.Name,
		Description: g.Description,
		OwnerID:     g.OwnerID.String(),
		TeamID:      g.TeamID.String(),
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func fromGroupEntity(e *groupEntity) (*job.Group, error) {
	gID, err := id.ParseGroupID(e.ID)
	if err != nil {
		return nil, fmt.Errorf("crontrack/redis: parse group id: %w", err)
	}
	ownerID, err := id.ParseUserID(e.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("crontrack/redis: parse owner id: %w", err)
	}

	g := &job.Group{
		Entity: crontrack.Entity{
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
		ID:          gID,
		Name:        e.Name,
		Description: e.Description,
		OwnerID:     ownerID,
	}
	if e.TeamID != "" {
		if parsed, parseErr := id.ParseTeamID(e.TeamID); parseErr == nil {
			g.TeamID = parsed
		}
	}
	return g, nil
}

// ── Job Store ──

// CreateJob persists a new job.
func (s *Store) CreateJob(ctx context.Context, j *job.Job) error {
	jID := j.ID.String()
	key := jobKey(jID)

	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("crontrack/redis: create job check exists: %w", err)
	}
	if exists > 0 {
		return crontrack.ErrJobAlreadyExists
	}

	if setErr := s.setEntity(ctx, key, toJobEntity(j)); setErr != nil {
		return fmt.Errorf("crontrack/redis: create job set: %w", setErr)
	}
	if err := s.rdb.SAdd(ctx, jobIDsKey, jID).Err(); err != nil {
		return fmt.Errorf("crontrack/redis: create job index: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	var e jobEntity
	if err := s.getEntity(ctx, jobKey(jobID.String()), &e); err != nil {
		if isRedisNil(err) {
			return nil, crontrack.ErrJobNotFound
		}
		return nil, fmt.Errorf("crontrack/redis: get job: %w", err)
	}
	return fromJobEntity(&e)
}

// ListJobs returns jobs ordered by creation time.
func (s *Store) ListJobs(ctx context.Context, opts job.ListOpts) ([]*job.Job, error) {
	ids, err := s.rdb.SMembers(ctx, jobIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("crontrack/redis: list jobs: %w", err)
	}

	jobs := make([]*job.Job, 0, len(ids))
	for _, jID := range ids {
		var e jobEntity
		if getErr := s.getEntity(ctx, jobKey(jID), &e); getErr != nil {
			continue
		}
		j, convErr := fromJobEntity(&e)
		if convErr != nil {
			continue
		}
		jobs = append(jobs, j)
	}

	sort.Slice(jobs, func(i, k int) bool {
		if jobs[i].CreatedAt.Equal(jobs[k].CreatedAt) {
			return jobs[i].ID.String() < jobs[k].ID.String()
		}
		return jobs[i].CreatedAt.Before(jobs[k].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(jobs) {
			return nil, nil
		}
		jobs = jobs[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(jobs) {
		jobs = jobs[:opts.Limit]
	}
	return jobs, nil
}

// UpdateJob persists changes to an existing job.
func (s *Store) UpdateJob(ctx context.Context, j *job.Job) error {
	key := jobKey(j.ID.String())

	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("crontrack/redis: update job exists: %w", err)
	}
	if exists == 0 {
		return crontrack.ErrJobNotFound
	}

	e := toJobEntity(j)
	e.UpdatedAt = time.Now().UTC()
	if setErr := s.setEntity(ctx, key, e); setErr != nil {
		return fmt.Errorf("crontrack/redis: update job set: %w", setErr)
	}
	return nil
}

// DeleteJob removes a job together with its ledger entries and event
// history.
func (s *Store) DeleteJob(ctx context.Context, jobID id.JobID) error {
	jID := jobID.String()
	key := jobKey(jID)

	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("crontrack/redis: delete job exists: %w", err)
	}
	if exists == 0 {
		return crontrack.ErrJobNotFound
	}

	if err := s.DeleteAlertsForJob(ctx, jobID); err != nil {
		return err
	}
	if err := s.DeleteEventsForJob(ctx, jobID); err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, jobIDsKey, jID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("crontrack/redis: delete job: %w", err)
	}
	return nil
}

// RecordCheckIn stamps LastNotified for a job.
func (s *Store) RecordCheckIn(ctx context.Context, jobID id.JobID, at time.Time) error {
	return s.mutateJob(ctx, jobID, func(e *jobEntity) {
		t := at
		e.LastNotified = &t
	})
}

// ClearFailure re-arms a job: clears LastFailed and LastNotified.
func (s *Store) ClearFailure(ctx context.Context, jobID id.JobID) error {
	return s.mutateJob(ctx, jobID, func(e *jobEntity) {
		e.LastFailed = nil
		e.LastNotified = nil
	})
}

// mutateJob applies a read-modify-write to a job entity.
func (s *Store) mutateJob(ctx context.Context, jobID id.JobID, fn func(*jobEntity)) error {
	key := jobKey(jobID.String())

	var e jobEntity
	if err := s.getEntity(ctx, key, &e); err != nil {
		if isRedisNil(err) {
			return crontrack.ErrJobNotFound
		}
		return fmt.Errorf("crontrack/redis: mutate job get: %w", err)
	}

	fn(&e)
	e.UpdatedAt = time.Now().UTC()
	if err := s.setEntity(ctx, key, &e); err != nil {
		return fmt.Errorf("crontrack/redis: mutate job set: %w", err)
	}
	return nil
}

// ── Group Store ──

// CreateGroup persists a new job group.
func (s *Store) CreateGroup(ctx context.Context, g *job.Group) error {
	gID := g.ID.String()
	if err := s.setEntity(ctx, groupKey(gID), toGroupEntity(g)); err != nil {
		return fmt.Errorf("crontrack/redis: create group set: %w", err)
	}
	if err := s.rdb.SAdd(ctx, groupIDsKey, gID).Err(); err != nil {
		return fmt.Errorf("crontrack/redis: create group index: %w", err)
	}
	return nil
}

// GetGroup retrieves a job group by ID.
func (s *Store) GetGroup(ctx context.Context, groupID id.GroupID) (*job.Group, error) {
	var e groupEntity
	if err := s.getEntity(ctx, groupKey(groupID.String()), &e); err != nil {
		if isRedisNil(err) {
			return nil, crontrack.ErrGroupNotFound
		}
		return nil, fmt.Errorf("crontrack/redis: get group: %w", err)
	}
	return fromGroupEntity(&e)
}

// ListGroups returns all job groups ordered by creation time.
func (s *Store) ListGroups(ctx context.Context) ([]*job.Group, error) {
	ids, err := s.rdb.SMembers(ctx, groupIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("crontrack/redis: list groups: %w", err)
	}

	groups := make([]*job.Group, 0, len(ids))
	for _, gID := range ids {
		var e groupEntity
		if getErr := s.getEntity(ctx, groupKey(gID), &e); getErr != nil {
			continue
		}
		g, convErr := fromGroupEntity(&e)
		if convErr != nil {
			continue
		}
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, k int) bool {
		if groups[i].CreatedAt.Equal(groups[k].CreatedAt) {
			return groups[i].ID.String() < groups[k].ID.String()
		}
		return groups[i].CreatedAt.Before(groups[k].CreatedAt)
	})
	return groups, nil
}

// DeleteGroup removes a job group and detaches its jobs.
func (s *Store) DeleteGroup(ctx context.Context, groupID id.GroupID) error {
	gID := groupID.String()
	key := groupKey(gID)

	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("crontrack/redis: delete group exists: %w", err)
	}
	if exists == 0 {
		return crontrack.ErrGroupNotFound
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, groupIDsKey, gID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("crontrack/redis: delete group: %w", err)
	}

	// Detach jobs referencing the group.
	jobIDs, err := s.rdb.SMembers(ctx, jobIDsKey).Result()
	if err != nil {
		return fmt.Errorf("crontrack/redis: delete group scan jobs: %w", err)
	}
	for _, jID := range jobIDs {
		var e jobEntity
		if getErr := s.getEntity(ctx, jobKey(jID), &e); getErr != nil {
			continue
		}
		if e.GroupID != gID {
			continue
		}
		e.GroupID = ""
		e.UpdatedAt = time.Now().UTC()
		if setErr := s.setEntity(ctx, jobKey(jID), &e); setErr != nil {
			return fmt.Errorf("crontrack/redis: delete group detach job: %w", setErr)
		}
	}
	return nil
}
