// Package memory provides a fully in-memory store backend. Safe for
// concurrent access; intended for unit testing and development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/alert"
	"github.com/Arch199/crontrack/event"
	"github.com/Arch199/crontrack/id"
	"github.com/Arch199/crontrack/job"
	"github.com/Arch199/crontrack/user"
)

// Ensure Store implements store.Store at compile time.
// We can't import store here (import cycle), so we verify each subsystem.
var (
	_ job.Store   = (*Store)(nil)
	_ user.Store  = (*Store)(nil)
	_ alert.Store = (*Store)(nil)
	_ event.Store = (*Store)(nil)
)

// Store is the in-memory implementation of store.Store.
type Store struct {
	mu sync.RWMutex

	jobs    map[string]*job.Job
	groups  map[string]*job.Group
	users   map[string]*user.User
	teams   map[string]*user.Team
	members map[string]*user.Membership // key: "teamID:userID"
	alerts  map[string]*alert.Alert     // key: "jobID:userID"
	events  map[string]*event.Event
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		jobs:    make(map[string]*job.Job),
		groups:  make(map[string]*job.Group),
		users:   make(map[string]*user.User),
		teams:   make(map[string]*user.Team),
		members: make(map[string]*user.Membership),
		alerts:  make(map[string]*alert.Alert),
		events:  make(map[string]*event.Event),
	}
}

func pairKey(a, b id.ID) string {
	return a.String() + ":" + b.String()
}

// ──────────────────────────────────────────────────
// Lifecycle — Migrate / Ping / Close
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Job Store
// ──────────────────────────────────────────────────

// CreateJob persists a new job.
func (m *Store) CreateJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := j.ID.String()
	if _, exists := m.jobs[key]; exists {
		return crontrack.ErrJobAlreadyExists
	}
	cp := *j
	m.jobs[key] = &cp
	return nil
}

// GetJob retrieves a job by ID.
func (m *Store) GetJob(_ context.Context, jobID id.JobID) (*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[jobID.String()]
	if !ok {
		return nil, crontrack.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

// ListJobs returns jobs ordered by creation time.
func (m *Store) ListJobs(_ context.Context, opts job.ListOpts) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*job.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		all = append(all, j)
	}
	sort.Slice(all, func(i, k int) bool {
		if all[i].CreatedAt.Equal(all[k].CreatedAt) {
			return all[i].ID.String() < all[k].ID.String()
		}
		return all[i].CreatedAt.Before(all[k].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(all) {
			return nil, nil
		}
		all = all[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}

	out := make([]*job.Job, len(all))
	for i, j := range all {
		cp := *j
		out[i] = &cp
	}
	return out, nil
}

// UpdateJob persists changes to an existing job.
func (m *Store) UpdateJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := j.ID.String()
	if _, ok := m.jobs[key]; !ok {
		return crontrack.ErrJobNotFound
	}
	cp := *j
	cp.UpdatedAt = time.Now().UTC()
	m.jobs[key] = &cp
	return nil
}

// DeleteJob removes a job and cascades its alert ledger entries and event
// history.
func (m *Store) DeleteJob(_ context.Context, jobID id.JobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := jobID.String()
	if _, ok := m.jobs[key]; !ok {
		return crontrack.ErrJobNotFound
	}
	delete(m.jobs, key)
	for k, a := range m.alerts {
		if a.JobID.String() == key {
			delete(m.alerts, k)
		}
	}
	for k, e := range m.events {
		if e.JobID.String() == key {
			delete(m.events, k)
		}
	}
	return nil
}

// RecordCheckIn stamps LastNotified for a job.
func (m *Store) RecordCheckIn(_ context.Context, jobID id.JobID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID.String()]
	if !ok {
		return crontrack.ErrJobNotFound
	}
	t := at
	j.LastNotified = &t
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// ClearFailure re-arms a job: clears LastFailed and LastNotified.
func (m *Store) ClearFailure(_ context.Context, jobID id.JobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID.String()]
	if !ok {
		return crontrack.ErrJobNotFound
	}
	j.LastFailed = nil
	j.LastNotified = nil
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// CreateGroup persists a new job group.
func (m *Store) CreateGroup(_ context.Context, g *job.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *g
	m.groups[g.ID.String()] = &cp
	return nil
}

// GetGroup retrieves a job group by ID.
func (m *Store) GetGroup(_ context.Context, groupID id.GroupID) (*job.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.groups[groupID.String()]
	if !ok {
		return nil, crontrack.ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

// ListGroups returns all job groups ordered by creation time.
func (m *Store) ListGroups(_ context.Context) ([]*job.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*job.Group, 0, len(m.groups))
	for _, g := range m.groups {
		cp := *g
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID.String() < out[k].ID.String()
		}
		return out[i].CreatedAt.Before(out[k].CreatedAt)
	})
	return out, nil
}

// DeleteGroup removes a job group and detaches its jobs.
func (m *Store) DeleteGroup(_ context.Context, groupID id.GroupID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := groupID.String()
	if _, ok := m.groups[key]; !ok {
		return crontrack.ErrGroupNotFound
	}
	delete(m.groups, key)
	for _, j := range m.jobs {
		if j.GroupID.String() == key {
			j.GroupID = id.Nil
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// User Store
// ──────────────────────────────────────────────────

// CreateUser persists a new user.
func (m *Store) CreateUser(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := u.ID.String()
	if _, exists := m.users[key]; exists {
		return crontrack.ErrUserAlreadyExists
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return crontrack.ErrUserAlreadyExists
		}
	}
	cp := *u
	m.users[key] = &cp
	return nil
}

// GetUser retrieves a user by ID.
func (m *Store) GetUser(_ context.Context, userID id.UserID) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID.String()]
	if !ok {
		return nil, crontrack.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// UpdateUser persists changes to an existing user.
func (m *Store) UpdateUser(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := u.ID.String()
	if _, ok := m.users[key]; !ok {
		return crontrack.ErrUserNotFound
	}
	cp := *u
	cp.UpdatedAt = time.Now().UTC()
	m.users[key] = &cp
	return nil
}

// DeleteUser removes a user and their memberships.
func (m *Store) DeleteUser(_ context.Context, userID id.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := userID.String()
	if _, ok := m.users[key]; !ok {
		return crontrack.ErrUserNotFound
	}
	delete(m.users, key)
	for k, mb := range m.members {
		if mb.UserID.String() == key {
			delete(m.members, k)
		}
	}
	return nil
}

// CreateTeam persists a new team.
func (m *Store) CreateTeam(_ context.Context, t *user.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := t.ID.String()
	if _, exists := m.teams[key]; exists {
		return crontrack.ErrTeamAlreadyExists
	}
	cp := *t
	m.teams[key] = &cp
	return nil
}

// GetTeam retrieves a team by ID.
func (m *Store) GetTeam(_ context.Context, teamID id.TeamID) (*user.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.teams[teamID.String()]
	if !ok {
		return nil, crontrack.ErrTeamNotFound
	}
	cp := *t
	return &cp, nil
}

// DeleteTeam removes a team and its memberships.
func (m *Store) DeleteTeam(_ context.Context, teamID id.TeamID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := teamID.String()
	if _, ok := m.teams[key]; !ok {
		return crontrack.ErrTeamNotFound
	}
	delete(m.teams, key)
	for k, mb := range m.members {
		if mb.TeamID.String() == key {
			delete(m.members, k)
		}
	}
	return nil
}

// AddMember creates or updates a membership.
func (m *Store) AddMember(_ context.Context, mb *user.Membership) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.teams[mb.TeamID.String()]; !ok {
		return crontrack.ErrTeamNotFound
	}
	if _, ok := m.users[mb.UserID.String()]; !ok {
		return crontrack.ErrUserNotFound
	}
	cp := *mb
	m.members[pairKey(mb.TeamID, mb.UserID)] = &cp
	return nil
}

// RemoveMember deletes a membership. Removing an absent membership is not
// an error.
func (m *Store) RemoveMember(_ context.Context, teamID id.TeamID, userID id.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.members, pairKey(teamID, userID))
	return nil
}

// ListTeamMembers returns every member of the team with their per-team
// alert flag.
func (m *Store) ListTeamMembers(_ context.Context, teamID id.TeamID) ([]*user.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.teams[teamID.String()]; !ok {
		return nil, crontrack.ErrTeamNotFound
	}

	key := teamID.String()
	out := make([]*user.Member, 0)
	for _, mb := range m.members {
		if mb.TeamID.String() != key {
			continue
		}
		u, ok := m.users[mb.UserID.String()]
		if !ok {
			continue
		}
		cp := *u
		out = append(out, &user.Member{User: &cp, AlertsOn: mb.AlertsOn})
	}
	sort.Slice(out, func(i, k int) bool {
		return out[i].User.ID.String() < out[k].User.ID.String()
	})
	return out, nil
}

// ──────────────────────────────────────────────────
// Alert Store
// ──────────────────────────────────────────────────

// GetAlert retrieves the ledger entry for a (job, user) pair.
func (m *Store) GetAlert(_ context.Context, jobID id.JobID, userID id.UserID) (*alert.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.alerts[pairKey(jobID, userID)]
	if !ok {
		return nil, crontrack.ErrAlertNotFound
	}
	cp := *a
	return &cp, nil
}

// RecordAlert upserts the entry for a (job, user) pair, stamping
// LastAlert = at. The single store lock makes the upsert atomic.
func (m *Store) RecordAlert(_ context.Context, jobID id.JobID, userID id.UserID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey(jobID, userID)
	t := at
	if a, ok := m.alerts[key]; ok {
		a.LastAlert = &t
		a.UpdatedAt = time.Now().UTC()
		return nil
	}
	m.alerts[key] = &alert.Alert{
		Entity:    crontrack.NewEntity(),
		ID:        id.NewAlertID(),
		JobID:     jobID,
		UserID:    userID,
		LastAlert: &t,
	}
	return nil
}

// ListAlertsForJob returns every ledger entry for a job.
func (m *Store) ListAlertsForJob(_ context.Context, jobID id.JobID) ([]*alert.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := jobID.String()
	out := make([]*alert.Alert, 0)
	for _, a := range m.alerts {
		if a.JobID.String() != key {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool {
		return out[i].UserID.String() < out[k].UserID.String()
	})
	return out, nil
}

// DeleteAlertsForJob removes a job's ledger entries.
func (m *Store) DeleteAlertsForJob(_ context.Context, jobID id.JobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := jobID.String()
	for k, a := range m.alerts {
		if a.JobID.String() == key {
			delete(m.alerts, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Event Store
// ──────────────────────────────────────────────────

// RecordEvent appends an event to its job's history.
func (m *Store) RecordEvent(_ context.Context, e *event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *e
	m.events[e.ID.String()] = &cp
	return nil
}

// ListEventsForJob returns a job's events, newest first.
func (m *Store) ListEventsForJob(_ context.Context, jobID id.JobID) ([]*event.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := jobID.String()
	out := make([]*event.Event, 0)
	for _, e := range m.events {
		if e.JobID.String() != key {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].At.Equal(out[k].At) {
			return out[i].ID.String() > out[k].ID.String()
		}
		return out[i].At.After(out[k].At)
	})
	return out, nil
}

// MarkSeen acknowledges an event.
func (m *Store) MarkSeen(_ context.Context, eventID id.EventID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[eventID.String()]
	if !ok {
		return crontrack.ErrEventNotFound
	}
	e.Seen = true
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteEventsForJob removes a job's history.
func (m *Store) DeleteEventsForJob(_ context.Context, jobID id.JobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := jobID.String()
	for k, e := range m.events {
		if e.JobID.String() == key {
			delete(m.events, k)
		}
	}
	return nil
}
