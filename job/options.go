package job

import (
	"fmt"
	"time"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/id"
)

// Option configures a Job at construction time.
type Option func(*Job)

// WithDescription sets the human description.
func WithDescription(desc string) Option {
	return func(j *Job) { j.Description = desc }
}

// WithTimeWindow sets the tolerance window in minutes.
func WithTimeWindow(minutes int) Option {
	return func(j *Job) { j.TimeWindow = minutes }
}

// WithTeam sets the alert audience to a team.
func WithTeam(teamID id.TeamID) Option {
	return func(j *Job) { j.TeamID = teamID }
}

// WithGroup attaches the job to an organizational group.
func WithGroup(groupID id.GroupID) Option {
	return func(j *Job) { j.GroupID = groupID }
}

// New builds a Job owned by ownerID with a fresh ID. nextRun seeds the
// schedule window; callers compute it from the owner's localized now via
// schedule.Evaluator. Fails with crontrack.ErrInvalidConfiguration when the
// time window is negative or nextRun is zero.
func New(ownerID id.UserID, name, scheduleExpr string, nextRun time.Time, opts ...Option) (*Job, error) {
	j := &Job{
		Entity:   crontrack.NewEntity(),
		ID:       id.NewJobID(),
		Name:     name,
		Schedule: scheduleExpr,
		NextRun:  nextRun,
		OwnerID:  ownerID,
	}
	for _, opt := range opts {
		opt(j)
	}

	if j.TimeWindow < 0 {
		return nil, fmt.Errorf("%w: time window %d is negative", crontrack.ErrInvalidConfiguration, j.TimeWindow)
	}
	if j.NextRun.IsZero() {
		return nil, fmt.Errorf("%w: next run must be seeded", crontrack.ErrInvalidConfiguration)
	}
	return j, nil
}
