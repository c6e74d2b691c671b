package job

import (
	"context"
	"time"

	"github.com/Arch199/crontrack/id"
)

// ListOpts controls pagination for ListJobs. Zero values mean "no limit":
// the monitor fetches incrementally with Limit/Offset so a large job table
// never has to fit one response.
type ListOpts struct {
	Offset int
	Limit  int
}

// Store defines the persistence contract for jobs and job groups.
type Store interface {
	// CreateJob persists a new job. Returns crontrack.ErrJobAlreadyExists
	// if the ID is taken.
	CreateJob(ctx context.Context, j *Job) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID id.JobID) (*Job, error)

	// ListJobs returns jobs ordered by creation time.
	ListJobs(ctx context.Context, opts ListOpts) ([]*Job, error)

	// UpdateJob persists changes to an existing job.
	UpdateJob(ctx context.Context, j *Job) error

	// DeleteJob removes a job. Implementations must cascade the job's
	// alert ledger entries and event history.
	DeleteJob(ctx context.Context, jobID id.JobID) error

	// RecordCheckIn stamps LastNotified for a job. This is the write behind
	// the external check-in trigger.
	RecordCheckIn(ctx context.Context, jobID id.JobID, at time.Time) error

	// ClearFailure re-arms a job: clears LastFailed and LastNotified so the
	// next missed window opens a fresh incident.
	ClearFailure(ctx context.Context, jobID id.JobID) error

	// CreateGroup persists a new job group.
	CreateGroup(ctx context.Context, g *Group) error

	// GetGroup retrieves a job group by ID.
	GetGroup(ctx context.Context, groupID id.GroupID) (*Group, error)

	// ListGroups returns all job groups ordered by creation time.
	ListGroups(ctx context.Context) ([]*Group, error)

	// DeleteGroup removes a job group. Jobs keep running; they only lose
	// the label.
	DeleteGroup(ctx context.Context, groupID id.GroupID) error
}
