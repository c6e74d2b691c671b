package job

import (
	"time"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/id"
)

// Job is a tracked heartbeat job: an external process expected to check in
// on a cron schedule, within TimeWindow minutes of each occurrence.
type Job struct {
	crontrack.Entity

	ID          id.JobID `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`

	// Schedule is a 5-field cron expression evaluated in the owner's
	// timezone.
	Schedule string `json:"schedule"`

	// TimeWindow is the tolerance in minutes after NextRun during which a
	// check-in still counts as on time.
	TimeWindow int `json:"time_window"`

	// NextRun is the next scheduled occurrence. Never zero: it is seeded at
	// creation and advanced by the monitor after every evaluation of a
	// crossed run-by deadline.
	NextRun time.Time `json:"next_run"`

	// LastNotified is the most recent check-in, nil if the job has never
	// checked in.
	LastNotified *time.Time `json:"last_notified,omitempty"`

	// LastFailed marks an open incident: the last time the monitor caught a
	// missed window. Cleared only by an explicit operator re-arm.
	LastFailed *time.Time `json:"last_failed,omitempty"`

	OwnerID id.UserID `json:"owner_id"`

	// TeamID selects the alert audience: when set, alerts fan out to the
	// team's members instead of the owner alone.
	TeamID id.TeamID `json:"team_id,omitempty"`

	// GroupID is an organizational label with no alerting semantics.
	GroupID id.GroupID `json:"group_id,omitempty"`
}

// RunBy returns the run-by deadline: the latest instant at which a check-in
// for the current occurrence still counts.
func (j *Job) RunBy() time.Time {
	return j.NextRun.Add(time.Duration(j.TimeWindow) * time.Minute)
}

// Failed reports whether the job has an open, already-alerted incident.
func (j *Job) Failed() bool {
	return j.LastFailed != nil
}

// Failing reports whether the job is currently missing its window but has
// not yet been caught by the monitor: NextRun has passed and no check-in
// has arrived since. Requires the monitor to maintain LastFailed.
func (j *Job) Failing(now time.Time) bool {
	return !j.Failed() &&
		j.NextRun.Before(now) &&
		(j.LastNotified == nil || j.LastNotified.Before(j.NextRun))
}

// NotifiedInWindow reports whether a check-in arrived on time for the
// current occurrence: LastNotified ∈ [NextRun, RunBy].
func (j *Job) NotifiedInWindow() bool {
	if j.LastNotified == nil {
		return false
	}
	n := *j.LastNotified
	return !n.Before(j.NextRun) && !n.After(j.RunBy())
}
