package event

import (
	"time"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/id"
)

// Kind classifies a job event.
type Kind string

const (
	// KindFailure marks a caught missed check-in window.
	KindFailure Kind = "failure"
	// KindWarning marks a degraded condition that did not open an incident.
	KindWarning Kind = "warning"
)

// Event is one entry in a job's incident history.
type Event struct {
	crontrack.Entity

	ID    id.EventID `json:"id"`
	JobID id.JobID   `json:"job_id"`
	Kind  Kind       `json:"kind"`

	// At is when the condition was detected, not when the row was written.
	At time.Time `json:"at"`

	// Seen is the operator acknowledgment flag.
	Seen bool `json:"seen"`
}

// New builds an Event for jobID with a fresh ID.
func New(jobID id.JobID, kind Kind, at time.Time) *Event {
	return &Event{
		Entity: crontrack.NewEntity(),
		ID:     id.NewEventID(),
		JobID:  jobID,
		Kind:   kind,
		At:     at,
	}
}
