package event

import (
	"context"

	"github.com/Arch199/crontrack/id"
)

// Store defines the persistence contract for the job event history.
type Store interface {
	// RecordEvent appends an event to its job's history.
	RecordEvent(ctx context.Context, e *Event) error

	// ListEventsForJob returns a job's events, newest first.
	ListEventsForJob(ctx context.Context, jobID id.JobID) ([]*Event, error)

	// MarkSeen acknowledges an event. Returns crontrack.ErrEventNotFound
	// for an unknown ID.
	MarkSeen(ctx context.Context, eventID id.EventID) error

	// DeleteEventsForJob removes a job's history. Called when the job
	// itself is deleted.
	DeleteEventsForJob(ctx context.Context, jobID id.JobID) error
}
