package alert

import (
	"context"
	"time"

	"github.com/Arch199/crontrack/id"
)

// Store defines the persistence contract for the alert ledger.
type Store interface {
	// GetAlert retrieves the ledger entry for a (job, user) pair. Returns
	// crontrack.ErrAlertNotFound when no alert has ever been sent for the
	// pair.
	GetAlert(ctx context.Context, jobID id.JobID, userID id.UserID) (*Alert, error)

	// RecordAlert creates or updates the single entry for a (job, user)
	// pair, stamping LastAlert = at. The upsert must be atomic with respect
	// to concurrent callers so a race never produces two entries or loses a
	// stamp.
	RecordAlert(ctx context.Context, jobID id.JobID, userID id.UserID, at time.Time) error

	// ListAlertsForJob returns every ledger entry for a job.
	ListAlertsForJob(ctx context.Context, jobID id.JobID) ([]*Alert, error)

	// DeleteAlertsForJob removes a job's ledger entries. Called when the job
	// itself is deleted; entries are never expired otherwise.
	DeleteAlertsForJob(ctx context.Context, jobID id.JobID) error
}
