package alert

import (
	"time"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/id"
)

// Alert is a ledger entry recording the last alert sent to one user about
// one job. At most one entry exists per (job, user) pair; it is created
// lazily on the first alert and updated on every repeat.
type Alert struct {
	crontrack.Entity

	ID     id.AlertID `json:"id"`
	JobID  id.JobID   `json:"job_id"`
	UserID id.UserID  `json:"user_id"`

	// LastAlert is when the most recent alert for this pair went out.
	LastAlert *time.Time `json:"last_alert,omitempty"`
}
