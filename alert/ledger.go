package alert

import (
	"context"
	"errors"
	"time"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/id"
)

// Ledger provides the cooldown decision over a Store.
type Ledger struct {
	store Store
}

// NewLedger creates a Ledger.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// ShouldSend reports whether an alert to user about job may go out at now,
// given the user's cooldown buffer. The first alert for a pair — no ledger
// entry, or an entry with no stamp — is never suppressed, regardless of the
// buffer. A repeat is allowed only once strictly more than buffer has
// elapsed since the previous stamp.
func (l *Ledger) ShouldSend(ctx context.Context, jobID id.JobID, userID id.UserID, buffer time.Duration, now time.Time) (bool, error) {
	entry, err := l.store.GetAlert(ctx, jobID, userID)
	if errors.Is(err, crontrack.ErrAlertNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if entry.LastAlert == nil {
		return true, nil
	}
	return now.Sub(*entry.LastAlert) > buffer, nil
}

// MarkSent stamps the ledger for a pair after a delivery attempt went out.
func (l *Ledger) MarkSent(ctx context.Context, jobID id.JobID, userID id.UserID, at time.Time) error {
	return l.store.RecordAlert(ctx, jobID, userID, at)
}

// Store returns the underlying ledger store for direct access to List and
// Delete operations.
func (l *Ledger) Store() Store {
	return l.store
}
