package monitor

import (
	"context"

	"github.com/Arch199/crontrack/job"
	"github.com/Arch199/crontrack/user"
)

// resolveAudience returns the users to alert for a missed job.
//
// A job with a team alerts the team's membership — every member whose
// per-team flag is on and whose alert method is not disabled. A teamless
// job alerts its owner alone, and only when the owner has personal alerts
// enabled. Disabled recipients are filtered out here, before any ledger
// entry could be created for them.
func (m *Monitor) resolveAudience(ctx context.Context, j *job.Job, owner *user.User) ([]*user.User, error) {
	if j.TeamID.IsNil() {
		if owner.AlertsDisabled() || !owner.PersonalAlerts {
			return nil, nil
		}
		return []*user.User{owner}, nil
	}

	members, err := m.users.ListTeamMembers(ctx, j.TeamID)
	if err != nil {
		return nil, err
	}

	recipients := make([]*user.User, 0, len(members))
	for _, member := range members {
		if !member.AlertsOn || member.User.AlertsDisabled() {
			continue
		}
		recipients = append(recipients, member.User)
	}
	return recipients, nil
}
