package user

import (
	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/id"
)

// Team is an alert audience: a named set of users. A job that references a
// team alerts the whole membership instead of the owner alone.
type Team struct {
	crontrack.Entity

	ID        id.TeamID `json:"id"`
	Name      string    `json:"name"`
	CreatorID id.UserID `json:"creator_id"`
}

// Membership joins a user to a team. AlertsOn lets a member mute alerts
// from this team without leaving it.
type Membership struct {
	UserID   id.UserID `json:"user_id"`
	TeamID   id.TeamID `json:"team_id"`
	AlertsOn bool      `json:"alerts_on"`
}

// Member is a team member resolved for alerting: the user record plus the
// per-team mute flag.
type Member struct {
	User     *User
	AlertsOn bool
}
