package job

import (
	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/id"
)

// Group is an organizational label for jobs. Groups carry no alerting
// semantics; they exist so operators can bucket related jobs for display.
type Group struct {
	crontrack.Entity

	ID          id.GroupID `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	OwnerID     id.UserID  `json:"owner_id"`
	TeamID      id.TeamID  `json:"team_id,omitempty"`
}
