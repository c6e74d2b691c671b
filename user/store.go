package user

import (
	"context"

	"github.com/Arch199/crontrack/id"
)

// Store defines the persistence contract for users, teams, and membership.
//
// ListTeamMembers is the explicit collaborator call the monitor resolves
// alert audiences with: it returns plain value collections, never lazy
// relationship traversal.
type Store interface {
	// CreateUser persists a new user. Returns crontrack.ErrUserAlreadyExists
	// if the ID or email is taken.
	CreateUser(ctx context.Context, u *User) error

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, userID id.UserID) (*User, error)

	// UpdateUser persists changes to an existing user.
	UpdateUser(ctx context.Context, u *User) error

	// DeleteUser removes a user.
	DeleteUser(ctx context.Context, userID id.UserID) error

	// CreateTeam persists a new team.
	CreateTeam(ctx context.Context, t *Team) error

	// GetTeam retrieves a team by ID.
	GetTeam(ctx context.Context, teamID id.TeamID) (*Team, error)

	// DeleteTeam removes a team and its memberships. Jobs referencing the
	// team fall back to owner-only alerting.
	DeleteTeam(ctx context.Context, teamID id.TeamID) error

	// AddMember creates or updates a membership.
	AddMember(ctx context.Context, m *Membership) error

	// RemoveMember deletes a membership.
	RemoveMember(ctx context.Context, teamID id.TeamID, userID id.UserID) error

	// ListTeamMembers returns every member of the team with their per-team
	// alert flag.
	ListTeamMembers(ctx context.Context, teamID id.TeamID) ([]*Member, error)
}
