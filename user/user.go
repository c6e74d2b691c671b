package user

import (
	"time"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/id"
)

// AlertMethod selects how a user receives alerts.
type AlertMethod string

const (
	// MethodEmail delivers alerts by email.
	MethodEmail AlertMethod = "email"
	// MethodSMS delivers alerts by text message. Requires an E.164 phone
	// number.
	MethodSMS AlertMethod = "sms"
	// MethodDisabled suppresses all alerts to this user.
	MethodDisabled AlertMethod = "disabled"
)

// User is an alert recipient and job owner.
type User struct {
	crontrack.Entity

	ID    id.UserID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone,omitempty"`

	// Timezone is the IANA zone name cron fields are evaluated in for this
	// user's jobs. Empty means UTC.
	Timezone string `json:"timezone,omitempty"`

	AlertMethod AlertMethod `json:"alert_method"`

	// AlertBuffer is the cooldown in minutes between repeat alerts for the
	// same job. The first alert for a (job, user) pair is never buffered.
	AlertBuffer int `json:"alert_buffer"`

	// PersonalAlerts controls alerting for jobs without a team. When false,
	// the user's own teamless jobs never alert.
	PersonalAlerts bool `json:"personal_alerts"`
}

// Location resolves the user's timezone, defaulting to UTC when unset or
// unknown.
func (u *User) Location() *time.Location {
	if u.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Buffer returns the alert cooldown as a duration.
func (u *User) Buffer() time.Duration {
	return time.Duration(u.AlertBuffer) * time.Minute
}

// AlertsDisabled reports whether the user should never receive sends.
func (u *User) AlertsDisabled() bool {
	return u.AlertMethod == MethodDisabled || u.AlertMethod == ""
}
