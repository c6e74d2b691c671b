// Package user defines alert recipients, teams, and team membership.
//
// A [User] carries the alerting preferences the monitor honours on every
// fan-out: delivery method (email, SMS, or disabled), the per-job cooldown
// buffer, the personal-alerts flag for teamless jobs, and the IANA timezone
// their cron schedules are evaluated in.
package user
