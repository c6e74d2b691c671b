package crontrack

import "errors"

var (
	// Configuration errors. Fatal at construction time.
	ErrInvalidConfiguration = errors.New("crontrack: invalid configuration")

	// Schedule errors.
	ErrInvalidSchedule = errors.New("crontrack: invalid cron schedule")

	// Delivery errors. Per-recipient; logged and skipped, never fatal.
	ErrDeliveryFailed = errors.New("crontrack: delivery failed")

	// Not found errors.
	ErrJobNotFound   = errors.New("crontrack: job not found")
	ErrGroupNotFound = errors.New("crontrack: job group not found")
	ErrUserNotFound  = errors.New("crontrack: user not found")
	ErrTeamNotFound  = errors.New("crontrack: team not found")
	ErrAlertNotFound = errors.New("crontrack: alert not found")
	ErrEventNotFound = errors.New("crontrack: event not found")

	// Conflict errors.
	ErrJobAlreadyExists  = errors.New("crontrack: job already exists")
	ErrUserAlreadyExists = errors.New("crontrack: user already exists")
	ErrTeamAlreadyExists = errors.New("crontrack: team already exists")
)
