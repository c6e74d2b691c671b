package schedule

import "time"

// Clock abstracts the wall clock so the monitor loop can be driven
// deterministically in tests.
type Clock interface {
	// Now returns the current instant in UTC.
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns time.Now in UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// LoadLocation resolves an IANA timezone name, falling back to UTC when the
// name is empty or unknown. A missing zone never aborts evaluation; the
// caller only loses local-time semantics for that owner.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LocalNow returns the clock's current instant localized to the given IANA
// zone. This is the reference time the monitor seeds schedule evaluation
// with, so cron fields resolve in the job owner's local time.
func LocalNow(clock Clock, tzName string) time.Time {
	return clock.Now().In(LoadLocation(tzName))
}
