// Package schedule evaluates cron expressions and resolves localized time.
//
// The evaluator is pure: given an expression and a reference time it computes
// the next occurrence with no hidden clock reads. Reference times must
// already be localized to the job owner's timezone — cron day/hour fields
// are evaluated in the reference time's location, so the same expression
// means different absolute instants for owners in different zones.
package schedule

import (
	"fmt"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/Arch199/crontrack"
)

// cronParser accepts standard 5-field cron syntax only
// (minute, hour, day-of-month, month, day-of-week).
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow,
)

// Parse parses a 5-field cron expression and returns the schedule.
// The returned error wraps crontrack.ErrInvalidSchedule.
func Parse(expr string) (cronlib.Schedule, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", crontrack.ErrInvalidSchedule, expr, err)
	}
	return sched, nil
}

// Validate reports whether expr is a parseable 5-field cron expression.
func Validate(expr string) error {
	_, err := Parse(expr)
	return err
}

// Evaluator computes next occurrences of cron expressions, caching parsed
// expressions across calls. Safe for concurrent use.
type Evaluator struct {
	mu     sync.RWMutex
	parsed map[string]cronlib.Schedule
}

// NewEvaluator creates an Evaluator with an empty parse cache.
func NewEvaluator() *Evaluator {
	return &Evaluator{parsed: make(map[string]cronlib.Schedule)}
}

// Next returns the first occurrence of expr strictly after the reference
// time. The reference time's location drives day/hour field evaluation.
// Fails with a crontrack.ErrInvalidSchedule-wrapped error if expr does not
// parse.
func (e *Evaluator) Next(expr string, after time.Time) (time.Time, error) {
	sched, err := e.getOrParse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(after), nil
}

// getOrParse caches parsed cron expressions.
func (e *Evaluator) getOrParse(expr string) (cronlib.Schedule, error) {
	e.mu.RLock()
	sched, ok := e.parsed[expr]
	e.mu.RUnlock()
	if ok {
		return sched, nil
	}

	sched, err := Parse(expr)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.parsed[expr] = sched
	e.mu.Unlock()
	return sched, nil
}
