// Package event records a job's incident history. The monitor appends a
// failure event each time it catches a missed check-in window; operators
// review the history and acknowledge entries with the seen flag.
package event
