// Package alert tracks when each user was last alerted about each job.
//
// The ledger holds at most one [Alert] entry per (job, user) pair, created
// lazily on the first alert and updated in place on every repeat. Entries
// are only removed when their job is deleted. [Ledger] layers the cooldown
// policy on top: first alert always sends, repeats only after the
// recipient's buffer has elapsed.
package alert
