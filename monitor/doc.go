// Package monitor runs the background loop at the heart of crontrack.
//
// The [Monitor] wakes on a fixed interval and evaluates every tracked job:
// a job whose run-by deadline (NextRun + TimeWindow) has passed without an
// on-time check-in has missed its window. The monitor resolves the job's
// alert audience (team membership, or the owner alone), applies each
// recipient's cooldown against the alert ledger, fans deliveries out
// through a notification channel with bounded retries, and slides the
// job's schedule window forward from the owner's localized now.
//
// # Lifecycle
//
// The process is a state machine: Stopped → Running → Stopping → Stopped.
// [Monitor.Stop] is an idempotent, non-blocking signal observed only at
// tick boundaries, so an in-flight pass always completes. An optional time
// limit makes the loop self-stop once the next tick would exceed it.
//
// # Failure isolation
//
// Nothing in the loop terminates the process. A failed delivery is logged
// and isolated to its recipient; a store error is isolated to its job for
// the current tick; an unparseable schedule leaves that one job
// unscheduled. Only constructor-time misconfiguration is fatal.
package monitor
