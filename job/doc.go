// Package job defines the heartbeat job record and its persistence contract.
//
// A [Job] tracks one external process: its cron schedule, the next expected
// occurrence, the tolerance window, and the timestamps of the most recent
// check-in and the most recent caught miss. The derived states are:
//
//   - failing: NextRun has passed and no check-in has arrived since, but the
//     monitor has not yet stamped the miss.
//   - failed: LastFailed is set — an open, already-alerted incident that only
//     an explicit operator re-arm ([Store.ClearFailure]) closes.
//
// [Group] is a pure organizational label; the alert audience is selected by
// the job's team reference, not its group.
package job
