package monitor

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Arch199/crontrack/event"
	"github.com/Arch199/crontrack/job"
	"github.com/Arch199/crontrack/notify"
	"github.com/Arch199/crontrack/user"
)

// RunOnce executes a single evaluation pass over every job: lateness
// checks, alert fan-out, and schedule advancement. The loop calls it every
// tick; hosts running the monitor as a one-shot (e.g. from an external
// scheduler) may call it directly instead of Start.
//
// Errors never escape a pass: a store failure on one job aborts only that
// job's iteration, a delivery failure is isolated to its recipient.
func (m *Monitor) RunOnce(ctx context.Context) {
	offset := 0
	for {
		page, err := m.jobs.ListJobs(ctx, job.ListOpts{Offset: offset, Limit: m.pageSize})
		if err != nil {
			m.logger.Error("list jobs failed, skipping tick",
				slog.String("error", err.Error()),
			)
			return
		}

		for _, j := range page {
			m.evaluate(ctx, j)
		}

		if len(page) < m.pageSize {
			return
		}
		offset += len(page)
	}
}

// evaluate processes one job for the current tick. Nothing happens until
// the job's run-by deadline has been crossed; after that a single pass
// detects a miss (if any), alerts the audience, and slides the schedule
// window forward from the owner's localized now.
func (m *Monitor) evaluate(ctx context.Context, j *job.Job) {
	now := m.clock.Now()

	// Pending: the deadline is still ahead, leave the job untouched.
	if j.RunBy().After(now) {
		return
	}

	owner, err := m.users.GetUser(ctx, j.OwnerID)
	if err != nil {
		m.logger.Error("job owner lookup failed, skipping job this tick",
			slog.String("job_id", j.ID.String()),
			slog.String("owner_id", j.OwnerID.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	if !j.NotifiedInWindow() {
		m.alertAudience(ctx, j, owner, now)
		failedAt := now
		j.LastFailed = &failedAt
		m.recordFailure(ctx, j, now)
	}

	// Advance the window whether or not the job missed. A late job's
	// window slides forward each tick until an operator re-arms it; repeat
	// alerts are bounded by the recipient cooldown, not by run count.
	localNow := now.In(owner.Location())
	next, nextErr := m.eval.Next(j.Schedule, localNow)
	if nextErr != nil {
		m.logger.Error("job schedule does not parse, leaving job unscheduled",
			slog.String("job_id", j.ID.String()),
			slog.String("schedule", j.Schedule),
			slog.String("error", nextErr.Error()),
		)
	} else {
		j.NextRun = next
	}

	if updateErr := m.jobs.UpdateJob(ctx, j); updateErr != nil {
		m.logger.Error("job update failed",
			slog.String("job_id", j.ID.String()),
			slog.String("error", updateErr.Error()),
		)
	}
}

// recordFailure appends a failure event to the job's history when a store
// is configured for it. History is advisory: a write failure is logged and
// never blocks the pass.
func (m *Monitor) recordFailure(ctx context.Context, j *job.Job, now time.Time) {
	if m.events == nil {
		return
	}
	if err := m.events.RecordEvent(ctx, event.New(j.ID, event.KindFailure, now)); err != nil {
		m.logger.Error("job event write failed",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// alertAudience resolves the job's recipients and fans alerts out to them,
// bounded by the configured concurrency. Per-recipient failures are logged
// inside alertUser and never abort the fan-out.
func (m *Monitor) alertAudience(ctx context.Context, j *job.Job, owner *user.User, now time.Time) {
	recipients, err := m.resolveAudience(ctx, j, owner)
	if err != nil {
		m.logger.Error("audience resolution failed, skipping alerts this tick",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	if len(recipients) == 0 {
		m.logger.Debug("missed window with no enabled recipients",
			slog.String("job_id", j.ID.String()),
		)
		return
	}

	m.logger.Warn("job missed its check-in window",
		slog.String("job_id", j.ID.String()),
		slog.String("job_name", j.Name),
		slog.Time("next_run", j.NextRun),
		slog.Time("run_by", j.RunBy()),
		slog.Int("recipients", len(recipients)),
	)

	var g errgroup.Group
	g.SetLimit(m.fanout)
	for _, recipient := range recipients {
		g.Go(func() error {
			m.alertUser(ctx, j, recipient, now)
			return nil
		})
	}
	_ = g.Wait() // tasks never return errors; they isolate their own
}

// alertUser applies the cooldown policy and, when allowed, stamps the
// ledger and delivers. The ledger is stamped before the send goes out:
// the ledger is the source of truth, delivery is best effort.
func (m *Monitor) alertUser(ctx context.Context, j *job.Job, u *user.User, now time.Time) {
	ok, err := m.ledger.ShouldSend(ctx, j.ID, u.ID, u.Buffer(), now)
	if err != nil {
		m.logger.Error("alert ledger lookup failed",
			slog.String("job_id", j.ID.String()),
			slog.String("user_id", u.ID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	if !ok {
		m.logger.Info("alert suppressed by cooldown",
			slog.String("job_id", j.ID.String()),
			slog.String("user_id", u.ID.String()),
			slog.Duration("buffer", u.Buffer()),
		)
		return
	}

	if markErr := m.ledger.MarkSent(ctx, j.ID, u.ID, now); markErr != nil {
		m.logger.Error("alert ledger stamp failed",
			slog.String("job_id", j.ID.String()),
			slog.String("user_id", u.ID.String()),
			slog.String("error", markErr.Error()),
		)
		return
	}

	msg := m.render(j, u, m.site)
	m.deliver(ctx, u, msg)
}

// deliver sends with bounded retries. All failures collapse into log
// entries; nothing propagates past the monitor boundary.
func (m *Monitor) deliver(ctx context.Context, u *user.User, msg notify.Message) {
	var lastErr error
	for attempt := 0; attempt <= m.retryAttempts; attempt++ {
		if attempt > 0 {
			delay := m.retryDelay.Delay(attempt)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}

		lastErr = m.channel.Send(ctx, u, msg)
		if lastErr == nil {
			return
		}

		m.logger.Warn("alert delivery attempt failed",
			slog.String("user_id", u.ID.String()),
			slog.Int("attempt", attempt+1),
			slog.String("error", lastErr.Error()),
		)
	}

	m.logger.Error("alert delivery exhausted retries",
		slog.String("user_id", u.ID.String()),
		slog.Int("attempts", m.retryAttempts+1),
		slog.String("error", lastErr.Error()),
	)
}
