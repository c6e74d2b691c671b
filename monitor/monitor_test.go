package monitor_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/alert"
	"github.com/Arch199/crontrack/event"
	"github.com/Arch199/crontrack/id"
	"github.com/Arch199/crontrack/job"
	"github.com/Arch199/crontrack/monitor"
	"github.com/Arch199/crontrack/notify"
	"github.com/Arch199/crontrack/store/memory"
	"github.com/Arch199/crontrack/user"
)

// fakeClock is a mutable clock for deterministic evaluation.
type fakeClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = t
}

// spyChannel records every send.
type spyChannel struct {
	mu    sync.Mutex
	sends []string // recipient emails in send order
	err   error
}

func (s *spyChannel) Send(_ context.Context, recipient *user.User, _ notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, recipient.Email)
	return s.err
}

func (s *spyChannel) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sends)
}

func (s *spyChannel) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sends))
	copy(out, s.sends)
	return out
}

func testRenderer(j *job.Job, _ *user.User, _ notify.Site) notify.Message {
	return notify.Message{
		Subject: "job " + j.Name + " missed its window",
		Body:    "no check-in by " + j.RunBy().Format(time.RFC3339),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store   *memory.Store
	ledger  *alert.Ledger
	channel *spyChannel
	clock   *fakeClock
	mon     *monitor.Monitor
}

func newFixture(t *testing.T, at time.Time, opts ...monitor.Option) *fixture {
	t.Helper()

	s := memory.New()
	ledger := alert.NewLedger(s)
	ch := &spyChannel{}
	clock := &fakeClock{at: at}

	base := []monitor.Option{
		monitor.WithClock(clock),
		monitor.WithLogger(discardLogger()),
		monitor.WithRetry(nil, 0),
		monitor.WithFanout(1),
		monitor.WithEvents(s),
	}
	m, err := monitor.New(s, s, ledger, ch, testRenderer, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{store: s, ledger: ledger, channel: ch, clock: clock, mon: m}
}

func (f *fixture) addUser(t *testing.T, u *user.User) {
	t.Helper()
	if err := f.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
}

func (f *fixture) addJob(t *testing.T, j *job.Job) {
	t.Helper()
	if err := f.store.CreateJob(context.Background(), j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
}

func (f *fixture) getJob(t *testing.T, jobID id.JobID) *job.Job {
	t.Helper()
	j, err := f.store.GetJob(context.Background(), jobID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	return j
}

func owner(buffer int) *user.User {
	return &user.User{
		Entity:         crontrack.NewEntity(),
		ID:             id.NewUserID(),
		Name:           "owner",
		Email:          "owner@example.com",
		AlertMethod:    user.MethodEmail,
		AlertBuffer:    buffer,
		PersonalAlerts: true,
	}
}

func fiveMinuteJob(ownerID id.UserID, next time.Time) *job.Job {
	return &job.Job{
		Entity:     crontrack.NewEntity(),
		ID:         id.NewJobID(),
		Name:       "heartbeat",
		Schedule:   "*/5 * * * *",
		TimeWindow: 2,
		NextRun:    next,
		OwnerID:    ownerID,
	}
}

// ──────────────────────────────────────────────────
// Construction
// ──────────────────────────────────────────────────

func TestNewValidation(t *testing.T) {
	t.Parallel()

	s := memory.New()
	ledger := alert.NewLedger(s)
	ch := &spyChannel{}

	tests := []struct {
		name string
		opts []monitor.Option
	}{
		{"zero time limit", []monitor.Option{monitor.WithTimeLimit(0)}},
		{"negative time limit", []monitor.Option{monitor.WithTimeLimit(-time.Minute)}},
		{"zero tick interval", []monitor.Option{monitor.WithTickInterval(0)}},
		{"zero fanout", []monitor.Option{monitor.WithFanout(0)}},
		{"zero page size", []monitor.Option{monitor.WithPageSize(0)}},
		{"retries without strategy", []monitor.Option{monitor.WithRetry(nil, 2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := monitor.New(s, s, ledger, ch, testRenderer, tt.opts...)
			if !errors.Is(err, crontrack.ErrInvalidConfiguration) {
				t.Fatalf("got %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

// ──────────────────────────────────────────────────
// Miss detection and cooldown
// ──────────────────────────────────────────────────

// The walkthrough: a "*/5 * * * *" job with a 2 minute window, scheduled
// for 12:00, no check-in. At 12:03 the deadline has passed, so the owner
// is alerted, the ledger stamped, and the window slides to 12:05.
func TestMissedWindowAlertsOwner(t *testing.T) {
	t.Parallel()

	next := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	at := next.Add(3 * time.Minute)
	f := newFixture(t, at)

	u := owner(60)
	f.addUser(t, u)
	j := fiveMinuteJob(u.ID, next)
	f.addJob(t, j)

	f.mon.RunOnce(context.Background())

	if got := f.channel.count(); got != 1 {
		t.Fatalf("got %d sends, want 1", got)
	}

	entry, err := f.store.GetAlert(context.Background(), j.ID, u.ID)
	if err != nil {
		t.Fatalf("GetAlert: %v", err)
	}
	if entry.LastAlert == nil || !entry.LastAlert.Equal(at) {
		t.Fatalf("ledger stamp = %v, want %v", entry.LastAlert, at)
	}

	got := f.getJob(t, j.ID)
	if got.LastFailed == nil || !got.LastFailed.Equal(at) {
		t.Fatalf("LastFailed = %v, want %v", got.LastFailed, at)
	}
	want := next.Add(5 * time.Minute) // next */5 boundary after 12:03
	if !got.NextRun.Equal(want) {
		t.Fatalf("NextRun = %v, want %v", got.NextRun, want)
	}
}

// Four minutes after the first alert the job misses again, but the owner's
// 60 minute buffer suppresses the repeat and leaves the stamp untouched.
func TestRepeatSuppressedWithinBuffer(t *testing.T) {
	t.Parallel()

	next := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	firstTick := next.Add(3 * time.Minute)
	f := newFixture(t, firstTick)

	u := owner(60)
	f.addUser(t, u)
	j := fiveMinuteJob(u.ID, next)
	f.addJob(t, j)

	f.mon.RunOnce(context.Background())
	if got := f.channel.count(); got != 1 {
		t.Fatalf("after first tick: %d sends, want 1", got)
	}

	// 12:07 — the slid window (12:05, run-by 12:07) has been crossed again
	// with no check-in, but only four minutes have passed since the alert.
	secondTick := next.Add(7 * time.Minute)
	f.clock.Set(secondTick)
	f.mon.RunOnce(context.Background())

	if got := f.channel.count(); got != 1 {
		t.Fatalf("after second tick: %d sends, want 1 (suppressed)", got)
	}
	entry, err := f.store.GetAlert(context.Background(), j.ID, u.ID)
	if err != nil {
		t.Fatalf("GetAlert: %v", err)
	}
	if !entry.LastAlert.Equal(firstTick) {
		t.Fatalf("ledger stamp moved to %v, want %v", entry.LastAlert, firstTick)
	}

	got := f.getJob(t, j.ID)
	want := time.Date(2026, 3, 2, 12, 10, 0, 0, time.UTC)
	if !got.NextRun.Equal(want) {
		t.Fatalf("NextRun = %v, want %v", got.NextRun, want)
	}
}

// Once strictly more than the buffer has elapsed, a still-failing job
// re-alerts and the ledger stamp advances.
func TestRepeatAllowedAfterBuffer(t *testing.T) {
	t.Parallel()

	next := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	firstTick := next.Add(3 * time.Minute)
	f := newFixture(t, firstTick)

	u := owner(10)
	f.addUser(t, u)
	j := fiveMinuteJob(u.ID, next)
	f.addJob(t, j)

	f.mon.RunOnce(context.Background())

	// Exactly at the buffer boundary (12:13): still suppressed.
	atBuffer := firstTick.Add(10 * time.Minute)
	f.clock.Set(atBuffer)
	f.mon.RunOnce(context.Background())
	if got := f.channel.count(); got != 1 {
		t.Fatalf("at buffer boundary: %d sends, want 1", got)
	}

	// 12:18 — the window slid to 12:15 and its run-by (12:17) has been
	// crossed again, this time past the cooldown. The repeat goes out.
	past := atBuffer.Add(5 * time.Minute)
	f.clock.Set(past)
	f.mon.RunOnce(context.Background())
	if got := f.channel.count(); got != 2 {
		t.Fatalf("past buffer: %d sends, want 2", got)
	}
	entry, err := f.store.GetAlert(context.Background(), j.ID, u.ID)
	if err != nil {
		t.Fatalf("GetAlert: %v", err)
	}
	if !entry.LastAlert.Equal(past) {
		t.Fatalf("ledger stamp = %v, want %v", entry.LastAlert, past)
	}
}

// An on-time check-in inside [next_run, run_by] produces no alert, no
// ledger entry, and still slides the window forward.
func TestOnTimeCheckInSilent(t *testing.T) {
	t.Parallel()

	next := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, next.Add(3*time.Minute))

	u := owner(60)
	f.addUser(t, u)
	j := fiveMinuteJob(u.ID, next)
	checkedIn := next.Add(time.Minute)
	j.LastNotified = &checkedIn
	f.addJob(t, j)

	f.mon.RunOnce(context.Background())

	if got := f.channel.count(); got != 0 {
		t.Fatalf("got %d sends, want 0", got)
	}
	if _, err := f.store.GetAlert(context.Background(), j.ID, u.ID); !errors.Is(err, crontrack.ErrAlertNotFound) {
		t.Fatalf("expected no ledger entry, got %v", err)
	}

	got := f.getJob(t, j.ID)
	if got.LastFailed != nil {
		t.Fatalf("on-time job marked failed at %v", got.LastFailed)
	}
	if !got.NextRun.Equal(next.Add(5 * time.Minute)) {
		t.Fatalf("NextRun = %v, want %v", got.NextRun, next.Add(5*time.Minute))
	}
}

// A check-in before next_run does not count for the current occurrence.
func TestStaleCheckInStillMisses(t *testing.T) {
	t.Parallel()

	next := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, next.Add(3*time.Minute))

	u := owner(60)
	f.addUser(t, u)
	j := fiveMinuteJob(u.ID, next)
	stale := next.Add(-time.Minute)
	j.LastNotified = &stale
	f.addJob(t, j)

	f.mon.RunOnce(context.Background())

	if got := f.channel.count(); got != 1 {
		t.Fatalf("got %d sends, want 1", got)
	}
}

// Jobs whose deadline is still ahead are left completely untouched.
func TestPendingJobUntouched(t *testing.T) {
	t.Parallel()

	next := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, next.Add(time.Minute)) // inside the window

	u := owner(60)
	f.addUser(t, u)
	j := fiveMinuteJob(u.ID, next)
	f.addJob(t, j)

	f.mon.RunOnce(context.Background())

	if got := f.channel.count(); got != 0 {
		t.Fatalf("got %d sends, want 0", got)
	}
	got := f.getJob(t, j.ID)
	if !got.NextRun.Equal(next) {
		t.Fatalf("pending job's NextRun moved to %v", got.NextRun)
	}
}

// ──────────────────────────────────────────────────
// Audience resolution
// ──────────────────────────────────────────────────

func TestTeamAudienceFiltersDisabled(t *testing.T) {
	t.Parallel()

	next := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, next.Add(3*time.Minute))
	ctx := context.Background()

	creator := owner(60)
	f.addUser(t, creator)

	active := &user.User{
		Entity:      crontrack.NewEntity(),
		ID:          id.NewUserID(),
		Name:        "active",
		Email:       "active@example.com",
		AlertMethod: user.MethodEmail,
	}
	disabled := &user.User{
		Entity:      crontrack.NewEntity(),
		ID:          id.NewUserID(),
		Name:        "disabled",
		Email:       "disabled@example.com",
		AlertMethod: user.MethodDisabled,
	}
	muted := &user.User{
		Entity:      crontrack.NewEntity(),
		ID:          id.NewUserID(),
		Name:        "muted",
		Email:       "muted@example.com",
		AlertMethod: user.MethodEmail,
	}
	for _, u := range []*user.User{active, disabled, muted} {
		f.addUser(t, u)
	}

	team := &user.Team{
		Entity:    crontrack.NewEntity(),
		ID:        id.NewTeamID(),
		Name:      "ops",
		CreatorID: creator.ID,
	}
	if err := f.store.CreateTeam(ctx, team); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	memberships := []*user.Membership{
		{UserID: active.ID, TeamID: team.ID, AlertsOn: true},
		{UserID: disabled.ID, TeamID: team.ID, AlertsOn: true},
		{UserID: muted.ID, TeamID: team.ID, AlertsOn: false},
	}
	for _, mb := range memberships {
		if err := f.store.AddMember(ctx, mb); err != nil {
			t.Fatalf("AddMember: %v", err)
		}
	}

	j := fiveMinuteJob(creator.ID, next)
	j.TeamID = team.ID
	f.addJob(t, j)

	f.mon.RunOnce(ctx)

	got := f.channel.recipients()
	if len(got) != 1 || got[0] != "active@example.com" {
		t.Fatalf("recipients = %v, want [active@example.com]", got)
	}

	// No ledger row for recipients filtered before the ledger.
	for _, u := range []*user.User{disabled, muted} {
		if _, err := f.store.GetAlert(ctx, j.ID, u.ID); !errors.Is(err, crontrack.ErrAlertNotFound) {
			t.Fatalf("%s has a ledger entry: %v", u.Name, err)
		}
	}
}

func TestPersonalAlertsOff(t *testing.T) {
	t.Parallel()

	next := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, next.Add(3*time.Minute))

	u := owner(60)
	u.PersonalAlerts = false
	f.addUser(t, u)
	j := fiveMinuteJob(u.ID, next)
	f.addJob(t, j)

	f.mon.RunOnce(context.Background())

	if got := f.channel.count(); got != 0 {
		t.Fatalf("got %d sends, want 0", got)
	}
	// The miss is still recorded even though nobody was alerted.
	got := f.getJob(t, j.ID)
	if got.LastFailed == nil {
		t.Fatal("miss with no recipients should still mark the job failed")
	}
}

// ──────────────────────────────────────────────────
// Timezone evaluation
// ──────────────────────────────────────────────────

// The schedule advances in the owner's zone: "0 9 * * *" for a Sydney
// owner resolves to 9am Sydney time, not 9am UTC.
func TestScheduleAdvancesInOwnerZone(t *testing.T) {
	t.Parallel()

	syd, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		t.Skipf("zone data unavailable: %v", err)
	}

	next := time.Date(2026, 3, 2, 9, 0, 0, 0, syd)
	at := next.Add(3 * time.Minute)
	f := newFixture(t, at)

	u := owner(60)
	u.Timezone = "Australia/Sydney"
	f.addUser(t, u)

	j := fiveMinuteJob(u.ID, next)
	j.Schedule = "0 9 * * *"
	f.addJob(t, j)

	f.mon.RunOnce(context.Background())

	got := f.getJob(t, j.ID)
	want := time.Date(2026, 3, 3, 9, 0, 0, 0, syd)
	if !got.NextRun.Equal(want) {
		t.Fatalf("NextRun = %v, want %v", got.NextRun, want)
	}
}

// ──────────────────────────────────────────────────
// Failure isolation
// ──────────────────────────────────────────────────

// A failing channel never blocks the rest of the pass: the ledger is
// stamped before the send, so the miss is recorded either way.
func TestDeliveryFailureIsolated(t *testing.T) {
	t.Parallel()

	next := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	at := next.Add(3 * time.Minute)
	f := newFixture(t, at)
	f.channel.err = crontrack.ErrDeliveryFailed

	u := owner(60)
	f.addUser(t, u)
	j := fiveMinuteJob(u.ID, next)
	f.addJob(t, j)

	f.mon.RunOnce(context.Background())

	entry, err := f.store.GetAlert(context.Background(), j.ID, u.ID)
	if err != nil {
		t.Fatalf("GetAlert after failed delivery: %v", err)
	}
	if !entry.LastAlert.Equal(at) {
		t.Fatalf("ledger stamp = %v, want %v", entry.LastAlert, at)
	}

	got := f.getJob(t, j.ID)
	if !got.NextRun.Equal(next.Add(5 * time.Minute)) {
		t.Fatalf("window did not slide after delivery failure: %v", got.NextRun)
	}
}

// A missing owner skips only that job; other jobs still evaluate.
func TestMissingOwnerSkipsJobOnly(t *testing.T) {
	t.Parallel()

	next := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, next.Add(3*time.Minute))

	orphan := fiveMinuteJob(id.NewUserID(), next)
	f.addJob(t, orphan)

	u := owner(60)
	f.addUser(t, u)
	healthy := fiveMinuteJob(u.ID, next)
	f.addJob(t, healthy)

	f.mon.RunOnce(context.Background())

	if got := f.channel.count(); got != 1 {
		t.Fatalf("got %d sends, want 1", got)
	}
	got := f.getJob(t, orphan.ID)
	if !got.NextRun.Equal(next) {
		t.Fatalf("orphan job was advanced to %v", got.NextRun)
	}
}

// ──────────────────────────────────────────────────
// Incident history
// ──────────────────────────────────────────────────

// Each caught miss appends one failure event; an on-time check-in appends
// nothing.
func TestMissRecordsFailureEvent(t *testing.T) {
	t.Parallel()

	next := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	at := next.Add(3 * time.Minute)
	f := newFixture(t, at)

	u := owner(60)
	f.addUser(t, u)
	j := fiveMinuteJob(u.ID, next)
	f.addJob(t, j)

	onTime := fiveMinuteJob(u.ID, next)
	checkedIn := next.Add(time.Minute)
	onTime.LastNotified = &checkedIn
	f.addJob(t, onTime)

	f.mon.RunOnce(context.Background())

	events, err := f.store.ListEventsForJob(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("ListEventsForJob: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Kind != event.KindFailure {
		t.Errorf("kind = %s, want %s", events[0].Kind, event.KindFailure)
	}
	if !events[0].At.Equal(at) {
		t.Errorf("at = %v, want %v", events[0].At, at)
	}
	if events[0].Seen {
		t.Error("fresh event must start unseen")
	}

	quiet, err := f.store.ListEventsForJob(context.Background(), onTime.ID)
	if err != nil {
		t.Fatalf("ListEventsForJob: %v", err)
	}
	if len(quiet) != 0 {
		t.Fatalf("on-time job has %d events, want 0", len(quiet))
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

func TestStartStop(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now().UTC(), monitor.WithTickInterval(10*time.Millisecond))

	if f.mon.State() != monitor.StateStopped {
		t.Fatalf("initial state = %s", f.mon.State())
	}
	if err := f.mon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.mon.Start(context.Background()); !errors.Is(err, crontrack.ErrInvalidConfiguration) {
		t.Fatalf("double start: got %v, want ErrInvalidConfiguration", err)
	}

	// Stop is idempotent and non-blocking.
	f.mon.Stop()
	f.mon.Stop()
	f.mon.Wait()

	if f.mon.State() != monitor.StateStopped {
		t.Fatalf("state after Wait = %s", f.mon.State())
	}
}

// A monitor is one-shot: relaunching after a full stop cycle must fail
// instead of racing a closed stop channel.
func TestStartAfterStopRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now().UTC(), monitor.WithTickInterval(10*time.Millisecond))

	if err := f.mon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	f.mon.Stop()
	f.mon.Wait()

	if err := f.mon.Start(context.Background()); !errors.Is(err, crontrack.ErrInvalidConfiguration) {
		t.Fatalf("restart after stop: got %v, want ErrInvalidConfiguration", err)
	}
	if f.mon.State() != monitor.StateStopped {
		t.Fatalf("state after rejected restart = %s", f.mon.State())
	}
}

func TestContextCancelStops(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now().UTC(), monitor.WithTickInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	if err := f.mon.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	f.mon.Wait()

	if f.mon.State() != monitor.StateStopped {
		t.Fatalf("state after cancel = %s", f.mon.State())
	}
}

func TestTimeLimitSelfStops(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now().UTC(),
		monitor.WithTickInterval(50*time.Millisecond),
		monitor.WithTimeLimit(10*time.Millisecond),
	)

	if err := f.mon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	done := make(chan struct{})
	go func() {
		f.mon.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not self-stop within its time limit")
	}
}
