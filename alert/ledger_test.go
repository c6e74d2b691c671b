package alert_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/alert"
	"github.com/Arch199/crontrack/id"
	"github.com/Arch199/crontrack/store/memory"
)

func TestShouldSendFirstAlert(t *testing.T) {
	s := memory.New()
	ledger := alert.NewLedger(s)

	ok, err := ledger.ShouldSend(context.Background(), id.NewJobID(), id.NewUserID(), 24*time.Hour, time.Now())
	if err != nil {
		t.Fatalf("ShouldSend: %v", err)
	}
	if !ok {
		t.Error("first alert must never be suppressed")
	}
}

func TestShouldSendCooldown(t *testing.T) {
	s := memory.New()
	ledger := alert.NewLedger(s)
	ctx := context.Background()

	jobID := id.NewJobID()
	userID := id.NewUserID()
	buffer := 10 * time.Minute
	sentAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := ledger.MarkSent(ctx, jobID, userID, sentAt); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"immediately after", sentAt.Add(time.Second), false},
		{"inside buffer", sentAt.Add(4 * time.Minute), false},
		{"exactly at buffer", sentAt.Add(buffer), false},
		{"past buffer", sentAt.Add(buffer + time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ledger.ShouldSend(ctx, jobID, userID, buffer, tt.now)
			if err != nil {
				t.Fatalf("ShouldSend: %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldSend = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMarkSentUpsertsSingleEntry(t *testing.T) {
	s := memory.New()
	ledger := alert.NewLedger(s)
	ctx := context.Background()

	jobID := id.NewJobID()
	userID := id.NewUserID()

	first := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	if err := ledger.MarkSent(ctx, jobID, userID, first); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if err := ledger.MarkSent(ctx, jobID, userID, second); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}

	entries, err := s.ListAlertsForJob(ctx, jobID)
	if err != nil {
		t.Fatalf("ListAlertsForJob: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want exactly one per (job, user) pair", len(entries))
	}
	if entries[0].LastAlert == nil || !entries[0].LastAlert.Equal(second) {
		t.Errorf("LastAlert = %v, want %v", entries[0].LastAlert, second)
	}
}

func TestPairsAreIndependent(t *testing.T) {
	s := memory.New()
	ledger := alert.NewLedger(s)
	ctx := context.Background()

	jobID := id.NewJobID()
	alerted := id.NewUserID()
	fresh := id.NewUserID()
	now := time.Now().UTC()

	if err := ledger.MarkSent(ctx, jobID, alerted, now); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}

	ok, err := ledger.ShouldSend(ctx, jobID, fresh, 24*time.Hour, now)
	if err != nil {
		t.Fatalf("ShouldSend: %v", err)
	}
	if !ok {
		t.Error("a different user's cooldown must not suppress a first alert")
	}
}

func TestDeleteAlertsForJobCascade(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	jobID := id.NewJobID()
	userID := id.NewUserID()

	if err := s.RecordAlert(ctx, jobID, userID, time.Now().UTC()); err != nil {
		t.Fatalf("RecordAlert: %v", err)
	}
	if err := s.DeleteAlertsForJob(ctx, jobID); err != nil {
		t.Fatalf("DeleteAlertsForJob: %v", err)
	}

	_, err := s.GetAlert(ctx, jobID, userID)
	if !errors.Is(err, crontrack.ErrAlertNotFound) {
		t.Errorf("err = %v, want ErrAlertNotFound after cascade", err)
	}
}
