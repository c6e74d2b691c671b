package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/event"
	"github.com/Arch199/crontrack/id"
)

// ── JSON model ──

type eventEntity struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	Kind      string    `json:"kind"`
	At        time.Time `json:"at"`
	Seen      bool      `json:"seen"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toEventEntity(e *event.Event) *eventEntity {
	return &eventEntity{
		ID:        e.ID.String(),
		JobID:     e.JobID.String(),
		Kind:      string(e.Kind),
		At:        e.At,
		Seen:      e.Seen,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func fromEventEntity(en *eventEntity) (*event.Event, error) {
	eID, err := id.ParseEventID(en.ID)
	if err != nil {
		return nil, fmt.Errorf("crontrack/redis: parse event id: %w", err)
	}
	jID, err := id.ParseJobID(en.JobID)
	if err != nil {
		return nil, fmt.Errorf("crontrack/redis: parse job id: %w", err)
	}

	return &event.Event{
		Entity: crontrack.Entity{
			CreatedAt: en.CreatedAt,
			UpdatedAt: en.UpdatedAt,
		},
		ID:    eID,
		JobID: jID,
		Kind:  event.Kind(en.Kind),
		At:    en.At,
		Seen:  en.Seen,
	}, nil
}

// ── Event Store ──

// RecordEvent appends an event to its job's history.
func (s *Store) RecordEvent(ctx context.Context, e *event.Event) error {
	if err := s.setEntity(ctx, eventKey(e.ID.String()), toEventEntity(e)); err != nil {
		return fmt.Errorf("crontrack/redis: record event: %w", err)
	}
	if err := s.rdb.SAdd(ctx, eventIndexKey(e.JobID.String()), e.ID.String()).Err(); err != nil {
		return fmt.Errorf("crontrack/redis: record event index: %w", err)
	}
	return nil
}

// ListEventsForJob returns a job's events, newest first.
func (s *Store) ListEventsForJob(ctx context.Context, jobID id.JobID) ([]*event.Event, error) {
	eventIDs, err := s.rdb.SMembers(ctx, eventIndexKey(jobID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("crontrack/redis: list events: %w", err)
	}

	events := make([]*event.Event, 0, len(eventIDs))
	for _, eID := range eventIDs {
		var en eventEntity
		if getErr := s.getEntity(ctx, eventKey(eID), &en); getErr != nil {
			continue
		}
		e, convErr := fromEventEntity(&en)
		if convErr != nil {
			continue
		}
		events = append(events, e)
	}

	sort.Slice(events, func(i, k int) bool {
		if events[i].At.Equal(events[k].At) {
			return events[i].ID.String() > events[k].ID.String()
		}
		return events[i].At.After(events[k].At)
	})
	return events, nil
}

// MarkSeen acknowledges an event.
func (s *Store) MarkSeen(ctx context.Context, eventID id.EventID) error {
	key := eventKey(eventID.String())

	var en eventEntity
	if err := s.getEntity(ctx, key, &en); err != nil {
		if isRedisNil(err) {
			return crontrack.ErrEventNotFound
		}
		return fmt.Errorf("crontrack/redis: mark event seen get: %w", err)
	}

	en.Seen = true
	en.UpdatedAt = time.Now().UTC()
	if err := s.setEntity(ctx, key, &en); err != nil {
		return fmt.Errorf("crontrack/redis: mark event seen set: %w", err)
	}
	return nil
}

// DeleteEventsForJob removes a job's history.
func (s *Store) DeleteEventsForJob(ctx context.Context, jobID id.JobID) error {
	idxKey := eventIndexKey(jobID.String())

	eventIDs, err := s.rdb.SMembers(ctx, idxKey).Result()
	if err != nil {
		return fmt.Errorf("crontrack/redis: delete events: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	for _, eID := range eventIDs {
		pipe.Del(ctx, eventKey(eID))
	}
	pipe.Del(ctx, idxKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("crontrack/redis: delete events exec: %w", err)
	}
	return nil
}
