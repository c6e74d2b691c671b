package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/alert"
	"github.com/Arch199/crontrack/id"
)

// ── JSON model ──

type alertEntity struct {
	ID        string     `json:"id"`
	JobID     string     `json:"job_id"`
	UserID    string     `json:"user_id"`
	LastAlert *time.Time `json:"last_alert,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func fromAlertEntity(e *alertEntity) (*alert.Alert, error) {
	aID, err := id.ParseAlertID(e.ID)
	if err != nil {
		return nil, fmt.Errorf("crontrack/redis: parse alert id: %w", err)
	}
	jID, err := id.ParseJobID(e.JobID)
	if err != nil {
		return nil, fmt.Errorf("crontrack/redis: parse job id: %w", err)
	}
	uID, err := id.ParseUserID(e.UserID)
	if err != nil {
		return nil, fmt.Errorf("crontrack/redis: parse user id: %w", err)
	}

	return &alert.Alert{
		Entity: crontrack.Entity{
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
		ID:        aID,
		JobID:     jID,
		UserID:    uID,
		LastAlert: e.LastAlert,
	}, nil
}

// ── Alert Store ──

// GetAlert retrieves the ledger entry for a (job, user) pair.
func (s *Store) GetAlert(ctx context.Context, jobID id.JobID, userID id.UserID) (*alert.Alert, error) {
	var e alertEntity
	if err := s.getEntity(ctx, alertKey(jobID.String(), userID.String()), &e); err != nil {
		if isRedisNil(err) {
			return nil, crontrack.ErrAlertNotFound
		}
		return nil, fmt.Errorf("crontrack/redis: get alert: %w", err)
	}
	return fromAlertEntity(&e)
}

// recordAlertScript performs the create-or-update server-side so the
// read-modify-write cannot interleave with another writer. KEYS[1] is the
// pair entry, KEYS[2] the job's alert index. ARGV[1] is a fully-formed new
// entry used when none exists, ARGV[2]/ARGV[3] are the stamp and updated_at
// applied to an existing entry, ARGV[4] is the user ID for the index.
var recordAlertScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if raw then
	local e = cjson.decode(raw)
	e.last_alert = ARGV[2]
	e.updated_at = ARGV[3]
	redis.call("SET", KEYS[1], cjson.encode(e))
else
	redis.call("SET", KEYS[1], ARGV[1])
end
redis.call("SADD", KEYS[2], ARGV[4])
return 1
`)

// RecordAlert upserts the entry for a (job, user) pair atomically, stamping
// LastAlert = at. The entry keys on the pair directly and the whole upsert
// runs as one script, so concurrent writers always converge on a single
// entry with the last writer's stamp.
func (s *Store) RecordAlert(ctx context.Context, jobID id.JobID, userID id.UserID, at time.Time) error {
	jID := jobID.String()
	uID := userID.String()
	now := time.Now().UTC()
	t := at

	fresh, err := json.Marshal(&alertEntity{
		ID:        id.NewAlertID().String(),
		JobID:     jID,
		UserID:    uID,
		LastAlert: &t,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("crontrack/redis: record alert marshal: %w", err)
	}

	keys := []string{alertKey(jID, uID), alertIndexKey(jID)}
	err = recordAlertScript.Run(ctx, s.rdb, keys,
		string(fresh),
		t.UTC().Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		uID,
	).Err()
	if err != nil {
		return fmt.Errorf("crontrack/redis: record alert: %w", err)
	}
	return nil
}

// ListAlertsForJob returns every ledger entry for a job.
func (s *Store) ListAlertsForJob(ctx context.Context, jobID id.JobID) ([]*alert.Alert, error) {
	jID := jobID.String()

	userIDs, err := s.rdb.SMembers(ctx, alertIndexKey(jID)).Result()
	if err != nil {
		return nil, fmt.Errorf("crontrack/redis: list alerts: %w", err)
	}

	alerts := make([]*alert.Alert, 0, len(userIDs))
	for _, uID := range userIDs {
		var e alertEntity
		if getErr := s.getEntity(ctx, alertKey(jID, uID), &e); getErr != nil {
			continue
		}
		a, convErr := fromAlertEntity(&e)
		if convErr != nil {
			continue
		}
		alerts = append(alerts, a)
	}

	sort.Slice(alerts, func(i, k int) bool {
		return alerts[i].UserID.String() < alerts[k].UserID.String()
	})
	return alerts, nil
}

// DeleteAlertsForJob removes a job's ledger entries.
func (s *Store) DeleteAlertsForJob(ctx context.Context, jobID id.JobID) error {
	jID := jobID.String()
	idxKey := alertIndexKey(jID)

	userIDs, err := s.rdb.SMembers(ctx, idxKey).Result()
	if err != nil {
		return fmt.Errorf("crontrack/redis: delete alerts: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	for _, uID := range userIDs {
		pipe.Del(ctx, alertKey(jID, uID))
	}
	pipe.Del(ctx, idxKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("crontrack/redis: delete alerts exec: %w", err)
	}
	return nil
}
