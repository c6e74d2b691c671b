package redis

// Redis key naming conventions for crontrack data.
// All keys are prefixed with "crontrack:" to avoid collisions.

const keyPrefix = "crontrack:"

// ── Job keys ──

// jobKey returns the key for a job entity: crontrack:job:{id}
func jobKey(id string) string { return keyPrefix + "job:" + id }

// jobIDsKey is the Set tracking all job IDs for enumeration.
const jobIDsKey = keyPrefix + "job_ids"

// ── Group keys ──

// groupKey returns the key for a job group entity: crontrack:group:{id}
func groupKey(id string) string { return keyPrefix + "group:" + id }

// groupIDsKey is the Set tracking all group IDs for enumeration.
const groupIDsKey = keyPrefix + "group_ids"

// ── User keys ──

// userKey returns the key for a user entity: crontrack:user:{id}
func userKey(id string) string { return keyPrefix + "user:" + id }

// userIDsKey is the Set tracking all user IDs for enumeration.
const userIDsKey = keyPrefix + "user_ids"

// userEmailsKey maps emails to user IDs for duplicate detection.
const userEmailsKey = keyPrefix + "user_emails"

// ── Team keys ──

// teamKey returns the key for a team entity: crontrack:team:{id}
func teamKey(id string) string { return keyPrefix + "team:" + id }

// membersKey returns the Hash key mapping a team's member user IDs to
// their per-team alert flag: crontrack:team_members:{teamID}
func membersKey(teamID string) string { return keyPrefix + "team_members:" + teamID }

// ── Alert ledger keys ──

// alertKey returns the key for a ledger entry: crontrack:alert:{jobID}:{userID}
func alertKey(jobID, userID string) string {
	return keyPrefix + "alert:" + jobID + ":" + userID
}

// alertIndexKey returns the Set key tracking a job's ledger user IDs.
func alertIndexKey(jobID string) string { return keyPrefix + "alert_idx:" + jobID }

// ── Event keys ──

// eventKey returns the key for a job history event: crontrack:event:{id}
func eventKey(id string) string { return keyPrefix + "event:" + id }

// eventIndexKey returns the Set key tracking a job's event IDs.
func eventIndexKey(jobID string) string { return keyPrefix + "event_idx:" + jobID }
