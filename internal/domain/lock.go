package domain

import "time"

// SchedulerLockID is the key of the singleton lock row.
const SchedulerLockID = 1

// SchedulerLock is the single-row coordination record shared by all worker
// processes. Only the holder of a non-stale lock polls the catalog.
type SchedulerLock struct {
	ID          int       `json:"id"`
	InstanceID  string    `json:"instance_id"`
	AcquiredAt  time.Time `json:"acquired_at"`
	HeartbeatAt time.Time `json:"heartbeat_at"`
}

// IsStale reports whether the heartbeat is older than after at time now.
// The boundary is exclusive: an age of exactly after is still valid.
func (l SchedulerLock) IsStale(now time.Time, after time.Duration) bool {
	return now.Sub(l.HeartbeatAt) > after
}
