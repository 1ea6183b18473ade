package model

import (
	"encoding/json"
	"time"
)

type WorkItemType string

const (
	WorkItemTypeUpdateProblemTier      WorkItemType = "UPDATE_PROBLEM_TIER"
	WorkItemTypeRefreshUserRating      WorkItemType = "REFRESH_USER_RATING"
	WorkItemTypeRankingHistorySnapshot WorkItemType = "RANKING_HISTORY_SNAPSHOT"
)

type WorkItemStatus string

const (
	WorkItemStatusPending    WorkItemStatus = "PENDING"
	WorkItemStatusInProgress WorkItemStatus = "IN_PROGRESS"
	WorkItemStatusDone       WorkItemStatus = "DONE"
	WorkItemStatusFailed     WorkItemStatus = "FAILED"
)

// WorkItem is one row of the deferred work queue. At most one row ever
// exists per (type, key_hash); repeated enqueues of the same key return the
// existing row unchanged.
//
// State machine: PENDING -> (claim) -> IN_PROGRESS -> DONE on success, or
// -> FAILED with backoff on error. FAILED rows whose next_attempt_at has
// elapsed are moved back to PENDING by the poller, up to MaxAttempts.
// All transitions are guarded single-row conditional updates, so any number
// of worker instances can poll concurrently without extra locking.
type WorkItem struct {
	ID            int64           `json:"id"`
	Type          WorkItemType    `json:"type"`
	KeyText       string          `json:"key_text"`
	KeyHash       []byte          `json:"-"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Status        WorkItemStatus  `json:"status"`
	Attempts      int32           `json:"attempts"`
	NextAttemptAt *time.Time      `json:"next_attempt_at,omitempty"`
	ClaimedBy     *string         `json:"claimed_by,omitempty"`
	ClaimedAt     *time.Time      `json:"claimed_at,omitempty"`
	HeartbeatAt   *time.Time      `json:"heartbeat_at,omitempty"`
	LastError     *string         `json:"last_error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
