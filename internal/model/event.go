package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeProblemTierChanged        EventType = "PROBLEM_TIER_CHANGED"
	EventTypeUserSolvedProblem         EventType = "USER_SOLVED_PROBLEM"
	EventTypeUserDifficultyContributed EventType = "USER_DIFFICULTY_CONTRIBUTED"
)

// Event is one ledger row of the transactional outbox. Rows are written in
// the same transaction as the business mutation they describe, flipped to
// processed exactly once by the drain path, and never deleted.
type Event struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	DedupKey      string          `json:"dedup_key"`
	DedupHash     []byte          `json:"-"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Processed     bool            `json:"processed"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
}
