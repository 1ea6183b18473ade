package store

import (
	"context"
	"errors"
	"time"

	"climbx.app/pipeline/internal/model"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// EventStore defines the contract for outbox event ledger access.
//
// The ledger is append-mostly: rows are inserted once, flipped to processed
// once, never deleted. Listing uses keyset cursors on (occurred_at, event_id)
// so a drain run pages through the full backlog without duplicates or
// omissions even while earlier rows are being marked processed.
type EventStore interface {
	GetByID(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	FindByTypeAndDedupHash(ctx context.Context, eventType model.EventType, dedupHash []byte) (*model.Event, error)
	Insert(ctx context.Context, event *model.Event) error
	ListUnprocessedAfter(ctx context.Context, after time.Time, afterID uuid.UUID, limit int32) ([]model.Event, error)
	ListAfter(ctx context.Context, after time.Time, afterID uuid.UUID, limit int32) ([]model.Event, error)
	MarkProcessed(ctx context.Context, eventID uuid.UUID, at time.Time) error
}

// WorkItemStore defines the contract for the work queue. Every status
// transition is a guarded single-row conditional update; Claim is the atomic
// compare-and-set that guarantees at-most-one claimant per item.
type WorkItemStore interface {
	GetByID(ctx context.Context, id int64) (*model.WorkItem, error)
	FindByTypeAndKeyHash(ctx context.Context, typ model.WorkItemType, keyHash []byte) (*model.WorkItem, error)
	Insert(ctx context.Context, item *model.WorkItem) error
	ListClaimable(ctx context.Context, now time.Time, limit int32) ([]model.WorkItem, error)
	// Claim transitions PENDING -> IN_PROGRESS, stamping claimed_by,
	// claimed_at and heartbeat_at. Returns false if the row was no longer
	// PENDING, i.e. another claimant won the race.
	Claim(ctx context.Context, id int64, claimedBy string, now time.Time) (bool, error)
	// MarkDone transitions IN_PROGRESS -> DONE.
	MarkDone(ctx context.Context, id int64) (bool, error)
	// MarkFailed transitions IN_PROGRESS -> FAILED, recording the error,
	// bumping attempts and deferring next_attempt_at.
	MarkFailed(ctx context.Context, id int64, lastError string, nextAttemptAt time.Time) (bool, error)
	// RequeueElapsed moves FAILED rows whose backoff elapsed and whose
	// attempts are below maxAttempts back to PENDING. Returns the number of
	// rows requeued.
	RequeueElapsed(ctx context.Context, now time.Time, maxAttempts int32) (int64, error)
}

// ProblemStore defines read/write access to the problem aggregate.
type ProblemStore interface {
	GetByID(ctx context.Context, problemID uuid.UUID) (*model.Problem, error)
	Insert(ctx context.Context, problem *model.Problem) error
	// UpdateTier applies a new rating and tier and replaces the tag list.
	UpdateTier(ctx context.Context, problemID uuid.UUID, rating int, tier model.Tier, tags []string) error
}

// UserStatStore defines read/write access to per-user stats.
type UserStatStore interface {
	GetByUserID(ctx context.Context, userID int64) (*model.UserStat, error)
	Insert(ctx context.Context, stat *model.UserStat) error
	UpdateRating(ctx context.Context, userID int64, rating, topProblemRating int) error
	IncrementSolved(ctx context.Context, userID int64) error
	// ListAfter pages all user stats by ascending user_id.
	ListAfter(ctx context.Context, afterUserID int64, limit int32) ([]model.UserStat, error)
}

// SubmissionStore defines the submission lookups the pipeline needs.
type SubmissionStore interface {
	GetByID(ctx context.Context, videoID uuid.UUID) (*model.Submission, error)
	Insert(ctx context.Context, submission *model.Submission) error
	SetStatus(ctx context.Context, videoID uuid.UUID, status model.SubmissionStatus) error
	// ListAcceptedUserIDs pages the distinct users holding an accepted
	// submission for the problem, by ascending user_id.
	ListAcceptedUserIDs(ctx context.Context, problemID uuid.UUID, afterUserID int64, limit int32) ([]int64, error)
	// TopAcceptedProblemRatings returns the ratings of the user's highest
	// rated accepted problems, best first.
	TopAcceptedProblemRatings(ctx context.Context, userID int64, limit int32) ([]int, error)
}

// RankingHistoryStore persists daily ranking snapshot rows.
type RankingHistoryStore interface {
	Insert(ctx context.Context, history *model.RankingHistory) error
	ListByUser(ctx context.Context, userID int64, criteria model.Criteria, limit int32) ([]model.RankingHistory, error)
}
