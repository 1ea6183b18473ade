package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"climbx.app/pipeline/internal/model"
	"climbx.app/pipeline/internal/service"
	"github.com/google/uuid"
)

// TierChangeHandler fans a PROBLEM_TIER_CHANGED event out to every user
// holding an accepted submission for the problem, recomputing each user's
// rating in its own transaction. The event's transaction only pages user ids
// and flips the processed flag; per-user recomputes commit independently and
// a single user's failure is logged and counted, never propagated, so one
// broken user cannot hold the event or starve the users after it.
type TierChangeHandler struct {
	txRunner  service.TxRunner
	batchSize int32
	logger    *slog.Logger
}

func NewTierChangeHandler(txRunner service.TxRunner, batchSize int32, logger *slog.Logger) *TierChangeHandler {
	if batchSize <= 0 {
		batchSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TierChangeHandler{txRunner: txRunner, batchSize: batchSize, logger: logger}
}

func (h *TierChangeHandler) Handle(ctx context.Context, sp service.StoreProvider, event *model.Event) error {
	problemID, err := uuid.Parse(event.AggregateID)
	if err != nil {
		return fmt.Errorf("parsing problem id %q: %w", event.AggregateID, err)
	}

	var afterUserID int64
	var recomputed, failed int
	for {
		userIDs, err := sp.Submissions().ListAcceptedUserIDs(ctx, problemID, afterUserID, h.batchSize)
		if err != nil {
			return fmt.Errorf("listing accepted users: %w", err)
		}
		if len(userIDs) == 0 {
			break
		}

		for _, userID := range userIDs {
			err := h.txRunner.WithTx(ctx, func(userSP service.StoreProvider) error {
				return service.RefreshUserRating(ctx, userSP, userID)
			})
			if err != nil {
				failed++
				h.logger.ErrorContext(ctx, "rating recompute failed",
					"problem_id", problemID,
					"user_id", userID,
					"error", err)
				continue
			}
			recomputed++
		}

		afterUserID = userIDs[len(userIDs)-1]
		if int32(len(userIDs)) < h.batchSize {
			break
		}
	}

	h.logger.InfoContext(ctx, "tier change fanned out",
		"problem_id", problemID,
		"users_recomputed", recomputed,
		"users_failed", failed)
	return nil
}

// UserActivityHandler turns user-scoped events (USER_SOLVED_PROBLEM,
// USER_DIFFICULTY_CONTRIBUTED) into one REFRESH_USER_RATING work item keyed
// by the user id. Enqueue is deduplicated, so a burst of activity for one
// user collapses into a single pending recompute.
type UserActivityHandler struct {
	workQueue service.WorkQueueService
}

func NewUserActivityHandler(workQueue service.WorkQueueService) *UserActivityHandler {
	return &UserActivityHandler{workQueue: workQueue}
}

func (h *UserActivityHandler) Handle(ctx context.Context, sp service.StoreProvider, event *model.Event) error {
	if _, err := strconv.ParseInt(event.AggregateID, 10, 64); err != nil {
		return fmt.Errorf("parsing user id %q: %w", event.AggregateID, err)
	}

	payload, _ := json.Marshal(map[string]string{"userId": event.AggregateID})
	_, err := h.workQueue.EnqueueUnique(ctx, model.WorkItemTypeRefreshUserRating, event.AggregateID, payload)
	if err != nil {
		return fmt.Errorf("enqueueing rating refresh: %w", err)
	}
	return nil
}
