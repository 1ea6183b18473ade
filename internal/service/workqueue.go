package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"climbx.app/pipeline/common/digest"
	"climbx.app/pipeline/common/id"
	"climbx.app/pipeline/internal/model"
	"climbx.app/pipeline/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// WorkQueueService owns enqueue and the queue-side transitions of work
// items. EnqueueUnique is the debouncing mechanism: bursty events targeting
// the same logical unit of work collapse into a single pending item.
type WorkQueueService interface {
	EnqueueUnique(ctx context.Context, typ model.WorkItemType, keyText string, payload json.RawMessage) (*model.WorkItem, error)
	PickupCandidates(ctx context.Context, limit int32) ([]model.WorkItem, error)
	Claim(ctx context.Context, itemID int64, workerID string) (bool, error)
	RequeueElapsed(ctx context.Context, maxAttempts int32) (int64, error)
}

type workQueueService struct {
	workItems store.WorkItemStore
	logger    *slog.Logger
}

func NewWorkQueueService(workItems store.WorkItemStore, logger *slog.Logger) WorkQueueService {
	if logger == nil {
		logger = slog.Default()
	}
	return &workQueueService{workItems: workItems, logger: logger}
}

func (s *workQueueService) EnqueueUnique(ctx context.Context, typ model.WorkItemType, keyText string, payload json.RawMessage) (*model.WorkItem, error) {
	if typ == "" || keyText == "" {
		return nil, fmt.Errorf("type and key_text are required")
	}

	keyHash := digest.Key(string(typ), keyText)

	existing, err := s.workItems.FindByTypeAndKeyHash(ctx, typ, keyHash)
	if err == nil {
		// Existing row wins; payload is intentionally not refreshed.
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("looking up work item: %w", err)
	}

	now := time.Now().UTC()
	item := &model.WorkItem{
		ID:            id.New(),
		Type:          typ,
		KeyText:       keyText,
		KeyHash:       keyHash,
		Payload:       payload,
		Status:        model.WorkItemStatusPending,
		Attempts:      0,
		NextAttemptAt: &now,
		CreatedAt:     now,
	}

	if err := s.workItems.Insert(ctx, item); err != nil {
		// Lost an insert race: the (type, key_hash) constraint fired, so the
		// winning row is fetched and returned instead.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return s.workItems.FindByTypeAndKeyHash(ctx, typ, keyHash)
		}
		return nil, fmt.Errorf("inserting work item: %w", err)
	}

	s.logger.InfoContext(ctx, "work item enqueued",
		"work_item_id", item.ID,
		"type", typ,
		"key_text", keyText)

	return item, nil
}

func (s *workQueueService) PickupCandidates(ctx context.Context, limit int32) ([]model.WorkItem, error) {
	return s.workItems.ListClaimable(ctx, time.Now().UTC(), limit)
}

func (s *workQueueService) Claim(ctx context.Context, itemID int64, workerID string) (bool, error) {
	return s.workItems.Claim(ctx, itemID, workerID, time.Now().UTC())
}

func (s *workQueueService) RequeueElapsed(ctx context.Context, maxAttempts int32) (int64, error) {
	return s.workItems.RequeueElapsed(ctx, time.Now().UTC(), maxAttempts)
}
