package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"climbx.app/pipeline/common/digest"
	"climbx.app/pipeline/internal/model"
	"climbx.app/pipeline/internal/store"
	"github.com/google/uuid"
)

type RecordEventParams struct {
	AggregateType string
	AggregateID   string
	EventType     model.EventType
	DedupKey      string
	Payload       json.RawMessage
}

// OutboxService records domain events into the ledger. RecordEvent takes the
// caller's transactional StoreProvider so the ledger row commits or rolls
// back together with the business mutation — that atomicity is the whole
// point of the outbox.
type OutboxService interface {
	RecordEvent(ctx context.Context, sp StoreProvider, params RecordEventParams) (*model.Event, error)
}

type outboxService struct {
	logger *slog.Logger
}

func NewOutboxService(logger *slog.Logger) OutboxService {
	if logger == nil {
		logger = slog.Default()
	}
	return &outboxService{logger: logger}
}

func (s *outboxService) RecordEvent(ctx context.Context, sp StoreProvider, params RecordEventParams) (*model.Event, error) {
	if params.AggregateType == "" || params.AggregateID == "" || params.EventType == "" || params.DedupKey == "" {
		return nil, fmt.Errorf("aggregate_type, aggregate_id, event_type, and dedup_key are required")
	}

	dedupHash := digest.Key(string(params.EventType), params.DedupKey)

	existing, err := sp.Events().FindByTypeAndDedupHash(ctx, params.EventType, dedupHash)
	if err == nil {
		// Idempotent no-op: the row is returned untouched, not updated.
		s.logger.InfoContext(ctx, "duplicate outbox event deduped",
			"event_type", params.EventType,
			"aggregate_id", params.AggregateID,
			"dedup_hash", digest.Hex(dedupHash))
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("looking up outbox event: %w", err)
	}

	event := &model.Event{
		EventID:       uuid.New(),
		AggregateType: params.AggregateType,
		AggregateID:   params.AggregateID,
		EventType:     params.EventType,
		DedupKey:      params.DedupKey,
		DedupHash:     dedupHash,
		Payload:       params.Payload,
		OccurredAt:    time.Now().UTC(),
		Processed:     false,
	}

	// A failed write must abort the caller's transaction; a silently dropped
	// event is a correctness bug.
	if err := sp.Events().Insert(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to record outbox event",
			"error", err,
			"event_type", params.EventType,
			"aggregate_type", params.AggregateType,
			"aggregate_id", params.AggregateID)
		return nil, fmt.Errorf("recording outbox event: %w", err)
	}

	return event, nil
}
