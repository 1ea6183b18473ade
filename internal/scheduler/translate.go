package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"climbx.app/pipeline/internal/model"
	"climbx.app/pipeline/internal/service"
	"climbx.app/pipeline/internal/store"
	"github.com/google/uuid"
)

// TranslateJob sweeps the event ledger and maps each event to its follow-up
// work item. Enqueue dedups on (type, key_hash), so resweeping already
// translated events is a cheap no-op, and duplicate events targeting the
// same aggregate collapse into one pending item.
type TranslateJob struct {
	events    store.EventStore
	workQueue service.WorkQueueService
	interval  time.Duration
	pageSize  int32
	logger    *slog.Logger
}

func NewTranslateJob(events store.EventStore, workQueue service.WorkQueueService, interval time.Duration, pageSize int32, logger *slog.Logger) *TranslateJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &TranslateJob{
		events:    events,
		workQueue: workQueue,
		interval:  interval,
		pageSize:  pageSize,
		logger:    logger,
	}
}

func (j *TranslateJob) Name() string            { return "event-translate" }
func (j *TranslateJob) Interval() time.Duration { return j.interval }

func (j *TranslateJob) RunOnce(ctx context.Context) error {
	var (
		translated int
		skipped    int
		after      time.Time
		afterID    uuid.UUID
	)

	for {
		events, err := j.events.ListAfter(ctx, after, afterID, j.pageSize)
		if err != nil {
			return fmt.Errorf("listing events: %w", err)
		}
		if len(events) == 0 {
			break
		}

		for i := range events {
			if err := j.translateOne(ctx, &events[i]); err != nil {
				skipped++
				j.logger.ErrorContext(ctx, "event translation failed",
					"event_id", events[i].EventID,
					"event_type", events[i].EventType,
					"error", err)
				continue
			}
			translated++
		}

		last := events[len(events)-1]
		after, afterID = last.OccurredAt, last.EventID

		if int32(len(events)) < j.pageSize {
			break
		}
	}

	j.logger.InfoContext(ctx, "translate run complete",
		"translated", translated,
		"skipped", skipped)
	return nil
}

func (j *TranslateJob) translateOne(ctx context.Context, event *model.Event) error {
	switch event.EventType {
	case model.EventTypeProblemTierChanged:
		_, err := j.workQueue.EnqueueUnique(ctx, model.WorkItemTypeUpdateProblemTier, event.AggregateID, event.Payload)
		return err
	case model.EventTypeUserSolvedProblem, model.EventTypeUserDifficultyContributed:
		payload, _ := json.Marshal(map[string]string{"userId": event.AggregateID})
		_, err := j.workQueue.EnqueueUnique(ctx, model.WorkItemTypeRefreshUserRating, event.AggregateID, payload)
		return err
	default:
		return fmt.Errorf("no work item mapping for event type %s", event.EventType)
	}
}
