package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"climbx.app/pipeline/internal/outbox"
	"climbx.app/pipeline/internal/store"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const drainLockKey = "pipeline:outbox:drain-lock"

// releaseLockScript deletes the lock only while it still holds this run's
// token. A run that outlives the lock TTL must not delete a lock another
// instance has since acquired.
const releaseLockScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// lockClient is the slice of the Redis API the drain lock needs.
// *redis.Client satisfies it.
type lockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// DrainJob pages through unprocessed ledger rows and hands each to the event
// processor in its own transaction. A Redis lock keeps at most one drain
// instance active at a time; without it, concurrent drains would
// double-process events (delivery is at-least-once either way, the lock just
// avoids the redundant work).
type DrainJob struct {
	events    store.EventStore
	processor *outbox.Processor
	redis     lockClient
	interval  time.Duration
	pageSize  int32
	lockTTL   time.Duration
	lockToken string
	logger    *slog.Logger
}

type DrainConfig struct {
	Interval time.Duration
	PageSize int32
	LockTTL  time.Duration
}

func NewDrainJob(events store.EventStore, processor *outbox.Processor, redisClient lockClient, cfg DrainConfig, logger *slog.Logger) *DrainJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &DrainJob{
		events:    events,
		processor: processor,
		redis:     redisClient,
		interval:  cfg.Interval,
		pageSize:  cfg.PageSize,
		lockTTL:   cfg.LockTTL,
		logger:    logger,
	}
}

func (j *DrainJob) Name() string            { return "outbox-drain" }
func (j *DrainJob) Interval() time.Duration { return j.interval }

func (j *DrainJob) RunOnce(ctx context.Context) error {
	acquired, err := j.acquireLock(ctx)
	if err != nil {
		return fmt.Errorf("acquiring drain lock: %w", err)
	}
	if !acquired {
		j.logger.InfoContext(ctx, "drain lock held elsewhere, skipping run")
		return nil
	}
	defer j.releaseLock(ctx)

	var (
		succeeded int
		failed    int
		after     time.Time
		afterID   uuid.UUID
	)

	// Keyset pagination on (occurred_at, event_id): rows marked processed
	// mid-run cannot shift the cursor, and rows whose handler failed are
	// paged past instead of rescanned in this run.
	for {
		events, err := j.events.ListUnprocessedAfter(ctx, after, afterID, j.pageSize)
		if err != nil {
			return fmt.Errorf("listing unprocessed events: %w", err)
		}
		if len(events) == 0 {
			break
		}

		for i := range events {
			if err := j.processor.ProcessEvent(ctx, &events[i]); err != nil {
				failed++
				j.logger.ErrorContext(ctx, "event processing failed",
					"event_id", events[i].EventID,
					"event_type", events[i].EventType,
					"error", err)
				continue
			}
			succeeded++
		}

		last := events[len(events)-1]
		after, afterID = last.OccurredAt, last.EventID

		if int32(len(events)) < j.pageSize {
			break
		}
	}

	j.logger.InfoContext(ctx, "drain run complete",
		"succeeded", succeeded,
		"failed", failed)
	return nil
}

func (j *DrainJob) acquireLock(ctx context.Context) (bool, error) {
	if j.redis == nil {
		return true, nil
	}
	j.lockToken = uuid.NewString()
	return j.redis.SetNX(ctx, drainLockKey, j.lockToken, j.lockTTL).Result()
}

func (j *DrainJob) releaseLock(ctx context.Context) {
	if j.redis == nil {
		return
	}
	deleted, err := j.redis.Eval(ctx, releaseLockScript, []string{drainLockKey}, j.lockToken).Int()
	if err != nil {
		j.logger.WarnContext(ctx, "failed to release drain lock", "error", err)
		return
	}
	if deleted == 0 {
		j.logger.WarnContext(ctx, "drain lock expired before release", "ttl", j.lockTTL)
	}
}
