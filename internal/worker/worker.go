// Package worker polls the work item queue, claims items atomically and
// dispatches them to type-specific handlers. Any number of worker processes
// can run concurrently; the conditional claim update is the only
// coordination between them.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"climbx.app/pipeline/common/logger"
	"climbx.app/pipeline/internal/model"
	"climbx.app/pipeline/internal/service"
)

// Handler processes one claimed work item inside the transaction it is
// given. Returning nil marks the item DONE in the same transaction.
type Handler func(ctx context.Context, sp service.StoreProvider, item *model.WorkItem) error

type Config struct {
	PollInterval time.Duration
	PickupBatch  int32
	RetryBackoff time.Duration
	MaxAttempts  int32
	WorkerID     string
}

type Worker struct {
	workQueue service.WorkQueueService
	txRunner  service.TxRunner
	handlers  map[model.WorkItemType]Handler
	cfg       Config
	logger    *slog.Logger

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(workQueue service.WorkQueueService, txRunner service.TxRunner, cfg Config, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		workQueue: workQueue,
		txRunner:  txRunner,
		handlers:  make(map[model.WorkItemType]Handler),
		cfg:       cfg,
		logger:    logger,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Register installs the handler for a work item type. Registration happens
// once at startup; claiming an item whose type has no handler marks it
// FAILED.
func (w *Worker) Register(typ model.WorkItemType, handler Handler) {
	w.handlers[typ] = handler
}

// Run starts the poll loop. Blocks until Stop is called or the context is
// cancelled.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "pipeline.worker"})

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.logger.InfoContext(ctx, "worker started",
		"worker_id", w.cfg.WorkerID,
		"poll_interval", w.cfg.PollInterval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			w.logger.InfoContext(ctx, "worker stopping")
			return nil
		case <-ticker.C:
			if err := w.pollOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "poll cycle error", "error", err)
			}
		}
	}
}

// Stop signals the worker to stop gracefully and waits for the loop to exit.
func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) pollOnce(ctx context.Context) error {
	requeued, err := w.workQueue.RequeueElapsed(ctx, w.cfg.MaxAttempts)
	if err != nil {
		return fmt.Errorf("requeueing elapsed items: %w", err)
	}
	if requeued > 0 {
		w.logger.InfoContext(ctx, "failed items requeued", "count", requeued)
	}

	items, err := w.workQueue.PickupCandidates(ctx, w.cfg.PickupBatch)
	if err != nil {
		return fmt.Errorf("listing claimable items: %w", err)
	}

	for i := range items {
		item := &items[i]

		claimed, err := w.workQueue.Claim(ctx, item.ID, w.cfg.WorkerID)
		if err != nil {
			w.logger.ErrorContext(ctx, "claim error",
				"work_item_id", item.ID,
				"error", err)
			continue
		}
		if !claimed {
			// Another worker won the race; not an error.
			continue
		}

		w.processItem(ctx, item)
	}

	return nil
}

// processItem runs the item's handler and the DONE flip in one transaction.
// On failure the item transitions to FAILED in a fresh transaction, with the
// error recorded and the next attempt deferred by the backoff.
func (w *Worker) processItem(ctx context.Context, item *model.WorkItem) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		WorkItemID: &item.ID,
	})

	w.logger.InfoContext(ctx, "processing work item",
		"type", item.Type,
		"key_text", item.KeyText,
		"attempts", item.Attempts)

	err := w.handleSafe(ctx, item)
	if err == nil {
		return
	}

	w.logger.ErrorContext(ctx, "work item failed",
		"type", item.Type,
		"key_text", item.KeyText,
		"error", err)

	nextAttemptAt := time.Now().UTC().Add(w.cfg.RetryBackoff)
	var marked bool
	failErr := w.txRunner.WithTx(ctx, func(sp service.StoreProvider) error {
		var markErr error
		marked, markErr = sp.WorkItems().MarkFailed(ctx, item.ID, logger.Truncate(err.Error(), 500), nextAttemptAt)
		return markErr
	})
	if failErr != nil {
		w.logger.ErrorContext(ctx, "failed to mark work item failed", "error", failErr)
		return
	}
	if !marked {
		// Row was no longer IN_PROGRESS, same as losing a claim.
		w.logger.WarnContext(ctx, "failure transition skipped, work item not IN_PROGRESS",
			"work_item_id", item.ID)
	}
}

func (w *Worker) handleSafe(ctx context.Context, item *model.WorkItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.ErrorContext(ctx, "panic recovered in work item handler", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	handler, ok := w.handlers[item.Type]
	if !ok {
		return fmt.Errorf("no handler registered for work item type %s", item.Type)
	}

	return w.txRunner.WithTx(ctx, func(sp service.StoreProvider) error {
		if err := handler(ctx, sp, item); err != nil {
			return err
		}
		done, err := sp.WorkItems().MarkDone(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("marking work item done: %w", err)
		}
		if !done {
			return fmt.Errorf("work item %d left IN_PROGRESS before completion", item.ID)
		}
		return nil
	})
}
