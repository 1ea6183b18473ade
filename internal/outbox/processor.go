// Package outbox contains the drain-side event processor: the explicit
// event-type-to-handler table and the per-event transaction boundary.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"climbx.app/pipeline/common/logger"
	"climbx.app/pipeline/internal/model"
	"climbx.app/pipeline/internal/service"
)

// ErrUnknownEventType marks events whose type has no registered handler.
// The drain loop logs it and leaves the row unprocessed.
var ErrUnknownEventType = fmt.Errorf("unknown outbox event type")

// Handler processes one event inside the transaction it is given.
type Handler func(ctx context.Context, sp service.StoreProvider, event *model.Event) error

// Processor dispatches drained events to type-specific handlers, each event
// in its own transaction. One event's failure cannot roll back events
// already committed in the same drain run.
type Processor struct {
	txRunner service.TxRunner
	handlers map[model.EventType]Handler
	logger   *slog.Logger
}

func NewProcessor(txRunner service.TxRunner, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		txRunner: txRunner,
		handlers: make(map[model.EventType]Handler),
		logger:   logger,
	}
}

// Register installs the handler for an event type. Registration happens once
// at startup; there is no implicit fallback besides the unknown-type branch
// in ProcessEvent.
func (p *Processor) Register(eventType model.EventType, handler Handler) {
	p.handlers[eventType] = handler
}

// ProcessEvent runs the event's handler and the processed flip in one fresh
// transaction. Rows whose handler fails stay unprocessed and are retried on
// the next drain run, with no backoff and no attempt cap.
func (p *Processor) ProcessEvent(ctx context.Context, event *model.Event) error {
	eventID := event.EventID.String()
	eventType := string(event.EventType)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventID:   &eventID,
		EventType: &eventType,
	})

	handler, ok := p.handlers[event.EventType]
	if !ok {
		p.logger.WarnContext(ctx, "no handler registered for event type",
			"aggregate_id", event.AggregateID)
		return fmt.Errorf("%w: %s", ErrUnknownEventType, event.EventType)
	}

	return p.txRunner.WithTx(ctx, func(sp service.StoreProvider) error {
		if err := handler(ctx, sp, event); err != nil {
			return fmt.Errorf("handling %s event: %w", event.EventType, err)
		}
		if err := sp.Events().MarkProcessed(ctx, event.EventID, time.Now().UTC()); err != nil {
			return fmt.Errorf("marking event processed: %w", err)
		}
		p.logger.DebugContext(ctx, "event processed",
			"aggregate_id", event.AggregateID)
		return nil
	})
}
