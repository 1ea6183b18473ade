package store

import (
	"context"
	"errors"
	"time"

	"climbx.app/pipeline/core/db"
	"climbx.app/pipeline/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type eventStore struct {
	q db.DBTX
}

func newEventStore(q db.DBTX) EventStore {
	return &eventStore{q: q}
}

const eventColumns = `event_id, aggregate_type, aggregate_id, event_type, dedup_key, dedup_hash, payload, occurred_at, processed, processed_at`

func (s *eventStore) GetByID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	row := s.q.QueryRow(ctx, `
		SELECT `+eventColumns+`
		FROM outbox_events
		WHERE event_id = $1`, eventID)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *eventStore) FindByTypeAndDedupHash(ctx context.Context, eventType model.EventType, dedupHash []byte) (*model.Event, error) {
	row := s.q.QueryRow(ctx, `
		SELECT `+eventColumns+`
		FROM outbox_events
		WHERE event_type = $1 AND dedup_hash = $2`, eventType, dedupHash)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *eventStore) Insert(ctx context.Context, event *model.Event) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO outbox_events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		event.EventID, event.AggregateType, event.AggregateID, event.EventType,
		event.DedupKey, event.DedupHash, event.Payload, event.OccurredAt,
		event.Processed, event.ProcessedAt)
	return err
}

func (s *eventStore) ListUnprocessedAfter(ctx context.Context, after time.Time, afterID uuid.UUID, limit int32) ([]model.Event, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+eventColumns+`
		FROM outbox_events
		WHERE processed = FALSE
		  AND (occurred_at, event_id) > ($1, $2)
		ORDER BY occurred_at ASC, event_id ASC
		LIMIT $3`, after, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *eventStore) ListAfter(ctx context.Context, after time.Time, afterID uuid.UUID, limit int32) ([]model.Event, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+eventColumns+`
		FROM outbox_events
		WHERE (occurred_at, event_id) > ($1, $2)
		ORDER BY occurred_at ASC, event_id ASC
		LIMIT $3`, after, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *eventStore) MarkProcessed(ctx context.Context, eventID uuid.UUID, at time.Time) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE outbox_events
		SET processed = TRUE, processed_at = $2
		WHERE event_id = $1`, eventID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	if err := row.Scan(
		&e.EventID, &e.AggregateType, &e.AggregateID, &e.EventType,
		&e.DedupKey, &e.DedupHash, &e.Payload, &e.OccurredAt,
		&e.Processed, &e.ProcessedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEvents(rows pgx.Rows) ([]model.Event, error) {
	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}
