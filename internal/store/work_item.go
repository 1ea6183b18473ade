package store

import (
	"context"
	"errors"
	"time"

	"climbx.app/pipeline/core/db"
	"climbx.app/pipeline/internal/model"
	"github.com/jackc/pgx/v5"
)

type workItemStore struct {
	q db.DBTX
}

func newWorkItemStore(q db.DBTX) WorkItemStore {
	return &workItemStore{q: q}
}

const workItemColumns = `id, type, key_text, key_hash, payload, status, attempts, next_attempt_at, claimed_by, claimed_at, heartbeat_at, last_error, created_at`

func (s *workItemStore) GetByID(ctx context.Context, id int64) (*model.WorkItem, error) {
	row := s.q.QueryRow(ctx, `
		SELECT `+workItemColumns+`
		FROM work_items
		WHERE id = $1`, id)

	item, err := scanWorkItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *workItemStore) FindByTypeAndKeyHash(ctx context.Context, typ model.WorkItemType, keyHash []byte) (*model.WorkItem, error) {
	row := s.q.QueryRow(ctx, `
		SELECT `+workItemColumns+`
		FROM work_items
		WHERE type = $1 AND key_hash = $2`, typ, keyHash)

	item, err := scanWorkItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *workItemStore) Insert(ctx context.Context, item *model.WorkItem) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO work_items (`+workItemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		item.ID, item.Type, item.KeyText, item.KeyHash, item.Payload,
		item.Status, item.Attempts, item.NextAttemptAt, item.ClaimedBy,
		item.ClaimedAt, item.HeartbeatAt, item.LastError, item.CreatedAt)
	return err
}

func (s *workItemStore) ListClaimable(ctx context.Context, now time.Time, limit int32) ([]model.WorkItem, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+workItemColumns+`
		FROM work_items
		WHERE status = $1
		  AND (next_attempt_at IS NULL OR next_attempt_at <= $2)
		ORDER BY created_at ASC
		LIMIT $3`, model.WorkItemStatusPending, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.WorkItem
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *workItemStore) Claim(ctx context.Context, id int64, claimedBy string, now time.Time) (bool, error) {
	// Row-scoped compare-and-set: succeeds only if the row is still PENDING
	// at update time. Zero rows affected means another claimant won.
	tag, err := s.q.Exec(ctx, `
		UPDATE work_items
		SET status = $3, claimed_by = $4, claimed_at = $5, heartbeat_at = $5
		WHERE id = $1 AND status = $2`,
		id, model.WorkItemStatusPending, model.WorkItemStatusInProgress, claimedBy, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *workItemStore) MarkDone(ctx context.Context, id int64) (bool, error) {
	tag, err := s.q.Exec(ctx, `
		UPDATE work_items
		SET status = $3, last_error = NULL
		WHERE id = $1 AND status = $2`,
		id, model.WorkItemStatusInProgress, model.WorkItemStatusDone)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *workItemStore) MarkFailed(ctx context.Context, id int64, lastError string, nextAttemptAt time.Time) (bool, error) {
	tag, err := s.q.Exec(ctx, `
		UPDATE work_items
		SET status = $3, last_error = $4, attempts = attempts + 1, next_attempt_at = $5
		WHERE id = $1 AND status = $2`,
		id, model.WorkItemStatusInProgress, model.WorkItemStatusFailed, lastError, nextAttemptAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *workItemStore) RequeueElapsed(ctx context.Context, now time.Time, maxAttempts int32) (int64, error) {
	tag, err := s.q.Exec(ctx, `
		UPDATE work_items
		SET status = $2, claimed_by = NULL, claimed_at = NULL
		WHERE status = $1
		  AND next_attempt_at IS NOT NULL AND next_attempt_at <= $3
		  AND attempts < $4`,
		model.WorkItemStatusFailed, model.WorkItemStatusPending, now, maxAttempts)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanWorkItem(row pgx.Row) (*model.WorkItem, error) {
	var w model.WorkItem
	if err := row.Scan(
		&w.ID, &w.Type, &w.KeyText, &w.KeyHash, &w.Payload,
		&w.Status, &w.Attempts, &w.NextAttemptAt, &w.ClaimedBy,
		&w.ClaimedAt, &w.HeartbeatAt, &w.LastError, &w.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &w, nil
}
