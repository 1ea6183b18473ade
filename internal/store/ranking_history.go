package store

import (
	"context"

	"climbx.app/pipeline/core/db"
	"climbx.app/pipeline/internal/model"
)

type rankingHistoryStore struct {
	q db.DBTX
}

func newRankingHistoryStore(q db.DBTX) RankingHistoryStore {
	return &rankingHistoryStore{q: q}
}

func (s *rankingHistoryStore) Insert(ctx context.Context, history *model.RankingHistory) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO user_ranking_histories (id, user_id, criteria, value, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		history.ID, history.UserID, history.Criteria, history.Value, history.CreatedAt)
	return err
}

func (s *rankingHistoryStore) ListByUser(ctx context.Context, userID int64, criteria model.Criteria, limit int32) ([]model.RankingHistory, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, user_id, criteria, value, created_at
		FROM user_ranking_histories
		WHERE user_id = $1 AND criteria = $2
		ORDER BY created_at DESC
		LIMIT $3`, userID, criteria, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var histories []model.RankingHistory
	for rows.Next() {
		var h model.RankingHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.Criteria, &h.Value, &h.CreatedAt); err != nil {
			return nil, err
		}
		histories = append(histories, h)
	}
	return histories, rows.Err()
}
