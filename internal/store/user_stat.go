package store

import (
	"context"
	"errors"
	"time"

	"climbx.app/pipeline/core/db"
	"climbx.app/pipeline/internal/model"
	"github.com/jackc/pgx/v5"
)

type userStatStore struct {
	q db.DBTX
}

func newUserStatStore(q db.DBTX) UserStatStore {
	return &userStatStore{q: q}
}

const userStatColumns = `user_id, rating, top_problem_rating, submission_count, solved_count, contribution_count, longest_streak, updated_at`

func (s *userStatStore) GetByUserID(ctx context.Context, userID int64) (*model.UserStat, error) {
	row := s.q.QueryRow(ctx, `
		SELECT `+userStatColumns+`
		FROM user_stats
		WHERE user_id = $1`, userID)

	stat, err := scanUserStat(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return stat, nil
}

func (s *userStatStore) Insert(ctx context.Context, stat *model.UserStat) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO user_stats (`+userStatColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		stat.UserID, stat.Rating, stat.TopProblemRating, stat.SubmissionCount,
		stat.SolvedCount, stat.ContributionCount, stat.LongestStreak, stat.UpdatedAt)
	return err
}

func (s *userStatStore) UpdateRating(ctx context.Context, userID int64, rating, topProblemRating int) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE user_stats
		SET rating = $2, top_problem_rating = $3, updated_at = $4
		WHERE user_id = $1`,
		userID, rating, topProblemRating, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *userStatStore) IncrementSolved(ctx context.Context, userID int64) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE user_stats
		SET solved_count = solved_count + 1, updated_at = $2
		WHERE user_id = $1`,
		userID, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *userStatStore) ListAfter(ctx context.Context, afterUserID int64, limit int32) ([]model.UserStat, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+userStatColumns+`
		FROM user_stats
		WHERE user_id > $1
		ORDER BY user_id ASC
		LIMIT $2`, afterUserID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.UserStat
	for rows.Next() {
		stat, err := scanUserStat(rows)
		if err != nil {
			return nil, err
		}
		stats = append(stats, *stat)
	}
	return stats, rows.Err()
}

func scanUserStat(row pgx.Row) (*model.UserStat, error) {
	var u model.UserStat
	if err := row.Scan(
		&u.UserID, &u.Rating, &u.TopProblemRating, &u.SubmissionCount,
		&u.SolvedCount, &u.ContributionCount, &u.LongestStreak, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
