package store

import (
	"context"
	"errors"

	"climbx.app/pipeline/core/db"
	"climbx.app/pipeline/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type submissionStore struct {
	q db.DBTX
}

func newSubmissionStore(q db.DBTX) SubmissionStore {
	return &submissionStore{q: q}
}

func (s *submissionStore) GetByID(ctx context.Context, videoID uuid.UUID) (*model.Submission, error) {
	row := s.q.QueryRow(ctx, `
		SELECT video_id, user_id, problem_id, status, created_at
		FROM submissions
		WHERE video_id = $1`, videoID)

	var sub model.Submission
	if err := row.Scan(&sub.VideoID, &sub.UserID, &sub.ProblemID, &sub.Status, &sub.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *submissionStore) Insert(ctx context.Context, submission *model.Submission) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO submissions (video_id, user_id, problem_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		submission.VideoID, submission.UserID, submission.ProblemID,
		submission.Status, submission.CreatedAt)
	return err
}

func (s *submissionStore) SetStatus(ctx context.Context, videoID uuid.UUID, status model.SubmissionStatus) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE submissions
		SET status = $2
		WHERE video_id = $1`, videoID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *submissionStore) ListAcceptedUserIDs(ctx context.Context, problemID uuid.UUID, afterUserID int64, limit int32) ([]int64, error) {
	rows, err := s.q.Query(ctx, `
		SELECT DISTINCT user_id
		FROM submissions
		WHERE problem_id = $1 AND status = $2 AND user_id > $3
		ORDER BY user_id ASC
		LIMIT $4`, problemID, model.SubmissionStatusAccepted, afterUserID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, rows.Err()
}

func (s *submissionStore) TopAcceptedProblemRatings(ctx context.Context, userID int64, limit int32) ([]int, error) {
	rows, err := s.q.Query(ctx, `
		SELECT p.rating
		FROM submissions sub
		JOIN problems p ON p.problem_id = sub.problem_id
		WHERE sub.user_id = $1 AND sub.status = $2
		GROUP BY p.problem_id, p.rating
		ORDER BY p.rating DESC
		LIMIT $3`, userID, model.SubmissionStatusAccepted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []int
	for rows.Next() {
		var r int
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}
