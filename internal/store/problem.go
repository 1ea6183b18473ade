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

type problemStore struct {
	q db.DBTX
}

func newProblemStore(q db.DBTX) ProblemStore {
	return &problemStore{q: q}
}

func (s *problemStore) GetByID(ctx context.Context, problemID uuid.UUID) (*model.Problem, error) {
	row := s.q.QueryRow(ctx, `
		SELECT problem_id, rating, tier, tags, updated_at
		FROM problems
		WHERE problem_id = $1`, problemID)

	var p model.Problem
	if err := row.Scan(&p.ProblemID, &p.Rating, &p.Tier, &p.Tags, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *problemStore) Insert(ctx context.Context, problem *model.Problem) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO problems (problem_id, rating, tier, tags, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		problem.ProblemID, problem.Rating, problem.Tier, problem.Tags, problem.UpdatedAt)
	return err
}

func (s *problemStore) UpdateTier(ctx context.Context, problemID uuid.UUID, rating int, tier model.Tier, tags []string) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE problems
		SET rating = $2, tier = $3, tags = $4, updated_at = $5
		WHERE problem_id = $1`,
		problemID, rating, tier, tags, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
