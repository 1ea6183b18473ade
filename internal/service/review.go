package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"climbx.app/pipeline/internal/model"
	"climbx.app/pipeline/internal/rating"
	"github.com/google/uuid"
)

// topProblemWindow bounds how many of a user's best problems feed the rating.
const topProblemWindow = 50

// SubmissionReviewService is the thin domain call site that demonstrates the
// outbox contract: the submission status change, the stat update and the
// event row all commit in one transaction.
type SubmissionReviewService interface {
	Review(ctx context.Context, videoID uuid.UUID, status model.SubmissionStatus) error
}

type submissionReviewService struct {
	txRunner TxRunner
	outbox   OutboxService
	logger   *slog.Logger
}

func NewSubmissionReviewService(txRunner TxRunner, outbox OutboxService, logger *slog.Logger) SubmissionReviewService {
	if logger == nil {
		logger = slog.Default()
	}
	return &submissionReviewService{txRunner: txRunner, outbox: outbox, logger: logger}
}

func (s *submissionReviewService) Review(ctx context.Context, videoID uuid.UUID, status model.SubmissionStatus) error {
	if status == model.SubmissionStatusPending {
		return fmt.Errorf("cannot review a submission back to PENDING")
	}

	return s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		submission, err := sp.Submissions().GetByID(ctx, videoID)
		if err != nil {
			return fmt.Errorf("fetching submission: %w", err)
		}
		if submission.Status != model.SubmissionStatusPending {
			return fmt.Errorf("submission %s is not pending", videoID)
		}

		if err := sp.Submissions().SetStatus(ctx, videoID, status); err != nil {
			return fmt.Errorf("updating submission status: %w", err)
		}

		if status != model.SubmissionStatusAccepted {
			return nil
		}

		if err := sp.UserStats().IncrementSolved(ctx, submission.UserID); err != nil {
			return fmt.Errorf("incrementing solved count: %w", err)
		}

		if err := RefreshUserRating(ctx, sp, submission.UserID); err != nil {
			return fmt.Errorf("refreshing user rating: %w", err)
		}

		payload, _ := json.Marshal(map[string]string{
			"userId":    strconv.FormatInt(submission.UserID, 10),
			"problemId": submission.ProblemID.String(),
		})

		// Same transaction as the review itself: if recording fails the
		// whole review rolls back.
		_, err = s.outbox.RecordEvent(ctx, sp, RecordEventParams{
			AggregateType: "user",
			AggregateID:   strconv.FormatInt(submission.UserID, 10),
			EventType:     model.EventTypeUserSolvedProblem,
			DedupKey:      videoID.String(),
			Payload:       payload,
		})
		return err
	})
}

// ProblemTierService applies a recomputed tier to a problem and records the
// PROBLEM_TIER_CHANGED event in the same transaction. The fan-out to solver
// ratings happens later on the drain path.
type ProblemTierService interface {
	ChangeTier(ctx context.Context, problemID uuid.UUID, newTier model.Tier) error
}

type problemTierService struct {
	txRunner TxRunner
	outbox   OutboxService
	logger   *slog.Logger
}

func NewProblemTierService(txRunner TxRunner, outbox OutboxService, logger *slog.Logger) ProblemTierService {
	if logger == nil {
		logger = slog.Default()
	}
	return &problemTierService{txRunner: txRunner, outbox: outbox, logger: logger}
}

func (s *problemTierService) ChangeTier(ctx context.Context, problemID uuid.UUID, newTier model.Tier) error {
	return s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		problem, err := sp.Problems().GetByID(ctx, problemID)
		if err != nil {
			return fmt.Errorf("fetching problem: %w", err)
		}
		if problem.Tier == newTier {
			return nil
		}

		// Tag list resets on tier change; tag priorities are not recomputed
		// on this path.
		if err := sp.Problems().UpdateTier(ctx, problemID, newTier.Value(), newTier, []string{}); err != nil {
			return fmt.Errorf("updating problem tier: %w", err)
		}

		payload, _ := json.Marshal(map[string]string{
			"problemId": problemID.String(),
			"newTier":   string(newTier),
		})

		_, err = s.outbox.RecordEvent(ctx, sp, RecordEventParams{
			AggregateType: "problem",
			AggregateID:   problemID.String(),
			EventType:     model.EventTypeProblemTierChanged,
			DedupKey:      fmt.Sprintf("%s|%s", problemID, newTier),
			Payload:       payload,
		})
		return err
	})
}

// RefreshUserRating recomputes one user's rating from current stats and the
// ratings of their best accepted problems, then persists the new totals.
// Shared by the review path, the tier-change drain handler and the
// REFRESH_USER_RATING work item handler; always runs inside the caller's
// transaction.
func RefreshUserRating(ctx context.Context, sp StoreProvider, userID int64) error {
	stat, err := sp.UserStats().GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetching user stat: %w", err)
	}

	topRatings, err := sp.Submissions().TopAcceptedProblemRatings(ctx, userID, topProblemWindow)
	if err != nil {
		return fmt.Errorf("fetching top problem ratings: %w", err)
	}

	breakdown := rating.Compute(topRatings, stat.SubmissionCount, stat.SolvedCount, stat.ContributionCount)

	if err := sp.UserStats().UpdateRating(ctx, userID, breakdown.Total, breakdown.TopProblem); err != nil {
		return fmt.Errorf("persisting rating: %w", err)
	}
	return nil
}
