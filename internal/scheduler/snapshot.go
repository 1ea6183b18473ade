package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"climbx.app/pipeline/common/id"
	"climbx.app/pipeline/internal/model"
	"climbx.app/pipeline/internal/service"
)

// snapshotCriteria lists the ranking dimensions snapshotted per user.
var snapshotCriteria = []model.Criteria{
	model.CriteriaRating,
	model.CriteriaLongestStreak,
	model.CriteriaSolvedCount,
}

// SnapshotJob writes one ranking-history row per criteria per user, each
// user in its own transaction so one bad row cannot abort the sweep. After
// the sweep it enqueues a RANKING_HISTORY_SNAPSHOT marker keyed by the
// calendar date; the unique key makes rerunning the job on the same day a
// no-op for the marker.
type SnapshotJob struct {
	txRunner  service.TxRunner
	workQueue service.WorkQueueService
	interval  time.Duration
	pageSize  int32
	logger    *slog.Logger
}

func NewSnapshotJob(txRunner service.TxRunner, workQueue service.WorkQueueService, interval time.Duration, pageSize int32, logger *slog.Logger) *SnapshotJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotJob{
		txRunner:  txRunner,
		workQueue: workQueue,
		interval:  interval,
		pageSize:  pageSize,
		logger:    logger,
	}
}

func (j *SnapshotJob) Name() string            { return "ranking-snapshot" }
func (j *SnapshotJob) Interval() time.Duration { return j.interval }

func (j *SnapshotJob) RunOnce(ctx context.Context) error {
	var (
		snapshotted int
		failed      int
		afterUserID int64
	)

	for {
		var stats []model.UserStat
		err := j.txRunner.WithTx(ctx, func(sp service.StoreProvider) error {
			var listErr error
			stats, listErr = sp.UserStats().ListAfter(ctx, afterUserID, j.pageSize)
			return listErr
		})
		if err != nil {
			return fmt.Errorf("listing user stats: %w", err)
		}
		if len(stats) == 0 {
			break
		}

		for i := range stats {
			if err := j.snapshotUser(ctx, &stats[i]); err != nil {
				failed++
				j.logger.ErrorContext(ctx, "user snapshot failed",
					"user_id", stats[i].UserID,
					"error", err)
				continue
			}
			snapshotted++
		}

		afterUserID = stats[len(stats)-1].UserID
		if int32(len(stats)) < j.pageSize {
			break
		}
	}

	date := time.Now().UTC().Format("2006-01-02")
	payload, _ := json.Marshal(map[string]string{"date": date})
	if _, err := j.workQueue.EnqueueUnique(ctx, model.WorkItemTypeRankingHistorySnapshot, date, payload); err != nil {
		return fmt.Errorf("enqueueing snapshot marker: %w", err)
	}

	j.logger.InfoContext(ctx, "snapshot run complete",
		"date", date,
		"snapshotted", snapshotted,
		"failed", failed)
	return nil
}

func (j *SnapshotJob) snapshotUser(ctx context.Context, stat *model.UserStat) error {
	now := time.Now().UTC()
	return j.txRunner.WithTx(ctx, func(sp service.StoreProvider) error {
		for _, criteria := range snapshotCriteria {
			history := &model.RankingHistory{
				ID:        id.New(),
				UserID:    stat.UserID,
				Criteria:  criteria,
				Value:     criteriaValue(stat, criteria),
				CreatedAt: now,
			}
			if err := sp.RankingHistories().Insert(ctx, history); err != nil {
				return fmt.Errorf("inserting %s history: %w", criteria, err)
			}
		}
		return nil
	})
}

func criteriaValue(stat *model.UserStat, criteria model.Criteria) int {
	switch criteria {
	case model.CriteriaRating:
		return stat.Rating
	case model.CriteriaLongestStreak:
		return stat.LongestStreak
	case model.CriteriaSolvedCount:
		return stat.SolvedCount
	default:
		return 0
	}
}
