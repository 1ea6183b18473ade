package scheduler_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"climbx.app/pipeline/common/id"
	"climbx.app/pipeline/internal/model"
	"climbx.app/pipeline/internal/scheduler"
)

var _ = Describe("SnapshotJob", func() {
	var (
		sp        *fakeStoreProvider
		txRunner  *fakeTxRunner
		workQueue *fakeWorkQueue
		job       *scheduler.SnapshotJob
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		sp = newFakeStoreProvider()
		txRunner = &fakeTxRunner{sp: sp}
		workQueue = &fakeWorkQueue{}
		job = scheduler.NewSnapshotJob(txRunner, workQueue, 24*time.Hour, 2, nil)

		Expect(id.Init(1)).To(Succeed())
	})

	It("writes one row per criteria per user", func() {
		sp.userStats.stats = []model.UserStat{
			{UserID: 1, Rating: 900, LongestStreak: 12, SolvedCount: 30},
			{UserID: 2, Rating: 500, LongestStreak: 3, SolvedCount: 8},
			{UserID: 3, Rating: 100, LongestStreak: 1, SolvedCount: 2},
		}

		Expect(job.RunOnce(ctx)).To(Succeed())

		Expect(sp.rankingHistories.inserted).To(HaveLen(9))

		byUser := map[int64]map[model.Criteria]int{}
		for _, h := range sp.rankingHistories.inserted {
			if byUser[h.UserID] == nil {
				byUser[h.UserID] = map[model.Criteria]int{}
			}
			byUser[h.UserID][h.Criteria] = h.Value
		}
		Expect(byUser[1]).To(Equal(map[model.Criteria]int{
			model.CriteriaRating:        900,
			model.CriteriaLongestStreak: 12,
			model.CriteriaSolvedCount:   30,
		}))
		Expect(byUser[2][model.CriteriaSolvedCount]).To(Equal(8))
	})

	It("enqueues one marker keyed by the calendar date", func() {
		Expect(job.RunOnce(ctx)).To(Succeed())

		Expect(workQueue.enqueued).To(HaveLen(1))
		marker := workQueue.enqueued[0]
		Expect(marker.Type).To(Equal(model.WorkItemTypeRankingHistorySnapshot))
		Expect(marker.KeyText).To(Equal(time.Now().UTC().Format("2006-01-02")))

		// A rerun the same day targets the same key; dedup collapses it.
		Expect(job.RunOnce(ctx)).To(Succeed())
		Expect(workQueue.enqueued[1].KeyText).To(Equal(marker.KeyText))
	})

	It("isolates one user's failure from the rest of the sweep", func() {
		sp.userStats.stats = []model.UserStat{
			{UserID: 1, Rating: 900},
			{UserID: 2, Rating: 500},
			{UserID: 3, Rating: 100},
		}
		sp.rankingHistories.insertFn = func(_ context.Context, h *model.RankingHistory) error {
			if h.UserID == 2 {
				return errors.New("constraint violation")
			}
			return nil
		}

		Expect(job.RunOnce(ctx)).To(Succeed())

		var users []int64
		for _, h := range sp.rankingHistories.inserted {
			users = append(users, h.UserID)
		}
		Expect(users).To(ContainElements(int64(1), int64(3)))
		Expect(users).NotTo(ContainElement(int64(2)))
		Expect(workQueue.enqueued).To(HaveLen(1))
	})
})
