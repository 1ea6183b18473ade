package scheduler_test

import (
	"context"
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"climbx.app/pipeline/internal/model"
	"climbx.app/pipeline/internal/scheduler"
)

var _ = Describe("TranslateJob", func() {
	var (
		sp        *fakeStoreProvider
		workQueue *fakeWorkQueue
		job       *scheduler.TranslateJob
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		sp = newFakeStoreProvider()
		workQueue = &fakeWorkQueue{}
		job = scheduler.NewTranslateJob(sp.events, workQueue, time.Hour, 2, nil)
	})

	It("maps tier changes to UPDATE_PROBLEM_TIER keyed by the problem id", func() {
		e := eventAt(model.EventTypeProblemTierChanged, "b54c7a40-0000-4000-8000-000000000001", 0)
		e.Payload = json.RawMessage(`{"problemId":"b54c7a40-0000-4000-8000-000000000001","newTier":"G1"}`)
		sp.events.events = []model.Event{e}

		Expect(job.RunOnce(ctx)).To(Succeed())

		Expect(workQueue.enqueued).To(HaveLen(1))
		Expect(workQueue.enqueued[0].Type).To(Equal(model.WorkItemTypeUpdateProblemTier))
		Expect(workQueue.enqueued[0].KeyText).To(Equal(e.AggregateID))
		Expect(workQueue.enqueued[0].Payload).To(MatchJSON(e.Payload))
	})

	It("maps user activity events to REFRESH_USER_RATING keyed by the user id", func() {
		sp.events.events = []model.Event{
			eventAt(model.EventTypeUserSolvedProblem, "42", 0),
			eventAt(model.EventTypeUserDifficultyContributed, "43", time.Minute),
		}

		Expect(job.RunOnce(ctx)).To(Succeed())

		Expect(workQueue.enqueued).To(HaveLen(2))
		for _, item := range workQueue.enqueued {
			Expect(item.Type).To(Equal(model.WorkItemTypeRefreshUserRating))
		}
		Expect(workQueue.enqueued[0].KeyText).To(Equal("42"))
		Expect(workQueue.enqueued[1].KeyText).To(Equal("43"))
	})

	It("sweeps the whole ledger across pages", func() {
		for i := 0; i < 5; i++ {
			sp.events.events = append(sp.events.events,
				eventAt(model.EventTypeUserSolvedProblem, string(rune('1'+i)), time.Duration(i)*time.Minute))
		}

		Expect(job.RunOnce(ctx)).To(Succeed())
		Expect(workQueue.enqueued).To(HaveLen(5))
	})

	It("keeps sweeping when one event has no mapping", func() {
		sp.events.events = []model.Event{
			eventAt("SOMETHING_NEW", "x", 0),
			eventAt(model.EventTypeUserSolvedProblem, "42", time.Minute),
		}

		Expect(job.RunOnce(ctx)).To(Succeed())
		Expect(workQueue.enqueued).To(HaveLen(1))
		Expect(workQueue.enqueued[0].KeyText).To(Equal("42"))
	})
})
