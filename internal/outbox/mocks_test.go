package outbox_test

import (
	"context"
	"encoding/json"
	"time"

	"climbx.app/pipeline/internal/model"
	"climbx.app/pipeline/internal/service"
	"climbx.app/pipeline/internal/store"
	"github.com/google/uuid"
)

// Fakes embed the store interface so only the methods the processor touches
// need bodies; calling anything else panics loudly.

type fakeEventStore struct {
	store.EventStore
	markProcessedFn func(ctx context.Context, eventID uuid.UUID, at time.Time) error
	processedIDs    []uuid.UUID
}

func (f *fakeEventStore) MarkProcessed(ctx context.Context, eventID uuid.UUID, at time.Time) error {
	f.processedIDs = append(f.processedIDs, eventID)
	if f.markProcessedFn != nil {
		return f.markProcessedFn(ctx, eventID, at)
	}
	return nil
}

type fakeSubmissionStore struct {
	store.SubmissionStore
	listAcceptedUserIDsFn       func(ctx context.Context, problemID uuid.UUID, afterUserID int64, limit int32) ([]int64, error)
	topAcceptedProblemRatingsFn func(ctx context.Context, userID int64, limit int32) ([]int, error)
}

func (f *fakeSubmissionStore) ListAcceptedUserIDs(ctx context.Context, problemID uuid.UUID, afterUserID int64, limit int32) ([]int64, error) {
	if f.listAcceptedUserIDsFn != nil {
		return f.listAcceptedUserIDsFn(ctx, problemID, afterUserID, limit)
	}
	return nil, nil
}

func (f *fakeSubmissionStore) TopAcceptedProblemRatings(ctx context.Context, userID int64, limit int32) ([]int, error) {
	if f.topAcceptedProblemRatingsFn != nil {
		return f.topAcceptedProblemRatingsFn(ctx, userID, limit)
	}
	return nil, nil
}

type fakeUserStatStore struct {
	store.UserStatStore
	getByUserIDFn  func(ctx context.Context, userID int64) (*model.UserStat, error)
	ratedUserIDs   []int64
	updateRatingFn func(ctx context.Context, userID int64, rating, topProblemRating int) error
}

func (f *fakeUserStatStore) GetByUserID(ctx context.Context, userID int64) (*model.UserStat, error) {
	if f.getByUserIDFn != nil {
		return f.getByUserIDFn(ctx, userID)
	}
	return &model.UserStat{UserID: userID}, nil
}

func (f *fakeUserStatStore) UpdateRating(ctx context.Context, userID int64, rating, topProblemRating int) error {
	f.ratedUserIDs = append(f.ratedUserIDs, userID)
	if f.updateRatingFn != nil {
		return f.updateRatingFn(ctx, userID, rating, topProblemRating)
	}
	return nil
}

type fakeStoreProvider struct {
	events      *fakeEventStore
	submissions *fakeSubmissionStore
	userStats   *fakeUserStatStore
}

func newFakeStoreProvider() *fakeStoreProvider {
	return &fakeStoreProvider{
		events:      &fakeEventStore{},
		submissions: &fakeSubmissionStore{},
		userStats:   &fakeUserStatStore{},
	}
}

func (f *fakeStoreProvider) Events() store.EventStore                    { return f.events }
func (f *fakeStoreProvider) WorkItems() store.WorkItemStore              { return nil }
func (f *fakeStoreProvider) Problems() store.ProblemStore                { return nil }
func (f *fakeStoreProvider) UserStats() store.UserStatStore              { return f.userStats }
func (f *fakeStoreProvider) Submissions() store.SubmissionStore          { return f.submissions }
func (f *fakeStoreProvider) RankingHistories() store.RankingHistoryStore { return nil }

type fakeTxRunner struct {
	sp      *fakeStoreProvider
	txCalls int
	failOn  func(call int) error
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(stores service.StoreProvider) error) error {
	f.txCalls++
	if f.failOn != nil {
		if err := f.failOn(f.txCalls); err != nil {
			return err
		}
	}
	return fn(f.sp)
}

type fakeWorkQueue struct {
	enqueueFn func(ctx context.Context, typ model.WorkItemType, keyText string, payload json.RawMessage) (*model.WorkItem, error)
	enqueued  []model.WorkItem
}

func (f *fakeWorkQueue) EnqueueUnique(ctx context.Context, typ model.WorkItemType, keyText string, payload json.RawMessage) (*model.WorkItem, error) {
	item := model.WorkItem{Type: typ, KeyText: keyText, Payload: payload, Status: model.WorkItemStatusPending}
	f.enqueued = append(f.enqueued, item)
	if f.enqueueFn != nil {
		return f.enqueueFn(ctx, typ, keyText, payload)
	}
	return &item, nil
}

func (f *fakeWorkQueue) PickupCandidates(ctx context.Context, limit int32) ([]model.WorkItem, error) {
	return nil, nil
}

func (f *fakeWorkQueue) Claim(ctx context.Context, itemID int64, workerID string) (bool, error) {
	return true, nil
}

func (f *fakeWorkQueue) RequeueElapsed(ctx context.Context, maxAttempts int32) (int64, error) {
	return 0, nil
}
