package service_test

import (
	"context"
	"time"

	"climbx.app/pipeline/internal/model"
	"climbx.app/pipeline/internal/service"
	"climbx.app/pipeline/internal/store"
	"github.com/google/uuid"
)

type mockEventStore struct {
	findByTypeAndDedupHashFn func(ctx context.Context, eventType model.EventType, dedupHash []byte) (*model.Event, error)
	insertFn                 func(ctx context.Context, event *model.Event) error
	listUnprocessedAfterFn   func(ctx context.Context, after time.Time, afterID uuid.UUID, limit int32) ([]model.Event, error)
	capturedEvent            *model.Event
	insertCalls              int
}

func (m *mockEventStore) GetByID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	return nil, store.ErrNotFound
}

func (m *mockEventStore) FindByTypeAndDedupHash(ctx context.Context, eventType model.EventType, dedupHash []byte) (*model.Event, error) {
	if m.findByTypeAndDedupHashFn != nil {
		return m.findByTypeAndDedupHashFn(ctx, eventType, dedupHash)
	}
	return nil, store.ErrNotFound
}

func (m *mockEventStore) Insert(ctx context.Context, event *model.Event) error {
	m.insertCalls++
	m.capturedEvent = event
	if m.insertFn != nil {
		return m.insertFn(ctx, event)
	}
	return nil
}

func (m *mockEventStore) ListUnprocessedAfter(ctx context.Context, after time.Time, afterID uuid.UUID, limit int32) ([]model.Event, error) {
	if m.listUnprocessedAfterFn != nil {
		return m.listUnprocessedAfterFn(ctx, after, afterID, limit)
	}
	return nil, nil
}

func (m *mockEventStore) ListAfter(ctx context.Context, after time.Time, afterID uuid.UUID, limit int32) ([]model.Event, error) {
	return nil, nil
}

func (m *mockEventStore) MarkProcessed(ctx context.Context, eventID uuid.UUID, at time.Time) error {
	return nil
}

type mockWorkItemStore struct {
	findByTypeAndKeyHashFn func(ctx context.Context, typ model.WorkItemType, keyHash []byte) (*model.WorkItem, error)
	insertFn               func(ctx context.Context, item *model.WorkItem) error
	claimFn                func(ctx context.Context, id int64, claimedBy string, now time.Time) (bool, error)
	capturedItem           *model.WorkItem
	insertCalls            int
}

func (m *mockWorkItemStore) GetByID(ctx context.Context, id int64) (*model.WorkItem, error) {
	return nil, store.ErrNotFound
}

func (m *mockWorkItemStore) FindByTypeAndKeyHash(ctx context.Context, typ model.WorkItemType, keyHash []byte) (*model.WorkItem, error) {
	if m.findByTypeAndKeyHashFn != nil {
		return m.findByTypeAndKeyHashFn(ctx, typ, keyHash)
	}
	return nil, store.ErrNotFound
}

func (m *mockWorkItemStore) Insert(ctx context.Context, item *model.WorkItem) error {
	m.insertCalls++
	m.capturedItem = item
	if m.insertFn != nil {
		return m.insertFn(ctx, item)
	}
	return nil
}

func (m *mockWorkItemStore) ListClaimable(ctx context.Context, now time.Time, limit int32) ([]model.WorkItem, error) {
	return nil, nil
}

func (m *mockWorkItemStore) Claim(ctx context.Context, id int64, claimedBy string, now time.Time) (bool, error) {
	if m.claimFn != nil {
		return m.claimFn(ctx, id, claimedBy, now)
	}
	return true, nil
}

func (m *mockWorkItemStore) MarkDone(ctx context.Context, id int64) (bool, error) {
	return true, nil
}

func (m *mockWorkItemStore) MarkFailed(ctx context.Context, id int64, lastError string, nextAttemptAt time.Time) (bool, error) {
	return true, nil
}

func (m *mockWorkItemStore) RequeueElapsed(ctx context.Context, now time.Time, maxAttempts int32) (int64, error) {
	return 0, nil
}

type mockProblemStore struct {
	getByIDFn     func(ctx context.Context, problemID uuid.UUID) (*model.Problem, error)
	updateTierFn  func(ctx context.Context, problemID uuid.UUID, rating int, tier model.Tier, tags []string) error
	updateCalls   int
	capturedTier  model.Tier
	capturedTags  []string
	capturedScore int
}

func (m *mockProblemStore) GetByID(ctx context.Context, problemID uuid.UUID) (*model.Problem, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, problemID)
	}
	return nil, store.ErrNotFound
}

func (m *mockProblemStore) Insert(ctx context.Context, problem *model.Problem) error {
	return nil
}

func (m *mockProblemStore) UpdateTier(ctx context.Context, problemID uuid.UUID, rating int, tier model.Tier, tags []string) error {
	m.updateCalls++
	m.capturedScore = rating
	m.capturedTier = tier
	m.capturedTags = tags
	if m.updateTierFn != nil {
		return m.updateTierFn(ctx, problemID, rating, tier, tags)
	}
	return nil
}

type mockUserStatStore struct {
	getByUserIDFn      func(ctx context.Context, userID int64) (*model.UserStat, error)
	updateRatingFn     func(ctx context.Context, userID int64, rating, topProblemRating int) error
	incrementSolvedFn  func(ctx context.Context, userID int64) error
	listAfterFn        func(ctx context.Context, afterUserID int64, limit int32) ([]model.UserStat, error)
	incrementCalls     int
	updateRatingCalls  int
	capturedRating     int
	capturedTopProblem int
}

func (m *mockUserStatStore) GetByUserID(ctx context.Context, userID int64) (*model.UserStat, error) {
	if m.getByUserIDFn != nil {
		return m.getByUserIDFn(ctx, userID)
	}
	return nil, store.ErrNotFound
}

func (m *mockUserStatStore) Insert(ctx context.Context, stat *model.UserStat) error {
	return nil
}

func (m *mockUserStatStore) UpdateRating(ctx context.Context, userID int64, rating, topProblemRating int) error {
	m.updateRatingCalls++
	m.capturedRating = rating
	m.capturedTopProblem = topProblemRating
	if m.updateRatingFn != nil {
		return m.updateRatingFn(ctx, userID, rating, topProblemRating)
	}
	return nil
}

func (m *mockUserStatStore) IncrementSolved(ctx context.Context, userID int64) error {
	m.incrementCalls++
	if m.incrementSolvedFn != nil {
		return m.incrementSolvedFn(ctx, userID)
	}
	return nil
}

func (m *mockUserStatStore) ListAfter(ctx context.Context, afterUserID int64, limit int32) ([]model.UserStat, error) {
	if m.listAfterFn != nil {
		return m.listAfterFn(ctx, afterUserID, limit)
	}
	return nil, nil
}

type mockSubmissionStore struct {
	getByIDFn                   func(ctx context.Context, videoID uuid.UUID) (*model.Submission, error)
	setStatusFn                 func(ctx context.Context, videoID uuid.UUID, status model.SubmissionStatus) error
	listAcceptedUserIDsFn       func(ctx context.Context, problemID uuid.UUID, afterUserID int64, limit int32) ([]int64, error)
	topAcceptedProblemRatingsFn func(ctx context.Context, userID int64, limit int32) ([]int, error)
	capturedStatus              model.SubmissionStatus
}

func (m *mockSubmissionStore) GetByID(ctx context.Context, videoID uuid.UUID) (*model.Submission, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, videoID)
	}
	return nil, store.ErrNotFound
}

func (m *mockSubmissionStore) Insert(ctx context.Context, submission *model.Submission) error {
	return nil
}

func (m *mockSubmissionStore) SetStatus(ctx context.Context, videoID uuid.UUID, status model.SubmissionStatus) error {
	m.capturedStatus = status
	if m.setStatusFn != nil {
		return m.setStatusFn(ctx, videoID, status)
	}
	return nil
}

func (m *mockSubmissionStore) ListAcceptedUserIDs(ctx context.Context, problemID uuid.UUID, afterUserID int64, limit int32) ([]int64, error) {
	if m.listAcceptedUserIDsFn != nil {
		return m.listAcceptedUserIDsFn(ctx, problemID, afterUserID, limit)
	}
	return nil, nil
}

func (m *mockSubmissionStore) TopAcceptedProblemRatings(ctx context.Context, userID int64, limit int32) ([]int, error) {
	if m.topAcceptedProblemRatingsFn != nil {
		return m.topAcceptedProblemRatingsFn(ctx, userID, limit)
	}
	return nil, nil
}

type mockRankingHistoryStore struct {
	insertFn    func(ctx context.Context, history *model.RankingHistory) error
	inserted    []model.RankingHistory
	insertCalls int
}

func (m *mockRankingHistoryStore) Insert(ctx context.Context, history *model.RankingHistory) error {
	m.insertCalls++
	m.inserted = append(m.inserted, *history)
	if m.insertFn != nil {
		return m.insertFn(ctx, history)
	}
	return nil
}

func (m *mockRankingHistoryStore) ListByUser(ctx context.Context, userID int64, criteria model.Criteria, limit int32) ([]model.RankingHistory, error) {
	return nil, nil
}

// mockStoreProvider bundles the store mocks behind service.StoreProvider.
type mockStoreProvider struct {
	events           *mockEventStore
	workItems        *mockWorkItemStore
	problems         *mockProblemStore
	userStats        *mockUserStatStore
	submissions      *mockSubmissionStore
	rankingHistories *mockRankingHistoryStore
}

func newMockStoreProvider() *mockStoreProvider {
	return &mockStoreProvider{
		events:           &mockEventStore{},
		workItems:        &mockWorkItemStore{},
		problems:         &mockProblemStore{},
		userStats:        &mockUserStatStore{},
		submissions:      &mockSubmissionStore{},
		rankingHistories: &mockRankingHistoryStore{},
	}
}

func (m *mockStoreProvider) Events() store.EventStore                    { return m.events }
func (m *mockStoreProvider) WorkItems() store.WorkItemStore              { return m.workItems }
func (m *mockStoreProvider) Problems() store.ProblemStore                { return m.problems }
func (m *mockStoreProvider) UserStats() store.UserStatStore              { return m.userStats }
func (m *mockStoreProvider) Submissions() store.SubmissionStore          { return m.submissions }
func (m *mockStoreProvider) RankingHistories() store.RankingHistoryStore { return m.rankingHistories }

// mockTxRunner runs the function against the given provider with no real
// transaction semantics.
type mockTxRunner struct {
	sp      *mockStoreProvider
	txCalls int
}

func (m *mockTxRunner) WithTx(ctx context.Context, fn func(stores service.StoreProvider) error) error {
	m.txCalls++
	return fn(m.sp)
}
