package store

import (
	"climbx.app/pipeline/core/db"
)

type Stores struct {
	q db.DBTX
}

func NewStores(q db.DBTX) *Stores {
	return &Stores{q: q}
}

func (s *Stores) Events() EventStore {
	return newEventStore(s.q)
}

func (s *Stores) WorkItems() WorkItemStore {
	return newWorkItemStore(s.q)
}

func (s *Stores) Problems() ProblemStore {
	return newProblemStore(s.q)
}

func (s *Stores) UserStats() UserStatStore {
	return newUserStatStore(s.q)
}

func (s *Stores) Submissions() SubmissionStore {
	return newSubmissionStore(s.q)
}

func (s *Stores) RankingHistories() RankingHistoryStore {
	return newRankingHistoryStore(s.q)
}
