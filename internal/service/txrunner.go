package service

import (
	"context"

	"climbx.app/pipeline/core/db"
	"climbx.app/pipeline/internal/store"
)

// StoreProvider exposes the stores bound to one transaction (or to the pool,
// outside of one).
type StoreProvider interface {
	Events() store.EventStore
	WorkItems() store.WorkItemStore
	Problems() store.ProblemStore
	UserStats() store.UserStatStore
	Submissions() store.SubmissionStore
	RankingHistories() store.RankingHistoryStore
}

// TxRunner runs functions within a transaction and provides stores bound to
// that transaction. Per-unit isolation throughout the pipeline is built on
// this: one event, one work item, one user snapshot per WithTx call.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

// NewTxRunner builds a TxRunner backed by the core DB.
func NewTxRunner(database *db.DB) TxRunner {
	return &dbTxRunner{db: database}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q db.DBTX) error {
		return fn(store.NewStores(q))
	})
}
