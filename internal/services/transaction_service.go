package services

import (
	"context"

	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/query"
)

// TransactionService caches transaction lists per filter.
type TransactionService struct {
	base
}

func NewTransactionService(api FinanceAPI, q *query.Client, opts ...Option) *TransactionService {
	return &TransactionService{base: newBase(api, q, log.ComponentQuery, opts)}
}

func (s *TransactionService) List(ctx context.Context, filter core.TransactionFilter) (query.Result[[]core.Transaction], error) {
	return query.Fetch(ctx, s.q, query.Options{Key: TransactionListKey(filter), StaleTime: TransactionsStaleTime},
		func(ctx context.Context) ([]core.Transaction, error) {
			return s.api.ListTransactions(ctx, filter)
		})
}

// Count is the size of the unfiltered list.
func (s *TransactionService) Count(ctx context.Context) (int, error) {
	res, err := s.List(ctx, core.TransactionFilter{})
	if err != nil {
		return 0, err
	}
	return len(res.Data), nil
}

// TransactionPage is one page of a filtered, searched list plus the totals of
// the whole unfiltered list.
type TransactionPage struct {
	Filter core.TransactionFilter `json:"filter"`
	Search string                 `json:"search,omitempty"`
	core.Page
	Totals core.TransactionTotals `json:"totals"`
	Stale  bool                   `json:"stale,omitempty"`
	Err    error                  `json:"-"`
}

// Browse serves the transactions view: filter server-side, then search and
// paginate client-side.
func (s *TransactionService) Browse(ctx context.Context, filter core.TransactionFilter, search string, page int) (TransactionPage, error) {
	res, err := s.List(ctx, filter)
	if err != nil {
		return TransactionPage{}, err
	}
	all := res
	if !filter.IsAll() {
		if all, err = s.List(ctx, core.TransactionFilter{}); err != nil {
			return TransactionPage{}, err
		}
	}
	matched := core.SearchTransactions(res.Data, search)
	return TransactionPage{
		Filter: filter,
		Search: search,
		Page:   core.Paginate(matched, page, core.DefaultPageSize),
		Totals: core.SumTransactions(all.Data),
		Stale:  res.Stale,
		Err:    res.Err,
	}, nil
}

func (s *TransactionService) Create(ctx context.Context, req core.TransactionRequest) (core.Transaction, error) {
	if err := req.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx, err := query.Mutate(ctx, s.q, query.Mutation[core.Transaction]{
		Name:     "create_transaction",
		Strategy: query.InvalidateAll,
		Target:   TransactionsKey,
		Cascade:  []query.Key{DashboardKey},
	}, func(ctx context.Context) (core.Transaction, error) {
		return s.api.CreateTransaction(ctx, req)
	})
	if err != nil {
		return core.Transaction{}, err
	}
	s.audit.LogMutation(ctx, EntityTransaction, tx.ID, log.OpCreate)
	publish(ctx, s.notifier, s.logger, EntityTransaction, log.OpCreate, tx.ID)
	return tx, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	_, err := query.Mutate(ctx, s.q, query.Mutation[struct{}]{
		Name:     "delete_transaction",
		Strategy: query.InvalidateAll,
		Target:   TransactionsKey,
		Cascade:  []query.Key{DashboardKey},
	}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.api.DeleteTransaction(ctx, id)
	})
	if err != nil {
		return err
	}
	s.audit.LogMutation(ctx, EntityTransaction, id, log.OpDelete)
	publish(ctx, s.notifier, s.logger, EntityTransaction, log.OpDelete, id)
	return nil
}

// SpendingByCategory is the server-side aggregation. Client errors are not
// retried.
func (s *TransactionService) SpendingByCategory(ctx context.Context) (query.Result[[]core.SpendingByCategory], error) {
	return query.Fetch(ctx, s.q, query.Options{Key: SpendingKey, StaleTime: SpendingStaleTime, Retry: query.RetryUnless4xx(spendingRetries)},
		s.api.SpendingByCategory)
}
