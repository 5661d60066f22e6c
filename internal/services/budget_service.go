package services

import (
	"context"
	"slices"

	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/query"
)

// BudgetService patches the cached budget list in place on every write.
type BudgetService struct {
	base
	transactions *TransactionService
}

func NewBudgetService(api FinanceAPI, q *query.Client, transactions *TransactionService, opts ...Option) *BudgetService {
	return &BudgetService{
		base:         newBase(api, q, log.ComponentBudget, opts),
		transactions: transactions,
	}
}

func (s *BudgetService) List(ctx context.Context) (query.Result[[]core.Budget], error) {
	return query.Fetch(ctx, s.q, query.Options{Key: BudgetsKey, StaleTime: BudgetsStaleTime}, s.api.ListBudgets)
}

// checkRules applies the soft rules against the cached list. When the list
// cannot be loaded the server decides.
func (s *BudgetService) checkRules(ctx context.Context, req core.BudgetRequest, editingID int64) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if err := core.CheckBudgetTarget(req, s.now(), editingID != 0); err != nil {
		return err
	}
	res, err := s.List(ctx)
	if err != nil {
		s.logger.DebugContext(ctx, "Skipping duplicate check, budgets unavailable", log.FieldError, err)
		return nil
	}
	return core.CheckDuplicateBudget(res.Data, req, editingID)
}

func (s *BudgetService) Create(ctx context.Context, req core.BudgetRequest) (core.Budget, error) {
	if err := s.checkRules(ctx, req, 0); err != nil {
		return core.Budget{}, err
	}
	b, err := query.Mutate(ctx, s.q, query.Mutation[core.Budget]{
		Name:     "create_budget",
		Strategy: query.PatchInPlace,
		Target:   BudgetsKey,
		Patch: func(created core.Budget) error {
			_, err := query.UpdateData(s.q, BudgetsKey, func(old []core.Budget) []core.Budget {
				return append(old, created)
			})
			return err
		},
		Cascade: []query.Key{DashboardKey},
	}, func(ctx context.Context) (core.Budget, error) {
		return s.api.CreateBudget(ctx, req)
	})
	if err != nil {
		return core.Budget{}, err
	}
	s.audit.LogMutation(ctx, EntityBudget, b.ID, log.OpCreate)
	publish(ctx, s.notifier, s.logger, EntityBudget, log.OpCreate, b.ID)
	return b, nil
}

func (s *BudgetService) Update(ctx context.Context, id int64, req core.BudgetRequest) (core.Budget, error) {
	if err := s.checkRules(ctx, req, id); err != nil {
		return core.Budget{}, err
	}
	b, err := query.Mutate(ctx, s.q, query.Mutation[core.Budget]{
		Name:     "update_budget",
		Strategy: query.PatchInPlace,
		Target:   BudgetsKey,
		Patch: func(updated core.Budget) error {
			_, err := query.UpdateData(s.q, BudgetsKey, func(old []core.Budget) []core.Budget {
				out := make([]core.Budget, len(old))
				for i, b := range old {
					if b.ID == updated.ID {
						b = updated
					}
					out[i] = b
				}
				return out
			})
			return err
		},
		Cascade: []query.Key{DashboardKey},
	}, func(ctx context.Context) (core.Budget, error) {
		return s.api.UpdateBudget(ctx, id, req)
	})
	if err != nil {
		return core.Budget{}, err
	}
	s.audit.LogMutation(ctx, EntityBudget, b.ID, log.OpUpdate)
	publish(ctx, s.notifier, s.logger, EntityBudget, log.OpUpdate, b.ID)
	return b, nil
}

func (s *BudgetService) Delete(ctx context.Context, id int64) error {
	_, err := query.Mutate(ctx, s.q, query.Mutation[struct{}]{
		Name:     "delete_budget",
		Strategy: query.PatchInPlace,
		Target:   BudgetsKey,
		Patch: func(struct{}) error {
			_, err := query.UpdateData(s.q, BudgetsKey, func(old []core.Budget) []core.Budget {
				out := make([]core.Budget, 0, len(old))
				for _, b := range old {
					if b.ID != id {
						out = append(out, b)
					}
				}
				return out
			})
			return err
		},
		Cascade: []query.Key{DashboardKey},
	}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.api.DeleteBudget(ctx, id)
	})
	if err != nil {
		return err
	}
	s.audit.LogMutation(ctx, EntityBudget, id, log.OpDelete)
	publish(ctx, s.notifier, s.logger, EntityBudget, log.OpDelete, id)
	return nil
}

// Progress computes spent vs budget for every budget, newest month first.
func (s *BudgetService) Progress(ctx context.Context) ([]core.BudgetProgress, error) {
	budgets, txs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	budgets = slices.Clone(budgets)
	core.SortBudgets(budgets)
	return core.ComputeAllBudgetProgress(budgets, txs), nil
}

// Overview summarizes the current month's budgets.
func (s *BudgetService) Overview(ctx context.Context) (core.BudgetOverview, error) {
	budgets, txs, err := s.load(ctx)
	if err != nil {
		return core.BudgetOverview{}, err
	}
	return core.ComputeBudgetOverview(budgets, txs, s.now()), nil
}

func (s *BudgetService) load(ctx context.Context) ([]core.Budget, []core.Transaction, error) {
	b, err := s.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	t, err := s.transactions.List(ctx, core.TransactionFilter{})
	if err != nil {
		return nil, nil, err
	}
	return b.Data, t.Data, nil
}
