package services

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/query"
)

const recentTransactions = 5

type DashboardService struct {
	base
	transactions *TransactionService
	categories   *CategoryService
	budgets      *BudgetService
}

func NewDashboardService(api FinanceAPI, q *query.Client, transactions *TransactionService, categories *CategoryService, budgets *BudgetService, opts ...Option) *DashboardService {
	return &DashboardService{
		base:         newBase(api, q, log.ComponentQuery, opts),
		transactions: transactions,
		categories:   categories,
		budgets:      budgets,
	}
}

func (s *DashboardService) Summary(ctx context.Context) (query.Result[core.DashboardSummary], error) {
	return query.Fetch(ctx, s.q, query.Options{Key: SummaryKey, StaleTime: SummaryStaleTime}, s.api.DashboardSummary)
}

// DashboardView is everything the dashboard page shows.
type DashboardView struct {
	Summary    core.DashboardSummary   `json:"summary"`
	Split      core.IncomeExpenseSplit `json:"split"`
	Totals     core.TransactionTotals  `json:"totals"`
	Budgets    core.BudgetOverview     `json:"budgets"`
	Spending   core.CategoryBreakdown  `json:"spending"`
	Recent     []core.Transaction      `json:"recent"`
	Categories []core.Category         `json:"categories"`
	Stale      bool                    `json:"stale,omitempty"`
	// Errors maps a section to the refetch error of the snapshot it shows.
	Errors map[string]string `json:"errors,omitempty"`
}

// Load fetches the dashboard's collections concurrently.
func (s *DashboardService) Load(ctx context.Context) (DashboardView, error) {
	var (
		summary    query.Result[core.DashboardSummary]
		budgets    query.Result[[]core.Budget]
		txs        query.Result[[]core.Transaction]
		categories query.Result[[]core.Category]
		spending   query.Result[[]core.SpendingByCategory]
		spendErr   error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { summary, err = s.Summary(gctx); return })
	g.Go(func() (err error) { budgets, err = s.budgets.List(gctx); return })
	g.Go(func() (err error) { txs, err = s.transactions.List(gctx, core.TransactionFilter{}); return })
	g.Go(func() (err error) { categories, err = s.categories.List(gctx); return })
	g.Go(func() error { spending, spendErr = s.transactions.SpendingByCategory(gctx); return nil })
	if err := g.Wait(); err != nil {
		return DashboardView{}, err
	}

	view := DashboardView{
		Summary:    summary.Data,
		Split:      core.SplitIncomeExpense(summary.Data),
		Totals:     core.SumTransactions(txs.Data),
		Budgets:    core.ComputeBudgetOverview(budgets.Data, txs.Data, s.now()),
		Spending:   s.spending(ctx, spending, spendErr, txs.Data, categories.Data),
		Recent:     latest(txs.Data, recentTransactions),
		Categories: categories.Data,
		Stale:      summary.Stale || budgets.Stale || txs.Stale || categories.Stale || spending.Stale,
	}
	if spendErr != nil {
		spending.Err = spendErr
	}
	for section, err := range map[string]error{
		"summary":      summary.Err,
		"budgets":      budgets.Err,
		"transactions": txs.Err,
		"categories":   categories.Err,
		"spending":     spending.Err,
	} {
		if err == nil {
			continue
		}
		if view.Errors == nil {
			view.Errors = make(map[string]string)
		}
		view.Errors[section] = err.Error()
	}
	return view, nil
}

// spending uses the server breakdown, falling back to aggregating the cached
// expenses when the spending read failed without a snapshot.
func (s *DashboardService) spending(ctx context.Context, res query.Result[[]core.SpendingByCategory], err error, txs []core.Transaction, cats []core.Category) core.CategoryBreakdown {
	if err == nil {
		return core.BreakdownFromSpending(res.Data)
	}
	s.logger.WarnContext(ctx, "Spending by category unavailable, aggregating locally", log.FieldError, err)
	expenses := core.TransactionFilter{Type: core.Expense}
	var rows []core.Transaction
	for _, tx := range txs {
		if expenses.Matches(tx) {
			rows = append(rows, tx)
		}
	}
	return core.AggregateByCategory(rows, core.CategoryNames(cats))
}

// latest returns the n most recent transactions by date.
func latest(txs []core.Transaction, n int) []core.Transaction {
	out := append([]core.Transaction(nil), txs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
