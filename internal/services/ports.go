package services

import (
	"context"
	"errors"

	"finboard/internal/core"
)

// ErrNotAuthenticated is returned when no valid session exists.
var ErrNotAuthenticated = errors.New("not authenticated")

// FinanceAPI is the remote API surface the services use. *api.Client
// implements it.
type FinanceAPI interface {
	Login(ctx context.Context, creds core.LoginCredentials) (core.AuthToken, error)
	Register(ctx context.Context, creds core.SignupCredentials) (core.AuthToken, error)

	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateCategory(ctx context.Context, req core.CategoryRequest) (core.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListTransactions(ctx context.Context, filter core.TransactionFilter) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, req core.TransactionRequest) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	SpendingByCategory(ctx context.Context) ([]core.SpendingByCategory, error)

	ListBudgets(ctx context.Context) ([]core.Budget, error)
	CreateBudget(ctx context.Context, req core.BudgetRequest) (core.Budget, error)
	UpdateBudget(ctx context.Context, id int64, req core.BudgetRequest) (core.Budget, error)
	DeleteBudget(ctx context.Context, id int64) error

	DashboardSummary(ctx context.Context) (core.DashboardSummary, error)
	MonthlyForecast(ctx context.Context, userID string) (core.MonthlyForecast, error)
}

// ChangeNotifier tells other finboard processes that an entity changed.
type ChangeNotifier interface {
	PublishChange(ctx context.Context, entity, operation string, id int64) error
}

// Entity names used in change events and logs.
const (
	EntityTransaction = "transaction"
	EntityCategory    = "category"
	EntityBudget      = "budget"
)
