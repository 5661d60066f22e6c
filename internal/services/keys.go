package services

import (
	"time"

	"finboard/internal/core"
	"finboard/internal/query"
)

var (
	UserKey         = query.NewKey("user")
	CategoriesKey   = query.NewKey("categories")
	TransactionsKey = query.NewKey("transactions")
	SpendingKey     = query.NewKey("transactions", "spending-by-category")
	BudgetsKey      = query.NewKey("budgets")
	DashboardKey    = query.NewKey("dashboard")
	SummaryKey      = query.NewKey("dashboard", "summary")
	ForecastKeyRoot = query.NewKey("forecast")
)

const (
	CategoriesStaleTime   = 10 * time.Minute
	TransactionsStaleTime = 5 * time.Minute
	SpendingStaleTime     = 5 * time.Minute
	BudgetsStaleTime      = 5 * time.Minute
	SummaryStaleTime      = 5 * time.Minute
	ForecastStaleTime     = 10 * time.Minute

	spendingRetries = 3
	forecastRetries = 2
)

// TransactionListKey is the cache key for one filtered transaction list.
func TransactionListKey(f core.TransactionFilter) query.Key {
	return TransactionsKey.With("type="+f.TypeParam(), "category="+f.CategoryParam())
}

// ForecastKey is the cache key of a user's monthly forecast.
func ForecastKey(userID string) query.Key {
	return ForecastKeyRoot.With("monthly", userID)
}
