package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"finboard/internal/core"
)

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, creds core.LoginCredentials) (core.AuthToken, error) {
	return call[core.AuthToken](ctx, c, http.MethodPost, "/auth/login", nil, creds)
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, creds core.SignupCredentials) (core.AuthToken, error) {
	return call[core.AuthToken](ctx, c, http.MethodPost, "/auth/register", nil, creds)
}

func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	return call[[]core.Category](ctx, c, http.MethodGet, "/category", nil, nil)
}

func (c *Client) CreateCategory(ctx context.Context, req core.CategoryRequest) (core.Category, error) {
	return call[core.Category](ctx, c, http.MethodPost, "/category", nil, req)
}

func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	_, err := call[struct{}](ctx, c, http.MethodDelete, "/category/delete/"+strconv.FormatInt(id, 10), nil, nil)
	return err
}

// ListTransactions applies the filter server-side; "all" values are omitted.
func (c *Client) ListTransactions(ctx context.Context, filter core.TransactionFilter) ([]core.Transaction, error) {
	q := url.Values{}
	if filter.Type != "" {
		q.Set("type", string(filter.Type))
	}
	if filter.CategoryID != 0 {
		q.Set("categoryId", strconv.FormatInt(filter.CategoryID, 10))
	}
	return call[[]core.Transaction](ctx, c, http.MethodGet, "/transaction", q, nil)
}

func (c *Client) CreateTransaction(ctx context.Context, req core.TransactionRequest) (core.Transaction, error) {
	return call[core.Transaction](ctx, c, http.MethodPost, "/transaction", nil, req)
}

func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	_, err := call[struct{}](ctx, c, http.MethodDelete, "/transaction/delete/"+strconv.FormatInt(id, 10), nil, nil)
	return err
}

func (c *Client) SpendingByCategory(ctx context.Context) ([]core.SpendingByCategory, error) {
	return call[[]core.SpendingByCategory](ctx, c, http.MethodGet, "/transaction/spending-by-category", nil, nil)
}

func (c *Client) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	return call[[]core.Budget](ctx, c, http.MethodGet, "/budget", nil, nil)
}

func (c *Client) CreateBudget(ctx context.Context, req core.BudgetRequest) (core.Budget, error) {
	return call[core.Budget](ctx, c, http.MethodPost, "/budget", nil, req)
}

type budgetUpdate struct {
	core.BudgetRequest
	ID int64 `json:"id"`
}

// UpdateBudget is a POST to /budget carrying the id.
func (c *Client) UpdateBudget(ctx context.Context, id int64, req core.BudgetRequest) (core.Budget, error) {
	return call[core.Budget](ctx, c, http.MethodPost, "/budget", nil, budgetUpdate{BudgetRequest: req, ID: id})
}

func (c *Client) DeleteBudget(ctx context.Context, id int64) error {
	_, err := call[struct{}](ctx, c, http.MethodDelete, "/budget/"+strconv.FormatInt(id, 10), nil, nil)
	return err
}

func (c *Client) DashboardSummary(ctx context.Context) (core.DashboardSummary, error) {
	return call[core.DashboardSummary](ctx, c, http.MethodGet, "/dashboard/summary", nil, nil)
}

func (c *Client) MonthlyForecast(ctx context.Context, userID string) (core.MonthlyForecast, error) {
	return call[core.MonthlyForecast](ctx, c, http.MethodGet, "/forecast/monthly/"+url.PathEscape(userID), nil, nil)
}
