package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
	"finboard/internal/services"
)

func TestBar(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{0, "░░░░░░░░░░"},
		{50, "█████░░░░░"},
		{100, "██████████"},
		{140, "██████████"},
		{-5, "░░░░░░░░░░"},
	}
	for _, tt := range tests {
		if got := Bar(tt.pct, 10); got != tt.want {
			t.Errorf("Bar(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
	if Bar(50, 0) != "" {
		t.Error("zero width bar should be empty")
	}
}

func dashboardView() services.DashboardView {
	b := core.Budget{ID: 1, Amount: decimal.NewFromInt(100), Month: 6, Year: 2025, CategoryID: 3, CategoryName: "Dining"}
	txs := []core.Transaction{{ID: 1, Amount: decimal.NewFromInt(120), Type: core.Expense, CategoryID: 3, Date: core.NewDate(2025, 6, 2)}}
	summary := core.DashboardSummary{
		TotalIncome:  decimal.NewFromInt(1000),
		TotalExpense: decimal.NewFromInt(120),
		Balance:      decimal.NewFromInt(880),
	}
	return services.DashboardView{
		Summary:  summary,
		Split:    core.SplitIncomeExpense(summary),
		Totals:   core.SumTransactions(txs),
		Budgets:  core.ComputeBudgetOverview([]core.Budget{b}, txs, core.NewDate(2025, 6, 10).Time),
		Spending: core.BreakdownFromSpending([]core.SpendingByCategory{{CategoryID: 3, CategoryName: "Dining", TotalAmount: decimal.NewFromInt(120), TransactionCount: 1}}),
		Errors:   map[string]string{"spending": "Network error occurred"},
	}
}

func TestDashboardLockedForecast(t *testing.T) {
	rd := New(&bytes.Buffer{})
	gate := core.ForecastGate{UserID: "1", TransactionCount: 2}
	out := rd.Dashboard(dashboardView(), services.ForecastView{
		Gate:           gate,
		Locked:         true,
		UnlockProgress: gate.UnlockProgress(),
		UnlockMessage:  gate.UnlockMessage(),
	})

	for _, want := range []string{"Summary", "$880.00", "Budgets 06/2025", "Dining", "Over: 20.00", "Spending by category", "Forecast", "Add 3 more", "spending: Network error occurred"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("non-terminal output should have no escape codes")
	}
}

func TestForecastPanel(t *testing.T) {
	rd := New(&bytes.Buffer{})

	t.Run("unlocked", func(t *testing.T) {
		f := core.MonthlyForecast{
			EstimatedSpending: decimal.NewFromInt(900),
			TotalSpentSoFar:   decimal.NewFromInt(300),
			Warnings:          []core.ForecastWarning{{Message: "Rent due", Severity: "critical"}},
		}
		p := core.ForecastProgress{DaysRemaining: 12, OnTrack: true}
		out := rd.Forecast(services.ForecastView{Forecast: &f, Progress: &p, Critical: f.CriticalWarnings()})
		for _, want := range []string{"$900.00", "$300.00", "on track", "Rent due"} {
			if !strings.Contains(out, want) {
				t.Errorf("missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("failed without snapshot", func(t *testing.T) {
		out := rd.Forecast(services.ForecastView{Err: errors.New("boom")})
		if !strings.Contains(out, "boom") {
			t.Errorf("error not shown:\n%s", out)
		}
	})
}

func TestBudgetsEmpty(t *testing.T) {
	out := New(&bytes.Buffer{}).Budgets(core.BudgetOverview{Month: 1, Year: 2025})
	if !strings.Contains(out, "No budgets for this month") {
		t.Errorf("output = %q", out)
	}
}
