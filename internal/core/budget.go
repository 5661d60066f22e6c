package core

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrBudgetInPast    = errors.New("cannot create a budget for a past month")
	ErrDuplicateBudget = errors.New("a budget already exists for this category and month")
)

// NearLimitThreshold is the spend percentage above which a budget that is
// not yet over is flagged as near its limit.
const NearLimitThreshold = 80.0

// OverviewTopItems is how many budgets the overview lists.
const OverviewTopItems = 5

// BudgetProgress is the spent-vs-budget view of a single budget.
type BudgetProgress struct {
	Budget       Budget          `json:"budget"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	Percentage   float64         `json:"percentage"`
	IsOverBudget bool            `json:"isOverBudget"`
	NearLimit    bool            `json:"nearLimit"`
}

// BudgetOverview summarizes the budgets of one month.
type BudgetOverview struct {
	Month           int              `json:"month"`
	Year            int              `json:"year"`
	TotalBudgeted   decimal.Decimal  `json:"totalBudgeted"`
	TotalSpent      decimal.Decimal  `json:"totalSpent"`
	TotalRemaining  decimal.Decimal  `json:"totalRemaining"`
	OverBudgetCount int              `json:"overBudgetCount"`
	NearLimitCount  int              `json:"nearLimitCount"`
	BudgetCount     int              `json:"budgetCount"`
	Items           []BudgetProgress `json:"items"`
}

// MonthRange returns the first instant of the month and the last instant of
// its last day, in loc.
func MonthRange(month, year int, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// SpentInMonth sums the absolute amounts of the EXPENSE transactions of the
// budget's category whose date falls inside the budget's month.
func SpentInMonth(b Budget, txs []Transaction) decimal.Decimal {
	start, end := MonthRange(b.Month, b.Year, time.UTC)
	spent := decimal.Zero
	for _, tx := range txs {
		if tx.Type != Expense || tx.CategoryID != b.CategoryID {
			continue
		}
		d := tx.Date.Time.UTC()
		if d.Before(start) || d.After(end) {
			continue
		}
		spent = spent.Add(tx.Amount.Abs())
	}
	return spent
}

// ComputeBudgetProgress derives the progress of b from the transaction list.
func ComputeBudgetProgress(b Budget, txs []Transaction) BudgetProgress {
	spent := SpentInMonth(b, txs)
	pct := Percent(spent, b.Amount)
	over := spent.GreaterThan(b.Amount)
	return BudgetProgress{
		Budget:       b,
		Spent:        spent,
		Remaining:    b.Amount.Sub(spent),
		Percentage:   pct,
		IsOverBudget: over,
		NearLimit:    !over && pct > NearLimitThreshold,
	}
}

// ComputeAllBudgetProgress keeps the input order.
func ComputeAllBudgetProgress(budgets []Budget, txs []Transaction) []BudgetProgress {
	out := make([]BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, ComputeBudgetProgress(b, txs))
	}
	return out
}

// BarWidth is the progress bar fill, capped at 100.
func (p BudgetProgress) BarWidth() float64 {
	if p.Percentage > 100 {
		return 100
	}
	if p.Percentage < 0 {
		return 0
	}
	return p.Percentage
}

// RemainingLabel renders "Remaining: 12.50" or "Over: 25.00".
func (p BudgetProgress) RemainingLabel() string {
	if p.Remaining.IsNegative() {
		return "Over: " + FormatAmount(p.Remaining.Abs())
	}
	return "Remaining: " + FormatAmount(p.Remaining)
}

// Status is a one-word state used by views and exports.
func (p BudgetProgress) Status() string {
	switch {
	case p.IsOverBudget:
		return "over"
	case p.NearLimit:
		return "near_limit"
	default:
		return "on_track"
	}
}

// ComputeBudgetOverview summarizes the budgets of now's month.
func ComputeBudgetOverview(budgets []Budget, txs []Transaction, now time.Time) BudgetOverview {
	month, year := int(now.Month()), now.Year()
	ov := BudgetOverview{
		Month:          month,
		Year:           year,
		TotalBudgeted:  decimal.Zero,
		TotalSpent:     decimal.Zero,
		TotalRemaining: decimal.Zero,
		Items:          []BudgetProgress{},
	}
	var items []BudgetProgress
	for _, b := range budgets {
		if b.Month != month || b.Year != year {
			continue
		}
		p := ComputeBudgetProgress(b, txs)
		items = append(items, p)
		ov.TotalBudgeted = ov.TotalBudgeted.Add(b.Amount)
		ov.TotalSpent = ov.TotalSpent.Add(p.Spent)
		if p.IsOverBudget {
			ov.OverBudgetCount++
		}
		if p.NearLimit {
			ov.NearLimitCount++
		}
	}
	ov.TotalRemaining = ov.TotalBudgeted.Sub(ov.TotalSpent)
	ov.BudgetCount = len(items)
	if len(items) > OverviewTopItems {
		items = items[:OverviewTopItems]
	}
	if items != nil {
		ov.Items = items
	}
	return ov
}

// CheckBudgetTarget rejects creating a budget for a month before now's
// month. Edits are exempt.
func CheckBudgetTarget(req BudgetRequest, now time.Time, editing bool) error {
	if editing {
		return nil
	}
	if req.Year < now.Year() || (req.Year == now.Year() && req.Month < int(now.Month())) {
		return ErrBudgetInPast
	}
	return nil
}

// CheckDuplicateBudget enforces one budget per category and month. The
// budget being edited (editingID) is excluded; pass 0 when creating.
func CheckDuplicateBudget(existing []Budget, req BudgetRequest, editingID int64) error {
	for _, b := range existing {
		if editingID != 0 && b.ID == editingID {
			continue
		}
		if b.CategoryID == req.CategoryID && b.Month == req.Month && b.Year == req.Year {
			return ErrDuplicateBudget
		}
	}
	return nil
}

// SortBudgets orders budgets by year and month descending, then category name.
func SortBudgets(budgets []Budget) {
	sort.SliceStable(budgets, func(i, j int) bool {
		a, b := budgets[i], budgets[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		return a.CategoryName < b.CategoryName
	})
}
