package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPageSize is the transaction list page size.
const DefaultPageSize = 20

// CategorySpending is one row of the spending-by-category breakdown.
type CategorySpending struct {
	CategoryID        int64           `json:"categoryId"`
	CategoryName      string          `json:"categoryName"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	TransactionCount  int             `json:"transactionCount"`
	Percentage        float64         `json:"percentage"`
	AvgPerTransaction decimal.Decimal `json:"avgPerTransaction"`
}

// CategoryBreakdown is the full breakdown with its totals.
type CategoryBreakdown struct {
	Rows              []CategorySpending `json:"rows"`
	TotalSpending     decimal.Decimal    `json:"totalSpending"`
	TotalTransactions int                `json:"totalTransactions"`
}

// IncomeExpenseSplit is the income vs expense share of a summary.
type IncomeExpenseSplit struct {
	IncomePercentage  float64 `json:"incomePercentage"`
	ExpensePercentage float64 `json:"expensePercentage"`
	// Ratio is income / |expense|; 0 when there is no expense.
	Ratio float64 `json:"ratio"`
	// SavingsRate is balance / income * 100; 0 when there is no income.
	SavingsRate float64 `json:"savingsRate"`
}

// TransactionTotals are the income and expense sums of a list.
type TransactionTotals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
	Count   int             `json:"count"`
}

// Page is one page of a transaction list.
type Page struct {
	Items      []Transaction `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalItems int           `json:"totalItems"`
	TotalPages int           `json:"totalPages"`
}

// AggregateByCategory groups the given transactions by category. Category
// names come from the embedded category, falling back to names.
func AggregateByCategory(txs []Transaction, names map[int64]string) CategoryBreakdown {
	type acc struct {
		name  string
		total decimal.Decimal
		count int
	}
	byID := map[int64]*acc{}
	for _, tx := range txs {
		a, ok := byID[tx.CategoryID]
		if !ok {
			a = &acc{total: decimal.Zero}
			byID[tx.CategoryID] = a
		}
		if a.name == "" {
			if tx.Category != nil && tx.Category.Name != "" {
				a.name = tx.Category.Name
			} else {
				a.name = names[tx.CategoryID]
			}
		}
		a.total = a.total.Add(tx.Amount.Abs())
		a.count++
	}

	rows := make([]SpendingByCategory, 0, len(byID))
	for id, a := range byID {
		rows = append(rows, SpendingByCategory{
			CategoryID:       id,
			CategoryName:     a.name,
			TotalAmount:      a.total,
			TransactionCount: a.count,
		})
	}
	return BreakdownFromSpending(rows)
}

// BreakdownFromSpending adds percentages and averages to server computed
// spending rows. Percentages are all zero when the grand total is zero.
// Rows are sorted by total descending, ties by category id.
func BreakdownFromSpending(rows []SpendingByCategory) CategoryBreakdown {
	total := decimal.Zero
	count := 0
	for _, r := range rows {
		total = total.Add(r.TotalAmount)
		count += r.TransactionCount
	}

	out := make([]CategorySpending, 0, len(rows))
	for _, r := range rows {
		avg := decimal.Zero
		if r.TransactionCount > 0 {
			avg = r.TotalAmount.Div(decimal.NewFromInt(int64(r.TransactionCount))).Round(2)
		}
		out = append(out, CategorySpending{
			CategoryID:        r.CategoryID,
			CategoryName:      r.CategoryName,
			TotalAmount:       r.TotalAmount,
			TransactionCount:  r.TransactionCount,
			Percentage:        Percent(r.TotalAmount, total),
			AvgPerTransaction: avg,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].TotalAmount.Cmp(out[j].TotalAmount); c != 0 {
			return c > 0
		}
		return out[i].CategoryID < out[j].CategoryID
	})

	return CategoryBreakdown{Rows: out, TotalSpending: total, TotalTransactions: count}
}

// Top returns at most n rows.
func (b CategoryBreakdown) Top(n int) []CategorySpending {
	if n >= len(b.Rows) {
		return b.Rows
	}
	return b.Rows[:n]
}

// SplitIncomeExpense computes the income/expense pie of a summary.
func SplitIncomeExpense(s DashboardSummary) IncomeExpenseSplit {
	expense := s.TotalExpense.Abs()
	whole := s.TotalIncome.Add(expense)
	split := IncomeExpenseSplit{}
	if s.TotalIncome.IsPositive() {
		split.IncomePercentage = Percent(s.TotalIncome, whole)
		split.SavingsRate = Percent(s.Balance, s.TotalIncome)
	}
	if expense.IsPositive() {
		split.ExpensePercentage = Percent(expense, whole)
		split.Ratio = s.TotalIncome.Div(expense).InexactFloat64()
	}
	return split
}

// SearchTransactions keeps transactions whose description contains term
// (case-insensitive) or whose amount contains it. An empty term keeps all.
func SearchTransactions(txs []Transaction, term string) []Transaction {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return txs
	}
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if strings.Contains(strings.ToLower(tx.Description), term) ||
			strings.Contains(tx.Amount.String(), term) {
			out = append(out, tx)
		}
	}
	return out
}

// SumTransactions totals income and expense by absolute amount.
func SumTransactions(txs []Transaction) TransactionTotals {
	t := TransactionTotals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			t.Income = t.Income.Add(tx.Amount.Abs())
		case Expense:
			t.Expense = t.Expense.Add(tx.Amount.Abs())
		}
	}
	t.Net = t.Income.Sub(t.Expense)
	t.Count = len(txs)
	return t
}

// Paginate returns page (1-based) of txs. Out of range pages are clamped.
func Paginate(txs []Transaction, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(txs)
	pages := (total + size - 1) / size
	if page < 1 {
		page = 1
	}
	if pages > 0 && page > pages {
		page = pages
	}
	start := (page - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page{
		Items:      txs[start:end],
		Page:       page,
		PageSize:   size,
		TotalItems: total,
		TotalPages: pages,
	}
}

// CategoriesOfType keeps the categories matching t.
func CategoriesOfType(cats []Category, t EntryType) []Category {
	out := make([]Category, 0, len(cats))
	for _, c := range cats {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// CategoryNames indexes category names by id.
func CategoryNames(cats []Category) map[int64]string {
	out := make(map[int64]string, len(cats))
	for _, c := range cats {
		out[c.ID] = c.Name
	}
	return out
}
