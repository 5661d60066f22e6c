package sheets

import (
	"sort"

	"finboard/internal/core"
)

var (
	BudgetHeader      = []any{"Month", "Category", "Budget", "Spent", "Remaining", "Used %", "Status"}
	TransactionHeader = []any{"Date", "Type", "Category", "Description", "Amount"}
)

// BudgetRows renders the report's budgets for its month, header first.
// Amounts are plain decimal strings so the sheet can parse them.
func BudgetRows(r Report) [][]any {
	rows := [][]any{BudgetHeader}
	for _, p := range r.Budgets {
		if p.Budget.Month != r.Month || p.Budget.Year != r.Year {
			continue
		}
		rows = append(rows, []any{
			p.Budget.Month,
			categoryName(r, p.Budget.CategoryID, p.Budget.CategoryName),
			core.FormatAmount(p.Budget.Amount),
			core.FormatAmount(p.Spent),
			core.FormatAmount(p.Remaining),
			core.FormatPercent(p.Percentage),
			p.Status(),
		})
	}
	return rows
}

// TransactionRows renders the report's transactions dated in its month,
// oldest first.
func TransactionRows(r Report) [][]any {
	start, end := core.MonthRange(r.Month, r.Year, nil)
	txs := make([]core.Transaction, 0, len(r.Transactions))
	for _, tx := range r.Transactions {
		d := tx.Date.UTC()
		if d.Before(start) || d.After(end) {
			continue
		}
		txs = append(txs, tx)
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.Before(txs[j].Date.Time) })

	rows := [][]any{TransactionHeader}
	for _, tx := range txs {
		name := ""
		if tx.Category != nil {
			name = tx.Category.Name
		}
		rows = append(rows, []any{
			tx.Date.Format("2006-01-02"),
			string(tx.Type),
			categoryName(r, tx.CategoryID, name),
			tx.Description,
			core.FormatAmount(tx.Amount),
		})
	}
	return rows
}

func categoryName(r Report, id int64, fallback string) string {
	if n, ok := r.CategoryNames[id]; ok && n != "" {
		return n
	}
	if fallback != "" {
		return fallback
	}
	return "Uncategorized"
}
