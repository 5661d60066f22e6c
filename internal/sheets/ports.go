package sheets

import (
	"context"
	"time"

	"finboard/internal/core"
)

// Report is one export of budget progress and the transactions behind it.
type Report struct {
	Year          int
	Month         int
	GeneratedAt   time.Time
	Budgets       []core.BudgetProgress
	Transactions  []core.Transaction
	CategoryNames map[int64]string
}

// Ports for outbound adapters.
type (
	// ReportWriter stores a report and returns references to what it wrote.
	ReportWriter interface {
		WriteReport(ctx context.Context, r Report) (refs []string, err error)
	}
)
