package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/query"
	"finboard/internal/sheets"
)

// ExportService writes a month's budget progress and transactions to a
// report sink, reading through the same caches the dashboard uses.
type ExportService struct {
	base
	budgets      *BudgetService
	transactions *TransactionService
	categories   *CategoryService
	writer       sheets.ReportWriter
}

func NewExportService(budgets *BudgetService, transactions *TransactionService, categories *CategoryService, writer sheets.ReportWriter, opts ...Option) *ExportService {
	return &ExportService{
		base:         newBase(nil, nil, log.ComponentSheets, opts),
		budgets:      budgets,
		transactions: transactions,
		categories:   categories,
		writer:       writer,
	}
}

// Export builds the report for month/year; zero values mean the current month.
func (s *ExportService) Export(ctx context.Context, year, month int) ([]string, error) {
	if s.writer == nil {
		return nil, fmt.Errorf("export: no report writer configured")
	}
	now := s.now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return nil, core.ErrInvalidMonth
	}

	var (
		progress []core.BudgetProgress
		txs      query.Result[[]core.Transaction]
		cats     query.Result[[]core.Category]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { progress, err = s.budgets.Progress(gctx); return })
	g.Go(func() (err error) { txs, err = s.transactions.List(gctx, core.TransactionFilter{}); return })
	g.Go(func() (err error) { cats, err = s.categories.List(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load report data: %w", err)
	}

	report := sheets.Report{
		Year:          year,
		Month:         month,
		GeneratedAt:   now,
		Budgets:       progress,
		Transactions:  txs.Data,
		CategoryNames: core.CategoryNames(cats.Data),
	}
	refs, err := s.writer.WriteReport(ctx, report)
	if err != nil {
		s.logger.ErrorContext(ctx, "Report export failed",
			log.FieldOperation, log.OpExport,
			log.FieldYear, year,
			log.FieldMonth, month,
			log.FieldError, err)
		return nil, fmt.Errorf("write report: %w", err)
	}
	s.logger.InfoContext(ctx, "Report exported",
		log.FieldOperation, log.OpExport,
		log.FieldYear, year,
		log.FieldMonth, month,
		"refs", refs)
	return refs, nil
}
