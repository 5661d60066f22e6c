package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"finboard/internal/log"
	ports "finboard/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const transactionsBase = "Transactions"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base names without year (e.g. "Budgets"); the report year is prefixed.
	budgetsBase      string
	transactionsBase string
	logger           *log.Logger
}

// Ensure interface conformance
var _ ports.ReportWriter = (*Client)(nil)

// New creates a Sheets client for spreadsheetID using service account
// credentials from the environment. budgetsBase defaults to "Budgets".
func New(ctx context.Context, spreadsheetID, budgetsBase string, logger *log.Logger) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if strings.TrimSpace(budgetsBase) == "" {
		budgetsBase = "Budgets"
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:              svc,
		spreadsheetID:    spreadsheetID,
		budgetsBase:      budgetsBase,
		transactionsBase: transactionsBase,
		logger:           logger,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, logger *log.Logger) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		logger.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteReport replaces the month's block in the year's budget sheet and
// appends the month's transactions to the year's transaction sheet.
func (c *Client) WriteReport(ctx context.Context, r ports.Report) ([]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if r.Month < 1 || r.Month > 12 {
		return nil, fmt.Errorf("invalid month: %d", r.Month)
	}
	start := time.Now()

	budgets := yearPrefixedName(c.budgetsBase, r.Year)
	budgetRef, err := c.replace(ctx, budgets, monthColumnOffset(r.Month), ports.BudgetRows(r))
	if err != nil {
		return nil, err
	}

	txSheet := yearPrefixedName(c.transactionsBase, r.Year)
	txRef, err := c.appendRows(ctx, txSheet, ports.TransactionRows(r)[1:])
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "Report exported to Google Sheets",
		log.FieldOperation, log.OpExport,
		log.FieldYear, r.Year,
		log.FieldMonth, r.Month,
		log.FieldDuration, time.Since(start).Milliseconds())
	return []string{budgetRef, txRef}, nil
}

// replace clears the columns reserved for one month and writes rows there.
func (c *Client) replace(ctx context.Context, sheet string, col int, rows [][]any) (string, error) {
	first, last := columnName(col), columnName(col+budgetColumns-1)
	clearRange := fmt.Sprintf("%s!%s:%s", sheet, first, last)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rng := fmt.Sprintf("%s!%s1:%s%d", sheet, first, last, len(rows))
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}
	return rng, nil
}

func (c *Client) appendRows(ctx context.Context, sheet string, rows [][]any) (string, error) {
	rng := fmt.Sprintf("%s!A:E", sheet)
	if len(rows) == 0 {
		return rng, nil
	}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append %s: %w", rng, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// budgetColumns is the width of one month's block, plus a spacer column.
var budgetColumns = len(ports.BudgetHeader) + 1

// monthColumnOffset returns the zero-based first column of month's block.
func monthColumnOffset(month int) int {
	return (month - 1) * budgetColumns
}

// columnName converts a zero-based column index to A1 letters.
func columnName(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
