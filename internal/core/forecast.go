package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MinForecastTransactions is the history needed before forecasts are requested.
	MinForecastTransactions = 5

	// forecastMonthDays is the nominal month length used for time progress.
	forecastMonthDays = 30

	// onTrackTolerance is how many percentage points spending may run ahead
	// of time before the month is considered off track.
	onTrackTolerance = 10.0
)

type (
	MonthlyForecast struct {
		EstimatedSpending decimal.Decimal   `json:"estimatedSpending"`
		AverageDailySpend decimal.Decimal   `json:"averageDailySpend"`
		TotalSpentSoFar   decimal.Decimal   `json:"totalSpentSoFar"`
		TimeRange         ForecastTimeRange `json:"timeRange"`
		TipSummary        []ForecastTip     `json:"tipSummary"`
		Warnings          []ForecastWarning `json:"warnings"`
		GeneratedAt       Date              `json:"generatedAt"`
	}

	// ForecastTimeRange accepts both the {start,end} and {startDate,endDate}
	// shapes.
	ForecastTimeRange struct {
		Start         Date `json:"start"`
		End           Date `json:"end"`
		StartDate     Date `json:"startDate"`
		EndDate       Date `json:"endDate"`
		DaysRemaining *int `json:"daysRemaining,omitempty"`
	}

	// ForecastTip is either a structured tip or a plain string (Plain set).
	ForecastTip struct {
		Category string `json:"category,omitempty"`
		Message  string `json:"message"`
		Priority string `json:"priority,omitempty"`
		Plain    bool   `json:"-"`
	}

	// ForecastWarning is either a structured warning or a plain string
	// (Plain set). Plain warnings are never critical.
	ForecastWarning struct {
		Type     string `json:"type,omitempty"`
		Message  string `json:"message"`
		Severity string `json:"severity,omitempty"`
		Plain    bool   `json:"-"`
	}

	ForecastProgress struct {
		DaysRemaining    int     `json:"daysRemaining"`
		SpendingProgress float64 `json:"spendingProgress"`
		TimeProgress     float64 `json:"timeProgress"`
		OnTrack          bool    `json:"onTrack"`
	}

	// ForecastGate decides whether a forecast may be requested.
	ForecastGate struct {
		UserID           string `json:"userId"`
		TransactionCount int    `json:"transactionCount"`
	}
)

func isJSONString(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '"'
}

func (t *ForecastTip) UnmarshalJSON(b []byte) error {
	if isJSONString(b) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("forecast tip: %w", err)
		}
		*t = ForecastTip{Message: s, Plain: true}
		return nil
	}
	type alias ForecastTip
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return fmt.Errorf("forecast tip: %w", err)
	}
	*t = ForecastTip(a)
	return nil
}

func (t ForecastTip) MarshalJSON() ([]byte, error) {
	if t.Plain {
		return json.Marshal(t.Message)
	}
	type alias ForecastTip
	return json.Marshal(alias(t))
}

func (w *ForecastWarning) UnmarshalJSON(b []byte) error {
	if isJSONString(b) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("forecast warning: %w", err)
		}
		*w = ForecastWarning{Message: s, Plain: true}
		return nil
	}
	type alias ForecastWarning
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return fmt.Errorf("forecast warning: %w", err)
	}
	*w = ForecastWarning(a)
	return nil
}

func (w ForecastWarning) MarshalJSON() ([]byte, error) {
	if w.Plain {
		return json.Marshal(w.Message)
	}
	type alias ForecastWarning
	return json.Marshal(alias(w))
}

// IsCritical reports whether the warning is a structured critical warning.
func (w ForecastWarning) IsCritical() bool {
	return !w.Plain && w.Severity == "critical"
}

// EndTime returns end, falling back to endDate.
func (r ForecastTimeRange) EndTime() time.Time {
	if !r.End.IsZero() {
		return r.End.Time
	}
	return r.EndDate.Time
}

// StartTime returns start, falling back to startDate.
func (r ForecastTimeRange) StartTime() time.Time {
	if !r.Start.IsZero() {
		return r.Start.Time
	}
	return r.StartDate.Time
}

// DaysRemainingAt is the whole days from now to the range end, rounded up and
// never negative. A range without an end has 0 days remaining.
func (r ForecastTimeRange) DaysRemainingAt(now time.Time) int {
	end := r.EndTime()
	if end.IsZero() {
		return 0
	}
	days := math.Ceil(end.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}

// CriticalWarnings returns the structured critical warnings.
func (f MonthlyForecast) CriticalWarnings() []ForecastWarning {
	var out []ForecastWarning
	for _, w := range f.Warnings {
		if w.IsCritical() {
			out = append(out, w)
		}
	}
	return out
}

// ProgressAt compares spending progress against elapsed time. An estimate of
// zero is treated as one to keep the ratio finite.
func (f MonthlyForecast) ProgressAt(now time.Time) ForecastProgress {
	days := f.TimeRange.DaysRemainingAt(now)
	estimated := f.EstimatedSpending
	if estimated.IsZero() {
		estimated = decimal.NewFromInt(1)
	}
	spending := f.TotalSpentSoFar.Div(estimated).Mul(hundred).InexactFloat64()
	timeProgress := float64(forecastMonthDays-days) / forecastMonthDays * 100
	return ForecastProgress{
		DaysRemaining:    days,
		SpendingProgress: spending,
		TimeProgress:     timeProgress,
		OnTrack:          spending <= timeProgress+onTrackTolerance,
	}
}

// Open reports whether the user is resolved and has enough history.
func (g ForecastGate) Open() bool {
	return g.UserID != "" && g.TransactionCount >= MinForecastTransactions
}

// Remaining is how many transactions are still needed.
func (g ForecastGate) Remaining() int {
	if g.TransactionCount >= MinForecastTransactions {
		return 0
	}
	return MinForecastTransactions - g.TransactionCount
}

// UnlockProgress is the percentage toward the transaction threshold, capped at 100.
func (g ForecastGate) UnlockProgress() float64 {
	return math.Min(float64(g.TransactionCount)*100/MinForecastTransactions, 100)
}

// UnlockMessage tells the user how many more transactions are needed.
func (g ForecastGate) UnlockMessage() string {
	n := g.Remaining()
	if n == 0 {
		return ""
	}
	plural := "s"
	if n == 1 {
		plural = ""
	}
	return fmt.Sprintf("Add %d more transaction%s to unlock AI-powered spending forecasts", n, plural)
}
