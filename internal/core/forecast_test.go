package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMonthlyForecastDecodesMixedShapes(t *testing.T) {
	body := `{
		"estimatedSpending": 1200,
		"averageDailySpend": 40,
		"totalSpentSoFar": 400,
		"timeRange": {"startDate": "2025-06-01", "endDate": "2025-06-30"},
		"tipSummary": ["Cook at home", {"category": "Food", "message": "Cut takeout", "priority": "high"}],
		"warnings": ["Spending is up", {"type": "overspending", "message": "Food over budget", "severity": "critical"}, {"type": "unusual_pattern", "message": "Odd", "severity": "info"}],
		"generatedAt": "2025-06-10T08:00:00Z"
	}`
	var f MonthlyForecast
	if err := json.Unmarshal([]byte(body), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(f.TipSummary) != 2 || !f.TipSummary[0].Plain || f.TipSummary[0].Message != "Cook at home" {
		t.Fatalf("plain tip not decoded: %+v", f.TipSummary)
	}
	if f.TipSummary[1].Plain || f.TipSummary[1].Priority != "high" {
		t.Fatalf("object tip not decoded: %+v", f.TipSummary[1])
	}
	crit := f.CriticalWarnings()
	if len(crit) != 1 || crit[0].Message != "Food over budget" {
		t.Fatalf("critical warnings = %+v", crit)
	}
	if got := f.TimeRange.EndTime(); !got.Equal(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("endDate fallback = %v", got)
	}

	out, err := json.Marshal(f.TipSummary)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back []any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if _, ok := back[0].(string); !ok {
		t.Fatalf("plain tip should encode as a string, got %T", back[0])
	}
}

func TestPlainWarningsAreNeverCritical(t *testing.T) {
	w := ForecastWarning{Message: "critical", Severity: "critical", Plain: true}
	if w.IsCritical() {
		t.Fatal("plain warning must not be critical")
	}
}

func TestDaysRemainingAt(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		tr   ForecastTimeRange
		want int
	}{
		{"end preferred over endDate", ForecastTimeRange{End: NewDate(2025, 6, 20), EndDate: NewDate(2025, 6, 30)}, 10},
		{"endDate fallback", ForecastTimeRange{EndDate: NewDate(2025, 6, 30)}, 20},
		{"partial day rounds up", ForecastTimeRange{End: Date{Time: now.Add(90 * time.Minute)}}, 1},
		{"past end floors at zero", ForecastTimeRange{End: NewDate(2025, 6, 1)}, 0},
		{"no end", ForecastTimeRange{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.DaysRemainingAt(now); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestForecastProgress(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	end := ForecastTimeRange{End: NewDate(2025, 6, 30)} // 15 days left -> time progress 50

	tests := []struct {
		name      string
		estimated string
		spent     string
		wantOn    bool
	}{
		{"behind time", "1000", "400", true},
		{"within tolerance", "1000", "600", true},
		{"ahead of time", "1000", "610", false},
		{"zero estimate treated as one", "0", "0.5", true},
		{"zero estimate overspent", "0", "1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := MonthlyForecast{EstimatedSpending: dec(tt.estimated), TotalSpentSoFar: dec(tt.spent), TimeRange: end}
			p := f.ProgressAt(now)
			if p.DaysRemaining != 15 {
				t.Fatalf("days remaining = %d", p.DaysRemaining)
			}
			if p.TimeProgress != 50 {
				t.Fatalf("time progress = %v", p.TimeProgress)
			}
			if p.OnTrack != tt.wantOn {
				t.Errorf("on track = %v (spending %.2f), want %v", p.OnTrack, p.SpendingProgress, tt.wantOn)
			}
		})
	}
}

func TestForecastGate(t *testing.T) {
	tests := []struct {
		gate     ForecastGate
		open     bool
		progress float64
		message  string
	}{
		{ForecastGate{UserID: "1", TransactionCount: 4}, false, 80, "Add 1 more transaction to unlock AI-powered spending forecasts"},
		{ForecastGate{UserID: "1", TransactionCount: 2}, false, 40, "Add 3 more transactions to unlock AI-powered spending forecasts"},
		{ForecastGate{UserID: "1", TransactionCount: 5}, true, 100, ""},
		{ForecastGate{UserID: "1", TransactionCount: 12}, true, 100, ""},
		{ForecastGate{UserID: "", TransactionCount: 12}, false, 100, ""},
	}
	for i, tt := range tests {
		if got := tt.gate.Open(); got != tt.open {
			t.Errorf("case %d: open = %v, want %v", i, got, tt.open)
		}
		if got := tt.gate.UnlockProgress(); got != tt.progress {
			t.Errorf("case %d: progress = %v, want %v", i, got, tt.progress)
		}
		if got := tt.gate.UnlockMessage(); got != tt.message {
			t.Errorf("case %d: message = %q, want %q", i, got, tt.message)
		}
	}
}
