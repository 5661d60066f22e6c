// Package render draws dashboard views for the terminal.
package render

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"finboard/internal/core"
	"finboard/internal/services"
)

const (
	colorText    lipgloss.Color = "#cdd6f4"
	colorSubtext lipgloss.Color = "#a6adc8"
	colorOverlay lipgloss.Color = "#7f849c"
	colorBlue    lipgloss.Color = "#89b4fa"
	colorGreen   lipgloss.Color = "#a6e3a1"
	colorYellow  lipgloss.Color = "#f9e2af"
	colorRed     lipgloss.Color = "#f38ba8"
	colorMauve   lipgloss.Color = "#cba6f7"
)

const (
	barWidth       = 24
	panelWidth     = 38
	topCategories  = 5
	maxBudgetCards = 6
)

type Renderer struct {
	r *lipgloss.Renderer

	title  lipgloss.Style
	label  lipgloss.Style
	muted  lipgloss.Style
	panel  lipgloss.Style
	good   lipgloss.Style
	warn   lipgloss.Style
	bad    lipgloss.Style
	accent lipgloss.Style
}

// New returns a renderer whose color profile matches w. Non-terminal
// writers get plain text.
func New(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		r:      r,
		title:  r.NewStyle().Foreground(colorBlue).Bold(true),
		label:  r.NewStyle().Foreground(colorText),
		muted:  r.NewStyle().Foreground(colorOverlay),
		panel:  r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorOverlay).Padding(0, 1).Width(panelWidth),
		good:   r.NewStyle().Foreground(colorGreen),
		warn:   r.NewStyle().Foreground(colorYellow),
		bad:    r.NewStyle().Foreground(colorRed),
		accent: r.NewStyle().Foreground(colorMauve),
	}
}

// Dashboard renders the whole report: summary, budgets, spending and the
// forecast panel.
func (rd *Renderer) Dashboard(d services.DashboardView, f services.ForecastView) string {
	top := lipgloss.JoinHorizontal(lipgloss.Top, rd.Summary(d), rd.Forecast(f))
	parts := []string{top, rd.Budgets(d.Budgets), rd.Spending(d.Spending)}
	if len(d.Errors) > 0 {
		parts = append(parts, rd.errors(d.Errors))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (rd *Renderer) Summary(d services.DashboardView) string {
	balance := rd.good
	if d.Summary.Balance.IsNegative() {
		balance = rd.bad
	}
	lines := []string{
		rd.title.Render("Summary"),
		rd.row("Income", rd.good.Render(core.FormatCurrency(d.Summary.TotalIncome))),
		rd.row("Expenses", rd.bad.Render(core.FormatCurrency(d.Summary.TotalExpense))),
		rd.row("Balance", balance.Render(core.FormatCurrency(d.Summary.Balance))),
		rd.row("Savings rate", rd.label.Render(core.FormatPercent(d.Split.SavingsRate))),
		rd.muted.Render(fmt.Sprintf("%d transactions", d.Totals.Count)),
	}
	if d.Stale {
		lines = append(lines, rd.warn.Render("showing cached data"))
	}
	return rd.panel.Render(strings.Join(lines, "\n"))
}

// Budgets renders one card per budget of the overview's month.
func (rd *Renderer) Budgets(o core.BudgetOverview) string {
	header := rd.title.Render(fmt.Sprintf("Budgets %02d/%d", o.Month, o.Year))
	if o.BudgetCount == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, rd.muted.Render("No budgets for this month"))
	}

	cards := make([]string, 0, len(o.Items))
	for i, p := range o.Items {
		if i == maxBudgetCards {
			break
		}
		cards = append(cards, rd.budgetCard(p))
	}
	var rows []string
	for i := 0; i < len(cards); i += 2 {
		end := min(i+2, len(cards))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	footer := rd.muted.Render(fmt.Sprintf("%s of %s spent, %d over, %d near limit",
		core.FormatCurrency(o.TotalSpent), core.FormatCurrency(o.TotalBudgeted), o.OverBudgetCount, o.NearLimitCount))
	return lipgloss.JoinVertical(lipgloss.Left, append(append([]string{header}, rows...), footer)...)
}

func (rd *Renderer) budgetCard(p core.BudgetProgress) string {
	style := rd.good
	switch {
	case p.IsOverBudget:
		style = rd.bad
	case p.NearLimit:
		style = rd.warn
	}
	name := p.Budget.CategoryName
	if name == "" {
		name = fmt.Sprintf("Category %d", p.Budget.CategoryID)
	}
	lines := []string{
		rd.label.Bold(true).Render(name),
		style.Render(Bar(p.BarWidth(), barWidth)) + " " + style.Render(core.FormatPercent(p.Percentage)),
		rd.muted.Render(fmt.Sprintf("%s / %s", core.FormatCurrency(p.Spent), core.FormatCurrency(p.Budget.Amount))),
		style.Render(p.RemainingLabel()),
	}
	return rd.panel.Render(strings.Join(lines, "\n"))
}

// Spending renders the top categories by amount spent.
func (rd *Renderer) Spending(b core.CategoryBreakdown) string {
	lines := []string{rd.title.Render("Spending by category")}
	top := b.Top(topCategories)
	if len(top) == 0 {
		lines = append(lines, rd.muted.Render("No spending yet"))
		return strings.Join(lines, "\n")
	}
	width := 0
	for _, c := range top {
		width = max(width, lipgloss.Width(c.CategoryName))
	}
	for _, c := range top {
		name := c.CategoryName + strings.Repeat(" ", width-lipgloss.Width(c.CategoryName))
		lines = append(lines, fmt.Sprintf("%s  %s %s %s",
			rd.label.Render(name),
			rd.accent.Render(Bar(c.Percentage, barWidth)),
			rd.label.Render(core.FormatCurrency(c.TotalAmount)),
			rd.muted.Render(core.FormatPercent(c.Percentage))))
	}
	lines = append(lines, rd.muted.Render(fmt.Sprintf("Total %s across %d transactions",
		core.FormatCurrency(b.TotalSpending), b.TotalTransactions)))
	return strings.Join(lines, "\n")
}

// Forecast renders the forecast, or the unlock progress while the gate is
// closed.
func (rd *Renderer) Forecast(f services.ForecastView) string {
	lines := []string{rd.title.Render("Forecast")}
	switch {
	case f.Locked:
		lines = append(lines,
			rd.accent.Render(Bar(f.UnlockProgress, barWidth))+" "+rd.muted.Render(core.FormatPercent(f.UnlockProgress)),
			rd.muted.Width(panelWidth-2).Render(f.UnlockMessage))
	case f.Forecast == nil:
		msg := "Forecast unavailable"
		if f.Err != nil {
			msg = f.Err.Error()
		}
		lines = append(lines, rd.bad.Render(msg))
	default:
		fc := f.Forecast
		lines = append(lines,
			rd.row("Estimated", rd.label.Render(core.FormatCurrency(fc.EstimatedSpending))),
			rd.row("Spent so far", rd.label.Render(core.FormatCurrency(fc.TotalSpentSoFar))),
			rd.row("Daily average", rd.label.Render(core.FormatCurrency(fc.AverageDailySpend))))
		if p := f.Progress; p != nil {
			track := rd.good.Render("on track")
			if !p.OnTrack {
				track = rd.bad.Render("off track")
			}
			lines = append(lines, rd.row("Days left", rd.label.Render(fmt.Sprint(p.DaysRemaining))), track)
		}
		for _, w := range f.Critical {
			lines = append(lines, rd.bad.Width(panelWidth-2).Render("! "+w.Message))
		}
		for _, tip := range fc.TipSummary {
			lines = append(lines, rd.muted.Width(panelWidth-2).Render("- "+tip.Message))
		}
		if f.Stale {
			lines = append(lines, rd.warn.Render("showing cached forecast"))
		}
	}
	return rd.panel.Render(strings.Join(lines, "\n"))
}

func (rd *Renderer) errors(errs map[string]string) string {
	sections := make([]string, 0, len(errs))
	for s := range errs {
		sections = append(sections, s)
	}
	sort.Strings(sections)
	lines := make([]string, 0, len(sections))
	for _, s := range sections {
		lines = append(lines, rd.bad.Render(fmt.Sprintf("%s: %s", s, errs[s])))
	}
	return strings.Join(lines, "\n")
}

func (rd *Renderer) row(label, value string) string {
	return rd.muted.Render(fmt.Sprintf("%-14s", label)) + value
}

// Bar draws a pct-full bar of width cells; pct is clamped to 0..100.
func Bar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	pct = math.Max(0, math.Min(100, pct))
	filled := int(math.Round(pct / 100 * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
