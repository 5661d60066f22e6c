package core

import (
	"testing"
)

func TestAggregateByCategory(t *testing.T) {
	txs := []Transaction{
		{ID: 1, CategoryID: 1, Amount: dec("30"), Type: Expense, Category: &Category{ID: 1, Name: "Food"}},
		{ID: 2, CategoryID: 1, Amount: dec("20"), Type: Expense},
		{ID: 3, CategoryID: 2, Amount: dec("50"), Type: Expense},
	}
	b := AggregateByCategory(txs, map[int64]string{2: "Rent"})

	if len(b.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(b.Rows))
	}
	if !b.TotalSpending.Equal(dec("100")) || b.TotalTransactions != 3 {
		t.Fatalf("totals = %s / %d", b.TotalSpending, b.TotalTransactions)
	}
	// equal totals: ordered by category id
	food, rent := b.Rows[0], b.Rows[1]
	if food.CategoryName != "Food" || rent.CategoryName != "Rent" {
		t.Fatalf("names = %q, %q", food.CategoryName, rent.CategoryName)
	}
	if food.TransactionCount != 2 || food.Percentage != 50 || !food.AvgPerTransaction.Equal(dec("25")) {
		t.Errorf("food row = %+v", food)
	}
	if rent.Percentage != 50 {
		t.Errorf("rent percentage = %v", rent.Percentage)
	}
}

func TestBreakdownFromSpendingZeroTotal(t *testing.T) {
	rows := []SpendingByCategory{
		{CategoryID: 1, CategoryName: "A", TotalAmount: dec("0"), TransactionCount: 0},
		{CategoryID: 2, CategoryName: "B", TotalAmount: dec("0"), TransactionCount: 1},
	}
	b := BreakdownFromSpending(rows)
	for _, r := range b.Rows {
		if r.Percentage != 0 {
			t.Fatalf("percentage should be 0 when the grand total is 0, got %v", r.Percentage)
		}
	}
}

func TestBreakdownSortsByTotal(t *testing.T) {
	b := BreakdownFromSpending([]SpendingByCategory{
		{CategoryID: 1, TotalAmount: dec("10"), TransactionCount: 1},
		{CategoryID: 2, TotalAmount: dec("70"), TransactionCount: 1},
		{CategoryID: 3, TotalAmount: dec("20"), TransactionCount: 1},
	})
	want := []int64{2, 3, 1}
	for i, id := range want {
		if b.Rows[i].CategoryID != id {
			t.Fatalf("row %d = %d, want %d", i, b.Rows[i].CategoryID, id)
		}
	}
	if len(b.Top(2)) != 2 || len(b.Top(10)) != 3 {
		t.Fatal("Top should cap at the requested count")
	}
}

func TestSplitIncomeExpense(t *testing.T) {
	s := SplitIncomeExpense(DashboardSummary{TotalIncome: dec("300"), TotalExpense: dec("100"), Balance: dec("200")})
	if s.IncomePercentage != 75 || s.ExpensePercentage != 25 {
		t.Errorf("split = %+v", s)
	}
	if s.Ratio != 3 {
		t.Errorf("ratio = %v", s.Ratio)
	}
	if s.SavingsRate < 66.6 || s.SavingsRate > 66.7 {
		t.Errorf("savings rate = %v", s.SavingsRate)
	}

	empty := SplitIncomeExpense(DashboardSummary{TotalIncome: dec("0"), TotalExpense: dec("0"), Balance: dec("0")})
	if empty != (IncomeExpenseSplit{}) {
		t.Errorf("empty summary should yield zero split, got %+v", empty)
	}
}

func TestSearchAndTotals(t *testing.T) {
	txs := []Transaction{
		{ID: 1, Description: "Grocery run", Amount: dec("42.10"), Type: Expense},
		{ID: 2, Description: "Salary", Amount: dec("2000"), Type: Income},
		{ID: 3, Description: "Coffee", Amount: dec("3.5"), Type: Expense},
	}
	if got := SearchTransactions(txs, "GROC"); len(got) != 1 || got[0].ID != 1 {
		t.Errorf("description search = %+v", got)
	}
	if got := SearchTransactions(txs, "2000"); len(got) != 1 || got[0].ID != 2 {
		t.Errorf("amount search = %+v", got)
	}
	if got := SearchTransactions(txs, ""); len(got) != 3 {
		t.Errorf("empty search should keep all")
	}

	totals := SumTransactions(txs)
	if !totals.Income.Equal(dec("2000")) || !totals.Expense.Equal(dec("45.6")) || !totals.Net.Equal(dec("1954.4")) {
		t.Errorf("totals = %+v", totals)
	}
}

func TestPaginate(t *testing.T) {
	txs := make([]Transaction, 45)
	for i := range txs {
		txs[i].ID = int64(i + 1)
	}
	tests := []struct {
		page      int
		wantPage  int
		wantCount int
		wantFirst int64
	}{
		{1, 1, 20, 1},
		{3, 3, 5, 41},
		{9, 3, 5, 41},
		{0, 1, 20, 1},
	}
	for _, tt := range tests {
		p := Paginate(txs, tt.page, 20)
		if p.Page != tt.wantPage || len(p.Items) != tt.wantCount || p.Items[0].ID != tt.wantFirst {
			t.Errorf("page %d: got page=%d count=%d", tt.page, p.Page, len(p.Items))
		}
		if p.TotalPages != 3 || p.TotalItems != 45 {
			t.Errorf("page %d: totals %d/%d", tt.page, p.TotalPages, p.TotalItems)
		}
	}
	if p := Paginate(nil, 1, 20); p.TotalPages != 0 || len(p.Items) != 0 {
		t.Errorf("empty list: %+v", p)
	}
}
