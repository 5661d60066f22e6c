package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/query"
	"finboard/internal/storage"
)

// fakeAPI is an in-memory stand-in for the remote API.
type fakeAPI struct {
	mu sync.Mutex

	token        string
	categories   []core.Category
	transactions []core.Transaction
	budgets      []core.Budget
	summary      core.DashboardSummary
	spending     []core.SpendingByCategory
	forecast     core.MonthlyForecast

	nextID int64
	calls  map[string]int
	errs   map[string]error
	holds  map[string]chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{nextID: 100, calls: map[string]int{}, errs: map[string]error{}, holds: map[string]chan struct{}{}}
}

func (f *fakeAPI) hit(name string) error {
	f.mu.Lock()
	f.calls[name]++
	err := f.errs[name]
	wait := f.holds[name]
	f.mu.Unlock()
	if wait != nil {
		<-wait
	}
	return err
}

// hold blocks calls to name until the returned channel is closed.
func (f *fakeAPI) hold(name string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.holds[name] = ch
	return ch
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) fail(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, name)
		return
	}
	f.errs[name] = err
}

func (f *fakeAPI) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeAPI) Login(_ context.Context, creds core.LoginCredentials) (core.AuthToken, error) {
	if err := f.hit("Login"); err != nil {
		return core.AuthToken{}, err
	}
	return core.AuthToken{Token: f.token, Username: creds.UsernameOrEmail}, nil
}

func (f *fakeAPI) Register(_ context.Context, creds core.SignupCredentials) (core.AuthToken, error) {
	if err := f.hit("Register"); err != nil {
		return core.AuthToken{}, err
	}
	return core.AuthToken{Token: f.token, Username: creds.Username}, nil
}

func (f *fakeAPI) ListCategories(context.Context) ([]core.Category, error) {
	if err := f.hit("ListCategories"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Category(nil), f.categories...), nil
}

func (f *fakeAPI) CreateCategory(_ context.Context, req core.CategoryRequest) (core.Category, error) {
	if err := f.hit("CreateCategory"); err != nil {
		return core.Category{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := core.Category{ID: f.id(), Name: req.Name, Type: req.Type}
	f.categories = append(f.categories, c)
	return c, nil
}

func (f *fakeAPI) DeleteCategory(_ context.Context, id int64) error {
	return f.hit("DeleteCategory")
}

func (f *fakeAPI) ListTransactions(_ context.Context, filter core.TransactionFilter) ([]core.Transaction, error) {
	if err := f.hit("ListTransactions"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Transaction
	for _, tx := range f.transactions {
		if filter.Matches(tx) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeAPI) CreateTransaction(_ context.Context, req core.TransactionRequest) (core.Transaction, error) {
	if err := f.hit("CreateTransaction"); err != nil {
		return core.Transaction{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tx := core.Transaction{ID: f.id(), Amount: req.Amount, Type: req.Type, CategoryID: req.CategoryID, Description: req.Description, Date: core.NewDate(2025, 6, 1)}
	f.transactions = append(f.transactions, tx)
	return tx, nil
}

func (f *fakeAPI) DeleteTransaction(_ context.Context, id int64) error {
	return f.hit("DeleteTransaction")
}

func (f *fakeAPI) SpendingByCategory(context.Context) ([]core.SpendingByCategory, error) {
	if err := f.hit("SpendingByCategory"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.spending, nil
}

func (f *fakeAPI) ListBudgets(context.Context) ([]core.Budget, error) {
	if err := f.hit("ListBudgets"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Budget(nil), f.budgets...), nil
}

func (f *fakeAPI) CreateBudget(_ context.Context, req core.BudgetRequest) (core.Budget, error) {
	if err := f.hit("CreateBudget"); err != nil {
		return core.Budget{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return core.Budget{ID: f.id(), Amount: req.Amount, Month: req.Month, Year: req.Year, CategoryID: req.CategoryID}, nil
}

func (f *fakeAPI) UpdateBudget(_ context.Context, id int64, req core.BudgetRequest) (core.Budget, error) {
	if err := f.hit("UpdateBudget"); err != nil {
		return core.Budget{}, err
	}
	return core.Budget{ID: id, Amount: req.Amount, Month: req.Month, Year: req.Year, CategoryID: req.CategoryID}, nil
}

func (f *fakeAPI) DeleteBudget(_ context.Context, id int64) error {
	return f.hit("DeleteBudget")
}

func (f *fakeAPI) DashboardSummary(context.Context) (core.DashboardSummary, error) {
	if err := f.hit("DashboardSummary"); err != nil {
		return core.DashboardSummary{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summary, nil
}

func (f *fakeAPI) MonthlyForecast(_ context.Context, userID string) (core.MonthlyForecast, error) {
	if err := f.hit("MonthlyForecast"); err != nil {
		return core.MonthlyForecast{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forecast, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) PublishChange(_ context.Context, entity, op string, id int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, entity+":"+op)
	return nil
}

// fixture wires every service against one fake API and query client.
type fixture struct {
	api          *fakeAPI
	q            *query.Client
	sessions     *storage.MemorySessionStore
	notifier     *recordingNotifier
	auth         *AuthService
	transactions *TransactionService
	categories   *CategoryService
	budgets      *BudgetService
	dashboard    *DashboardService
	forecast     *ForecastService
	now          time.Time
}

var fixtureNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		api:      newFakeAPI(),
		q:        query.NewClient(cache.NewMemoryStore(64, time.Hour)),
		sessions: storage.NewMemorySessionStore(),
		notifier: &recordingNotifier{},
		now:      fixtureNow,
	}
	t.Cleanup(f.q.Close)

	opts := []Option{WithNotifier(f.notifier), WithClock(func() time.Time { return f.now })}
	f.auth = NewAuthService(f.api, f.q, f.sessions, opts...)
	f.transactions = NewTransactionService(f.api, f.q, opts...)
	f.categories = NewCategoryService(f.api, f.q, opts...)
	f.budgets = NewBudgetService(f.api, f.q, f.transactions, opts...)
	f.dashboard = NewDashboardService(f.api, f.q, f.transactions, f.categories, f.budgets, opts...)
	f.forecast = NewForecastService(f.api, f.q, f.auth, f.transactions, opts...)
	return f
}

func jwtFor(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (f *fixture) login(t *testing.T, userID int) core.User {
	t.Helper()
	f.api.token = jwtFor(t, jwt.MapClaims{"user_id": float64(userID), "exp": float64(fixtureNow.Add(time.Hour).Unix())})
	u, err := f.auth.Login(context.Background(), core.LoginCredentials{UsernameOrEmail: "ada", Password: "pw"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return u
}

func expense(id, category int64, amount string, date core.Date) core.Transaction {
	return core.Transaction{ID: id, Type: core.Expense, CategoryID: category, Amount: decimal.RequireFromString(amount), Date: date}
}
