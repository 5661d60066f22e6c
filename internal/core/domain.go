package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  EntryType = "INCOME"
	Expense EntryType = "EXPENSE"
)

type (
	EntryType string

	// Date wraps time.Time so server timestamps decode from any of the
	// layouts the API emits.
	Date struct {
		time.Time
	}

	User struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Username string `json:"username"`
	}

	Category struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		Type      EntryType `json:"type"`
		UserID    int64     `json:"userId"`
		CreatedAt Date      `json:"createdAt"`
		UpdatedAt Date      `json:"updatedAt"`
	}

	Transaction struct {
		ID          int64           `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description,omitempty"`
		Type        EntryType       `json:"type"`
		CategoryID  int64           `json:"categoryId"`
		Category    *Category       `json:"category,omitempty"`
		Date        Date            `json:"date"`
		CreatedAt   Date            `json:"createdAt"`
		UpdatedAt   Date            `json:"updatedAt"`
		UserID      int64           `json:"userId"`
	}

	Budget struct {
		ID           int64           `json:"id"`
		Amount       decimal.Decimal `json:"amount"`
		Month        int             `json:"month"`
		Year         int             `json:"year"`
		CategoryID   int64           `json:"categoryId"`
		CategoryName string          `json:"categoryName"`
		UserID       int64           `json:"userId"`
		CreatedAt    Date            `json:"createdAt"`
		UpdatedAt    Date            `json:"updatedAt"`
	}

	DashboardSummary struct {
		TotalIncome  decimal.Decimal `json:"totalIncome"`
		TotalExpense decimal.Decimal `json:"totalExpense"`
		Balance      decimal.Decimal `json:"balance"`
	}

	SpendingByCategory struct {
		CategoryID       int64           `json:"categoryId"`
		CategoryName     string          `json:"categoryName"`
		TotalAmount      decimal.Decimal `json:"totalAmount"`
		TransactionCount int             `json:"transactionCount"`
	}

	LoginCredentials struct {
		UsernameOrEmail string `json:"usernameOrEmail"`
		Password        string `json:"password"`
	}

	// SignupCredentials carries ConfirmPassword for local validation only; it
	// is never serialized.
	SignupCredentials struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"-"`
	}

	// AuthToken is the payload of a successful login or registration.
	AuthToken struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}

	TransactionRequest struct {
		Description string          `json:"description,omitempty"`
		Amount      decimal.Decimal `json:"amount"`
		Type        EntryType       `json:"type"`
		CategoryID  int64           `json:"categoryId"`
	}

	CategoryRequest struct {
		Name string    `json:"name"`
		Type EntryType `json:"type"`
	}

	BudgetRequest struct {
		Amount     decimal.Decimal `json:"amount"`
		Month      int             `json:"month"`
		Year       int             `json:"year"`
		CategoryID int64           `json:"categoryId"`
	}
)

var (
	ErrInvalidAmount       = errors.New("amount must be at least 0.01")
	ErrInvalidType         = errors.New("type must be INCOME or EXPENSE")
	ErrMissingType         = errors.New("type is required")
	ErrInvalidCategory     = errors.New("category is required")
	ErrInvalidCategoryName = errors.New("category name must be between 1 and 50 characters")
	ErrInvalidMonth        = errors.New("month must be between 1 and 12")
	ErrInvalidYear         = errors.New("year must be between 2020 and 2030")
	ErrPasswordMismatch    = errors.New("passwords don't match")
	ErrMissingUsername     = errors.New("username is required")
	ErrMissingPassword     = errors.New("password is required")
	ErrMissingEmail        = errors.New("email is required")
)

var minAmount = decimal.New(1, -2)

const (
	MinBudgetYear     = 2020
	MaxBudgetYear     = 2030
	MaxCategoryLength = 50
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses any timestamp layout the API is known to emit.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, fmt.Errorf("unrecognized date %q", s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format(time.RFC3339))
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// Valid reports whether t is one of the two entry types.
func (t EntryType) Valid() bool {
	return t == Income || t == Expense
}

// ParseEntryType accepts any casing of INCOME/EXPENSE.
func ParseEntryType(s string) (EntryType, error) {
	t := EntryType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

func validAmount(a decimal.Decimal) bool {
	return a.GreaterThanOrEqual(minAmount)
}

func (r TransactionRequest) Validate() error {
	if !validAmount(r.Amount) {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(string(r.Type)) == "" {
		return ErrMissingType
	}
	if r.CategoryID <= 0 {
		return ErrInvalidCategory
	}
	return nil
}

func (r CategoryRequest) Validate() error {
	name := strings.TrimSpace(r.Name)
	if n := len([]rune(name)); n < 1 || n > MaxCategoryLength {
		return ErrInvalidCategoryName
	}
	if !r.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (r BudgetRequest) Validate() error {
	if !validAmount(r.Amount) {
		return ErrInvalidAmount
	}
	if r.Month < 1 || r.Month > 12 {
		return ErrInvalidMonth
	}
	if r.Year < MinBudgetYear || r.Year > MaxBudgetYear {
		return ErrInvalidYear
	}
	if r.CategoryID <= 0 {
		return ErrInvalidCategory
	}
	return nil
}

func (c LoginCredentials) Validate() error {
	if strings.TrimSpace(c.UsernameOrEmail) == "" {
		return ErrMissingUsername
	}
	if c.Password == "" {
		return ErrMissingPassword
	}
	return nil
}

func (c SignupCredentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return ErrMissingUsername
	}
	if strings.TrimSpace(c.Email) == "" {
		return ErrMissingEmail
	}
	if c.Password == "" {
		return ErrMissingPassword
	}
	if c.Password != c.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}

// IsValidationError reports whether err is one of the client-side
// validation sentinels.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrInvalidType, ErrMissingType, ErrInvalidCategory,
		ErrInvalidCategoryName, ErrInvalidMonth, ErrInvalidYear, ErrPasswordMismatch,
		ErrMissingUsername, ErrMissingPassword, ErrMissingEmail,
		ErrBudgetInPast, ErrDuplicateBudget,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
