package core

import (
	"strconv"
)

// TransactionFilter narrows a transaction list. The zero value means all
// types and all categories.
type TransactionFilter struct {
	Type       EntryType
	CategoryID int64
}

// IsAll reports whether the filter selects every transaction.
func (f TransactionFilter) IsAll() bool {
	return f.Type == "" && f.CategoryID == 0
}

// TypeParam is the filter's type or "all".
func (f TransactionFilter) TypeParam() string {
	if f.Type == "" {
		return "all"
	}
	return string(f.Type)
}

// CategoryParam is the filter's category id or "all".
func (f TransactionFilter) CategoryParam() string {
	if f.CategoryID == 0 {
		return "all"
	}
	return strconv.FormatInt(f.CategoryID, 10)
}

// Matches applies the filter to a single transaction.
func (f TransactionFilter) Matches(tx Transaction) bool {
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.CategoryID != 0 && tx.CategoryID != f.CategoryID {
		return false
	}
	return true
}

// ParseTransactionFilter builds a filter from "all"-or-value strings.
func ParseTransactionFilter(typ, category string) (TransactionFilter, error) {
	var f TransactionFilter
	if typ != "" && typ != "all" {
		t, err := ParseEntryType(typ)
		if err != nil {
			return f, err
		}
		f.Type = t
	}
	if category != "" && category != "all" {
		id, err := strconv.ParseInt(category, 10, 64)
		if err != nil || id <= 0 {
			return f, ErrInvalidCategory
		}
		f.CategoryID = id
	}
	return f, nil
}
