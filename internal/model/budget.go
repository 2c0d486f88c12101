package model

import "time"

// PeriodLayout is the time layout for budget period keys (one calendar month).
const PeriodLayout = "2006-01"

// BudgetTarget is a per-category spending target for one period.
type BudgetTarget struct {
	CategoryID string
	Period     string // formatted with PeriodLayout
	Amount     int64  // minor currency units
}

// BudgetLineItem is the unit a per-item trending result attaches to. It is
// either user-created or generated from merchant grouping; MerchantKey is
// empty for category-only items.
type BudgetLineItem struct {
	CreatedAt   time.Time
	ID          string
	CategoryID  string
	MerchantKey string
	Amount      int64 // reference budget amount, minor units
}
