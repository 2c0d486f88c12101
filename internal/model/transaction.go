package model

import "time"

// CategorySource indicates which categorization strategy produced a
// transaction's category.
type CategorySource string

// Category source constants, in decreasing order of confidence.
const (
	SourceMerchantRule CategorySource = "merchant_rule"
	SourceHistorical   CategorySource = "historical"
	SourcePlaidMap     CategorySource = "plaid_map"
	SourceKeyword      CategorySource = "keyword"
	SourceFallback     CategorySource = "fallback"

	// SourceUser marks a category assigned manually. Once set it is never
	// overwritten by automatic categorization.
	SourceUser CategorySource = "user"
)

// Transaction represents a single posted or pending ledger entry.
// Amount is always in integer minor currency units (cents); formatting and
// currency conversion are presentation concerns.
type Transaction struct {
	Date               time.Time
	CategorizedAt      time.Time
	ID                 string
	AccountID          string
	Name               string // Raw transaction description
	MerchantName       string // Raw merchant name from the provider
	MerchantKey        string // Normalized merchant key, the join key everywhere
	CategoryID         string
	CategorySource     CategorySource
	ClassificationType ClassificationType // Mirror of the merchant's current classification
	ProviderTags       []string           // Category hints from the bank provider
	Amount             int64
	CategoryConfidence float64
	IsIncome           bool
	Pending            bool
}

// Categorized reports whether the transaction carries a category.
func (t *Transaction) Categorized() bool {
	return t.CategoryID != ""
}

// UserCategorized reports whether the category was assigned by a human.
func (t *Transaction) UserCategorized() bool {
	return t.CategorySource == SourceUser && t.CategoryID != ""
}
