package model

import "time"

// CategoryRule maps a normalized merchant key to a category the user chose
// with "apply to all". Rules are created by the caller in response to user
// action; the categorization pipeline only reads them.
type CategoryRule struct {
	CreatedAt   time.Time
	ID          string
	MerchantKey string
	CategoryID  string
	Confidence  float64 // 1.0 by construction
}
