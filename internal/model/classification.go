package model

import "time"

// ClassificationType is the recurrence class a merchant's spending pattern
// falls into.
type ClassificationType string

// Classification type constants.
const (
	TypeFixed             ClassificationType = "FIXED"
	TypeRecurringVariable ClassificationType = "RECURRING_VARIABLE"
	TypeTrueVariable      ClassificationType = "TRUE_VARIABLE"
	TypeUnclassified      ClassificationType = "UNCLASSIFIED"
)

// ClassificationSource indicates how a spending classification was produced.
type ClassificationSource string

const (
	// SourceAutoDetected indicates the classification came from the
	// recurrence detector.
	SourceAutoDetected ClassificationSource = "AUTO_DETECTED"
	// SourceUserOverride indicates the user pinned the classification.
	// An override is never replaced by an automatic write.
	SourceUserOverride ClassificationSource = "USER_OVERRIDE"
)

// SpendingClassification is the per-merchant recurrence record produced by
// the detector (or pinned by the user). Amount fields are in minor currency
// units; the pointer fields are only set for the types that define them.
type SpendingClassification struct {
	UpdatedAt      time.Time
	MerchantKey    string
	Type           ClassificationType
	Source         ClassificationSource
	ExpectedAmount *int64 // FIXED only
	RangeLow       *int64 // RECURRING_VARIABLE only
	RangeHigh      *int64 // RECURRING_VARIABLE only
	ExpectedDay    *int   // FIXED only, day of month 1-31
	Confidence     float64
}

// IsOverride reports whether this record was pinned by the user.
func (c *SpendingClassification) IsOverride() bool {
	return c.Source == SourceUserOverride
}
