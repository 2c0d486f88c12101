// Package trend projects end-of-period spending from spend-to-date and
// attaches status verdicts to categories and budget line items.
package trend

import "github.com/na5h13/MoneyPlanner-sub000/internal/model"

// CategoryStatus is the verdict attached to a category's trend.
type CategoryStatus string

// Category-level statuses.
const (
	StatusOnTrack          CategoryStatus = "ON_TRACK"
	StatusWatch            CategoryStatus = "WATCH"
	StatusOver             CategoryStatus = "OVER"
	StatusInsufficientData CategoryStatus = "INSUFFICIENT_DATA"
	StatusNoTarget         CategoryStatus = "NO_TARGET"
)

// ItemStatus is the verdict attached to a budget line item.
type ItemStatus string

// Line-item statuses.
const (
	ItemOK    ItemStatus = "ok"
	ItemWatch ItemStatus = "watch"
	ItemOver  ItemStatus = "over"
)

// minTrendDays is how many days of the period must have elapsed before a
// run-rate projection is meaningful.
const minTrendDays = 3

// CategoryTrend is the per-category projection result. All amounts are in
// minor currency units.
type CategoryTrend struct {
	Spent        int64
	Projected    int64
	Target       int64
	Status       CategoryStatus
	DaysElapsed  int
	DaysInPeriod int
}

// Category projects end-of-period spend for one category and grades it
// against the target. Pure function of already-aggregated inputs.
func Category(spent, target int64, daysElapsed, daysInPeriod int) CategoryTrend {
	t := CategoryTrend{
		Spent:        spent,
		Target:       target,
		DaysElapsed:  daysElapsed,
		DaysInPeriod: daysInPeriod,
	}

	if daysElapsed >= minTrendDays {
		t.Projected = runRate(spent, daysElapsed, daysInPeriod)
	}

	switch {
	case target <= 0:
		t.Status = StatusNoTarget
	case daysElapsed < minTrendDays:
		t.Status = StatusInsufficientData
	case t.Projected <= target:
		t.Status = StatusOnTrack
	case withinWatchBand(t.Projected, target):
		t.Status = StatusWatch
	default:
		t.Status = StatusOver
	}

	return t
}

// ItemParams are the aggregated inputs for one line item's projection.
type ItemParams struct {
	// Classification is the merchant's current recurrence record, nil when
	// the merchant is unclassified or the item has no linked merchant.
	Classification *model.SpendingClassification
	Spent          int64 // merchant spend so far this period
	Reference      int64 // the item's reference budget amount
	DaysElapsed    int
	DaysInPeriod   int
	Posted         bool // the merchant's charge has already posted this period
}

// ItemTrend is the per-line-item projection result.
type ItemTrend struct {
	Amount int64
	Status ItemStatus
}

// Item projects one budget line item's end-of-period amount. FIXED and
// RECURRING_VARIABLE merchants that have not posted yet use their expected
// amount (or range midpoint), falling back to the reference amount; anything
// else is run-rated from spend so far.
func Item(p ItemParams) ItemTrend {
	classType := model.TypeUnclassified
	if p.Classification != nil {
		classType = p.Classification.Type
	}

	var amount int64
	switch classType {
	case model.TypeFixed:
		switch {
		case p.Posted:
			amount = p.Spent
		case p.Classification.ExpectedAmount != nil:
			amount = *p.Classification.ExpectedAmount
		default:
			amount = p.Reference
		}

	case model.TypeRecurringVariable:
		switch {
		case p.Posted:
			amount = p.Spent
		case p.Classification.RangeLow != nil && p.Classification.RangeHigh != nil:
			amount = roundDiv(*p.Classification.RangeLow+*p.Classification.RangeHigh, 2)
		default:
			amount = p.Reference
		}

	default:
		if p.Spent > 0 {
			amount = project(p.Spent, p.DaysElapsed, p.DaysInPeriod)
		} else {
			amount = p.Spent
		}
	}

	status := ItemOK
	if p.Reference > 0 && amount > p.Reference {
		status = ItemWatch
		if !withinWatchBand(amount, p.Reference) {
			status = ItemOver
		}
	}

	return ItemTrend{Amount: amount, Status: status}
}

// project run-rates x across the period once enough days have elapsed,
// otherwise returns x unchanged.
func project(x int64, daysElapsed, daysInPeriod int) int64 {
	if daysElapsed < minTrendDays {
		return x
	}
	return runRate(x, daysElapsed, daysInPeriod)
}

// runRate linearly extrapolates spend-to-date across the whole period.
func runRate(spent int64, daysElapsed, daysInPeriod int) int64 {
	return roundDiv(spent*int64(daysInPeriod), int64(daysElapsed))
}

// withinWatchBand reports whether amount is at most 10% over the target.
// Integer arithmetic keeps the boundary exact.
func withinWatchBand(amount, target int64) bool {
	return amount*10 <= target*11
}

// roundDiv divides a by b rounding half away from zero. b must be positive.
func roundDiv(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	if a >= 0 {
		return (2*a + b) / (2 * b)
	}
	return (2*a - b) / (2 * b)
}
