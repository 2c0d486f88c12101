// Package recurrence classifies merchant spending patterns as fixed,
// recurring-variable, or truly variable from their amount and date history.
package recurrence

import (
	"math"

	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
)

// Classification thresholds.
const (
	// cvFixedMax is the coefficient-of-variation ceiling for FIXED.
	cvFixedMax = 0.10
	// cvRecurringMax is the coefficient-of-variation ceiling for
	// RECURRING_VARIABLE.
	cvRecurringMax = 0.40
	// dayStdDevPeriodicMax is the maximum day-of-month standard deviation
	// for a pattern to count as periodic.
	dayStdDevPeriodicMax = 5.0
	// trueVariableConfidence is the flat confidence assigned to
	// TRUE_VARIABLE merchants.
	trueVariableConfidence = 0.70

	// MinOccurrences is the smallest history that can be classified.
	MinOccurrences = 2
)

// Result is a merchant classification decision. Amount fields are in minor
// currency units and only set for the types that define them.
type Result struct {
	Type           model.ClassificationType
	ExpectedAmount *int64
	ExpectedDay    *int
	RangeLow       *int64
	RangeHigh      *int64
	Confidence     float64
}

// Classify labels one merchant's history. amounts are signed minor-unit
// values; days are the day-of-month (1-31) of each occurrence, index-aligned
// with amounts. Statistics run over absolute amounts so a refund cannot flip
// the mean's sign.
//
// The checks are ordered: a merchant that is both low-variance and periodic
// is always FIXED even though it would also satisfy the RECURRING_VARIABLE
// test.
func Classify(amounts []int64, days []int) Result {
	if len(amounts) < MinOccurrences {
		return Result{Type: model.TypeUnclassified}
	}

	abs := make([]float64, len(amounts))
	for i, a := range amounts {
		if a < 0 {
			a = -a
		}
		abs[i] = float64(a)
	}

	dayVals := make([]float64, len(days))
	for i, d := range days {
		dayVals[i] = float64(d)
	}

	cv := coefficientOfVariation(abs)
	isPeriodic := stddev(dayVals) <= dayStdDevPeriodicMax

	switch {
	case cv < cvFixedMax && isPeriodic:
		expectedAmount := int64(math.Round(mean(abs)))
		expectedDay := int(math.Round(mean(dayVals)))
		return Result{
			Type:           model.TypeFixed,
			Confidence:     math.Min(0.95, 1-cv),
			ExpectedAmount: &expectedAmount,
			ExpectedDay:    &expectedDay,
		}

	case isPeriodic && cv < cvRecurringMax:
		low, high := amountRange(abs)
		return Result{
			Type:       model.TypeRecurringVariable,
			Confidence: math.Min(0.85, 0.9-cv),
			RangeLow:   &low,
			RangeHigh:  &high,
		}

	default:
		return Result{
			Type:       model.TypeTrueVariable,
			Confidence: trueVariableConfidence,
		}
	}
}

// amountRange returns the minimum and maximum observed amount.
func amountRange(abs []float64) (int64, int64) {
	low, high := abs[0], abs[0]
	for _, a := range abs[1:] {
		if a < low {
			low = a
		}
		if a > high {
			high = a
		}
	}
	return int64(low), int64(high)
}
