package trend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/na5h13/MoneyPlanner-sub000/internal/common"
	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
	"github.com/na5h13/MoneyPlanner-sub000/internal/service"
)

// Reporter aggregates the active period's transactions and assembles the
// trending inputs for every category and budget line item.
type Reporter struct {
	store service.Storage
	now   func() time.Time
}

// NewReporter creates a reporter backed by the given storage.
func NewReporter(store service.Storage) *Reporter {
	return NewReporterAt(store, time.Now)
}

// NewReporterAt creates a reporter with an injected clock.
func NewReporterAt(store service.Storage, now func() time.Time) *Reporter {
	return &Reporter{store: store, now: now}
}

// CategoryReport pairs a category with its trend.
type CategoryReport struct {
	CategoryID   string
	CategoryName string
	Trend        CategoryTrend
}

// ItemReport pairs a budget line item with its trend.
type ItemReport struct {
	Item  model.BudgetLineItem
	Trend ItemTrend
}

// Report is one period's full trending picture for a user.
type Report struct {
	Period       string
	Categories   []CategoryReport
	Items        []ItemReport
	DaysElapsed  int
	DaysInPeriod int
}

// Build assembles the report for one calendar-month period ("2006-01").
func (r *Reporter) Build(ctx context.Context, userID, period string) (*Report, error) {
	start, err := time.Parse(model.PeriodLayout, period)
	if err != nil {
		return nil, fmt.Errorf("%w: bad period %q: %v", common.ErrInvalidDate, period, err)
	}
	end := start.AddDate(0, 1, 0)
	daysInPeriod := int(end.Sub(start).Hours() / 24)
	daysElapsed := elapsedDays(start, end, r.now())

	categories, err := r.store.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	transactions, err := r.store.ListTransactions(ctx, userID, start)
	if err != nil {
		return nil, fmt.Errorf("failed to load period transactions: %w", err)
	}

	// Spend aggregates for the period: by category and by merchant key.
	// Income transactions do not count against spending targets.
	byCategory := make(map[string]int64)
	byMerchant := make(map[string]int64)
	for _, txn := range transactions {
		if !txn.Date.Before(end) || txn.IsIncome {
			continue
		}
		byCategory[txn.CategoryID] += txn.Amount
		if txn.MerchantKey != "" {
			byMerchant[txn.MerchantKey] += txn.Amount
		}
	}

	targets, err := r.store.GetBudgetTargets(ctx, userID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load budget targets: %w", err)
	}
	targetByCategory := make(map[string]int64, len(targets))
	for _, t := range targets {
		targetByCategory[t.CategoryID] = t.Amount
	}

	report := &Report{
		Period:       period,
		DaysElapsed:  daysElapsed,
		DaysInPeriod: daysInPeriod,
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Position < categories[j].Position
	})
	for _, cat := range categories {
		if cat.IsIncome {
			continue
		}
		spent := byCategory[cat.ID]
		target := targetByCategory[cat.ID]
		if spent == 0 && target == 0 {
			continue
		}
		report.Categories = append(report.Categories, CategoryReport{
			CategoryID:   cat.ID,
			CategoryName: cat.Name,
			Trend:        Category(spent, target, daysElapsed, daysInPeriod),
		})
	}

	items, err := r.store.GetBudgetLineItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load budget line items: %w", err)
	}

	for _, item := range items {
		params := ItemParams{
			Reference:    item.Amount,
			DaysElapsed:  daysElapsed,
			DaysInPeriod: daysInPeriod,
		}

		if item.MerchantKey != "" {
			params.Spent = byMerchant[item.MerchantKey]
			params.Posted = params.Spent != 0

			cls, clsErr := r.store.GetClassification(ctx, userID, item.MerchantKey)
			if clsErr != nil && !errors.Is(clsErr, common.ErrNotFound) {
				return nil, fmt.Errorf("failed to load classification for %q: %w", item.MerchantKey, clsErr)
			}
			params.Classification = cls
		} else {
			params.Spent = byCategory[item.CategoryID]
			params.Posted = params.Spent != 0
		}

		report.Items = append(report.Items, ItemReport{
			Item:  item,
			Trend: Item(params),
		})
	}

	return report, nil
}

// elapsedDays counts how many of the period's days have passed as of now:
// the full period once it is over, zero before it starts, and the current
// day-of-month while inside it.
func elapsedDays(start, end, now time.Time) int {
	switch {
	case now.Before(start):
		return 0
	case !now.Before(end):
		return int(end.Sub(start).Hours() / 24)
	default:
		return now.Day()
	}
}
