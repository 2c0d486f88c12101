package recurrence

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/na5h13/MoneyPlanner-sub000/internal/common"
	"github.com/na5h13/MoneyPlanner-sub000/internal/merchant"
	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
	"github.com/na5h13/MoneyPlanner-sub000/internal/service"
)

// WindowDays is the trailing transaction window classification runs over.
const WindowDays = 90

// Detector runs merchant classification over a user's recent transaction
// history and persists the results in one batch.
type Detector struct {
	store      service.Storage
	now        func() time.Time
	windowDays int
}

// NewDetector creates a detector with the default 90-day window.
func NewDetector(store service.Storage) *Detector {
	return NewDetectorAt(store, time.Now)
}

// NewDetectorAt creates a detector with an injected clock.
func NewDetectorAt(store service.Storage, now func() time.Time) *Detector {
	return &Detector{
		store:      store,
		now:        now,
		windowDays: WindowDays,
	}
}

// WithWindow overrides the trailing window length in days. Non-positive
// values keep the current window.
func (d *Detector) WithWindow(days int) *Detector {
	if days > 0 {
		d.windowDays = days
	}
	return d
}

// Detect classifies every merchant with at least two occurrences in the
// user's trailing window and upserts one AUTO_DETECTED record per merchant.
// Merchants with a standing USER_OVERRIDE record are skipped before the
// write. Re-running with the same window and no new overrides reproduces
// the same output; the batched write is an upsert, so the whole run is
// safely retryable.
func (d *Detector) Detect(ctx context.Context, userID string) (int, error) {
	since := d.now().AddDate(0, 0, -d.windowDays)

	transactions, err := d.store.ListTransactions(ctx, userID, since)
	if err != nil {
		return 0, fmt.Errorf("failed to load transaction window: %w", err)
	}

	groups := groupByMerchant(transactions)

	// Sorted iteration keeps runs deterministic.
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	now := d.now()
	records := make([]model.SpendingClassification, 0, len(keys))

	for _, key := range keys {
		group := groups[key]
		if len(group) < MinOccurrences {
			continue
		}

		override, err := d.store.HasUserOverride(ctx, userID, key)
		if err != nil {
			return 0, fmt.Errorf("failed to check override for %q: %w", key, err)
		}
		if override {
			slog.Debug("Skipping merchant with user override",
				"user_id", userID,
				"merchant_key", key)
			continue
		}

		amounts := make([]int64, len(group))
		days := make([]int, len(group))
		for i, txn := range group {
			amounts[i] = txn.Amount
			days[i] = txn.Date.Day()
		}

		res := Classify(amounts, days)
		records = append(records, model.SpendingClassification{
			MerchantKey:    key,
			Type:           res.Type,
			Source:         model.SourceAutoDetected,
			Confidence:     res.Confidence,
			ExpectedAmount: res.ExpectedAmount,
			ExpectedDay:    res.ExpectedDay,
			RangeLow:       res.RangeLow,
			RangeHigh:      res.RangeHigh,
			UpdatedAt:      now,
		})
	}

	if len(records) == 0 {
		slog.Info("No merchants to classify", "user_id", userID)
		return 0, nil
	}

	err = common.WithRetry(ctx, func() error {
		if putErr := d.store.PutClassifications(ctx, userID, records); putErr != nil {
			return &common.RetryableError{Err: putErr, Retryable: true}
		}
		return nil
	}, service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save classifications: %w", err)
	}

	slog.Info("Classification run complete",
		"user_id", userID,
		"merchants", len(records),
		"window_days", d.windowDays)

	return len(records), nil
}

// groupByMerchant buckets posted transactions by their normalized merchant
// key, deriving the key on the fly when ingestion left it empty. Pending
// entries are excluded: they can duplicate the posted entry that follows.
func groupByMerchant(transactions []model.Transaction) map[string][]model.Transaction {
	groups := make(map[string][]model.Transaction)
	for _, txn := range transactions {
		if txn.Pending {
			continue
		}
		key := txn.MerchantKey
		if key == "" {
			raw := txn.MerchantName
			if raw == "" {
				raw = txn.Name
			}
			key = merchant.Normalize(raw)
		}
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], txn)
	}
	return groups
}
