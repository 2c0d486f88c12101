package categorize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/na5h13/MoneyPlanner-sub000/internal/service"
)

// Engine drives the waterfall over a user's uncategorized transactions and
// persists the results.
type Engine struct {
	store    service.Storage
	pipeline *Pipeline
}

// NewEngine creates a categorization engine backed by the given storage.
func NewEngine(store service.Storage) *Engine {
	return &Engine{
		store:    store,
		pipeline: NewPipeline(store, store),
	}
}

// Pipeline exposes the underlying waterfall for one-off decisions.
func (e *Engine) Pipeline() *Pipeline {
	return e.pipeline
}

// CategorizeAll categorizes every uncategorized transaction for the user and
// returns how many were updated. Categories assigned by a user are never
// touched; the storage layer enforces the same guard on write.
func (e *Engine) CategorizeAll(ctx context.Context, userID string) (int, error) {
	categories, err := e.store.GetCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load categories: %w", err)
	}
	if len(categories) == 0 {
		return 0, fmt.Errorf("no categories found - run migrations first")
	}

	transactions, err := e.store.GetTransactionsToCategorize(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load transactions: %w", err)
	}
	if len(transactions) == 0 {
		slog.Info("No transactions to categorize", "user_id", userID)
		return 0, nil
	}

	slog.Info("Categorizing transactions",
		"user_id", userID,
		"count", len(transactions))

	updated := 0

	for _, txn := range transactions {
		select {
		case <-ctx.Done():
			return updated, ctx.Err()
		default:
		}

		if txn.UserCategorized() {
			continue
		}

		res, err := e.pipeline.Categorize(ctx, Request{
			UserID:       userID,
			MerchantName: txn.MerchantName,
			Description:  txn.Name,
			ProviderTags: txn.ProviderTags,
			Categories:   categories,
		})
		if err != nil {
			return updated, fmt.Errorf("failed to categorize transaction %s: %w", txn.ID, err)
		}

		if err := e.store.UpdateTransactionCategory(ctx, userID, txn.ID, res.CategoryID, res.Confidence, res.Source); err != nil {
			return updated, fmt.Errorf("failed to save category for transaction %s: %w", txn.ID, err)
		}
		updated++

		slog.Debug("Categorized transaction",
			"transaction_id", txn.ID,
			"merchant_key", txn.MerchantKey,
			"category_id", res.CategoryID,
			"source", res.Source,
			"confidence", res.Confidence)
	}

	slog.Info("Categorization complete",
		"user_id", userID,
		"updated", updated)

	return updated, nil
}
