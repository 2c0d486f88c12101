package categorize_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/na5h13/MoneyPlanner-sub000/internal/categorize"
	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
	"github.com/na5h13/MoneyPlanner-sub000/internal/storage"
)

const testUser = "user-1"

func newTestStorage(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestEngine_CategorizeAll(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveRule(ctx, testUser, &model.CategoryRule{
		MerchantKey: "CORNER GROCERY",
		CategoryID:  "food-transport",
	}))

	require.NoError(t, store.SaveTransactions(ctx, testUser, []model.Transaction{
		{
			// Exact rule match.
			ID:           "t1",
			AccountID:    "acct-1",
			Date:         date,
			Name:         "CORNER GROCERY #42 POS",
			MerchantName: "Corner Grocery",
			MerchantKey:  "CORNER GROCERY",
			Amount:       4521,
		},
		{
			// No rule; provider tag maps to income.
			ID:           "t2",
			AccountID:    "acct-1",
			Date:         date,
			Name:         "ACME DIRECT DEP",
			MerchantName: "ACME Corp",
			MerchantKey:  "ACME CORP",
			ProviderTags: []string{"PAYROLL"},
			Amount:       500000,
		},
		{
			// Keyword hit on the description.
			ID:           "t3",
			AccountID:    "acct-1",
			Date:         date,
			Name:         "XJQR LLC monthly rent",
			MerchantName: "XJQR LLC",
			MerchantKey:  "XJQR LLC",
			Amount:       120000,
		},
		{
			// Nothing matches; lands in the catch-all bucket.
			ID:           "t4",
			AccountID:    "acct-1",
			Date:         date,
			Name:         "WXRT 9912",
			MerchantName: "WXRT",
			MerchantKey:  "WXRT",
			Amount:       777,
		},
	}))

	engine := categorize.NewEngine(store)

	updated, err := engine.CategorizeAll(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, 4, updated)

	got, err := store.ListTransactions(ctx, testUser, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 4)

	byID := make(map[string]model.Transaction, len(got))
	for _, txn := range got {
		byID[txn.ID] = txn
	}

	assert.Equal(t, "food-transport", byID["t1"].CategoryID)
	assert.Equal(t, model.SourceMerchantRule, byID["t1"].CategorySource)
	assert.Equal(t, 1.0, byID["t1"].CategoryConfidence)

	assert.Equal(t, "income", byID["t2"].CategoryID)
	assert.Equal(t, model.SourcePlaidMap, byID["t2"].CategorySource)

	assert.Equal(t, "home-personal", byID["t3"].CategoryID)
	assert.Equal(t, model.SourceKeyword, byID["t3"].CategorySource)

	assert.Equal(t, "uncategorized", byID["t4"].CategoryID)
	assert.Equal(t, model.SourceFallback, byID["t4"].CategorySource)
	assert.Zero(t, byID["t4"].CategoryConfidence)

	// Everything now has a category, so a second pass is a no-op.
	updated, err = engine.CategorizeAll(ctx, testUser)
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestEngine_HistoricalPrecedent(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	// The user already filed one Corner Grocery transaction by hand.
	require.NoError(t, store.SaveTransactions(ctx, testUser, []model.Transaction{{
		ID:           "old",
		AccountID:    "acct-1",
		Date:         time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
		Name:         "CORNER GROCERY #42",
		MerchantName: "Corner Grocery",
		MerchantKey:  "CORNER GROCERY",
		Amount:       3000,
	}}))
	require.NoError(t, store.UpdateTransactionCategory(ctx, testUser, "old", "entertainment-shopping", 1.0, model.SourceUser))

	require.NoError(t, store.SaveTransactions(ctx, testUser, []model.Transaction{{
		ID:           "new",
		AccountID:    "acct-1",
		Date:         time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Name:         "CORNER GROCERY #42",
		MerchantName: "Corner Grocery",
		MerchantKey:  "CORNER GROCERY",
		Amount:       4000,
	}}))

	engine := categorize.NewEngine(store)

	updated, err := engine.CategorizeAll(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	got, err := store.ListTransactions(ctx, testUser, time.Time{})
	require.NoError(t, err)
	for _, txn := range got {
		if txn.ID != "new" {
			continue
		}
		// The precedent wins over the grocery keyword.
		assert.Equal(t, "entertainment-shopping", txn.CategoryID)
		assert.Equal(t, model.SourceHistorical, txn.CategorySource)
		assert.Equal(t, 0.95, txn.CategoryConfidence)
	}
}

func TestEngine_ContextCancellation(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, testUser, []model.Transaction{{
		ID:        "t1",
		AccountID: "acct-1",
		Date:      time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Name:      "Corner Grocery",
		Amount:    4521,
	}}))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	engine := categorize.NewEngine(store)
	_, err := engine.CategorizeAll(cancelled, testUser)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
