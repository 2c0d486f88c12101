package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/na5h13/MoneyPlanner-sub000/internal/common"
	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
)

const testUser = "user-1"

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestMigrate(t *testing.T) {
	store := newTestStorage(t)

	// Migrations are recorded, so a second run is a no-op.
	require.NoError(t, store.Migrate(context.Background()))

	categories, err := store.GetCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 6)

	// Seeded in display order with Uncategorized last.
	assert.Equal(t, "Income", categories[0].Name)
	assert.True(t, categories[0].IsIncome)
	assert.Equal(t, model.UncategorizedName, categories[5].Name)
}

func TestSaveAndListTransactions(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	transactions := []model.Transaction{
		{
			ID:           "t1",
			AccountID:    "acct-1",
			Date:         time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			Name:         "CORNER GROCERY #42",
			MerchantName: "Corner Grocery",
			MerchantKey:  "CORNER GROCERY",
			ProviderTags: []string{"FOOD_AND_DRINK"},
			Amount:       4521,
		},
		{
			ID:          "t2",
			AccountID:   "acct-1",
			Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Name:        "ACME PAYROLL",
			MerchantKey: "ACME PAYROLL",
			Amount:      500000,
			IsIncome:    true,
		},
	}
	require.NoError(t, store.SaveTransactions(ctx, testUser, transactions))

	got, err := store.ListTransactions(ctx, testUser, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Oldest first.
	assert.Equal(t, "t2", got[0].ID)
	assert.Equal(t, "t1", got[1].ID)
	assert.Equal(t, []string{"FOOD_AND_DRINK"}, got[1].ProviderTags)
	assert.Equal(t, int64(4521), got[1].Amount)
	assert.True(t, got[0].IsIncome)

	// The since bound is inclusive on the date.
	later, err := store.ListTransactions(ctx, testUser, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, "t1", later[0].ID)
}

func TestSaveTransactions_UpsertKeepsCategory(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	txn := model.Transaction{
		ID:          "t1",
		AccountID:   "acct-1",
		Date:        time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Name:        "Corner Grocery",
		MerchantKey: "CORNER GROCERY",
		Amount:      4521,
	}
	require.NoError(t, store.SaveTransactions(ctx, testUser, []model.Transaction{txn}))
	require.NoError(t, store.UpdateTransactionCategory(ctx, testUser, "t1", "food-transport", 0.8, model.SourceKeyword))

	// Re-importing the same transaction must not wipe its category.
	txn.Amount = 4600
	require.NoError(t, store.SaveTransactions(ctx, testUser, []model.Transaction{txn}))

	got, err := store.ListTransactions(ctx, testUser, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(4600), got[0].Amount)
	assert.Equal(t, "food-transport", got[0].CategoryID)
	assert.Equal(t, model.SourceKeyword, got[0].CategorySource)
}

func TestUpdateTransactionCategory_UserWinsOverAutomatic(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, testUser, []model.Transaction{{
		ID:        "t1",
		AccountID: "acct-1",
		Date:      time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Name:      "Corner Grocery",
		Amount:    4521,
	}}))

	require.NoError(t, store.UpdateTransactionCategory(ctx, testUser, "t1", "entertainment-shopping", 1.0, model.SourceUser))

	// An automatic pass must not override the user's pick.
	require.NoError(t, store.UpdateTransactionCategory(ctx, testUser, "t1", "food-transport", 0.8, model.SourceKeyword))

	got, err := store.GetTransactionsToCategorize(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, got)

	all, err := store.ListTransactions(ctx, testUser, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "entertainment-shopping", all[0].CategoryID)
	assert.Equal(t, model.SourceUser, all[0].CategorySource)
}

func TestUpdateTransactionCategory_UserUpdateOnMissingTransaction(t *testing.T) {
	store := newTestStorage(t)

	err := store.UpdateTransactionCategory(context.Background(), testUser, "nope", "food-transport", 1.0, model.SourceUser)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestFindLatestUserCategorized(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	for _, id := range []string{"t1", "t2"} {
		require.NoError(t, store.SaveTransactions(ctx, testUser, []model.Transaction{{
			ID:          id,
			AccountID:   "acct-1",
			Date:        time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			Name:        "Corner Grocery",
			MerchantKey: "CORNER GROCERY",
			Amount:      4521,
		}}))
	}

	_, err := store.FindLatestUserCategorized(ctx, testUser, "CORNER GROCERY")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, store.UpdateTransactionCategory(ctx, testUser, "t1", "food-transport", 1.0, model.SourceUser))
	time.Sleep(10 * time.Millisecond) // categorized_at must order t2 after t1
	require.NoError(t, store.UpdateTransactionCategory(ctx, testUser, "t2", "home-personal", 1.0, model.SourceUser))

	got, err := store.FindLatestUserCategorized(ctx, testUser, "CORNER GROCERY")
	require.NoError(t, err)
	assert.Equal(t, "t2", got.ID)
	assert.Equal(t, "home-personal", got.CategoryID)

	// Automatic categorizations never count as a human precedent.
	other := model.Transaction{
		ID:          "t3",
		AccountID:   "acct-1",
		Date:        time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
		Name:        "Gas Stop",
		MerchantKey: "GAS STOP",
		Amount:      3000,
	}
	require.NoError(t, store.SaveTransactions(ctx, testUser, []model.Transaction{other}))
	require.NoError(t, store.UpdateTransactionCategory(ctx, testUser, "t3", "food-transport", 0.7, model.SourceKeyword))

	_, err = store.FindLatestUserCategorized(ctx, testUser, "GAS STOP")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRules(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.FindRuleByMerchant(ctx, testUser, "CORNER GROCERY")
	assert.ErrorIs(t, err, common.ErrNotFound)

	rule := &model.CategoryRule{
		MerchantKey: "CORNER GROCERY",
		CategoryID:  "food-transport",
	}
	require.NoError(t, store.SaveRule(ctx, testUser, rule))
	assert.NotEmpty(t, rule.ID)
	assert.Equal(t, 1.0, rule.Confidence)

	got, err := store.FindRuleByMerchant(ctx, testUser, "CORNER GROCERY")
	require.NoError(t, err)
	assert.Equal(t, "food-transport", got.CategoryID)

	// Saving again for the same merchant replaces the category.
	require.NoError(t, store.SaveRule(ctx, testUser, &model.CategoryRule{
		MerchantKey: "CORNER GROCERY",
		CategoryID:  "home-personal",
	}))
	got, err = store.FindRuleByMerchant(ctx, testUser, "CORNER GROCERY")
	require.NoError(t, err)
	assert.Equal(t, "home-personal", got.CategoryID)

	rules, err := store.ListRules(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

func TestSaveRule_UnknownCategory(t *testing.T) {
	store := newTestStorage(t)

	err := store.SaveRule(context.Background(), testUser, &model.CategoryRule{
		MerchantKey: "CORNER GROCERY",
		CategoryID:  "no-such-category",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestRules_ScopedPerUser(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRule(ctx, testUser, &model.CategoryRule{
		MerchantKey: "CORNER GROCERY",
		CategoryID:  "food-transport",
	}))

	_, err := store.FindRuleByMerchant(ctx, "someone-else", "CORNER GROCERY")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPutClassifications_DoesNotReplaceOverride(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	expected := int64(9999)
	require.NoError(t, store.SaveClassification(ctx, testUser, &model.SpendingClassification{
		MerchantKey:    "GYM",
		Type:           model.TypeFixed,
		Source:         model.SourceUserOverride,
		Confidence:     1.0,
		ExpectedAmount: &expected,
	}))

	require.NoError(t, store.PutClassifications(ctx, testUser, []model.SpendingClassification{
		{
			MerchantKey: "GYM",
			Type:        model.TypeTrueVariable,
			Source:      model.SourceAutoDetected,
			Confidence:  0.70,
		},
		{
			MerchantKey: "NETFLIX",
			Type:        model.TypeFixed,
			Source:      model.SourceAutoDetected,
			Confidence:  0.95,
		},
	}))

	gym, err := store.GetClassification(ctx, testUser, "GYM")
	require.NoError(t, err)
	assert.Equal(t, model.SourceUserOverride, gym.Source)
	assert.Equal(t, model.TypeFixed, gym.Type)
	require.NotNil(t, gym.ExpectedAmount)
	assert.Equal(t, expected, *gym.ExpectedAmount)

	netflix, err := store.GetClassification(ctx, testUser, "NETFLIX")
	require.NoError(t, err)
	assert.Equal(t, model.SourceAutoDetected, netflix.Source)
}

func TestSaveClassification_OverrideReplacesAutoDetected(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.PutClassifications(ctx, testUser, []model.SpendingClassification{{
		MerchantKey: "GYM",
		Type:        model.TypeTrueVariable,
		Source:      model.SourceAutoDetected,
		Confidence:  0.70,
	}}))

	override, err := store.HasUserOverride(ctx, testUser, "GYM")
	require.NoError(t, err)
	assert.False(t, override)

	require.NoError(t, store.SaveClassification(ctx, testUser, &model.SpendingClassification{
		MerchantKey: "GYM",
		Type:        model.TypeFixed,
		Source:      model.SourceUserOverride,
		Confidence:  1.0,
	}))

	override, err = store.HasUserOverride(ctx, testUser, "GYM")
	require.NoError(t, err)
	assert.True(t, override)

	got, err := store.GetClassification(ctx, testUser, "GYM")
	require.NoError(t, err)
	assert.Equal(t, model.TypeFixed, got.Type)
	assert.Equal(t, model.SourceUserOverride, got.Source)
}

func TestPutClassifications_MirrorReflectsStoredOverride(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, testUser, []model.Transaction{{
		ID:          "t1",
		AccountID:   "acct-1",
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Name:        "Gym",
		MerchantKey: "GYM",
		Amount:      4500,
	}}))

	require.NoError(t, store.SaveClassification(ctx, testUser, &model.SpendingClassification{
		MerchantKey: "GYM",
		Type:        model.TypeFixed,
		Source:      model.SourceUserOverride,
		Confidence:  1.0,
	}))

	// A detector batch racing the override: the upsert is suppressed, and
	// the transaction mirror must show the override's type, not the batch's.
	require.NoError(t, store.PutClassifications(ctx, testUser, []model.SpendingClassification{{
		MerchantKey: "GYM",
		Type:        model.TypeTrueVariable,
		Source:      model.SourceAutoDetected,
		Confidence:  0.70,
	}}))

	got, err := store.ListTransactions(ctx, testUser, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.TypeFixed, got[0].ClassificationType)
}

func TestPutClassifications_RejectsInvalidRecord(t *testing.T) {
	store := newTestStorage(t)

	err := store.PutClassifications(context.Background(), testUser, []model.SpendingClassification{{
		MerchantKey: "GYM",
		Type:        "SOMETIMES",
		Source:      model.SourceAutoDetected,
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown classification type")
}

func TestBudgetTargets(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveBudgetTarget(ctx, testUser, &model.BudgetTarget{
		CategoryID: "food-transport",
		Period:     "2024-03",
		Amount:     90000,
	}))

	// Same key updates in place.
	require.NoError(t, store.SaveBudgetTarget(ctx, testUser, &model.BudgetTarget{
		CategoryID: "food-transport",
		Period:     "2024-03",
		Amount:     95000,
	}))

	targets, err := store.GetBudgetTargets(ctx, testUser, "2024-03")
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, int64(95000), targets[0].Amount)

	other, err := store.GetBudgetTargets(ctx, testUser, "2024-04")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSaveBudgetTarget_RejectsBadPeriod(t *testing.T) {
	store := newTestStorage(t)

	err := store.SaveBudgetTarget(context.Background(), testUser, &model.BudgetTarget{
		CategoryID: "food-transport",
		Period:     "March 2024",
		Amount:     90000,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid period")
}

func TestBudgetLineItems(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	item := &model.BudgetLineItem{
		CategoryID:  "home-personal",
		MerchantKey: "CITY PROPERTIES",
		Amount:      100000,
	}
	require.NoError(t, store.SaveBudgetLineItem(ctx, testUser, item))
	assert.NotEmpty(t, item.ID)

	item.Amount = 105000
	require.NoError(t, store.SaveBudgetLineItem(ctx, testUser, item))

	items, err := store.GetBudgetLineItems(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(105000), items[0].Amount)
	assert.Equal(t, "CITY PROPERTIES", items[0].MerchantKey)
}

func TestGetCategoryByName(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	cat, err := store.GetCategoryByName(ctx, "Food & Transportation")
	require.NoError(t, err)
	assert.Equal(t, "food-transport", cat.ID)
	assert.Contains(t, cat.Keywords, "grocery")

	_, err = store.GetCategoryByName(ctx, "No Such Category")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
