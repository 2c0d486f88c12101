// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
)

// Storage defines the contract for the persistence layer. All methods are
// scoped by user where the data is per-user; categories are shared.
type Storage interface {
	// Transaction operations.
	SaveTransactions(ctx context.Context, userID string, transactions []model.Transaction) error
	// ListTransactions returns the user's transactions dated on or after
	// since, oldest first.
	ListTransactions(ctx context.Context, userID string, since time.Time) ([]model.Transaction, error)
	GetTransactionsToCategorize(ctx context.Context, userID string) ([]model.Transaction, error)
	// UpdateTransactionCategory sets the category fields on one transaction.
	// A category set with source model.SourceUser is never overwritten by a
	// later automatic update.
	UpdateTransactionCategory(ctx context.Context, userID, transactionID, categoryID string, confidence float64, source model.CategorySource) error
	// FindLatestUserCategorized returns the most recent transaction for the
	// merchant that a human categorized, or common.ErrNotFound. An
	// implementation backed by an optional index may instead return
	// common.ErrIndexUnavailable, which callers treat as "no match".
	FindLatestUserCategorized(ctx context.Context, userID, merchantKey string) (*model.Transaction, error)

	// Category rule operations.
	FindRuleByMerchant(ctx context.Context, userID, merchantKey string) (*model.CategoryRule, error)
	SaveRule(ctx context.Context, userID string, rule *model.CategoryRule) error
	ListRules(ctx context.Context, userID string) ([]model.CategoryRule, error)

	// Spending classification operations.
	GetClassification(ctx context.Context, userID, merchantKey string) (*model.SpendingClassification, error)
	// PutClassifications upserts detector output in one batch. Records whose
	// stored counterpart is a USER_OVERRIDE are left untouched.
	PutClassifications(ctx context.Context, userID string, records []model.SpendingClassification) error
	// SaveClassification writes a single record unconditionally; it is the
	// path user overrides arrive through.
	SaveClassification(ctx context.Context, userID string, record *model.SpendingClassification) error
	HasUserOverride(ctx context.Context, userID, merchantKey string) (bool, error)
	ListClassifications(ctx context.Context, userID string) ([]model.SpendingClassification, error)

	// Category operations.
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)

	// Budget operations.
	GetBudgetTargets(ctx context.Context, userID, period string) ([]model.BudgetTarget, error)
	SaveBudgetTarget(ctx context.Context, userID string, target *model.BudgetTarget) error
	GetBudgetLineItems(ctx context.Context, userID string) ([]model.BudgetLineItem, error)
	SaveBudgetLineItem(ctx context.Context, userID string, item *model.BudgetLineItem) error

	// Database management.
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
