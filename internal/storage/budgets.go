package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
)

// GetBudgetTargets returns the user's targets for one period.
func (s *SQLiteStorage) GetBudgetTargets(ctx context.Context, userID, period string) ([]model.BudgetTarget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(period, "period"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category_id, period, amount
		FROM budget_targets
		WHERE user_id = ? AND period = ?
		ORDER BY category_id ASC
	`, userID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget targets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var targets []model.BudgetTarget
	for rows.Next() {
		var t model.BudgetTarget
		if err := rows.Scan(&t.CategoryID, &t.Period, &t.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan budget target: %w", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budget targets: %w", err)
	}

	return targets, nil
}

// SaveBudgetTarget upserts one per-category, per-period target.
func (s *SQLiteStorage) SaveBudgetTarget(ctx context.Context, userID string, target *model.BudgetTarget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("target cannot be nil")
	}
	if err := validateString(target.CategoryID, "target.CategoryID"); err != nil {
		return err
	}
	if _, err := time.Parse(model.PeriodLayout, target.Period); err != nil {
		return fmt.Errorf("invalid period %q: %w", target.Period, err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO budget_targets (user_id, category_id, period, amount)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, category_id, period) DO UPDATE SET
			amount = excluded.amount
	`, userID, target.CategoryID, target.Period, target.Amount); err != nil {
		return fmt.Errorf("failed to save budget target: %w", err)
	}

	return nil
}

// GetBudgetLineItems returns all of the user's budget line items.
func (s *SQLiteStorage) GetBudgetLineItems(ctx context.Context, userID string) ([]model.BudgetLineItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, COALESCE(merchant_key, ''), amount, created_at
		FROM budget_line_items
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget line items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.BudgetLineItem
	for rows.Next() {
		var item model.BudgetLineItem
		if err := rows.Scan(&item.ID, &item.CategoryID, &item.MerchantKey, &item.Amount, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget line item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budget line items: %w", err)
	}

	return items, nil
}

// SaveBudgetLineItem upserts one line item, assigning an ID when absent.
func (s *SQLiteStorage) SaveBudgetLineItem(ctx context.Context, userID string, item *model.BudgetLineItem) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("item cannot be nil")
	}
	if err := validateString(item.CategoryID, "item.CategoryID"); err != nil {
		return err
	}

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO budget_line_items (id, user_id, category_id, merchant_key, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category_id = excluded.category_id,
			merchant_key = excluded.merchant_key,
			amount = excluded.amount
	`, item.ID, userID, item.CategoryID, item.MerchantKey, item.Amount, item.CreatedAt); err != nil {
		return fmt.Errorf("failed to save budget line item: %w", err)
	}

	return nil
}
