package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/na5h13/MoneyPlanner-sub000/internal/common"
	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
)

// cachedRule is a rule-cache entry; a nil rule caches a confirmed miss.
type cachedRule struct {
	rule *model.CategoryRule
}

func ruleCacheKey(userID, merchantKey string) string {
	return userID + "\x00" + merchantKey
}

// FindRuleByMerchant returns the user's rule for the normalized merchant
// key, or common.ErrNotFound. Lookups are cached per merchant key because
// the categorization waterfall hits this once per transaction.
func (s *SQLiteStorage) FindRuleByMerchant(ctx context.Context, userID, merchantKey string) (*model.CategoryRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(merchantKey, "merchantKey"); err != nil {
		return nil, err
	}

	s.cacheMu.RLock()
	entry, ok := s.ruleCache[ruleCacheKey(userID, merchantKey)]
	s.cacheMu.RUnlock()
	if ok {
		if entry.rule == nil {
			return nil, fmt.Errorf("rule for %q: %w", merchantKey, common.ErrNotFound)
		}
		r := *entry.rule
		return &r, nil
	}

	var rule model.CategoryRule
	err := s.db.QueryRowContext(ctx, `
		SELECT id, merchant_key, category_id, confidence, created_at
		FROM category_rules
		WHERE user_id = ? AND merchant_key = ?
	`, userID, merchantKey).Scan(
		&rule.ID, &rule.MerchantKey, &rule.CategoryID, &rule.Confidence, &rule.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		s.cacheRule(userID, merchantKey, nil)
		return nil, fmt.Errorf("rule for %q: %w", merchantKey, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	s.cacheRule(userID, merchantKey, &rule)
	return &rule, nil
}

// SaveRule upserts a merchant rule; the natural key is (user, merchant key).
func (s *SQLiteStorage) SaveRule(ctx context.Context, userID string, rule *model.CategoryRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.Confidence == 0 {
		rule.Confidence = 1.0
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now()
	}

	var categoryExists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM categories WHERE id = ?)
	`, rule.CategoryID).Scan(&categoryExists); err != nil {
		return fmt.Errorf("failed to check category existence: %w", err)
	}
	if !categoryExists {
		return fmt.Errorf("category %q does not exist", rule.CategoryID)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO category_rules (id, user_id, merchant_key, category_id, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, merchant_key) DO UPDATE SET
			category_id = excluded.category_id,
			confidence = excluded.confidence,
			created_at = excluded.created_at
	`, rule.ID, userID, rule.MerchantKey, rule.CategoryID, rule.Confidence, rule.CreatedAt); err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}

	s.cacheRule(userID, rule.MerchantKey, rule)
	return nil
}

// ListRules returns all of the user's merchant rules, newest first.
func (s *SQLiteStorage) ListRules(ctx context.Context, userID string) ([]model.CategoryRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, merchant_key, category_id, confidence, created_at
		FROM category_rules
		WHERE user_id = ?
		ORDER BY created_at DESC, merchant_key ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.CategoryRule
	for rows.Next() {
		var rule model.CategoryRule
		if err := rows.Scan(&rule.ID, &rule.MerchantKey, &rule.CategoryID, &rule.Confidence, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}

	return rules, nil
}

func (s *SQLiteStorage) cacheRule(userID, merchantKey string, rule *model.CategoryRule) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if rule != nil {
		r := *rule
		s.ruleCache[ruleCacheKey(userID, merchantKey)] = cachedRule{rule: &r}
		return
	}
	s.ruleCache[ruleCacheKey(userID, merchantKey)] = cachedRule{}
}
