package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/na5h13/MoneyPlanner-sub000/internal/common"
	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
)

// GetCategories returns all categories ordered by position.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, position, is_income, keywords
		FROM categories
		ORDER BY position ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		cat, scanErr := scanCategory(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		categories = append(categories, *cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return categories, nil
}

// GetCategoryByName returns the category with the given name, or
// common.ErrNotFound.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, position, is_income, keywords
		FROM categories
		WHERE name = ?
	`, name)

	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return cat, nil
}

func scanCategory(row rowScanner) (*model.Category, error) {
	var (
		cat      model.Category
		keywords string
	)
	if err := row.Scan(&cat.ID, &cat.Name, &cat.Position, &cat.IsIncome, &keywords); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}
	if err := json.Unmarshal([]byte(keywords), &cat.Keywords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal category keywords: %w", err)
	}
	return &cat, nil
}
