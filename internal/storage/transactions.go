package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/na5h13/MoneyPlanner-sub000/internal/common"
	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
)

const transactionColumns = `id, account_id, date, name, merchant_name, merchant_key,
	provider_tags, amount, pending, is_income,
	COALESCE(category_id, ''), category_confidence, COALESCE(category_source, ''),
	COALESCE(categorized_at, '0001-01-01 00:00:00+00:00'), COALESCE(classification_type, '')`

// SaveTransactions upserts a batch of transactions for one user.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, userID string, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (
			id, user_id, account_id, date, name, merchant_name, merchant_key,
			provider_tags, amount, pending, is_income
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET
			account_id = excluded.account_id,
			date = excluded.date,
			name = excluded.name,
			merchant_name = excluded.merchant_name,
			merchant_key = excluded.merchant_key,
			provider_tags = excluded.provider_tags,
			amount = excluded.amount,
			pending = excluded.pending,
			is_income = excluded.is_income
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, txn := range transactions {
		tags, marshalErr := json.Marshal(txn.ProviderTags)
		if marshalErr != nil {
			return fmt.Errorf("failed to marshal provider tags: %w", marshalErr)
		}
		if _, err := stmt.ExecContext(ctx,
			txn.ID, userID, txn.AccountID, txn.Date, txn.Name,
			txn.MerchantName, txn.MerchantKey, string(tags),
			txn.Amount, txn.Pending, txn.IsIncome,
		); err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
		}
	}

	return tx.Commit()
}

// ListTransactions returns the user's transactions dated on or after since,
// oldest first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, userID string, since time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = ? AND date >= ?
		ORDER BY date ASC, id ASC
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// GetTransactionsToCategorize returns the user's transactions that carry no
// category yet, oldest first.
func (s *SQLiteStorage) GetTransactionsToCategorize(ctx context.Context, userID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = ? AND COALESCE(category_id, '') = ''
		ORDER BY date ASC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list uncategorized transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// UpdateTransactionCategory sets the category fields on one transaction. An
// automatic source never overwrites a category a user assigned.
func (s *SQLiteStorage) UpdateTransactionCategory(ctx context.Context, userID, transactionID, categoryID string, confidence float64, source model.CategorySource) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}

	query := `
		UPDATE transactions
		SET category_id = ?, category_confidence = ?, category_source = ?, categorized_at = ?
		WHERE user_id = ? AND id = ?
	`
	args := []any{categoryID, confidence, string(source), time.Now(), userID, transactionID}
	if source != model.SourceUser {
		query += ` AND COALESCE(category_source, '') != ?`
		args = append(args, string(model.SourceUser))
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update transaction category: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 && source == model.SourceUser {
		return fmt.Errorf("transaction %s: %w", transactionID, common.ErrNotFound)
	}

	return nil
}

// FindLatestUserCategorized returns the most recent transaction for the
// merchant that was categorized by a human, or common.ErrNotFound.
func (s *SQLiteStorage) FindLatestUserCategorized(ctx context.Context, userID, merchantKey string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(merchantKey, "merchantKey"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = ? AND merchant_key = ?
			AND category_source = ? AND COALESCE(category_id, '') != ''
		ORDER BY categorized_at DESC
		LIMIT 1
	`, userID, merchantKey, string(model.SourceUser))

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("merchant %q: %w", merchantKey, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find categorized transaction: %w", err)
	}
	return txn, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		txn  model.Transaction
		tags string
	)
	if err := row.Scan(
		&txn.ID, &txn.AccountID, &txn.Date, &txn.Name, &txn.MerchantName,
		&txn.MerchantKey, &tags, &txn.Amount, &txn.Pending, &txn.IsIncome,
		&txn.CategoryID, &txn.CategoryConfidence,
		(*string)(&txn.CategorySource), &txn.CategorizedAt,
		(*string)(&txn.ClassificationType),
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &txn.ProviderTags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal provider tags: %w", err)
	}
	return &txn, nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}
