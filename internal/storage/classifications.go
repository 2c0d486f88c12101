package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/na5h13/MoneyPlanner-sub000/internal/common"
	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
)

// GetClassification returns the merchant's spending classification, or
// common.ErrNotFound.
func (s *SQLiteStorage) GetClassification(ctx context.Context, userID, merchantKey string) (*model.SpendingClassification, error) {
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
		SELECT merchant_key, type, source, confidence,
			expected_amount, expected_day, range_low, range_high, updated_at
		FROM spending_classifications
		WHERE user_id = ? AND merchant_key = ?
	`, userID, merchantKey)

	record, err := scanClassification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("classification for %q: %w", merchantKey, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// PutClassifications upserts detector output in one batch. The upsert is
// conditional: a stored USER_OVERRIDE record is never replaced, so a retry
// racing a user's override cannot clobber it.
func (s *SQLiteStorage) PutClassifications(ctx context.Context, userID string, records []model.SpendingClassification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	for i := range records {
		if err := validateClassification(&records[i]); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range records {
		if err := s.putClassificationTx(ctx, tx, userID, &records[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveClassification writes one record unconditionally; user overrides
// arrive through this path.
func (s *SQLiteStorage) SaveClassification(ctx context.Context, userID string, record *model.SpendingClassification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateClassification(record); err != nil {
		return err
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now()
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO spending_classifications (
			user_id, merchant_key, type, source, confidence,
			expected_amount, expected_day, range_low, range_high, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, merchant_key) DO UPDATE SET
			type = excluded.type,
			source = excluded.source,
			confidence = excluded.confidence,
			expected_amount = excluded.expected_amount,
			expected_day = excluded.expected_day,
			range_low = excluded.range_low,
			range_high = excluded.range_high,
			updated_at = excluded.updated_at
	`, userID, record.MerchantKey, string(record.Type), string(record.Source),
		record.Confidence, record.ExpectedAmount, record.ExpectedDay,
		record.RangeLow, record.RangeHigh, record.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to save classification: %w", err)
	}

	return nil
}

func (s *SQLiteStorage) putClassificationTx(ctx context.Context, tx *sql.Tx, userID string, record *model.SpendingClassification) error {
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now()
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO spending_classifications (
			user_id, merchant_key, type, source, confidence,
			expected_amount, expected_day, range_low, range_high, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, merchant_key) DO UPDATE SET
			type = excluded.type,
			source = excluded.source,
			confidence = excluded.confidence,
			expected_amount = excluded.expected_amount,
			expected_day = excluded.expected_day,
			range_low = excluded.range_low,
			range_high = excluded.range_high,
			updated_at = excluded.updated_at
		WHERE spending_classifications.source != ?
	`, userID, record.MerchantKey, string(record.Type), string(record.Source),
		record.Confidence, record.ExpectedAmount, record.ExpectedDay,
		record.RangeLow, record.RangeHigh, record.UpdatedAt,
		string(model.SourceUserOverride),
	); err != nil {
		return fmt.Errorf("failed to put classification for %q: %w", record.MerchantKey, err)
	}

	// Mirror the merchant's classification type onto its transactions so
	// per-transaction reads don't need a join. The mirror copies the stored
	// row, not the incoming record: when the upsert above was suppressed by
	// a standing override, the override's type is what must show through.
	if _, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET classification_type = (
			SELECT type FROM spending_classifications
			WHERE user_id = ? AND merchant_key = ?
		)
		WHERE user_id = ? AND merchant_key = ?
	`, userID, record.MerchantKey, userID, record.MerchantKey); err != nil {
		return fmt.Errorf("failed to mirror classification type for %q: %w", record.MerchantKey, err)
	}

	return nil
}

// HasUserOverride reports whether the merchant has a standing USER_OVERRIDE
// classification.
func (s *SQLiteStorage) HasUserOverride(ctx context.Context, userID, merchantKey string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return false, err
	}
	if err := validateString(merchantKey, "merchantKey"); err != nil {
		return false, err
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM spending_classifications
			WHERE user_id = ? AND merchant_key = ? AND source = ?
		)
	`, userID, merchantKey, string(model.SourceUserOverride)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check override: %w", err)
	}

	return exists, nil
}

// ListClassifications returns all of the user's classification records
// ordered by merchant key.
func (s *SQLiteStorage) ListClassifications(ctx context.Context, userID string) ([]model.SpendingClassification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT merchant_key, type, source, confidence,
			expected_amount, expected_day, range_low, range_high, updated_at
		FROM spending_classifications
		WHERE user_id = ?
		ORDER BY merchant_key ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list classifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.SpendingClassification
	for rows.Next() {
		record, scanErr := scanClassification(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate classifications: %w", err)
	}

	return records, nil
}

func scanClassification(row rowScanner) (*model.SpendingClassification, error) {
	var (
		record         model.SpendingClassification
		expectedAmount sql.NullInt64
		expectedDay    sql.NullInt64
		rangeLow       sql.NullInt64
		rangeHigh      sql.NullInt64
	)
	if err := row.Scan(
		&record.MerchantKey, (*string)(&record.Type), (*string)(&record.Source),
		&record.Confidence, &expectedAmount, &expectedDay, &rangeLow, &rangeHigh,
		&record.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan classification: %w", err)
	}

	if expectedAmount.Valid {
		v := expectedAmount.Int64
		record.ExpectedAmount = &v
	}
	if expectedDay.Valid {
		v := int(expectedDay.Int64)
		record.ExpectedDay = &v
	}
	if rangeLow.Valid {
		v := rangeLow.Int64
		record.RangeLow = &v
	}
	if rangeHigh.Valid {
		v := rangeHigh.Int64
		record.RangeHigh = &v
	}

	return &record, nil
}
