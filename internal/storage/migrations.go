package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version the application expects.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT NOT NULL,
					user_id TEXT NOT NULL,
					account_id TEXT,
					date DATETIME NOT NULL,
					name TEXT NOT NULL,
					merchant_name TEXT,
					merchant_key TEXT,
					provider_tags TEXT NOT NULL DEFAULT '[]',
					amount INTEGER NOT NULL,
					pending INTEGER NOT NULL DEFAULT 0,
					is_income INTEGER NOT NULL DEFAULT 0,
					category_id TEXT,
					category_confidence REAL NOT NULL DEFAULT 0,
					category_source TEXT,
					categorized_at DATETIME,
					classification_type TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (user_id, id)
				)`,
				`CREATE INDEX idx_transactions_user_date ON transactions(user_id, date)`,
				`CREATE INDEX idx_transactions_user_merchant ON transactions(user_id, merchant_key)`,
				`CREATE INDEX idx_transactions_user_categorized ON transactions(user_id, merchant_key, categorized_at)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id TEXT PRIMARY KEY,
					name TEXT UNIQUE NOT NULL,
					position INTEGER NOT NULL DEFAULT 0,
					is_income INTEGER NOT NULL DEFAULT 0,
					keywords TEXT NOT NULL DEFAULT '[]'
				)`,

				`CREATE TABLE IF NOT EXISTS category_rules (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					merchant_key TEXT NOT NULL,
					category_id TEXT NOT NULL,
					confidence REAL NOT NULL DEFAULT 1.0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (user_id, merchant_key)
				)`,

				`CREATE TABLE IF NOT EXISTS spending_classifications (
					user_id TEXT NOT NULL,
					merchant_key TEXT NOT NULL,
					type TEXT NOT NULL,
					source TEXT NOT NULL,
					confidence REAL NOT NULL DEFAULT 0,
					expected_amount INTEGER,
					expected_day INTEGER,
					range_low INTEGER,
					range_high INTEGER,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (user_id, merchant_key)
				)`,

				`CREATE TABLE IF NOT EXISTS budget_targets (
					user_id TEXT NOT NULL,
					category_id TEXT NOT NULL,
					period TEXT NOT NULL,
					amount INTEGER NOT NULL,
					PRIMARY KEY (user_id, category_id, period)
				)`,

				`CREATE TABLE IF NOT EXISTS budget_line_items (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					category_id TEXT NOT NULL,
					merchant_key TEXT,
					amount INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_line_items_user ON budget_line_items(user_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Seed default categories",
		Up: func(tx *sql.Tx) error {
			type seed struct {
				id       string
				name     string
				keywords []string
				position int
				isIncome bool
			}
			seeds := []seed{
				{"income", "Income", []string{"payroll", "salary", "paycheck", "direct deposit"}, 0, true},
				{"food-transport", "Food & Transportation", []string{"grocery", "supermarket", "restaurant", "cafe", "coffee", "uber", "lyft", "fuel", "gas station", "parking", "transit"}, 1, false},
				{"home-personal", "Home & Personal", []string{"rent", "mortgage", "electric", "water", "internet", "phone", "insurance", "pharmacy", "clinic", "salon"}, 2, false},
				{"entertainment-shopping", "Entertainment & Shopping", []string{"cinema", "netflix", "spotify", "steam", "amazon", "mall", "hotel", "airline"}, 3, false},
				{"savings-transfers", "Savings & Transfers", []string{"transfer", "savings", "deposit to"}, 4, false},
				{"uncategorized", "Uncategorized", nil, 5, false},
			}
			for _, c := range seeds {
				keywords, err := json.Marshal(c.keywords)
				if err != nil {
					return fmt.Errorf("failed to marshal keywords: %w", err)
				}
				if c.keywords == nil {
					keywords = []byte("[]")
				}
				if _, err := tx.Exec(`
					INSERT INTO categories (id, name, position, is_income, keywords)
					VALUES (?, ?, ?, ?, ?)
					ON CONFLICT(id) DO NOTHING
				`, c.id, c.name, c.position, c.isIncome, string(keywords)); err != nil {
					return fmt.Errorf("failed to seed category %q: %w", c.name, err)
				}
			}
			return nil
		},
	},
}

// Migrate brings the database schema up to the expected version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_versions (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_versions table: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_versions`,
	).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}

		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			`INSERT INTO schema_versions (version, description) VALUES (?, ?)`,
			m.Version, m.Description,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		slog.Info("Applied migration",
			"version", m.Version,
			"description", m.Description)
	}

	return nil
}
