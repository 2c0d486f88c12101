package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/na5h13/MoneyPlanner-sub000/internal/common"
	"github.com/na5h13/MoneyPlanner-sub000/internal/merchant"
	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
)

const importDateLayout = "2006-01-02"

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import transactions from a CSV file",
		Long: `Import transactions from a CSV file with the columns:

    date,amount,description,merchant,account,tags

date is YYYY-MM-DD, amount is signed integer minor units (cents), tags is a
semicolon-separated list of bank-provided category tags. Malformed amounts
or dates abort the import; nothing is silently coerced.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("user", "", "user to import for (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	ctx := cmd.Context()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer func() { _ = f.Close() }()

	transactions, err := parseCSV(f)
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		cmd.Println("No transactions to import.")
		return nil
	}

	store, _, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveTransactions(ctx, userID, transactions); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	slog.Info("Import complete", "user_id", userID, "count", len(transactions))
	cmd.Printf("Imported %d transactions.\n", len(transactions))
	return nil
}

// parseCSV reads the import format, failing fast on malformed rows.
func parseCSV(r io.Reader) ([]model.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var transactions []model.Transaction
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line++

		// Skip the header row.
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "date") {
			continue
		}
		if len(record) < 3 {
			return nil, fmt.Errorf("line %d: expected at least date, amount, description", line)
		}

		date, err := time.Parse(importDateLayout, strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %q", line, common.ErrInvalidDate, record[0])
		}

		amount, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %q", line, common.ErrInvalidAmount, record[1])
		}

		txn := model.Transaction{
			ID:     uuid.NewString(),
			Date:   date,
			Name:   strings.TrimSpace(record[2]),
			Amount: amount,
		}
		if len(record) > 3 {
			txn.MerchantName = strings.TrimSpace(record[3])
		}
		if len(record) > 4 {
			txn.AccountID = strings.TrimSpace(record[4])
		}
		if len(record) > 5 && strings.TrimSpace(record[5]) != "" {
			txn.ProviderTags = strings.Split(strings.TrimSpace(record[5]), ";")
		}

		raw := txn.MerchantName
		if raw == "" {
			raw = txn.Name
		}
		txn.MerchantKey = merchant.Normalize(raw)

		transactions = append(transactions, txn)
	}

	return transactions, nil
}
