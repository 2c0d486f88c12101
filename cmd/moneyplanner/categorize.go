package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/na5h13/MoneyPlanner-sub000/internal/categorize"
)

func categorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Categorize uncategorized transactions",
		Long: `Run the categorization waterfall over every uncategorized transaction:
merchant rules, then the user's categorization history, then bank-provided
category tags, then category keywords. Categories you assigned yourself are
never touched.`,
		RunE: runCategorize,
	}

	cmd.Flags().String("user", "", "user to categorize for (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runCategorize(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	ctx := cmd.Context()

	store, _, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	engine := categorize.NewEngine(store)
	updated, err := engine.CategorizeAll(ctx, userID)
	if err != nil {
		return fmt.Errorf("categorization failed: %w", err)
	}

	cmd.Printf("Categorized %d transactions.\n", updated)
	return nil
}
