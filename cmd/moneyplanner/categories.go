package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
)

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		RunE:  runCategories,
	}
}

func runCategories(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, _, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	categories, err := store.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	for _, cat := range categories {
		kind := "expense"
		if cat.IsIncome {
			kind = "income"
		}
		cmd.Printf("%-24s %-8s %s\n", cat.Name, kind, strings.Join(cat.Keywords, ", "))
	}

	return nil
}

func targetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "target",
		Short: "Set a category's budget target for a period",
		RunE:  runTarget,
	}

	cmd.Flags().String("user", "", "user the target belongs to (required)")
	cmd.Flags().String("category", "", "category name (required)")
	cmd.Flags().Int64("amount", 0, "target amount in minor units (required)")
	cmd.Flags().String("period", "", "period, YYYY-MM (default: current month)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runTarget(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	categoryName, _ := cmd.Flags().GetString("category")
	amount, _ := cmd.Flags().GetInt64("amount")
	period, _ := cmd.Flags().GetString("period")
	if period == "" {
		period = time.Now().Format(model.PeriodLayout)
	}
	ctx := cmd.Context()

	store, _, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	category, err := store.GetCategoryByName(ctx, categoryName)
	if err != nil {
		return fmt.Errorf("failed to find category %q: %w", categoryName, err)
	}

	target := &model.BudgetTarget{
		CategoryID: category.ID,
		Period:     period,
		Amount:     amount,
	}
	if err := store.SaveBudgetTarget(ctx, userID, target); err != nil {
		return fmt.Errorf("failed to save target: %w", err)
	}

	cmd.Printf("Set %s target for %s to %s.\n", category.Name, period, formatAmount(amount))
	return nil
}
