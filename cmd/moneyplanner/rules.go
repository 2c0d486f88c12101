package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/na5h13/MoneyPlanner-sub000/internal/merchant"
	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage merchant category rules",
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List merchant rules",
		RunE:  runRulesList,
	}

	cmd.Flags().String("user", "", "user whose rules to list (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runRulesList(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	ctx := cmd.Context()

	store, _, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rules, err := store.ListRules(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}

	for _, rule := range rules {
		cmd.Printf("%-30s -> %s\n", rule.MerchantKey, rule.CategoryID)
	}

	return nil
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a merchant rule (\"apply to all\")",
		Long: `Map a merchant to a category with full confidence. Future categorization
runs apply the rule before any other strategy.`,
		RunE: runRulesAdd,
	}

	cmd.Flags().String("user", "", "user the rule belongs to (required)")
	cmd.Flags().String("merchant", "", "merchant name (required)")
	cmd.Flags().String("category", "", "category name (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("merchant")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func runRulesAdd(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	merchantName, _ := cmd.Flags().GetString("merchant")
	categoryName, _ := cmd.Flags().GetString("category")
	ctx := cmd.Context()

	key := merchant.Normalize(merchantName)
	if key == "" {
		return fmt.Errorf("merchant name %q normalizes to nothing", merchantName)
	}

	store, _, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	category, err := store.GetCategoryByName(ctx, categoryName)
	if err != nil {
		return fmt.Errorf("failed to find category %q: %w", categoryName, err)
	}

	rule := &model.CategoryRule{
		MerchantKey: key,
		CategoryID:  category.ID,
		Confidence:  1.0,
	}
	if err := store.SaveRule(ctx, userID, rule); err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}

	cmd.Printf("Rule added: %s -> %s\n", key, category.Name)
	return nil
}
