package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/na5h13/MoneyPlanner-sub000/internal/merchant"
	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
	"github.com/na5h13/MoneyPlanner-sub000/internal/recurrence"
)

func detectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect merchant recurrence patterns",
		Long: `Analyze the trailing transaction window (90 days unless
classification.window_days says otherwise) and classify each merchant
as FIXED, RECURRING_VARIABLE, or TRUE_VARIABLE. Merchants you have pinned
with an override are left alone. Safe to re-run at any time.`,
		RunE: runDetect,
	}

	cmd.Flags().String("user", "", "user to run detection for (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runDetect(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	ctx := cmd.Context()

	store, cfg, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	detector := recurrence.NewDetector(store).WithWindow(cfg.WindowDays)
	count, err := detector.Detect(ctx, userID)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	cmd.Printf("Classified %d merchants.\n", count)
	return nil
}

func overrideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Pin a merchant's classification",
		Long: `Pin a merchant to a classification type. Pinned merchants are skipped by
automatic detection until the override is replaced.`,
		RunE: runOverride,
	}

	cmd.Flags().String("user", "", "user the override belongs to (required)")
	cmd.Flags().String("merchant", "", "merchant name (required)")
	cmd.Flags().String("type", "", "classification type: FIXED, RECURRING_VARIABLE, TRUE_VARIABLE (required)")
	cmd.Flags().Int64("expected-amount", 0, "expected amount in minor units (FIXED)")
	cmd.Flags().Int("expected-day", 0, "expected day of month (FIXED)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("merchant")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func runOverride(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	merchantName, _ := cmd.Flags().GetString("merchant")
	typeName, _ := cmd.Flags().GetString("type")
	expectedAmount, _ := cmd.Flags().GetInt64("expected-amount")
	expectedDay, _ := cmd.Flags().GetInt("expected-day")
	ctx := cmd.Context()

	classType := model.ClassificationType(strings.ToUpper(strings.TrimSpace(typeName)))
	switch classType {
	case model.TypeFixed, model.TypeRecurringVariable, model.TypeTrueVariable:
	default:
		return fmt.Errorf("unknown classification type %q", typeName)
	}

	key := merchant.Normalize(merchantName)
	if key == "" {
		return fmt.Errorf("merchant name %q normalizes to nothing", merchantName)
	}

	record := &model.SpendingClassification{
		MerchantKey: key,
		Type:        classType,
		Source:      model.SourceUserOverride,
		Confidence:  1.0,
	}
	if expectedAmount > 0 {
		record.ExpectedAmount = &expectedAmount
	}
	if expectedDay > 0 {
		record.ExpectedDay = &expectedDay
	}

	store, _, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveClassification(ctx, userID, record); err != nil {
		return fmt.Errorf("failed to save override: %w", err)
	}

	cmd.Printf("Pinned %s as %s.\n", key, classType)
	return nil
}
