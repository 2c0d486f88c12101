package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
	"github.com/na5h13/MoneyPlanner-sub000/internal/trend"
)

func trendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Project end-of-period spending",
		Long: `Project end-of-period spending per category and budget line item for one
calendar month, and grade each against its target.`,
		RunE: runTrend,
	}

	cmd.Flags().String("user", "", "user to report on (required)")
	cmd.Flags().String("period", "", "period to report on, YYYY-MM (default: current month)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runTrend(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
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

	report, err := trend.NewReporter(store).Build(ctx, userID, period)
	if err != nil {
		return fmt.Errorf("failed to build trend report: %w", err)
	}

	cmd.Printf("Period %s (day %d of %d)\n\n", report.Period, report.DaysElapsed, report.DaysInPeriod)

	if len(report.Categories) == 0 {
		cmd.Println("No category activity this period.")
	}
	for _, cr := range report.Categories {
		t := cr.Trend
		cmd.Printf("%-26s spent %10s  projected %10s  target %10s  %s\n",
			cr.CategoryName,
			formatAmount(t.Spent),
			formatAmount(t.Projected),
			formatAmount(t.Target),
			t.Status)
	}

	if len(report.Items) > 0 {
		cmd.Println()
		for _, ir := range report.Items {
			label := ir.Item.MerchantKey
			if label == "" {
				label = ir.Item.CategoryID
			}
			cmd.Printf("%-26s expected %8s  budget %10s  %s\n",
				label,
				formatAmount(ir.Trend.Amount),
				formatAmount(ir.Item.Amount),
				ir.Trend.Status)
		}
	}

	return nil
}
