package storage

import (
	"context"
	"fmt"

	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	return nil
}

func validateString(value, name string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

func validateTransaction(txn *model.Transaction) error {
	if txn.ID == "" {
		return fmt.Errorf("transaction ID cannot be empty")
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("transaction %s has no date", txn.ID)
	}
	if txn.Name == "" {
		return fmt.Errorf("transaction %s has no description", txn.ID)
	}
	return nil
}

func validateRule(rule *model.CategoryRule) error {
	if rule == nil {
		return fmt.Errorf("rule cannot be nil")
	}
	if rule.MerchantKey == "" {
		return fmt.Errorf("rule merchant key cannot be empty")
	}
	if rule.CategoryID == "" {
		return fmt.Errorf("rule category cannot be empty")
	}
	return nil
}

func validateClassification(record *model.SpendingClassification) error {
	if record == nil {
		return fmt.Errorf("classification cannot be nil")
	}
	if record.MerchantKey == "" {
		return fmt.Errorf("classification merchant key cannot be empty")
	}
	switch record.Type {
	case model.TypeFixed, model.TypeRecurringVariable, model.TypeTrueVariable, model.TypeUnclassified:
	default:
		return fmt.Errorf("unknown classification type %q", record.Type)
	}
	switch record.Source {
	case model.SourceAutoDetected, model.SourceUserOverride:
	default:
		return fmt.Errorf("unknown classification source %q", record.Source)
	}
	if record.Confidence < 0 || record.Confidence > 1 {
		return fmt.Errorf("classification confidence %v out of range", record.Confidence)
	}
	if record.ExpectedDay != nil && (*record.ExpectedDay < 1 || *record.ExpectedDay > 31) {
		return fmt.Errorf("classification expected day %d out of range", *record.ExpectedDay)
	}
	return nil
}
