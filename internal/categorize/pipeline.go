// Package categorize implements the transaction categorization waterfall:
// an ordered list of strategies with decreasing confidence, where the first
// match wins.
package categorize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/na5h13/MoneyPlanner-sub000/internal/common"
	"github.com/na5h13/MoneyPlanner-sub000/internal/merchant"
	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
)

// FallbackCategoryID is returned when the caller supplied no categories at
// all, so not even the catch-all bucket is available.
const FallbackCategoryID = "uncategorized"

// Strategy confidence levels.
const (
	confidenceRule        = 1.0
	confidenceHistorical  = 0.95
	confidenceProviderMap = 0.80
	confidenceKeyword     = 0.70
)

// RuleFinder looks up an exact merchant-key rule.
type RuleFinder interface {
	FindRuleByMerchant(ctx context.Context, userID, merchantKey string) (*model.CategoryRule, error)
}

// HistoryFinder looks up the most recent human-categorized transaction for a
// merchant. It may return common.ErrIndexUnavailable when its optional index
// is missing; the pipeline treats that as "no match".
type HistoryFinder interface {
	FindLatestUserCategorized(ctx context.Context, userID, merchantKey string) (*model.Transaction, error)
}

// Request carries the per-transaction inputs to the waterfall.
type Request struct {
	UserID       string
	MerchantName string
	Description  string
	ProviderTags []string
	Categories   []model.Category
}

// Result is the category decision for one transaction.
type Result struct {
	CategoryID string
	Source     model.CategorySource
	Confidence float64
}

// Strategy evaluates one categorization approach. A nil result with a nil
// error means "no match, try the next strategy".
type Strategy func(ctx context.Context, req Request) (*Result, error)

// Pipeline runs the categorization strategies in confidence order.
type Pipeline struct {
	strategies []Strategy
}

// NewPipeline builds the standard waterfall over the given collaborators.
func NewPipeline(rules RuleFinder, history HistoryFinder) *Pipeline {
	return &Pipeline{
		strategies: []Strategy{
			ruleStrategy(rules),
			historyStrategy(history),
			providerMapStrategy,
			keywordStrategy,
		},
	}
}

// Categorize assigns a category to one transaction. It is a pure decision
// function: persisting the result is the caller's responsibility.
func (p *Pipeline) Categorize(ctx context.Context, req Request) (Result, error) {
	for _, strategy := range p.strategies {
		res, err := strategy(ctx, req)
		if err != nil {
			return Result{}, err
		}
		if res != nil {
			return *res, nil
		}
	}
	return fallbackResult(req), nil
}

func ruleStrategy(rules RuleFinder) Strategy {
	return func(ctx context.Context, req Request) (*Result, error) {
		key := merchant.Normalize(req.MerchantName)
		if key == "" {
			return nil, nil
		}

		rule, err := rules.FindRuleByMerchant(ctx, req.UserID, key)
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("rule lookup failed for %q: %w", key, err)
		}

		return &Result{
			CategoryID: rule.CategoryID,
			Source:     model.SourceMerchantRule,
			Confidence: confidenceRule,
		}, nil
	}
}

func historyStrategy(history HistoryFinder) Strategy {
	return func(ctx context.Context, req Request) (*Result, error) {
		key := merchant.Normalize(req.MerchantName)
		if key == "" {
			return nil, nil
		}

		txn, err := history.FindLatestUserCategorized(ctx, req.UserID, key)
		switch {
		case errors.Is(err, common.ErrIndexUnavailable):
			// Optional enrichment only; skip, never fatal.
			slog.Debug("Historical lookup index unavailable, skipping",
				"merchant_key", key)
			return nil, nil
		case errors.Is(err, common.ErrNotFound):
			return nil, nil
		case err != nil:
			return nil, fmt.Errorf("historical lookup failed for %q: %w", key, err)
		}

		if !txn.Categorized() {
			return nil, nil
		}

		return &Result{
			CategoryID: txn.CategoryID,
			Source:     model.SourceHistorical,
			Confidence: confidenceHistorical,
		}, nil
	}
}

func providerMapStrategy(_ context.Context, req Request) (*Result, error) {
	for _, tag := range req.ProviderTags {
		normalized := merchant.NormalizeTag(tag)
		if normalized == "" {
			continue
		}
		if cat := mapProviderTag(normalized, req.Categories); cat != nil {
			return &Result{
				CategoryID: cat.ID,
				Source:     model.SourcePlaidMap,
				Confidence: confidenceProviderMap,
			}, nil
		}
	}
	return nil, nil
}

func keywordStrategy(_ context.Context, req Request) (*Result, error) {
	text := lowerConcat(req.MerchantName, req.Description)
	if text == "" {
		return nil, nil
	}

	for i := range req.Categories {
		cat := &req.Categories[i]
		if cat.Name == model.UncategorizedName {
			continue
		}
		if cat.MatchesKeyword(text) {
			return &Result{
				CategoryID: cat.ID,
				Source:     model.SourceKeyword,
				Confidence: confidenceKeyword,
			}, nil
		}
	}
	return nil, nil
}

func fallbackResult(req Request) Result {
	res := Result{
		CategoryID: FallbackCategoryID,
		Source:     model.SourceFallback,
		Confidence: 0,
	}
	for _, cat := range req.Categories {
		if cat.Name == model.UncategorizedName {
			res.CategoryID = cat.ID
			return res
		}
	}
	if len(req.Categories) > 0 {
		res.CategoryID = req.Categories[len(req.Categories)-1].ID
	}
	return res
}
