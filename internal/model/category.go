// Package model defines the core domain models used throughout the application.
package model

import "strings"

// UncategorizedName is the name of the catch-all category that the
// categorization waterfall falls back to.
const UncategorizedName = "Uncategorized"

// Category represents a named spending bucket.
type Category struct {
	ID       string
	Name     string
	Keywords []string // lowercase keywords used for fallback matching
	Position int
	IsIncome bool
}

// MatchesKeyword reports whether any of the category's keywords is a
// substring of the given lowercase text. Categories with an empty keyword
// set never match.
func (c *Category) MatchesKeyword(text string) bool {
	for _, kw := range c.Keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
