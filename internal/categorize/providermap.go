package categorize

import (
	"strings"

	"github.com/na5h13/MoneyPlanner-sub000/internal/model"
)

// providerMapping maps a substring of a normalized bank-provided category tag
// to one of our category names. Entries are checked in order for each tag;
// the first entry whose key is contained in the tag, and whose target
// category exists in the caller's set, wins.
type providerMapping struct {
	match    string
	category string
}

var providerCategoryTable = []providerMapping{
	{"INCOME", "Income"},
	{"PAYROLL", "Income"},
	{"INTEREST_EARNED", "Income"},
	{"TRANSFER", "Savings & Transfers"},
	{"SAVINGS", "Savings & Transfers"},
	{"GROCER", "Food & Transportation"},
	{"SUPERMARKET", "Food & Transportation"},
	{"FOOD", "Food & Transportation"},
	{"RESTAURANT", "Food & Transportation"},
	{"COFFEE", "Food & Transportation"},
	{"DINING", "Food & Transportation"},
	{"TRANSPORT", "Food & Transportation"},
	{"TRANSIT", "Food & Transportation"},
	{"TAXI", "Food & Transportation"},
	{"GAS", "Food & Transportation"},
	{"PARKING", "Food & Transportation"},
	{"RENT", "Home & Personal"},
	{"MORTGAGE", "Home & Personal"},
	{"UTILIT", "Home & Personal"},
	{"INSURANCE", "Home & Personal"},
	{"TELEPHONE", "Home & Personal"},
	{"MEDICAL", "Home & Personal"},
	{"PHARMAC", "Home & Personal"},
	{"PERSONAL_CARE", "Home & Personal"},
	{"HOME_IMPROVEMENT", "Home & Personal"},
	{"ENTERTAINMENT", "Entertainment & Shopping"},
	{"RECREATION", "Entertainment & Shopping"},
	{"SUBSCRIPTION", "Entertainment & Shopping"},
	{"SHOP", "Entertainment & Shopping"},
	{"TRAVEL", "Entertainment & Shopping"},
}

// mapProviderTag resolves one normalized provider tag against the mapping
// table, returning the matched category from the caller's set or nil.
func mapProviderTag(tag string, categories []model.Category) *model.Category {
	for _, entry := range providerCategoryTable {
		if !strings.Contains(tag, entry.match) {
			continue
		}
		for i := range categories {
			if categories[i].Name == entry.category {
				return &categories[i]
			}
		}
	}
	return nil
}

// lowerConcat joins the merchant name and description into the lowercase
// text keyword matching runs against.
func lowerConcat(name, description string) string {
	return strings.ToLower(strings.TrimSpace(name + " " + description))
}
