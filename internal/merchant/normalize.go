// Package merchant canonicalizes raw merchant strings into the stable keys
// used by rules, classification records, and historical lookups.
package merchant

import (
	"strings"
	"unicode"
)

// Normalize turns a free-text merchant or description string into its
// canonical key: uppercase, A-Z/0-9/space only, single spaces, trimmed.
// It is deterministic, total, and idempotent.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	pendingSpace := false
	for _, r := range raw {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		switch {
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			pendingSpace = true
		}
		// Everything else is stripped.
	}

	return b.String()
}

// NormalizeTag canonicalizes a bank-provided category tag for matching
// against the provider mapping table: uppercase with underscores for spaces.
func NormalizeTag(tag string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(tag)), " ", "_")
}
