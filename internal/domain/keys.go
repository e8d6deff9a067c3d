package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// FoldKey returns the case-folded form used for case-insensitive uniqueness
// of usernames and guild names.
func FoldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
