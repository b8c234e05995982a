package gate

import (
	"strings"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// NormalizeVisitorName canonicalizes a visitor display name for storage:
// surrounding whitespace trimmed, case folded, and internal whitespace
// runs collapsed to a single hyphen. " Alice Smith " becomes
// "alice-smith", so the unique-visitor count is insensitive to casing and
// spacing differences.
func NormalizeVisitorName(name string) string {
	folded := foldCaser.String(strings.TrimSpace(name))
	return strings.Join(strings.Fields(folded), "-")
}
