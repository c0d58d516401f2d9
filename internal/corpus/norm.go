package corpus

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeID canonicalizes a document identifier for lookups: NFC
// normalization, unicode case folding, and forward slashes. File systems
// disagree on both composition form and case sensitivity, so references must
// match regardless of how the underlying path was spelled.
func NormalizeID(id string) string {
	id = strings.ReplaceAll(id, "\\", "/")
	id = strings.Trim(id, "/")
	// cases.Caser carries internal state; take a fresh one per call.
	return cases.Fold().String(norm.NFC.String(id))
}
