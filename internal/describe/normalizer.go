// Package describe cleans citation and source artifacts out of record
// descriptions and classifies quality defects. Cleanup mutates text; the
// diagnostics are advisory only.
package describe

import (
	"regexp"
	"strings"
)

var (
	sourceURLSuffixRe = regexp.MustCompile(`(?i)\s*source:\s*https?://\S+\s*$`)
	bareURLRe         = regexp.MustCompile(`\s*https?://\S+`)
	sourceTrailerRe   = regexp.MustCompile(`(?i)\s*source:.*$`)
	trailingPeriodsRe = regexp.MustCompile(`\.{2,}$`)
)

// Cleanup strips source attributions, bare URLs, and trailing period runs
// from a description. Each step operates on the prior step's output, and the
// whole transform is idempotent: cleaning already-clean text is a no-op.
func Cleanup(text string) string {
	text = sourceURLSuffixRe.ReplaceAllString(text, "")
	text = bareURLRe.ReplaceAllString(text, "")
	text = sourceTrailerRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	// An ellipsis run left behind by the strips collapses to one period; a
	// legitimate sentence-final period stays.
	text = trailingPeriodsRe.ReplaceAllString(text, ".")
	return text
}
