package describe

import (
	"regexp"
	"strings"
)

// Flag marks one advisory quality defect in a description.
type Flag string

const (
	FlagVeryShort         Flag = "very_short"
	FlagShort             Flag = "short"
	FlagHasCitation       Flag = "has_citation"
	FlagPossiblyTruncated Flag = "possibly_truncated"
	FlagEmbeddedCare      Flag = "possible_care_instructions"
)

// Thresholds holds the tunable limits behind the quality flags. They are
// operator policy, not invariants.
type Thresholds struct {
	VeryShortLength int
	ShortLength     int
	CareSpan        int
}

// DefaultThresholds mirrors the reference deployment.
func DefaultThresholds() Thresholds {
	return Thresholds{VeryShortLength: 80, ShortLength: 100, CareSpan: 120}
}

var (
	citationMarkerRe = regexp.MustCompile(`\[\d+\]`)
	// A sentence ending jammed against a capital with no separating space
	// ("Sumatra.Indonesia") usually means the text was cut and re-joined.
	truncationRe = regexp.MustCompile(`[a-z]\.[A-Z]`)
	waterRe      = regexp.MustCompile(`(?i)\bwater`)
	tempRe       = regexp.MustCompile(`(?i)\btemperature`)
)

// Analyze classifies one description. Empty descriptions produce no flags;
// missing text is a different problem than poor text.
func Analyze(text string, limits Thresholds) []Flag {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var flags []Flag
	switch {
	case len(text) < limits.VeryShortLength:
		flags = append(flags, FlagVeryShort)
	case len(text) < limits.ShortLength:
		flags = append(flags, FlagShort)
	}
	if citationMarkerRe.MatchString(text) {
		flags = append(flags, FlagHasCitation)
	}
	if truncationRe.MatchString(text) {
		flags = append(flags, FlagPossiblyTruncated)
	}
	if hasEmbeddedCare(text, limits.CareSpan) {
		flags = append(flags, FlagEmbeddedCare)
	}
	return flags
}

// hasEmbeddedCare reports whether "water" and "temperature" occur within span
// characters of each other, a signal that unrelated care instructions were
// merged into the description.
func hasEmbeddedCare(text string, span int) bool {
	waterHits := waterRe.FindAllStringIndex(text, -1)
	tempHits := tempRe.FindAllStringIndex(text, -1)
	for _, w := range waterHits {
		for _, t := range tempHits {
			distance := w[0] - t[0]
			if distance < 0 {
				distance = -distance
			}
			if distance <= span {
				return true
			}
		}
	}
	return false
}
