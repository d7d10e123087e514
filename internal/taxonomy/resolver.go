// Package taxonomy decides whether a record's scientific name is a valid
// species-rank taxon by consulting an external match service. The resolver
// never errors out: every resolution collapses to a tri-state outcome and the
// orchestrator owns what happens next.
package taxonomy

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"trellis/internal/logging"
	"trellis/internal/taxonomy/gbif"
)

// Outcome is the tri-state result of resolving one scientific name.
type Outcome int

const (
	// OutcomeUnresolved means the service was unreachable or the name was
	// ineligible. Callers must treat this as "leave unchanged", never remove.
	OutcomeUnresolved Outcome = iota
	// OutcomeSpeciesConfirmed means the name resolved to a species-rank taxon.
	OutcomeSpeciesConfirmed
	// OutcomeRejectedNonSpecies means the service matched the name to
	// something that is not species rank. Removal is the orchestrator's call.
	OutcomeRejectedNonSpecies
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSpeciesConfirmed:
		return "species_confirmed"
	case OutcomeRejectedNonSpecies:
		return "rejected_non_species"
	default:
		return "unresolved"
	}
}

const speciesRank = "SPECIES"

// Resolution is the consumable result of one name resolution.
type Resolution struct {
	Outcome Outcome
	// AcceptedName carries the canonical accepted name when the matched name
	// is a synonym; empty otherwise.
	AcceptedName string
	UsageKey     int64
	Rank         string
}

// Resolver serializes match calls behind a minimum inter-call delay and
// caches resolutions for identical names within a run.
type Resolver struct {
	matcher  gbif.Matcher
	logger   *slog.Logger
	delay    time.Duration
	cache    *Cache
	memory   map[string]Resolution
	lastCall time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithDelay sets the minimum delay between external calls. Zero disables the
// throttle (useful in tests).
func WithDelay(delay time.Duration) ResolverOption {
	return func(r *Resolver) { r.delay = delay }
}

// WithCache attaches a persistent resolution cache consulted before the
// network and updated after definitive resolutions.
func WithCache(cache *Cache) ResolverOption {
	return func(r *Resolver) { r.cache = cache }
}

// NewResolver constructs a resolver around the given matcher.
func NewResolver(matcher gbif.Matcher, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		matcher: matcher,
		logger:  logging.NewComponentLogger(logger, "taxonomy"),
		memory:  make(map[string]Resolution),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve classifies one scientific name. Single-token names short-circuit to
// Unresolved without a network call: they are not binomials, so they cannot
// be species-eligible.
func (r *Resolver) Resolve(ctx context.Context, scientificName string) Resolution {
	name := CanonicalCase(scientificName)
	if len(strings.Fields(name)) < 2 {
		return Resolution{Outcome: OutcomeUnresolved}
	}
	key := strings.ToLower(name)

	if cached, ok := r.memory[key]; ok {
		return cached
	}
	if r.cache != nil {
		if cached, ok := r.cache.Lookup(key); ok {
			r.memory[key] = cached
			return cached
		}
	}

	resolution := r.resolveRemote(ctx, name)
	r.memory[key] = resolution
	if r.cache != nil && resolution.Outcome != OutcomeUnresolved {
		if err := r.cache.Store(key, resolution); err != nil {
			r.logger.Warn("persist taxonomy cache entry failed",
				logging.String("name", name),
				logging.Error(err))
		}
	}
	return resolution
}

func (r *Resolver) resolveRemote(ctx context.Context, name string) Resolution {
	if err := r.throttle(ctx); err != nil {
		return Resolution{Outcome: OutcomeUnresolved}
	}
	match, err := r.matcher.Match(ctx, name)
	r.lastCall = time.Now()
	if err != nil {
		r.logger.Warn("species match failed",
			logging.String("name", name),
			logging.Error(err))
		return Resolution{Outcome: OutcomeUnresolved}
	}
	if match.NoMatch() {
		// The service declined to match at all. That is ambiguity, not a
		// species-rank rejection, so the record is conservatively kept.
		return Resolution{Outcome: OutcomeUnresolved}
	}

	if !isSpeciesRank(match) {
		return Resolution{Outcome: OutcomeRejectedNonSpecies, Rank: match.Rank, UsageKey: match.UsageKey}
	}

	resolution := Resolution{
		Outcome:  OutcomeSpeciesConfirmed,
		UsageKey: match.UsageKey,
		Rank:     match.Rank,
	}
	resolution.AcceptedName = r.acceptedName(ctx, match)
	return resolution
}

// isSpeciesRank applies the species-rank acceptance chain: the direct match
// rank, the nested accepted usage rank, the nested usage rank, or the last
// entry of the classification chain. Any one suffices.
func isSpeciesRank(match *gbif.MatchResult) bool {
	if strings.EqualFold(match.Rank, speciesRank) {
		return true
	}
	if match.AcceptedUsage != nil && strings.EqualFold(match.AcceptedUsage.Rank, speciesRank) {
		return true
	}
	if match.Usage != nil && strings.EqualFold(match.Usage.Rank, speciesRank) {
		return true
	}
	if n := len(match.Classification); n > 0 && strings.EqualFold(match.Classification[n-1].Rank, speciesRank) {
		return true
	}
	return false
}

// acceptedName surfaces the canonical accepted name when the match points at
// a distinct accepted usage. The follow-up detail lookup is best-effort; on
// failure the nested accepted usage name is used instead.
func (r *Resolver) acceptedName(ctx context.Context, match *gbif.MatchResult) string {
	if match.AcceptedUsageKey == 0 || match.AcceptedUsageKey == match.UsageKey {
		return match.AcceptedUsage.DisplayName()
	}
	if err := r.throttle(ctx); err != nil {
		return match.AcceptedUsage.DisplayName()
	}
	detail, err := r.matcher.SpeciesDetail(ctx, match.AcceptedUsageKey)
	r.lastCall = time.Now()
	if err != nil {
		r.logger.Warn("accepted usage lookup failed",
			logging.Int64("usage_key", match.AcceptedUsageKey),
			logging.Error(err))
		return match.AcceptedUsage.DisplayName()
	}
	return detail.DisplayName()
}

// throttle enforces the minimum inter-call delay. Calls are strictly
// sequential; the external service's rate limit relies on that.
func (r *Resolver) throttle(ctx context.Context) error {
	if r.delay <= 0 || r.lastCall.IsZero() {
		return nil
	}
	remaining := r.delay - time.Since(r.lastCall)
	if remaining <= 0 {
		return nil
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var genusCaser = cases.Title(language.Und)

// CanonicalCase normalizes a binomial's casing: genus capitalized, remaining
// epithets lower-cased, whitespace collapsed. "ficus pumila" and
// "FICUS PUMILA" both become "Ficus pumila".
func CanonicalCase(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fields))
	parts = append(parts, genusCaser.String(strings.ToLower(fields[0])))
	for _, field := range fields[1:] {
		parts = append(parts, strings.ToLower(field))
	}
	return strings.Join(parts, " ")
}
