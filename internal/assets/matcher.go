package assets

import (
	"regexp"
	"strings"
)

// Rule identifies which matching heuristic selected a folder. Lower values
// are higher priority; a satisfied rule is never overridden by a later one.
type Rule int

const (
	RuleExact Rule = iota
	RulePartial
	RuleToken
)

func (r Rule) String() string {
	switch r {
	case RuleExact:
		return "exact"
	case RulePartial:
		return "partial"
	case RuleToken:
		return "token"
	default:
		return "unknown"
	}
}

var numericPrefixRe = regexp.MustCompile(`^\d+-`)

func stripNumericPrefix(name string) string {
	return numericPrefixRe.ReplaceAllString(name, "")
}

// Slugify normalizes a name to lower-case hyphen-separated form restricted to
// [a-z0-9-].
func Slugify(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var slug strings.Builder
	lastHyphen := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			slug.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '-' || r == '_' || r == '.':
			if !lastHyphen {
				slug.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(slug.String(), "-")
}

// Match is the outcome of matching one scientific name against the library.
type Match struct {
	Folder Folder
	Rule   Rule
	// Tied is set when more than one folder satisfied the winning rule; the
	// ascending-name tie-break chose deterministically, but genus-sharing
	// species make this worth operator review.
	Tied bool
}

// Match finds the best folder for a scientific name. The three rules run in
// strict priority order: exact slug equality, first-two-token equality, then
// first-token containment. Within a rule, ties break by folder name
// ascending (the library is already sorted).
func (l *Library) Match(scientificName string) (Match, bool) {
	slug := Slugify(scientificName)
	if slug == "" {
		return Match{}, false
	}

	if m, ok := l.matchBy(RuleExact, func(f Folder) bool {
		return f.Stripped == slug
	}); ok {
		return m, true
	}

	slugTokens := strings.SplitN(slug, "-", 3)
	if len(slugTokens) >= 2 {
		want := slugTokens[0] + "-" + slugTokens[1]
		if m, ok := l.matchBy(RulePartial, func(f Folder) bool {
			folderTokens := strings.SplitN(f.Stripped, "-", 3)
			if len(folderTokens) < 2 {
				return false
			}
			return folderTokens[0]+"-"+folderTokens[1] == want
		}); ok {
			return m, true
		}
	}

	first := slugTokens[0]
	return l.matchBy(RuleToken, func(f Folder) bool {
		return strings.Contains(f.Stripped, first)
	})
}

func (l *Library) matchBy(rule Rule, accept func(Folder) bool) (Match, bool) {
	var (
		winner Folder
		hits   int
	)
	for _, folder := range l.folders {
		if !accept(folder) {
			continue
		}
		if hits == 0 {
			winner = folder
		}
		hits++
	}
	if hits == 0 {
		return Match{}, false
	}
	return Match{Folder: winner, Rule: rule, Tied: hits > 1}, true
}

// Denylist is the set of known-bad placeholder references ("folder/file").
type Denylist struct {
	set map[string]struct{}
}

// NewDenylist builds a denylist from configuration entries.
func NewDenylist(entries []string) Denylist {
	set := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		entry = strings.Trim(strings.TrimSpace(entry), "/")
		if entry != "" {
			set[entry] = struct{}{}
		}
	}
	return Denylist{set: set}
}

// Blocked reports whether ref is a denylisted placeholder for a record with
// the given slug. The rightful owner of the path is exempt.
func (d Denylist) Blocked(ref, slug string) bool {
	if _, listed := d.set[strings.Trim(ref, "/")]; !listed {
		return false
	}
	return ownerOf(ref) != slug
}

func ownerOf(ref string) string {
	folder, _, found := strings.Cut(strings.Trim(ref, "/"), "/")
	if !found {
		return ""
	}
	return stripNumericPrefix(folder)
}

// Resolution is the proposed image rewrite for one record.
type Resolution struct {
	Folder   string
	Rule     Rule
	Tied     bool
	ImageURL string
	Images   []string
}

// Resolve maps a scientific name to its asset folder and builds the full
// replacement image list: the folder's recognized images sorted by filename,
// denylisted placeholders removed. imageUrl is the first surviving entry.
// The rewrite is a full overwrite so imageUrl and images never disagree.
func (l *Library) Resolve(scientificName string, deny Denylist) (Resolution, bool) {
	match, ok := l.Match(scientificName)
	if !ok {
		return Resolution{}, false
	}

	slug := Slugify(scientificName)
	images := make([]string, 0, len(match.Folder.Files))
	for _, file := range match.Folder.Files {
		ref := match.Folder.Name + "/" + file
		if deny.Blocked(ref, slug) {
			continue
		}
		images = append(images, ref)
	}

	resolution := Resolution{
		Folder: match.Folder.Name,
		Rule:   match.Rule,
		Tied:   match.Tied,
		Images: images,
	}
	if len(images) > 0 {
		resolution.ImageURL = images[0]
	}
	return resolution, true
}

// Scrub removes denylisted placeholder references from a record's existing
// image fields without rematching. Used when no asset folder matched: the
// fields stay otherwise untouched, but a stolen placeholder still goes, with
// imageUrl falling back to the next valid image.
func Scrub(imageURL string, images []string, slug string, deny Denylist) (string, []string, bool) {
	changed := false
	kept := make([]string, 0, len(images))
	for _, ref := range images {
		if deny.Blocked(ref, slug) {
			changed = true
			continue
		}
		kept = append(kept, ref)
	}
	if len(kept) == 0 {
		kept = nil
	}

	if imageURL != "" && deny.Blocked(imageURL, slug) {
		changed = true
		imageURL = ""
		if len(kept) > 0 {
			imageURL = kept[0]
		}
	}
	return imageURL, kept, changed
}
