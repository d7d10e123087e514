// Package dedupe scans the in-memory record set for identifier and name
// collisions. It is purely diagnostic: it never deletes or merges, only
// reports groups for operator triage.
package dedupe

import (
	"sort"
	"strings"

	"trellis/internal/catalog"
)

// Group is a set of records sharing one normalized key.
type Group struct {
	Key     string
	Members []*catalog.Record
}

// Report holds the three duplicate groupings. Each list contains only groups
// with more than one member, sorted by descending group size.
type Report struct {
	ByID             []Group
	ByScientificName []Group
	ByName           []Group
}

// Empty reports whether no duplicates were found at all.
func (r Report) Empty() bool {
	return len(r.ByID) == 0 && len(r.ByScientificName) == 0 && len(r.ByName) == 0
}

// Detect builds the duplicate report for the full record set. Records with an
// empty name or scientific name are excluded from those groupings: two
// records that both lack a scientific name are not duplicates of each other.
// An empty id is not excluded. Identifiers are mandatory, so multiple id-less
// records are a collision, grouped under the empty key.
func Detect(records []*catalog.Record) Report {
	return Report{
		ByID: collect(records, true, func(r *catalog.Record) string {
			return r.ID.Normalized()
		}),
		ByScientificName: collect(records, false, func(r *catalog.Record) string {
			return r.NormalizedScientificName()
		}),
		ByName: collect(records, false, func(r *catalog.Record) string {
			return strings.ToLower(strings.TrimSpace(r.Name))
		}),
	}
}

func collect(records []*catalog.Record, keepEmpty bool, keyFn func(*catalog.Record) string) []Group {
	buckets := make(map[string][]*catalog.Record)
	for _, record := range records {
		key := keyFn(record)
		if key == "" && !keepEmpty {
			continue
		}
		buckets[key] = append(buckets[key], record)
	}

	groups := make([]Group, 0)
	for key, members := range buckets {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].Filename < members[j].Filename })
		groups = append(groups, Group{Key: key, Members: members})
	}

	// Largest groups first; key ascending breaks ties for stable output.
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Members) != len(groups[j].Members) {
			return len(groups[i].Members) > len(groups[j].Members)
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}
