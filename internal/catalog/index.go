package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"trellis/internal/fileutil"
)

// Index is the derived catalog index. It is always regenerated from the
// record set, never patched in place.
type Index struct {
	Count       int       `json:"count"`
	Plants      []string  `json:"plants"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// RebuildIndex writes a fresh index whose plants sequence is the sorted list
// of record filenames, unconditionally overwriting any prior index. Malformed
// files are still record files on disk, so they stay listed; anything else
// would make the index disagree with the directory.
func (s *Store) RebuildIndex(records []*Record, malformed []Malformed) (Index, error) {
	filenames := make([]string, 0, len(records)+len(malformed))
	for _, record := range records {
		filenames = append(filenames, record.Filename)
	}
	for _, m := range malformed {
		filenames = append(filenames, m.Filename)
	}
	sort.Strings(filenames)

	index := Index{
		Count:       len(filenames),
		Plants:      filenames,
		LastUpdated: time.Now().UTC().Truncate(time.Second),
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return Index{}, fmt.Errorf("encode index: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(filepath.Join(s.dir, indexFileName), data, 0o644); err != nil {
		return Index{}, fmt.Errorf("write index: %w", err)
	}
	return index, nil
}

// ReadIndex loads the current index file, if present.
func (s *Store) ReadIndex() (Index, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFileName))
	if err != nil {
		return Index{}, fmt.Errorf("read index: %w", err)
	}
	var index Index
	if err := json.Unmarshal(fileutil.StripBOM(data), &index); err != nil {
		return Index{}, fmt.Errorf("parse index: %w", err)
	}
	return index, nil
}
