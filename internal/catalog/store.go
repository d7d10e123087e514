// Package catalog reads and writes the flat-file plant catalog: one JSON
// document per record plus a derived index. The store is the only component
// that touches record files; pipeline stages operate on in-memory records and
// hand mutations back to it.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"trellis/internal/fileutil"
	"trellis/internal/logging"
	"trellis/internal/services"
)

const indexFileName = "index.json"

// Malformed describes a record file that could not be parsed. The load
// continues past it; the caller reports it.
type Malformed struct {
	Filename string
	Err      error
}

// Store provides access to the record files in a single catalog directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore opens the catalog directory. A missing directory is the one fatal
// startup condition in the system.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "catalog", "open", fmt.Sprintf("catalog directory %s does not exist", dir), nil)
		}
		return nil, fmt.Errorf("stat catalog directory: %w", err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "open", fmt.Sprintf("%s is not a directory", dir), nil)
	}
	return &Store{dir: dir, logger: logging.NewComponentLogger(logger, "catalog")}, nil
}

// Dir returns the catalog directory path.
func (s *Store) Dir() string { return s.dir }

// LoadAll reads every record file in the catalog directory except the index.
// Unparsable files are skipped and returned as Malformed entries rather than
// failing the load. Records come back sorted by filename.
func (s *Store) LoadAll() ([]*Record, []Malformed, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog directory: %w", err)
	}

	var (
		records   []*Record
		malformed []Malformed
	)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || name == indexFileName || strings.HasPrefix(name, ".") {
			continue
		}
		record, err := s.loadFile(name)
		if err != nil {
			s.logger.Warn("skipping malformed record",
				logging.String(logging.FieldRecord, name),
				logging.Error(err))
			malformed = append(malformed, Malformed{Filename: name, Err: err})
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Filename < records[j].Filename })
	return records, malformed, nil
}

// Load reads a single record by filename.
func (s *Store) Load(filename string) (*Record, error) {
	return s.loadFile(filename)
}

func (s *Store) loadFile(name string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	// Hand-edited files occasionally carry a BOM; normalize silently.
	data = fileutil.StripBOM(data)

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	record.Filename = name
	return &record, nil
}

// Save writes one record back with stable formatting so repeated runs produce
// minimal diffs. The write is atomic.
func (s *Store) Save(record *Record) error {
	if record.Filename == "" {
		return services.Wrap(services.ErrValidation, "catalog", "save", "record has no filename", nil)
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(filepath.Join(s.dir, record.Filename), data, 0o644); err != nil {
		return fmt.Errorf("write record %s: %w", record.Filename, err)
	}
	return nil
}

// Remove deletes a record file. Callers decide removal policy; the store only
// executes it.
func (s *Store) Remove(record *Record) error {
	if record.Filename == "" {
		return services.Wrap(services.ErrValidation, "catalog", "remove", "record has no filename", nil)
	}
	if err := os.Remove(filepath.Join(s.dir, record.Filename)); err != nil {
		return fmt.Errorf("remove record %s: %w", record.Filename, err)
	}
	s.logger.Info("removed record", logging.String(logging.FieldRecord, record.Filename))
	return nil
}
