// Package assets discovers image asset folders and matches catalog records
// to them by slugified scientific name. Discovery happens once at pipeline
// start; the resulting library is read-only.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"trellis/internal/services"
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// Folder is one discovered asset folder with its image files sorted by name.
type Folder struct {
	Name     string // raw folder name, e.g. "12-ficus-pumila"
	Stripped string // numeric id prefix removed, e.g. "ficus-pumila"
	Files    []string
}

// Library is the full set of discovered asset folders, sorted by name so
// matching ties break deterministically.
type Library struct {
	dir     string
	folders []Folder
}

// Scan walks the asset directory's immediate subfolders. A missing directory
// is fatal at startup, before any mutation.
func Scan(dir string) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "images", "scan", fmt.Sprintf("asset directory %s does not exist", dir), nil)
		}
		return nil, fmt.Errorf("read asset directory: %w", err)
	}

	library := &Library{dir: dir}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files, err := listImages(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		library.folders = append(library.folders, Folder{
			Name:     entry.Name(),
			Stripped: stripNumericPrefix(entry.Name()),
			Files:    files,
		})
	}

	sort.Slice(library.folders, func(i, j int) bool {
		return library.folders[i].Name < library.folders[j].Name
	})
	return library, nil
}

// Dir returns the scanned asset directory.
func (l *Library) Dir() string { return l.dir }

// Folders returns the discovered folders in name order.
func (l *Library) Folders() []Folder { return l.folders }

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read asset folder %s: %w", dir, err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := imageExtensions[ext]; ok {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
