package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CatalogDir string `toml:"catalog_dir"`
	AssetsDir  string `toml:"assets_dir"`
	LogDir     string `toml:"log_dir"`
}

// GBIF contains configuration for the external species match service.
type GBIF struct {
	BaseURL        string `toml:"base_url"`
	RateLimitMS    int    `toml:"rate_limit_ms"`
	RequestTimeout int    `toml:"request_timeout"`
}

// TaxonomyCache contains configuration for the persistent name resolution cache.
type TaxonomyCache struct {
	Enabled bool   `toml:"enabled"` // Default: false
	Path    string `toml:"path"`    // Default: ~/.cache/trellis/taxonomy_cache.json
}

// Images contains configuration for image asset association.
type Images struct {
	// Denylist holds known-bad placeholder references ("folder/file") that
	// were mistakenly copied across unrelated records. A record whose own
	// slug owns the path keeps it.
	Denylist []string `toml:"denylist"`
}

// Descriptions contains the advisory description-quality thresholds. These
// are tuned heuristics, not load-bearing invariants.
type Descriptions struct {
	VeryShortLength int `toml:"very_short_length"`
	ShortLength     int `toml:"short_length"`
	CareSpan        int `toml:"care_span"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// RunLog contains configuration for the pipeline run ledger.
type RunLog struct {
	Enabled bool `toml:"enabled"`
}

// Config encapsulates all configuration values for Trellis.
//
// Configuration sections by subsystem:
//   - Paths: catalog, asset, and log directories
//   - GBIF: species match endpoint and rate limit policy
//   - TaxonomyCache: persistent name -> resolution cache
//   - Images: placeholder denylist
//   - Descriptions: advisory quality thresholds
//   - RunLog: pipeline run ledger
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	GBIF          GBIF          `toml:"gbif"`
	TaxonomyCache TaxonomyCache `toml:"taxonomy_cache"`
	Images        Images        `toml:"images"`
	Descriptions  Descriptions  `toml:"descriptions"`
	RunLog        RunLog        `toml:"run_log"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/trellis/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("trellis.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories trellis itself owns. The catalog
// and assets directories are deliberately excluded: a missing catalog is the
// one fatal startup condition and must surface as an error, not be papered
// over with an empty directory.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	if c.TaxonomyCache.Enabled && strings.TrimSpace(c.TaxonomyCache.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.TaxonomyCache.Path), 0o755); err != nil {
			return fmt.Errorf("create cache directory: %w", err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
