package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultCatalogDir        = "~/plants/catalog"
	defaultAssetsDir         = "~/plants/images"
	defaultLogDir            = "~/.local/share/trellis/logs"
	defaultGBIFBaseURL       = "https://api.gbif.org/v1"
	defaultGBIFRateLimitMS   = 900
	defaultGBIFTimeout       = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultVeryShortLength   = 80
	defaultShortLength       = 100
	defaultCareSpan          = 120
	defaultTaxonomyCacheFile = "taxonomy_cache.json"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CatalogDir: defaultCatalogDir,
			AssetsDir:  defaultAssetsDir,
			LogDir:     defaultLogDir,
		},
		GBIF: GBIF{
			BaseURL:        defaultGBIFBaseURL,
			RateLimitMS:    defaultGBIFRateLimitMS,
			RequestTimeout: defaultGBIFTimeout,
		},
		TaxonomyCache: TaxonomyCache{
			Path: defaultTaxonomyCachePath(),
		},
		Descriptions: Descriptions{
			VeryShortLength: defaultVeryShortLength,
			ShortLength:     defaultShortLength,
			CareSpan:        defaultCareSpan,
		},
		RunLog: RunLog{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultTaxonomyCachePath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "trellis", defaultTaxonomyCacheFile)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/trellis/" + defaultTaxonomyCacheFile
	}
	return filepath.Join(home, ".cache", "trellis", defaultTaxonomyCacheFile)
}
