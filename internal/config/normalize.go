package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeGBIF(); err != nil {
		return err
	}
	if err := c.normalizeTaxonomyCache(); err != nil {
		return err
	}
	c.normalizeImages()
	c.normalizeDescriptions()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.CatalogDir, err = expandPath(c.Paths.CatalogDir); err != nil {
		return fmt.Errorf("paths.catalog_dir: %w", err)
	}
	if c.Paths.AssetsDir, err = expandPath(c.Paths.AssetsDir); err != nil {
		return fmt.Errorf("paths.assets_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGBIF() error {
	c.GBIF.BaseURL = strings.TrimRight(strings.TrimSpace(c.GBIF.BaseURL), "/")
	if c.GBIF.BaseURL == "" {
		c.GBIF.BaseURL = defaultGBIFBaseURL
	}
	if c.GBIF.RequestTimeout == 0 {
		c.GBIF.RequestTimeout = defaultGBIFTimeout
	}
	return nil
}

func (c *Config) normalizeTaxonomyCache() error {
	if strings.TrimSpace(c.TaxonomyCache.Path) == "" {
		c.TaxonomyCache.Path = defaultTaxonomyCachePath()
	}
	expanded, err := expandPath(c.TaxonomyCache.Path)
	if err != nil {
		return fmt.Errorf("taxonomy_cache.path: %w", err)
	}
	c.TaxonomyCache.Path = expanded
	return nil
}

func (c *Config) normalizeImages() {
	cleaned := make([]string, 0, len(c.Images.Denylist))
	for _, entry := range c.Images.Denylist {
		entry = strings.Trim(strings.TrimSpace(entry), "/")
		if entry != "" {
			cleaned = append(cleaned, entry)
		}
	}
	c.Images.Denylist = cleaned
}

func (c *Config) normalizeDescriptions() {
	if c.Descriptions.VeryShortLength == 0 {
		c.Descriptions.VeryShortLength = defaultVeryShortLength
	}
	if c.Descriptions.ShortLength == 0 {
		c.Descriptions.ShortLength = defaultShortLength
	}
	if c.Descriptions.CareSpan == 0 {
		c.Descriptions.CareSpan = defaultCareSpan
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
