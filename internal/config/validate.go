package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGBIF(); err != nil {
		return err
	}
	if err := c.validateDescriptions(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.CatalogDir) == "" {
		return errors.New("paths.catalog_dir must be set")
	}
	if strings.TrimSpace(c.Paths.AssetsDir) == "" {
		return errors.New("paths.assets_dir must be set")
	}
	return nil
}

func (c *Config) validateGBIF() error {
	if c.GBIF.RateLimitMS < 0 {
		return errors.New("gbif.rate_limit_ms must not be negative")
	}
	if c.GBIF.RequestTimeout <= 0 {
		return errors.New("gbif.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateDescriptions() error {
	for name, value := range map[string]int{
		"descriptions.very_short_length": c.Descriptions.VeryShortLength,
		"descriptions.short_length":      c.Descriptions.ShortLength,
		"descriptions.care_span":         c.Descriptions.CareSpan,
	} {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Descriptions.VeryShortLength > c.Descriptions.ShortLength {
		return errors.New("descriptions.very_short_length must not exceed descriptions.short_length")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
}
