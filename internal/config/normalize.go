package config

import (
	"fmt"
	"slices"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeSorting()
	c.normalizeRecording()
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeSorting() {
	c.Sorting.Convention = strings.ToLower(strings.TrimSpace(c.Sorting.Convention))
	if c.Sorting.Convention == "" {
		c.Sorting.Convention = defaultConvention
	}
	if len(c.Sorting.ExcludeShanks) > 0 {
		c.Sorting.ExcludeShanks = slices.Clone(c.Sorting.ExcludeShanks)
		slices.Sort(c.Sorting.ExcludeShanks)
		c.Sorting.ExcludeShanks = slices.Compact(c.Sorting.ExcludeShanks)
	}
}

func (c *Config) normalizeRecording() {
	c.Recording.DType = strings.ToLower(strings.TrimSpace(c.Recording.DType))
	if c.Recording.DType == "" {
		c.Recording.DType = defaultDType
	}
}

func (c *Config) normalizeCatalog() error {
	if strings.TrimSpace(c.Catalog.Path) == "" {
		c.Catalog.Path = defaultCatalogPath
	}
	var err error
	if c.Catalog.Path, err = expandPath(c.Catalog.Path); err != nil {
		return fmt.Errorf("catalog.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
