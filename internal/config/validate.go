package config

import (
	"fmt"

	"neuroscope/internal/metadata"
	"neuroscope/internal/spiketext"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSorting(); err != nil {
		return err
	}
	if err := c.validateRecording(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSorting() error {
	if _, err := spiketext.ConventionByName(c.Sorting.Convention); err != nil {
		return fmt.Errorf("sorting.convention: %w", err)
	}
	for _, idx := range c.Sorting.ExcludeShanks {
		if idx < 0 {
			return fmt.Errorf("sorting.exclude_shanks: shank index must be non-negative, got %d", idx)
		}
	}
	return nil
}

func (c *Config) validateRecording() error {
	if _, err := metadata.ParseDType(c.Recording.DType); err != nil {
		return fmt.Errorf("recording.dtype must be int16 or int32: %w", err)
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
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
