// Package testsupport provides fixtures shared by package tests: temp
// configs, session folders with sidecars, spike files and raw traces.
package testsupport

import (
	"path/filepath"
	"testing"

	"neuroscope/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Catalog.Path = filepath.Join(base, "catalog", "catalog.db")
	cfgVal.Logging.Dir = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithKeepMUAUnits overrides sorting.keep_mua_units.
func WithKeepMUAUnits(keep bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sorting.KeepMUAUnits = keep
	}
}

// WithExcludeShanks overrides sorting.exclude_shanks.
func WithExcludeShanks(indices ...int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sorting.ExcludeShanks = indices
	}
}

// WithCatalogDisabled turns the session catalog off.
func WithCatalogDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.Enabled = false
	}
}

// WithLogDir routes file logs into a directory under the test base dir.
func WithLogDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.Dir = filepath.Join(b.baseDir, "logs")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.Catalog.Path))
}
