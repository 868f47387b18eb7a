package config

const (
	defaultKeepMUAUnits = true
	defaultConvention   = "neuroscope"
	defaultDType        = "int32"
	defaultCatalogPath  = "~/.local/share/neuroscope/catalog.db"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Sorting: Sorting{
			KeepMUAUnits: defaultKeepMUAUnits,
			Convention:   defaultConvention,
		},
		Recording: Recording{
			DType: defaultDType,
		},
		Catalog: Catalog{
			Enabled: true,
			Path:    defaultCatalogPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
