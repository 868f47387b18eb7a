// Package config loads, normalizes, and validates neuroscope configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts) and
// reads TOML files. The Config type gathers the knobs the CLI needs: how
// sortings are decoded (MUA handling, excluded shanks, cluster convention),
// the default sample type for recording writes, the session catalog location
// and log output.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, lower-cased enum values and clear validation errors.
package config
