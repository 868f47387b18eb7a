package neuroscope

import (
	"fmt"
	"log/slog"
	"slices"

	"neuroscope/internal/config"
	"neuroscope/internal/logging"
	"neuroscope/internal/spiketext"
)

// Option configures a façade.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	keepMUAUnits   bool
	excludeShanks  []int
	convention     spiketext.Convention
	subsetChannels []int
	dtype          string
}

func newOptions(opts []Option) options {
	o := options{
		keepMUAUnits: true,
		convention:   spiketext.Neuroscope,
		dtype:        "int32",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	return o
}

func (o options) decodeOptions() spiketext.Options {
	return spiketext.Options{KeepMUAUnits: o.keepMUAUnits, Convention: o.convention}
}

// WithLogger routes façade logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithKeepMUAUnits controls whether cluster 1 becomes unit 1. Default true.
func WithKeepMUAUnits(keep bool) Option {
	return func(o *options) {
		o.keepMUAUnits = keep
	}
}

// WithExcludeShanks drops shank indices before a multi-sorting is decoded.
func WithExcludeShanks(indices ...int) Option {
	return func(o *options) {
		o.excludeShanks = slices.Clone(indices)
	}
}

// WithConvention selects the reserved cluster ids.
func WithConvention(conv spiketext.Convention) Option {
	return func(o *options) {
		o.convention = conv
	}
}

// WithSubsetChannels exposes only the listed file channels, renumbered from 0.
func WithSubsetChannels(channels ...int) Option {
	return func(o *options) {
		o.subsetChannels = slices.Clone(channels)
	}
}

// WithDType sets the sample type written by SaveRecording.
func WithDType(dtype string) Option {
	return func(o *options) {
		o.dtype = dtype
	}
}

// OptionsFromConfig translates the [sorting] and [recording] sections.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	if cfg == nil {
		return nil, nil
	}
	conv, err := spiketext.ConventionByName(cfg.Sorting.Convention)
	if err != nil {
		return nil, fmt.Errorf("sorting.convention: %w", err)
	}
	return []Option{
		WithKeepMUAUnits(cfg.Sorting.KeepMUAUnits),
		WithExcludeShanks(cfg.Sorting.ExcludeShanks...),
		WithConvention(conv),
		WithDType(cfg.Recording.DType),
	}, nil
}
