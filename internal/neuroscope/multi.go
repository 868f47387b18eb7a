package neuroscope

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"

	"neuroscope/internal/extractor"
	"neuroscope/internal/logging"
	"neuroscope/internal/metadata"
	"neuroscope/internal/shank"
	"neuroscope/internal/spiketext"
	"neuroscope/internal/spiketrain"
)

// MultiSortingCapabilities describes the multi-sorting façade.
var MultiSortingCapabilities = extractor.Capabilities{SupportsWrite: true, StorageMode: extractor.Custom}

// MultiSorting is an ordered sequence of per-shank sortings. Unit ids are
// local to each shank.
type MultiSorting struct {
	sortings []*Sorting
	shankIDs []int
	rate     float64
	params   Params
}

var _ extractor.MultiSorting = (*MultiSorting)(nil)

// OpenMultiSorting discovers the .res.N/.clu.N family in folder, drops
// excluded shanks and decodes the rest independently.
func OpenMultiSorting(folder string, opts ...Option) (*MultiSorting, error) {
	o := newOptions(opts)
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, fmt.Errorf("resolve folder %s: %w", folder, err)
	}

	family, err := shank.Discover(abs)
	if err != nil {
		return nil, err
	}
	family, err = family.Exclude(o.excludeShanks)
	if err != nil {
		return nil, err
	}

	xmlPath := metadata.SidecarPath(abs)
	rate, err := metadata.LoadSamplingRate(xmlPath)
	if err != nil {
		return nil, err
	}

	collections, err := shank.Aggregate(family, o.decodeOptions())
	if err != nil {
		return nil, err
	}

	m := &MultiSorting{
		shankIDs: family.Indices(),
		rate:     rate,
		params: Params{
			Kind:          KindMultiSorting,
			Folder:        abs,
			XMLPath:       xmlPath,
			KeepMUAUnits:  boolPtr(o.keepMUAUnits),
			Convention:    o.convention.Name,
			ExcludeShanks: slices.Clone(o.excludeShanks),
			ShankIDs:      family.Indices(),
			SamplingRate:  rate,
		},
	}
	for i, units := range collections {
		sh := family.Shanks[i]
		m.sortings = append(m.sortings, &Sorting{
			units: units,
			rate:  rate,
			params: Params{
				Kind:         KindSorting,
				Folder:       abs,
				XMLPath:      xmlPath,
				ResPath:      sh.ResPath,
				CluPath:      sh.CluPath,
				KeepMUAUnits: boolPtr(o.keepMUAUnits),
				Convention:   o.convention.Name,
				SamplingRate: rate,
			},
		})
	}

	logging.NewComponentLogger(o.logger, "multi_sorting").Debug("multi-sorting opened",
		logging.String(logging.FieldSession, abs),
		logging.Any("shanks", m.shankIDs),
		logging.Any("excluded", o.excludeShanks),
	)
	return m, nil
}

// NewMultiSorting wraps in-memory collections, one per shank, numbered from 1.
func NewMultiSorting(samplingRate float64, shanks ...*spiketrain.Collection) *MultiSorting {
	m := &MultiSorting{rate: samplingRate, params: Params{Kind: KindMultiSorting, SamplingRate: samplingRate}}
	for i, units := range shanks {
		m.sortings = append(m.sortings, NewSorting(units, samplingRate))
		m.shankIDs = append(m.shankIDs, i+1)
	}
	m.params.ShankIDs = slices.Clone(m.shankIDs)
	return m
}

// Sortings returns the per-shank sortings in shank order.
func (m *MultiSorting) Sortings() []extractor.Sorting {
	out := make([]extractor.Sorting, len(m.sortings))
	for i, s := range m.sortings {
		out[i] = s
	}
	return out
}

// Shank returns the sorting of the shank at position i.
func (m *MultiSorting) Shank(i int) *Sorting {
	return m.sortings[i]
}

// ShankIDs returns the shank index of each sorting.
func (m *MultiSorting) ShankIDs() []int {
	return slices.Clone(m.shankIDs)
}

func (m *MultiSorting) SamplingFrequency() float64 {
	return m.rate
}

func (m *MultiSorting) Params() Params {
	return m.params.clone()
}

func (m *MultiSorting) Capabilities() extractor.Capabilities {
	return MultiSortingCapabilities
}

type shankIdentifier interface {
	ShankIDs() []int
}

// SaveMultiSorting writes one <basename>.res.N/.clu.N pair per sorting. N is
// the shank index when multi carries them, otherwise the 1-based position.
func SaveMultiSorting(ctx context.Context, multi extractor.MultiSorting, folder string, opts ...Option) error {
	o := newOptions(opts)
	abs, err := filepath.Abs(folder)
	if err != nil {
		return fmt.Errorf("resolve folder %s: %w", folder, err)
	}
	ctx, logger := saveLogger(ctx, o.logger, "multi_sorting", abs)

	sortings := multi.Sortings()
	ids := make([]int, len(sortings))
	for i := range ids {
		ids[i] = i + 1
	}
	if withIDs, ok := multi.(shankIdentifier); ok {
		if shankIDs := withIDs.ShankIDs(); len(shankIDs) == len(sortings) {
			ids = shankIDs
		}
	}

	lock, err := lockFolder(ctx, abs)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	if err := writeSortingSidecar(logger, abs, multi.SamplingFrequency()); err != nil {
		return err
	}
	for i, sorting := range sortings {
		units, err := collect(sorting)
		if err != nil {
			return fmt.Errorf("shank %d: %w", ids[i], err)
		}
		suffix := "." + strconv.Itoa(ids[i])
		resPath := metadata.SessionPath(abs, ".res"+suffix)
		cluPath := metadata.SessionPath(abs, ".clu"+suffix)
		if err := spiketext.Write(units, resPath, cluPath); err != nil {
			return fmt.Errorf("shank %d: %w", ids[i], err)
		}
		logger.Debug("shank saved",
			logging.Int("shank", ids[i]),
			logging.Int("units", units.Len()),
			logging.Int("spikes", units.NumSpikes()),
		)
	}
	logger.Info("multi-sorting saved", logging.Int("shanks", len(sortings)))
	return nil
}
