package neuroscope

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"neuroscope/internal/extractor"
	"neuroscope/internal/logging"
	"neuroscope/internal/metadata"
	"neuroscope/internal/spiketext"
	"neuroscope/internal/spiketrain"
)

// SortingCapabilities describes the sorting façades.
var SortingCapabilities = extractor.Capabilities{SupportsWrite: true, StorageMode: extractor.Custom}

// Sorting is one decoded .res/.clu pair.
type Sorting struct {
	units  *spiketrain.Collection
	rate   float64
	params Params
}

var _ extractor.Sorting = (*Sorting)(nil)

// Source names where a sorting lives: a folder, an explicit pair, or both.
type Source struct {
	Folder  string
	ResPath string
	CluPath string
}

// NewSorting wraps an in-memory collection. units is cloned.
func NewSorting(units *spiketrain.Collection, samplingRate float64) *Sorting {
	if units == nil {
		units, _ = spiketrain.New()
	}
	return &Sorting{
		units:  units.Clone(),
		rate:   samplingRate,
		params: Params{Kind: KindSorting, SamplingRate: samplingRate},
	}
}

// OpenSorting opens src. An explicit pair wins over a folder; naming both
// logs a warning. Naming only half a pair, or nothing, fails with
// ErrAmbiguousSortingSource.
func OpenSorting(src Source, opts ...Option) (*Sorting, error) {
	hasRes, hasClu := src.ResPath != "", src.CluPath != ""
	switch {
	case hasRes && hasClu:
		if src.Folder != "" {
			o := newOptions(opts)
			logging.WarnWithContext(logging.NewComponentLogger(o.logger, "sorting"),
				"both a spike pair and a folder were given, using the pair", "sorting_source_conflict",
				logging.String("folder", src.Folder),
				logging.String("res_path", src.ResPath),
				logging.String("clu_path", src.CluPath),
				logging.String(logging.FieldImpact, "folder ignored"),
				logging.String(logging.FieldErrorHint, "pass either a folder or a res/clu pair"),
			)
		}
		return SortingFromPair(src.ResPath, src.CluPath, opts...)
	case hasRes || hasClu:
		return nil, fmt.Errorf("%w: both res and clu paths are required (res=%q clu=%q)", ErrAmbiguousSortingSource, src.ResPath, src.CluPath)
	case src.Folder != "":
		return SortingFromFolder(src.Folder, opts...)
	default:
		return nil, fmt.Errorf("%w: no folder or res/clu pair given", ErrAmbiguousSortingSource)
	}
}

// SortingFromFolder locates the folder's single .res/.clu pair and decodes it.
func SortingFromFolder(folder string, opts ...Option) (*Sorting, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, fmt.Errorf("resolve folder %s: %w", folder, err)
	}
	resPath, cluPath, err := FindSpikePair(abs)
	if err != nil {
		return nil, err
	}
	s, err := SortingFromPair(resPath, cluPath, opts...)
	if err != nil {
		return nil, err
	}
	s.params.Folder = abs
	return s, nil
}

// SortingFromPair decodes an explicit pair. The sampling rate comes from the
// sidecar of the folder holding resPath.
func SortingFromPair(resPath, cluPath string, opts ...Option) (*Sorting, error) {
	o := newOptions(opts)
	absRes, err := filepath.Abs(resPath)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", resPath, err)
	}
	absClu, err := filepath.Abs(cluPath)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", cluPath, err)
	}

	xmlPath := metadata.SidecarPath(filepath.Dir(absRes))
	rate, err := metadata.LoadSamplingRate(xmlPath)
	if err != nil {
		return nil, err
	}

	units, err := spiketext.Read(absRes, absClu, o.decodeOptions())
	if err != nil {
		return nil, err
	}

	logging.NewComponentLogger(o.logger, "sorting").Debug("sorting opened",
		logging.String(logging.FieldSession, filepath.Dir(absRes)),
		logging.String("res_path", absRes),
		logging.Int("units", units.Len()),
		logging.Int("spikes", units.NumSpikes()),
		logging.Bool("keep_mua_units", o.keepMUAUnits),
	)

	return &Sorting{
		units: units,
		rate:  rate,
		params: Params{
			Kind:         KindSorting,
			XMLPath:      xmlPath,
			ResPath:      absRes,
			CluPath:      absClu,
			KeepMUAUnits: boolPtr(o.keepMUAUnits),
			Convention:   o.convention.Name,
			SamplingRate: rate,
		},
	}, nil
}

// FindSpikePair returns the unsplit pair of folder: <basename>.res/.clu when
// both exist, otherwise the only .res and the only .clu present.
func FindSpikePair(folder string) (string, string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return "", "", fmt.Errorf("list %s: %w", folder, err)
	}
	var resFiles, cluFiles []string
	shankFiles := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".res"):
			resFiles = append(resFiles, name)
		case strings.HasSuffix(name, ".clu"):
			cluFiles = append(cluFiles, name)
		case strings.Contains(name, ".res.") || strings.Contains(name, ".clu."):
			shankFiles++
		}
	}

	base := filepath.Base(folder)
	if slices.Contains(resFiles, base+".res") && slices.Contains(cluFiles, base+".clu") {
		return filepath.Join(folder, base+".res"), filepath.Join(folder, base+".clu"), nil
	}
	if len(resFiles) == 1 && len(cluFiles) == 1 {
		return filepath.Join(folder, resFiles[0]), filepath.Join(folder, cluFiles[0]), nil
	}
	if len(resFiles) == 0 && len(cluFiles) == 0 && shankFiles > 0 {
		return "", "", fmt.Errorf("%w: %s holds per-shank files only; open it as a multi-sorting", ErrAmbiguousSortingSource, folder)
	}
	return "", "", fmt.Errorf("%w: %s holds %d .res and %d .clu files", ErrAmbiguousSortingSource, folder, len(resFiles), len(cluFiles))
}

func (s *Sorting) UnitIDs() []int {
	return s.units.UnitIDs()
}

func (s *Sorting) SamplingFrequency() float64 {
	return s.rate
}

// UnitSpikeTrain returns the unit's spikes with start <= t < end.
func (s *Sorting) UnitSpikeTrain(unitID int, r extractor.FrameRange) ([]int64, error) {
	return s.units.SpikeTrain(unitID, r)
}

// AddUnit appends a unit with a copy of times.
func (s *Sorting) AddUnit(unitID int, times []int64) error {
	return s.units.AddUnit(unitID, times)
}

// ShiftUnitIDs returns a new sorting whose unit ids are offset by shift.
// The receiver is unchanged.
func (s *Sorting) ShiftUnitIDs(shift int) *Sorting {
	return &Sorting{units: s.units.ShiftUnitIDs(shift), rate: s.rate, params: s.params.clone()}
}

// Units returns a copy of the decoded collection.
func (s *Sorting) Units() *spiketrain.Collection {
	return s.units.Clone()
}

// NumSpikes returns the total spike count across units.
func (s *Sorting) NumSpikes() int {
	return s.units.NumSpikes()
}

func (s *Sorting) Params() Params {
	return s.params.clone()
}

func (s *Sorting) Capabilities() extractor.Capabilities {
	return SortingCapabilities
}

// SaveSorting writes sorting as <folder>/<basename>.res/.clu and adds a
// samplingrate-only sidecar when none exists.
func SaveSorting(ctx context.Context, sorting extractor.Sorting, folder string, opts ...Option) error {
	o := newOptions(opts)
	abs, err := filepath.Abs(folder)
	if err != nil {
		return fmt.Errorf("resolve folder %s: %w", folder, err)
	}
	ctx, logger := saveLogger(ctx, o.logger, "sorting", abs)

	units, err := collect(sorting)
	if err != nil {
		return err
	}

	lock, err := lockFolder(ctx, abs)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	if err := writeSortingSidecar(logger, abs, sorting.SamplingFrequency()); err != nil {
		return err
	}
	resPath := metadata.SessionPath(abs, ".res")
	cluPath := metadata.SessionPath(abs, ".clu")
	if err := spiketext.Write(units, resPath, cluPath); err != nil {
		return err
	}
	logger.Info("sorting saved",
		logging.String("res_path", resPath),
		logging.Int("units", units.Len()),
		logging.Int("spikes", units.NumSpikes()),
	)
	return nil
}

// collect copies any sorting into a collection ordered by unit id.
func collect(sorting extractor.Sorting) (*spiketrain.Collection, error) {
	if s, ok := sorting.(*Sorting); ok {
		units := s.Units()
		ids := units.UnitIDs()
		if slices.IsSorted(ids) {
			return units, nil
		}
	}
	ids := slices.Clone(sorting.UnitIDs())
	slices.Sort(ids)
	units, _ := spiketrain.New()
	for _, id := range ids {
		times, err := sorting.UnitSpikeTrain(id, extractor.All())
		if err != nil {
			return nil, fmt.Errorf("read unit %d: %w", id, err)
		}
		if err := units.AddUnit(id, times); err != nil {
			return nil, err
		}
	}
	return units, nil
}

func writeSortingSidecar(logger *slog.Logger, folder string, rate float64) error {
	if rate <= 0 {
		logging.WarnWithContext(logger, "sampling rate unknown, sidecar not written", "sampling_rate_unknown",
			logging.Float64("sampling_rate", rate),
			logging.String(logging.FieldImpact, "the saved sorting cannot be reopened without a sidecar"),
			logging.String(logging.FieldErrorHint, "provide a sorting with a positive sampling frequency"),
		)
		return nil
	}
	return writeSidecar(logger, metadata.SidecarPath(folder), metadata.Metadata{SamplingRate: rate})
}
