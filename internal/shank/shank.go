package shank

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"neuroscope/internal/spiketext"
	"neuroscope/internal/spiketrain"
)

var (
	// ErrAmbiguousShankLayout reports a folder that is not a clean per-shank layout.
	ErrAmbiguousShankLayout = errors.New("ambiguous shank layout")
	// ErrUnmatchedShankFiles reports shank indices present for only one of .res/.clu.
	ErrUnmatchedShankFiles = errors.New("unmatched shank files")
	// ErrUnknownShank reports an excluded shank index that was never discovered.
	ErrUnknownShank = errors.New("unknown shank")
)

var shankFilePattern = regexp.MustCompile(`^(.+)\.(res|clu)\.(\d+)$`)

// Shank is one discovered .res.N/.clu.N pair.
type Shank struct {
	Index   int
	ResPath string
	CluPath string
}

// Family is the set of shanks found in a folder, ordered by index.
type Family struct {
	Folder string
	Shanks []Shank
}

// Indices returns the shank indices in order.
func (f Family) Indices() []int {
	out := make([]int, len(f.Shanks))
	for i, s := range f.Shanks {
		out[i] = s.Index
	}
	return out
}

// Exclude returns a family without the listed shank indices. Naming an index
// that is not part of the family is an error.
func (f Family) Exclude(indices []int) (Family, error) {
	if len(indices) == 0 {
		return Family{Folder: f.Folder, Shanks: slices.Clone(f.Shanks)}, nil
	}
	known := f.Indices()
	drop := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		if !slices.Contains(known, idx) {
			return Family{}, fmt.Errorf("%w: %d (discovered %v)", ErrUnknownShank, idx, known)
		}
		drop[idx] = struct{}{}
	}
	out := Family{Folder: f.Folder}
	for _, s := range f.Shanks {
		if _, skip := drop[s.Index]; !skip {
			out.Shanks = append(out.Shanks, s)
		}
	}
	return out, nil
}

// Discover lists folder and groups its .res.N/.clu.N files by shank index.
func Discover(folder string) (Family, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return Family{}, fmt.Errorf("list %s: %w", folder, err)
	}

	res := make(map[int]string)
	clu := make(map[int]string)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if HasUnsplitPair(name) {
			return Family{}, fmt.Errorf("%w: %s holds unsplit file %s; read it as a single sorting", ErrAmbiguousShankLayout, folder, name)
		}
		match := shankFilePattern.FindStringSubmatch(name)
		if match == nil || isTemp(match[1]) {
			continue
		}
		idx, err := strconv.Atoi(match[3])
		if err != nil {
			continue
		}
		target := res
		if match[2] == "clu" {
			target = clu
		}
		if prev, ok := target[idx]; ok {
			return Family{}, fmt.Errorf("%w: shank %d has both %s and %s", ErrAmbiguousShankLayout, idx, filepath.Base(prev), name)
		}
		target[idx] = filepath.Join(folder, name)
	}

	if missing := difference(res, clu); len(missing) > 0 {
		return Family{}, fmt.Errorf("%w: .res.N without .clu.N for shanks %v", ErrUnmatchedShankFiles, missing)
	}
	if missing := difference(clu, res); len(missing) > 0 {
		return Family{}, fmt.Errorf("%w: .clu.N without .res.N for shanks %v", ErrUnmatchedShankFiles, missing)
	}

	family := Family{Folder: folder}
	for idx, resPath := range res {
		family.Shanks = append(family.Shanks, Shank{Index: idx, ResPath: resPath, CluPath: clu[idx]})
	}
	slices.SortFunc(family.Shanks, func(a, b Shank) int { return a.Index - b.Index })
	return family, nil
}

// Aggregate decodes every shank of family independently, in family order.
func Aggregate(family Family, opts spiketext.Options) ([]*spiketrain.Collection, error) {
	out := make([]*spiketrain.Collection, 0, len(family.Shanks))
	for _, s := range family.Shanks {
		units, err := spiketext.Read(s.ResPath, s.CluPath, opts)
		if err != nil {
			return nil, fmt.Errorf("shank %d: %w", s.Index, err)
		}
		out = append(out, units)
	}
	return out, nil
}

// HasUnsplitPair reports whether name is an unsplit .res or .clu file.
func HasUnsplitPair(name string) bool {
	return strings.HasSuffix(name, ".res") || strings.HasSuffix(name, ".clu")
}

// isTemp reports whether a shank file stem ends in "temp", the marker left
// by sorting tools on scratch output (rat.temp.res.1, rat_temp.clu.2).
func isTemp(stem string) bool {
	return strings.HasSuffix(strings.ToLower(stem), "temp")
}

func difference(a, b map[int]string) []int {
	var out []int
	for idx := range a {
		if _, ok := b[idx]; !ok {
			out = append(out, idx)
		}
	}
	slices.Sort(out)
	return out
}
