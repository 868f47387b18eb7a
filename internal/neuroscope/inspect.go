package neuroscope

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"neuroscope/internal/metadata"
	"neuroscope/internal/shank"
)

// Layout names the sorting files found in a session folder.
type Layout string

const (
	LayoutNone   Layout = "none"
	LayoutSingle Layout = "single"
	LayoutMulti  Layout = "multi"
)

// Summary describes a session folder without keeping anything open.
type Summary struct {
	Folder       string        `json:"folder" yaml:"folder"`
	Basename     string        `json:"basename" yaml:"basename"`
	DType        string        `json:"dtype,omitempty" yaml:"dtype,omitempty"`
	ChannelCount int           `json:"channel_count,omitempty" yaml:"channel_count,omitempty"`
	SamplingRate float64       `json:"sampling_rate,omitempty" yaml:"sampling_rate,omitempty"`
	DatPath      string        `json:"dat_path,omitempty" yaml:"dat_path,omitempty"`
	DatBytes     int64         `json:"dat_bytes" yaml:"dat_bytes"`
	NumFrames    int64         `json:"num_frames" yaml:"num_frames"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	Layout       Layout        `json:"layout" yaml:"layout"`
	ResPath      string        `json:"res_path,omitempty" yaml:"res_path,omitempty"`
	CluPath      string        `json:"clu_path,omitempty" yaml:"clu_path,omitempty"`
	ShankIDs     []int         `json:"shank_ids,omitempty" yaml:"shank_ids,omitempty"`
	UnitCount    int           `json:"unit_count" yaml:"unit_count"`
	SpikeCount   int64         `json:"spike_count" yaml:"spike_count"`
	// Problems lists the parts of the folder that could not be read.
	Problems []string `json:"problems,omitempty" yaml:"problems,omitempty"`
}

// Inspect summarizes folder. Unreadable parts are reported in Problems;
// only a missing or unlistable folder is an error.
func Inspect(folder string, opts ...Option) (Summary, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return Summary{}, fmt.Errorf("resolve folder %s: %w", folder, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Summary{}, fmt.Errorf("inspect %s: %w", abs, err)
	}
	if !info.IsDir() {
		return Summary{}, fmt.Errorf("inspect %s: not a directory", abs)
	}

	sum := Summary{Folder: abs, Basename: filepath.Base(abs), Layout: LayoutNone}
	sum.inspectMetadata()
	sum.inspectDat()
	sum.inspectSorting(opts)
	return sum, nil
}

func (s *Summary) problem(err error) {
	s.Problems = append(s.Problems, err.Error())
}

func (s *Summary) inspectMetadata() {
	xmlPath := metadata.SidecarPath(s.Folder)
	md, err := metadata.Load(xmlPath)
	if err == nil {
		s.DType = md.DType.String()
		s.ChannelCount = md.ChannelCount
		s.SamplingRate = md.SamplingRate
		return
	}
	// Sorting-only sessions carry just a sampling rate.
	if rate, rateErr := metadata.LoadSamplingRate(xmlPath); rateErr == nil {
		s.SamplingRate = rate
		return
	}
	s.problem(err)
}

func (s *Summary) inspectDat() {
	datPath := metadata.SessionPath(s.Folder, ".dat")
	info, err := os.Stat(datPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.problem(err)
		}
		return
	}
	s.DatPath = datPath
	s.DatBytes = info.Size()
	dtype, err := metadata.ParseDType(s.DType)
	if err != nil || s.ChannelCount == 0 {
		return
	}
	s.NumFrames = s.DatBytes / int64(dtype.Size()*s.ChannelCount)
	if s.SamplingRate > 0 {
		s.Duration = time.Duration(float64(s.NumFrames) / s.SamplingRate * float64(time.Second))
	}
}

func (s *Summary) inspectSorting(opts []Option) {
	if resPath, cluPath, err := FindSpikePair(s.Folder); err == nil {
		s.Layout = LayoutSingle
		s.ResPath, s.CluPath = resPath, cluPath
		sorting, err := SortingFromPair(resPath, cluPath, opts...)
		if err != nil {
			s.problem(err)
			return
		}
		s.UnitCount = len(sorting.UnitIDs())
		s.SpikeCount = int64(sorting.NumSpikes())
		return
	}

	family, err := shank.Discover(s.Folder)
	if err != nil {
		s.problem(err)
		return
	}
	if len(family.Shanks) == 0 {
		return
	}
	s.Layout = LayoutMulti
	s.ShankIDs = family.Indices()
	multi, err := OpenMultiSorting(s.Folder, opts...)
	if err != nil {
		s.problem(err)
		return
	}
	for i := range multi.sortings {
		sorting := multi.Shank(i)
		s.UnitCount += len(sorting.UnitIDs())
		s.SpikeCount += int64(sorting.NumSpikes())
	}
}
