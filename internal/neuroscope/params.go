package neuroscope

// Kinds reported by Params.Kind.
const (
	KindRecording    = "recording"
	KindSorting      = "sorting"
	KindMultiSorting = "multi_sorting"
)

// Params echoes the resolved inputs a façade was constructed from.
type Params struct {
	Kind           string  `json:"kind" yaml:"kind"`
	Folder         string  `json:"folder,omitempty" yaml:"folder,omitempty"`
	XMLPath        string  `json:"xml_path,omitempty" yaml:"xml_path,omitempty"`
	DatPath        string  `json:"dat_path,omitempty" yaml:"dat_path,omitempty"`
	ResPath        string  `json:"res_path,omitempty" yaml:"res_path,omitempty"`
	CluPath        string  `json:"clu_path,omitempty" yaml:"clu_path,omitempty"`
	KeepMUAUnits   *bool   `json:"keep_mua_units,omitempty" yaml:"keep_mua_units,omitempty"`
	Convention     string  `json:"convention,omitempty" yaml:"convention,omitempty"`
	ExcludeShanks  []int   `json:"exclude_shanks,omitempty" yaml:"exclude_shanks,omitempty"`
	ShankIDs       []int   `json:"shank_ids,omitempty" yaml:"shank_ids,omitempty"`
	SubsetChannels []int   `json:"subset_channels,omitempty" yaml:"subset_channels,omitempty"`
	SamplingRate   float64 `json:"sampling_rate" yaml:"sampling_rate"`
}

func (p Params) clone() Params {
	out := p
	if p.KeepMUAUnits != nil {
		v := *p.KeepMUAUnits
		out.KeepMUAUnits = &v
	}
	out.ExcludeShanks = append([]int(nil), p.ExcludeShanks...)
	out.ShankIDs = append([]int(nil), p.ShankIDs...)
	out.SubsetChannels = append([]int(nil), p.SubsetChannels...)
	return out
}

func boolPtr(v bool) *bool {
	return &v
}
