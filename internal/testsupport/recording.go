package testsupport

import (
	"fmt"

	"neuroscope/internal/extractor"
)

// Recording is an in-memory extractor.Recording backed by channel-major rows.
type Recording struct {
	Rows  [][]int32
	Rate  float64
	Dtype string
}

// NewRecording builds a Recording from channel-major rows.
func NewRecording(rate float64, rows ...[]int32) *Recording {
	return &Recording{Rows: rows, Rate: rate, Dtype: "int32"}
}

func (r *Recording) ChannelIDs() []int {
	ids := make([]int, len(r.Rows))
	for i := range ids {
		ids[i] = i
	}
	return ids
}

func (r *Recording) SamplingFrequency() float64 { return r.Rate }

func (r *Recording) DType() string { return r.Dtype }

func (r *Recording) NumFrames() int64 {
	if len(r.Rows) == 0 {
		return 0
	}
	return int64(len(r.Rows[0]))
}

func (r *Recording) Traces(channelIDs []int, fr extractor.FrameRange) ([][]int32, error) {
	start, end, err := fr.Bounds(r.NumFrames())
	if err != nil {
		return nil, err
	}
	if channelIDs == nil {
		channelIDs = r.ChannelIDs()
	}
	out := make([][]int32, len(channelIDs))
	for i, ch := range channelIDs {
		if ch < 0 || ch >= len(r.Rows) {
			return nil, fmt.Errorf("channel %d out of range", ch)
		}
		out[i] = append([]int32(nil), r.Rows[ch][start:end]...)
	}
	return out, nil
}
