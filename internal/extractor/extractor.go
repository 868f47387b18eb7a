package extractor

import (
	"errors"
	"fmt"
)

// ErrFrameRange reports a frame window outside the available data.
var ErrFrameRange = errors.New("invalid frame range")

// NoEnd marks a FrameRange that runs through the last frame.
const NoEnd int64 = -1

// FrameRange selects the half-open window [Start, End) of sample indices.
// A negative End (NoEnd) selects through the last frame. End 0 is an empty
// window, so build ranges with All, Since or Frames rather than a literal.
type FrameRange struct {
	Start int64
	End   int64
}

// All returns the full-extent frame range.
func All() FrameRange {
	return FrameRange{End: NoEnd}
}

// Since returns the window from start through the last frame.
func Since(start int64) FrameRange {
	return FrameRange{Start: start, End: NoEnd}
}

// Frames returns the window [start, end).
func Frames(start, end int64) FrameRange {
	return FrameRange{Start: start, End: end}
}

// Open reports whether the range runs through the last frame.
func (r FrameRange) Open() bool {
	return r.End < 0
}

// Contains reports whether frame falls inside the range.
func (r FrameRange) Contains(frame int64) bool {
	if frame < r.Start {
		return false
	}
	return r.Open() || frame < r.End
}

// Bounds resolves the window against total frames. End is clamped to total.
func (r FrameRange) Bounds(total int64) (int64, int64, error) {
	end := r.End
	if r.Open() || end > total {
		end = total
	}
	if r.Start < 0 || r.Start > end {
		return 0, 0, fmt.Errorf("%w: [%d, %d) of %d frames", ErrFrameRange, r.Start, r.End, total)
	}
	return r.Start, end, nil
}

// StorageMode describes how an extractor's data is laid out on disk.
type StorageMode int

const (
	SingleFile StorageMode = iota
	Folder
	Custom
)

func (m StorageMode) String() string {
	switch m {
	case SingleFile:
		return "file"
	case Folder:
		return "folder"
	case Custom:
		return "custom"
	default:
		return fmt.Sprintf("StorageMode(%d)", int(m))
	}
}

// Capabilities is attached to every façade type.
type Capabilities struct {
	SupportsWrite bool
	StorageMode   StorageMode
}

// Recording is a multi-channel sampled signal.
type Recording interface {
	ChannelIDs() []int
	SamplingFrequency() float64
	NumFrames() int64
	// DType names the sample type, e.g. "int16".
	DType() string
	// Traces returns one row per requested channel (all channels when nil).
	Traces(channelIDs []int, r FrameRange) ([][]int32, error)
}

// Sorting is a set of spike trains on a shared time base.
type Sorting interface {
	UnitIDs() []int
	SamplingFrequency() float64
	UnitSpikeTrain(unitID int, r FrameRange) ([]int64, error)
}

// MultiSorting is an ordered sequence of independent sortings, one per shank.
// Unit ids are local to each sorting.
type MultiSorting interface {
	Sortings() []Sorting
	SamplingFrequency() float64
}
