package bindat

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"neuroscope/internal/extractor"
	"neuroscope/internal/metadata"
)

// ErrUnknownChannel reports a channel index outside the file layout.
var ErrUnknownChannel = errors.New("unknown channel")

// Params describes the layout of a sample file.
type Params struct {
	DType        metadata.DType
	ChannelCount int
	SamplingRate float64
}

func (p Params) validate() error {
	if !p.DType.Valid() {
		return fmt.Errorf("%w: %s", metadata.ErrUnsupportedDType, p.DType)
	}
	if p.ChannelCount <= 0 {
		return fmt.Errorf("channel count must be positive, got %d", p.ChannelCount)
	}
	if p.SamplingRate <= 0 {
		return fmt.Errorf("sampling rate must be positive, got %v", p.SamplingRate)
	}
	return nil
}

// frameSize returns the byte width of one frame.
func (p Params) frameSize() int {
	return p.DType.Size() * p.ChannelCount
}

// File is a memory-mapped sample file.
type File struct {
	path   string
	params Params
	data   []byte
	frames int64
}

// Open maps the sample file at path for reading.
func Open(path string, params Params) (*File, error) {
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dat file: %w", err)
	}
	defer fd.Close()

	info, err := fd.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat dat file: %w", err)
	}
	size := info.Size()

	f := &File{path: path, params: params}
	if size == 0 {
		return f, nil
	}
	data, err := unix.Mmap(int(fd.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	f.data = data
	f.frames = size / int64(params.frameSize())
	return f, nil
}

// Close unmaps the file.
func (f *File) Close() error {
	if f == nil || f.data == nil {
		return nil
	}
	data := f.data
	f.data = nil
	f.frames = 0
	return unix.Munmap(data)
}

// Path returns the mapped file path.
func (f *File) Path() string {
	return f.path
}

// Params returns the layout the file was opened with.
func (f *File) Params() Params {
	return f.params
}

// NumFrames returns the number of complete frames.
func (f *File) NumFrames() int64 {
	return f.frames
}

// SizeBytes returns the mapped size in bytes.
func (f *File) SizeBytes() int64 {
	return int64(len(f.data))
}

// Traces decodes the requested channels over r. A nil channels slice selects
// every channel in file order.
func (f *File) Traces(channels []int, r extractor.FrameRange) ([][]int32, error) {
	if channels == nil {
		channels = make([]int, f.params.ChannelCount)
		for i := range channels {
			channels[i] = i
		}
	}
	for _, ch := range channels {
		if ch < 0 || ch >= f.params.ChannelCount {
			return nil, fmt.Errorf("%w: %d (file has %d channels)", ErrUnknownChannel, ch, f.params.ChannelCount)
		}
	}
	start, end, err := r.Bounds(f.frames)
	if err != nil {
		return nil, err
	}

	n := int(end - start)
	out := make([][]int32, len(channels))
	for i := range out {
		out[i] = make([]int32, n)
	}

	width := f.params.DType.Size()
	stride := f.params.frameSize()
	for frame := 0; frame < n; frame++ {
		base := (int(start) + frame) * stride
		for i, ch := range channels {
			out[i][frame] = decodeSample(f.data[base+ch*width:], f.params.DType)
		}
	}
	return out, nil
}

func decodeSample(b []byte, dtype metadata.DType) int32 {
	if dtype == metadata.Int16 {
		return int32(int16(binary.LittleEndian.Uint16(b)))
	}
	return int32(binary.LittleEndian.Uint32(b))
}
