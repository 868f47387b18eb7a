package neuroscope

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"neuroscope/internal/bindat"
	"neuroscope/internal/extractor"
	"neuroscope/internal/logging"
	"neuroscope/internal/metadata"
)

// RecordingCapabilities describes the recording façade.
var RecordingCapabilities = extractor.Capabilities{SupportsWrite: true, StorageMode: extractor.Folder}

// Recording exposes the raw samples of a session folder.
type Recording struct {
	md       metadata.Metadata
	file     *bindat.File
	channels []int
	params   Params
	logger   *slog.Logger
}

var _ extractor.Recording = (*Recording)(nil)

// OpenRecording loads <folder>/<basename>.xml and maps <folder>/<basename>.dat.
func OpenRecording(folder string, opts ...Option) (*Recording, error) {
	o := newOptions(opts)
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, fmt.Errorf("resolve folder %s: %w", folder, err)
	}
	xmlPath := metadata.SidecarPath(abs)
	datPath := metadata.SessionPath(abs, ".dat")

	md, err := metadata.Load(xmlPath)
	if err != nil {
		return nil, err
	}

	channels, err := resolveSubset(o.subsetChannels, md.ChannelCount)
	if err != nil {
		return nil, err
	}

	file, err := bindat.Open(datPath, bindat.Params{
		DType:        md.DType,
		ChannelCount: md.ChannelCount,
		SamplingRate: md.SamplingRate,
	})
	if err != nil {
		return nil, err
	}

	logger := logging.NewComponentLogger(o.logger, "recording").With(logging.String(logging.FieldSession, abs))
	logger.Debug("recording opened",
		logging.String("dtype", md.DType.String()),
		logging.Int("channels", md.ChannelCount),
		logging.Int("exposed_channels", len(channels)),
		logging.Float64("sampling_rate", md.SamplingRate),
		logging.Int64("frames", file.NumFrames()),
	)

	return &Recording{
		md:       md,
		file:     file,
		channels: channels,
		logger:   logger,
		params: Params{
			Kind:           KindRecording,
			Folder:         abs,
			XMLPath:        xmlPath,
			DatPath:        datPath,
			SubsetChannels: slices.Clone(o.subsetChannels),
			SamplingRate:   md.SamplingRate,
		},
	}, nil
}

func resolveSubset(subset []int, channelCount int) ([]int, error) {
	if len(subset) == 0 {
		all := make([]int, channelCount)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	for _, ch := range subset {
		if ch < 0 || ch >= channelCount {
			return nil, fmt.Errorf("subset channel %d: %w (recording has %d channels)", ch, ErrUnknownChannel, channelCount)
		}
	}
	return slices.Clone(subset), nil
}

// Close unmaps the sample file.
func (r *Recording) Close() error {
	return r.file.Close()
}

// Metadata returns the acquisition triple read from the sidecar.
func (r *Recording) Metadata() metadata.Metadata {
	return r.md
}

// ChannelIDs returns 0..n-1 for the exposed channels.
func (r *Recording) ChannelIDs() []int {
	ids := make([]int, len(r.channels))
	for i := range ids {
		ids[i] = i
	}
	return ids
}

func (r *Recording) SamplingFrequency() float64 {
	return r.md.SamplingRate
}

func (r *Recording) NumFrames() int64 {
	return r.file.NumFrames()
}

func (r *Recording) DType() string {
	return r.md.DType.String()
}

// SizeBytes returns the size of the mapped .dat file.
func (r *Recording) SizeBytes() int64 {
	return r.file.SizeBytes()
}

// Traces returns channel-major samples. channelIDs index the exposed
// channels; nil selects all of them.
func (r *Recording) Traces(channelIDs []int, fr extractor.FrameRange) ([][]int32, error) {
	if channelIDs == nil {
		return r.file.Traces(r.channels, fr)
	}
	fileChannels := make([]int, len(channelIDs))
	for i, id := range channelIDs {
		if id < 0 || id >= len(r.channels) {
			return nil, fmt.Errorf("channel %d: %w (recording exposes %d channels)", id, ErrUnknownChannel, len(r.channels))
		}
		fileChannels[i] = r.channels[id]
	}
	return r.file.Traces(fileChannels, fr)
}

func (r *Recording) Params() Params {
	return r.params.clone()
}

func (r *Recording) Capabilities() extractor.Capabilities {
	return RecordingCapabilities
}

// SaveRecording writes rec into folder as <basename>.dat plus a sidecar when
// none exists. The sample type comes from WithDType; anything other than
// int16 or int32 is written as int32.
func SaveRecording(ctx context.Context, rec extractor.Recording, folder string, opts ...Option) error {
	o := newOptions(opts)
	abs, err := filepath.Abs(folder)
	if err != nil {
		return fmt.Errorf("resolve folder %s: %w", folder, err)
	}
	ctx, logger := saveLogger(ctx, o.logger, "recording", abs)

	dtype, coerced := metadata.CoerceDType(o.dtype)
	if coerced {
		logging.WarnWithContext(logger, "unsupported dtype, writing int32", "dtype_coerced",
			logging.String("requested_dtype", o.dtype),
			logging.String("dtype", dtype.String()),
			logging.String(logging.FieldImpact, "samples stored as 32-bit integers"),
			logging.String(logging.FieldErrorHint, "set recording.dtype to int16 or int32"),
		)
	}

	lock, err := lockFolder(ctx, abs)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	md := metadata.Metadata{
		DType:        dtype,
		ChannelCount: len(rec.ChannelIDs()),
		SamplingRate: rec.SamplingFrequency(),
	}
	if err := writeSidecar(logger, metadata.SidecarPath(abs), md); err != nil {
		return err
	}

	datPath := metadata.SessionPath(abs, ".dat")
	if err := bindat.Write(datPath, rec, dtype); err != nil {
		return err
	}
	logger.Info("recording saved",
		logging.String("dat_path", datPath),
		logging.String("dtype", dtype.String()),
		logging.Int("channels", md.ChannelCount),
		logging.Int64("frames", rec.NumFrames()),
	)
	return nil
}
