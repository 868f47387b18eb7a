package neuroscope

import (
	"errors"

	"neuroscope/internal/bindat"
	"neuroscope/internal/metadata"
	"neuroscope/internal/shank"
	"neuroscope/internal/spiketext"
	"neuroscope/internal/spiketrain"
)

// ErrAmbiguousSortingSource reports a sorting request that names neither a
// complete .res/.clu pair nor a folder holding exactly one.
var ErrAmbiguousSortingSource = errors.New("ambiguous sorting source")

var (
	ErrMalformedMetadata    = metadata.ErrMalformedMetadata
	ErrMismatchedSpikeFiles = spiketext.ErrMismatchedSpikeFiles
	ErrMalformedSpikeFile   = spiketext.ErrMalformedSpikeFile
	ErrUnmatchedShankFiles  = shank.ErrUnmatchedShankFiles
	ErrAmbiguousShankLayout = shank.ErrAmbiguousShankLayout
	ErrUnknownShank         = shank.ErrUnknownShank
	ErrUnknownUnit          = spiketrain.ErrUnknownUnit
	ErrUnknownChannel       = bindat.ErrUnknownChannel
)
