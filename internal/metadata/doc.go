// Package metadata reads and writes the Neuroscope XML parameter sidecar.
//
// Only three scalar tags matter: nbits (sample width in bits), nchannels and
// samplingrate (Hz). Tags are matched case-insensitively and the first
// occurrence wins, so full Neuroscope parameter files (nBits, nChannels,
// samplingRate nested under acquisitionSystem) parse the same way as the
// minimal files this package writes. Other tags, including lfpSamplingRate,
// are ignored.
//
// Write never replaces an existing sidecar.
//
// # Errors
//
//   - [ErrMalformedMetadata]: a required tag is absent, non-numeric or out of range
//   - [ErrUnsupportedDType]: a sample type name is unknown
package metadata
