// Package bindat reads and writes raw interleaved multi-channel sample files
// (Neuroscope `.dat`).
//
// Samples are signed little-endian integers of the width given by the sample
// type, stored frame by frame: all channels of frame 0, then all channels of
// frame 1, and so on. Readers memory-map the file, so opening a multi-gigabyte
// recording is cheap and trace blocks are decoded on demand. A trailing
// partial frame is ignored.
//
// Trace blocks are returned channel-major: one row per channel.
package bindat
