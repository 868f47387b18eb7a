// Package spiketext reads and writes Neuroscope `.res`/`.clu` text pairs.
//
// A `.res` file holds one spike time (sample index) per line. The matching
// `.clu` file starts with a declared cluster count followed by one cluster id
// per spike, aligned line by line with the `.res` file.
//
// Cluster ids below the first sorted id are reserved by a Convention. The
// Neuroscope convention reserves 0 for unsorted noise and 1 for multi-unit
// activity. Noise is always dropped on read. MUA is kept or dropped
// depending on Options.KeepMUAUnits, and the retained clusters are renumbered
// into contiguous unit ids starting at 1.
//
// Files that contain no noise or no MUA spikes also leave those ids out of the
// declared count, so Decode raises the count by one for each reserved id that
// is absent from the data whenever the ids present do not cover the full
// declared range.
//
// Encode always writes spikes sorted by time across all units, and the `.clu`
// header records how many distinct labels were written.
//
// # Errors
//
//   - [ErrMismatchedSpikeFiles]: `.res` and `.clu` body lengths differ
//   - [ErrMalformedSpikeFile]: a line is not a decimal integer
package spiketext
