// Package extractor defines the uniform recording/sorting contract that the
// Neuroscope façades fill in.
//
// Recordings expose channel ids, a sampling frequency and channel-major trace
// blocks. Sortings expose unit ids and per-unit spike trains. Frame windows
// are half-open and default to the full extent.
//
// Each façade type also publishes a Capabilities descriptor stating whether it
// can write and how its data is laid out on disk.
package extractor
