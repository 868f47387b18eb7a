// Package neuroscope reads and writes Neuroscope session folders.
//
// A session folder is named after its basename and holds <basename>.xml
// (acquisition metadata), <basename>.dat (interleaved raw samples) and either
// one <basename>.res/<basename>.clu spike pair or a family of per-shank
// .res.N/.clu.N pairs. The façades here tie the codecs together:
//
//   - OpenRecording / SaveRecording for the sidecar plus raw samples.
//   - SortingFromPair, SortingFromFolder and OpenSorting for one spike pair,
//     SaveSorting to write one.
//   - OpenMultiSorting / SaveMultiSorting for per-shank families.
//
// Every façade reports a Capabilities descriptor and echoes the resolved
// paths and options it was built from through Params. Saves hold an advisory
// lock on the target folder and never overwrite an existing sidecar.
//
// # Errors
//
// Failures wrap the sentinels re-exported from errors.go so callers can
// branch with errors.Is without importing the codec packages.
package neuroscope
