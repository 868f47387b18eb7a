// Package spiketrain holds the in-memory spike-train collection shared by the
// sorting codecs and façades.
//
// A Collection is an ordered mapping from positive unit ids to sequences of
// sample indices. Units keep the order in which they were added; spike times
// inside a unit are stored as given (readers do not sort them). Writers that
// need the canonical on-disk order sort on their own copy.
//
// Collections are not safe for concurrent mutation. Transforms such as
// ShiftUnitIDs return a new Collection and never alias the receiver's slices.
package spiketrain
