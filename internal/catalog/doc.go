// Package catalog persists a local index of inspected recording sessions.
//
// The index lives in a single SQLite database opened with WAL journaling and
// a busy timeout. Each row summarizes one session folder: the acquisition
// metadata triple, the size of the raw .dat file, the sorting layout found
// on disk and unit/spike totals. Rows are keyed by the absolute folder path
// so rescanning a folder replaces its previous entry.
package catalog
