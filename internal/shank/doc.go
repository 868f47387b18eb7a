// Package shank discovers per-shank `.res.N`/`.clu.N` file families in a
// session folder and decodes them into one collection per shank.
//
// A folder holding an unsplit `.res`/`.clu` pair is rejected: that layout is
// read as a single sorting. Files with a `temp` name segment (for example
// `rat.temp.res.1`, left behind by clustering tools) are skipped. Each shank
// keeps its own 1-based unit numbering; nothing is merged or offset across
// shanks.
package shank
