// Package main hosts the neuroscope CLI entrypoint and command graph.
//
// The Cobra-based command tree inspects Neuroscope session folders, lists
// decoded units, prints raw trace blocks, rewrites sortings canonically and
// maintains the local session catalog. It centralizes configuration
// resolution, output formatting and logging setup so subcommands can focus on
// presentation.
//
// Keep this package lean: add behaviour to the internal packages first, then
// surface it through commands or flags here.
package main
