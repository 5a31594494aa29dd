// Package cli implements the command-line interface for nba-boxscores.
//
// The cli package provides the Cobra-based CLI with commands to crawl raw box
// score pages into the store, build season tables from stored pages, and run
// both in sequence. Settings are resolved from defaults, an optional JSON5
// config file and flags; results are reported as text or JSON.
package cli
