// Package config holds run settings. Values come from built-in defaults,
// then an optional JSON5 file and its ".local" sibling, then command-line
// flags.
package config
