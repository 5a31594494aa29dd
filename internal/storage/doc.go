// Package storage is the raw page store the crawler writes and the builder
// reads.
//
// Pages live under slash-separated keys of the form
// "season games/<season>/<n>_<slug>" and "season scores/<season>/<n>_<slug>",
// where the number is a zero-padded ordinal assigned in link order (three
// digits for schedules, four for box scores). Disk keeps each
// key as a file below a data directory (default ./data); Redis keeps each key
// as a string value below a configurable prefix. Put is atomic on disk so an
// interrupted crawl never leaves a half-written page that Exists would accept.
package storage
