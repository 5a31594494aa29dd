// Package pipeline runs the crawl and build stages over a list of seasons.
//
// Seasons are processed one after another and every remote request goes
// through the single Fetcher behind the crawler. A failure in one page or
// game is logged and counted; it never stops the rest of the season.
package pipeline
