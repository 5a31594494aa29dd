// Package crawler walks a season's schedule and saves every box score page
// it links to into a raw store.
//
// A unit of work is done once its key exists in the store, so an
// interrupted crawl resumes where it stopped and a finished crawl makes no
// requests at all when run again. File numbers are assigned from link
// positions, not from what was saved, so gaps left by unavailable pages keep
// their number for the next run.
package crawler
