package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/nba-boxscores/internal/htmldoc"
	"github.com/pfrederiksen/nba-boxscores/internal/logger"
	"github.com/pfrederiksen/nba-boxscores/internal/storage"
)

// Page regions requested from the source
const (
	ScheduleSelector = "#content .filter"
	MonthSelector    = "#all_schedule"
	BoxScoreSelector = "#content"
)

// Fetcher returns a page region, or ok=false when it is unavailable
type Fetcher interface {
	Fetch(ctx context.Context, url, selector string) (html string, ok bool)
}

// Stats counts what one crawl pass did
type Stats struct {
	Fetched     int `json:"fetched"`
	Skipped     int `json:"skipped"`
	Unavailable int `json:"unavailable"`
	StoreErrors int `json:"store_errors"`
}

// Add accumulates o into s
func (s *Stats) Add(o Stats) {
	s.Fetched += o.Fetched
	s.Skipped += o.Skipped
	s.Unavailable += o.Unavailable
	s.StoreErrors += o.StoreErrors
}

// Crawler fills a raw store from the remote source
type Crawler struct {
	fetcher Fetcher
	store   storage.Store
	base    *url.URL
	log     *logger.Logger
	metrics *logger.Metrics
}

// Option configures a Crawler
type Option func(*Crawler)

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Crawler) { c.log = l }
}

// WithMetrics sets the metrics tracker
func WithMetrics(m *logger.Metrics) Option {
	return func(c *Crawler) { c.metrics = m }
}

// New creates a Crawler. Relative links found on pages resolve against
// baseURL.
func New(f Fetcher, store storage.Store, baseURL string, opts ...Option) (*Crawler, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q is not absolute", baseURL)
	}
	c := &Crawler{
		fetcher: f,
		store:   store,
		base:    base,
		log:     logger.Default(),
		metrics: logger.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.Fields{"component": "crawler"})
	return c, nil
}

// ScheduleURL returns the season schedule index page
func (c *Crawler) ScheduleURL(season int) string {
	return c.resolve(fmt.Sprintf("/leagues/NBA_%d_games.html", season))
}

// CrawlSchedule saves every month schedule of season that is not stored yet
func (c *Crawler) CrawlSchedule(ctx context.Context, season int) (Stats, error) {
	var stats Stats
	log := c.log.With(logger.Fields{"season": season, "pass": "schedule"})

	indexKey := storage.ScheduleIndexKey(season)
	if !c.ensure(ctx, log, &stats, indexKey, c.ScheduleURL(season), ScheduleSelector) {
		return stats, ctx.Err()
	}
	index, err := c.store.Get(ctx, indexKey)
	if err != nil {
		return stats, fmt.Errorf("reading schedule index: %w", err)
	}
	doc, err := htmldoc.LoadBytes(index)
	if err != nil {
		return stats, fmt.Errorf("reading schedule index: %w", err)
	}

	for i, link := range c.links(doc.Selection, nil) {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		key := storage.ScheduleKey(season, i+1, storage.Slug(link))
		c.ensure(ctx, log, &stats, key, link, MonthSelector)
	}
	log.Info("schedule pass finished", statsFields(stats))
	return stats, nil
}

// CrawlBoxScores saves every box score linked from the season's stored month
// schedules that is not stored yet. Numbering runs across all month files.
func (c *Crawler) CrawlBoxScores(ctx context.Context, season int) (Stats, error) {
	var stats Stats
	log := c.log.With(logger.Fields{"season": season, "pass": "boxscores"})

	months, err := c.store.List(ctx, storage.SeasonScheduleDir(season))
	if err != nil {
		return stats, fmt.Errorf("listing month schedules: %w", err)
	}

	counter := 1
	for _, month := range months {
		if !strings.Contains(storage.Name(month), ".html") {
			continue
		}
		raw, err := c.store.Get(ctx, month)
		if err != nil {
			// skipping the file would renumber every later box score
			return stats, fmt.Errorf("reading %s: %w", month, err)
		}
		doc, err := htmldoc.LoadBytes(raw)
		if err != nil {
			return stats, fmt.Errorf("reading %s: %w", month, err)
		}

		for _, link := range c.links(doc.Selection, isBoxScore) {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			key := storage.BoxScoreKey(season, counter, storage.Slug(link))
			counter++
			c.ensure(ctx, log, &stats, key, link, BoxScoreSelector)
		}
	}
	log.Info("box score pass finished", statsFields(stats))
	return stats, nil
}

// ensure fetches and stores the page under key unless it is already stored.
// It reports whether the key is present afterwards.
func (c *Crawler) ensure(ctx context.Context, log *logger.Logger, stats *Stats, key, link, selector string) bool {
	exists, err := c.store.Exists(ctx, key)
	if err != nil {
		stats.StoreErrors++
		c.metrics.IncrCounter(logger.MetricStoreErrors)
		log.Error("checking store", logger.Fields{"key": key}, err)
		return false
	}
	if exists {
		stats.Skipped++
		c.metrics.IncrCounter(logger.MetricPagesSkipped)
		log.Debug("already stored", logger.Fields{"key": key})
		return true
	}

	html, ok := c.fetcher.Fetch(ctx, link, selector)
	if !ok {
		stats.Unavailable++
		log.Warn("page unavailable, will retry next run", logger.Fields{"key": key, "url": link})
		return false
	}
	if err := c.store.Put(ctx, key, []byte(html)); err != nil {
		stats.StoreErrors++
		c.metrics.IncrCounter(logger.MetricStoreErrors)
		log.Error("storing page", logger.Fields{"key": key}, err)
		return false
	}
	stats.Fetched++
	c.metrics.IncrCounter(logger.MetricPagesStored)
	log.Info("stored page", logger.Fields{"key": key})
	return true
}

// links returns the anchors under sel accepted by keep (nil keeps all),
// resolved against the base URL.
func (c *Crawler) links(sel *goquery.Selection, keep func(string) bool) []string {
	var out []string
	for _, href := range htmldoc.Links(sel, nil) {
		if keep != nil && !keep(href) {
			continue
		}
		out = append(out, c.resolve(href))
	}
	return out
}

func (c *Crawler) resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return c.base.ResolveReference(ref).String()
}

func isBoxScore(href string) bool {
	return strings.Contains(href, "boxscore") && strings.Contains(href, ".html")
}

func statsFields(s Stats) logger.Fields {
	return logger.Fields{
		"fetched":      s.Fetched,
		"skipped":      s.Skipped,
		"unavailable":  s.Unavailable,
		"store_errors": s.StoreErrors,
	}
}
