package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pfrederiksen/nba-boxscores/internal/boxscore"
	"github.com/pfrederiksen/nba-boxscores/internal/crawler"
	"github.com/pfrederiksen/nba-boxscores/internal/dataset"
	"github.com/pfrederiksen/nba-boxscores/internal/logger"
	"github.com/pfrederiksen/nba-boxscores/internal/normalize"
	"github.com/pfrederiksen/nba-boxscores/internal/storage"
)

// Crawler is the acquisition stage
type Crawler interface {
	CrawlSchedule(ctx context.Context, season int) (crawler.Stats, error)
	CrawlBoxScores(ctx context.Context, season int) (crawler.Stats, error)
}

// CrawlReport summarizes one season's crawl
type CrawlReport struct {
	Season    int           `json:"season"`
	Schedule  crawler.Stats `json:"schedule"`
	BoxScores crawler.Stats `json:"box_scores"`
	Error     string        `json:"error,omitempty"`
}

// SeasonReport summarizes one season's build
type SeasonReport struct {
	Season     int    `json:"season"`
	Pages      int    `json:"pages"`
	Games      int    `json:"games"`
	Failed     int    `json:"failed"`
	GameRows   int    `json:"game_rows"`
	PlayerRows int    `json:"player_rows"`
	Columns    int    `json:"columns"`
	Error      string `json:"error,omitempty"`
}

// Pipeline wires the stages together
type Pipeline struct {
	crawler Crawler
	store   storage.Store
	sinks   []dataset.Sink
	expect  normalize.Expectations
	log     *logger.Logger
	metrics *logger.Metrics
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithCrawler sets the acquisition stage; Crawl needs one
func WithCrawler(c Crawler) Option {
	return func(p *Pipeline) { p.crawler = c }
}

// WithSinks sets where built seasons are written
func WithSinks(sinks ...dataset.Sink) Option {
	return func(p *Pipeline) { p.sinks = append(p.sinks, sinks...) }
}

// WithExpectations sets the expected merged column counts
func WithExpectations(e normalize.Expectations) Option {
	return func(p *Pipeline) { p.expect = e }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithMetrics sets the metrics tracker
func WithMetrics(m *logger.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New creates a Pipeline over store
func New(store storage.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:   store,
		expect:  normalize.DefaultExpectations(),
		log:     logger.Default(),
		metrics: logger.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Crawl runs the schedule pass for every season and then the box score pass
// for every season. Only cancellation stops it early.
func (p *Pipeline) Crawl(ctx context.Context, seasons []int) ([]CrawlReport, error) {
	if p.crawler == nil {
		return nil, errors.New("pipeline has no crawler")
	}
	reports := make([]CrawlReport, len(seasons))
	for i, season := range seasons {
		reports[i].Season = season
		stats, err := p.crawler.CrawlSchedule(ctx, season)
		reports[i].Schedule = stats
		if err := p.crawlFailed(ctx, &reports[i], "schedule", err); err != nil {
			return reports, err
		}
	}
	for i, season := range seasons {
		stats, err := p.crawler.CrawlBoxScores(ctx, season)
		reports[i].BoxScores = stats
		if err := p.crawlFailed(ctx, &reports[i], "box scores", err); err != nil {
			return reports, err
		}
	}

	pending := 0
	for _, r := range reports {
		pending += r.Schedule.Unavailable + r.BoxScores.Unavailable
	}
	p.metrics.SetGauge(logger.MetricPendingPages, float64(pending))
	return reports, nil
}

// crawlFailed records err on the report. It returns an error only when the
// run was cancelled.
func (p *Pipeline) crawlFailed(ctx context.Context, r *CrawlReport, pass string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.log.Error("crawl pass failed", logger.Fields{"season": r.Season, "pass": pass}, err)
	if r.Error != "" {
		r.Error += "; "
	}
	r.Error += fmt.Sprintf("%s: %v", pass, err)
	return nil
}

// Build normalizes every stored box score of season, in key order, and
// writes the assembled tables to each sink. Games that fail to parse or
// normalize are skipped.
func (p *Pipeline) Build(ctx context.Context, season int) (SeasonReport, error) {
	report := SeasonReport{Season: season}
	log := p.log.With(logger.Fields{"season": season, "stage": "build"})

	keys, err := p.store.List(ctx, storage.SeasonScoresDir(season))
	if err != nil {
		return report, fmt.Errorf("listing box scores: %w", err)
	}

	n := normalize.New(normalize.NewSchema(),
		normalize.WithExpectations(p.expect),
		normalize.WithLogger(log),
		normalize.WithMetrics(p.metrics))

	var games []*normalize.Game
	for _, key := range keys {
		if !strings.HasSuffix(key, ".html") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Pages++

		g, err := p.game(ctx, n, key, season)
		if err != nil {
			report.Failed++
			p.metrics.IncrCounter(logger.MetricGamesFailed)
			log.Warn("skipping game", logger.Fields{"key": key, "error": err.Error()})
			continue
		}
		p.metrics.IncrCounter(logger.MetricGamesNormalized)
		games = append(games, g)
	}
	report.Games = len(games)

	s, err := dataset.Assemble(season, games)
	if errors.Is(err, dataset.ErrNoGames) {
		log.Warn("no games to write", logger.Fields{"pages": report.Pages})
		report.Error = err.Error()
		return report, nil
	}
	if err != nil {
		return report, err
	}
	report.GameRows = s.Games.Len()
	report.PlayerRows = s.Players.Len()
	report.Columns = len(s.Games.Columns)

	for _, sink := range p.sinks {
		if err := sink.Write(ctx, s); err != nil {
			return report, fmt.Errorf("writing season %d: %w", season, err)
		}
	}
	log.Info("season built", logger.Fields{
		"games":   report.Games,
		"failed":  report.Failed,
		"columns": report.Columns,
	})
	return report, nil
}

// BuildAll builds each season in turn. A season that fails keeps its error
// on its report and the remaining seasons are still built; the failures are
// returned joined. Cancellation stops at once.
func (p *Pipeline) BuildAll(ctx context.Context, seasons []int) ([]SeasonReport, error) {
	reports := make([]SeasonReport, 0, len(seasons))
	var errs []error
	for _, season := range seasons {
		report, err := p.Build(ctx, season)
		if err != nil {
			if ctx.Err() != nil {
				reports = append(reports, report)
				return reports, ctx.Err()
			}
			report.Error = err.Error()
			errs = append(errs, fmt.Errorf("building season %d: %w", season, err))
			p.log.Error("season build failed", logger.Fields{"season": season}, err)
		}
		reports = append(reports, report)
	}
	p.metrics.SetGauge(logger.MetricSeasonsFailed, float64(len(errs)))
	return reports, errors.Join(errs...)
}

func (p *Pipeline) game(ctx context.Context, n *normalize.Normalizer, key string, season int) (*normalize.Game, error) {
	raw, err := p.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	doc, err := boxscore.ParseBytes(raw)
	if err != nil {
		return nil, err
	}
	return n.Game(doc, normalize.Meta{Name: storage.Name(key), Season: season})
}
