package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/pfrederiksen/nba-boxscores/internal/config"
	"github.com/pfrederiksen/nba-boxscores/internal/crawler"
	"github.com/pfrederiksen/nba-boxscores/internal/dataset"
	"github.com/pfrederiksen/nba-boxscores/internal/fetch"
	"github.com/pfrederiksen/nba-boxscores/internal/logger"
	"github.com/pfrederiksen/nba-boxscores/internal/pipeline"
	"github.com/pfrederiksen/nba-boxscores/internal/storage"
)

// app is a wired pipeline plus whatever must be closed after it
type app struct {
	pipeline *pipeline.Pipeline
	closers  []func() error
}

// open builds the store, sinks and (when crawling) the fetcher
func open(ctx context.Context, cfg config.Config, log *logger.Logger, metrics *logger.Metrics, crawl bool) (*app, error) {
	a := &app{}

	dataDir, err := storage.ExpandHome(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.DataDir = dataDir

	store, err := a.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithExpectations(cfg.Expectations),
		pipeline.WithLogger(log),
		pipeline.WithMetrics(metrics),
		pipeline.WithSinks(dataset.NewCSVWriter(cfg.DataDir)),
	}

	if cfg.SQLite != "" {
		sink, err := dataset.OpenSQLite(cfg.SQLite)
		if err != nil {
			a.Close() // nolint:errcheck
			return nil, err
		}
		a.closers = append(a.closers, sink.Close)
		opts = append(opts, pipeline.WithSinks(sink))
	}

	if crawl {
		fetcher := fetch.New(fetch.NewHTTPTransport(cfg.Timeout()),
			fetch.WithPolicy(cfg.RetryPolicy()),
			fetch.WithLimiter(fetch.NewLimiter(cfg.RequestsPerMinute)),
			fetch.WithLogger(log),
			fetch.WithMetrics(metrics),
		)
		c, err := crawler.New(fetcher, store, cfg.BaseURL,
			crawler.WithLogger(log),
			crawler.WithMetrics(metrics),
		)
		if err != nil {
			a.Close() // nolint:errcheck
			return nil, err
		}
		opts = append(opts, pipeline.WithCrawler(c))
	}

	a.pipeline = pipeline.New(store, opts...)
	return a, nil
}

func (a *app) openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.Store {
	case config.StoreRedis:
		r, err := storage.OpenRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("initializing storage: %w", err)
		}
		a.closers = append(a.closers, r.Close)
		return r, nil
	default:
		d, err := storage.NewDisk(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("initializing storage: %w", err)
		}
		return d, nil
	}
}

// Close releases everything open opened
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
