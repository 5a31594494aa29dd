package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pfrederiksen/nba-boxscores/internal/config"
	"github.com/pfrederiksen/nba-boxscores/internal/logger"
	"github.com/pfrederiksen/nba-boxscores/internal/pipeline"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// options holds flag values for one invocation
type options struct {
	configPath string
	format     string
	verbose    bool
	cfg        config.Config
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{cfg: config.Default()}

	cmd := &cobra.Command{
		Use:   "nba-boxscores",
		Short: "Crawl basketball-reference box scores and build season tables",
		Long: `A CLI tool to collect NBA box scores from basketball-reference.com.
Raw pages are saved once and never fetched again, so interrupted crawls
resume where they stopped. Saved pages are normalized into one games table
and one players table per season.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "JSON5 config file")
	flags.StringVar(&opts.cfg.DataDir, "data-dir", opts.cfg.DataDir, "Data directory for raw pages and CSV output")
	flags.StringVar(&opts.cfg.Store, "store", opts.cfg.Store, "Raw page store: disk or redis")
	flags.StringVar(&opts.cfg.RedisURL, "redis-url", opts.cfg.RedisURL, "Redis URL for --store redis")
	flags.StringVar(&opts.cfg.BaseURL, "base-url", opts.cfg.BaseURL, "Source site base URL")
	flags.StringVar(&opts.cfg.Seasons, "seasons", opts.cfg.Seasons, "Seasons, e.g. 2005, 2000-2010 or 2000,2003,2007-2009")
	flags.IntVar(&opts.cfg.Attempts, "attempts", opts.cfg.Attempts, "Fetch attempts per page")
	flags.Float64Var(&opts.cfg.DelaySeconds, "delay", opts.cfg.DelaySeconds, "Backoff step in seconds (attempt i waits i*delay)")
	flags.Float64Var(&opts.cfg.RequestsPerMinute, "rpm", opts.cfg.RequestsPerMinute, "Request ceiling per minute (0 disables)")
	flags.Float64Var(&opts.cfg.TimeoutSeconds, "timeout", opts.cfg.TimeoutSeconds, "Per-request timeout in seconds")
	flags.StringVar(&opts.cfg.LogLevel, "log-level", opts.cfg.LogLevel, "Log level: debug, info, warn or error")
	flags.StringVar(&opts.format, "format", string(FormatText), "Output format: text or json")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging and print run metrics")

	cmd.AddCommand(
		newCrawlCmd(opts),
		newBuildCmd(opts),
		newRunCmd(opts),
	)
	return cmd
}

func newCrawlCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Save schedule and box score pages that are not stored yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, opts, true, false)
		},
	}
}

func newBuildCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build season CSV tables from stored box scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, opts, false, true)
		},
	}
	cmd.Flags().StringVar(&opts.cfg.SQLite, "sqlite", "", "Also write tables to this SQLite database")
	return cmd
}

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Crawl, then build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, opts, true, true)
		},
	}
	cmd.Flags().StringVar(&opts.cfg.SQLite, "sqlite", "", "Also write tables to this SQLite database")
	return cmd
}

// resolve merges the config file under the flags the user set
func resolve(flags *pflag.FlagSet, opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "data-dir":
			cfg.DataDir = opts.cfg.DataDir
		case "store":
			cfg.Store = opts.cfg.Store
		case "redis-url":
			cfg.RedisURL = opts.cfg.RedisURL
		case "base-url":
			cfg.BaseURL = opts.cfg.BaseURL
		case "seasons":
			cfg.Seasons = opts.cfg.Seasons
		case "attempts":
			cfg.Attempts = opts.cfg.Attempts
		case "delay":
			cfg.DelaySeconds = opts.cfg.DelaySeconds
		case "rpm":
			cfg.RequestsPerMinute = opts.cfg.RequestsPerMinute
		case "timeout":
			cfg.TimeoutSeconds = opts.cfg.TimeoutSeconds
		case "log-level":
			cfg.LogLevel = opts.cfg.LogLevel
		case "sqlite":
			cfg.SQLite = opts.cfg.SQLite
		}
	})
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	return cfg, cfg.Validate()
}

// execute is the shared body of crawl, build and run
func execute(cmd *cobra.Command, opts *options, crawl, build bool) error {
	format := OutputFormat(strings.ToLower(opts.format))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", opts.format)
	}

	cfg, err := resolve(cmd.Flags(), opts)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if opts.verbose {
		level = logger.LevelDebug
	}
	log := logger.New(level, cmd.ErrOrStderr())
	logger.SetDefault(log)
	metrics := logger.NewMetrics()

	seasons, err := config.ParseSeasons(cfg.Seasons)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := open(ctx, cfg, log, metrics, crawl)
	if err != nil {
		return err
	}
	defer app.Close() // nolint:errcheck

	result := &OutputResult{
		Command:   cmd.Name(),
		StartedAt: time.Now().UTC(),
		Seasons:   seasons,
	}
	runErr := run(ctx, app.pipeline, seasons, crawl, build, result)
	result.FinishedAt = time.Now().UTC()
	if opts.verbose {
		snap := metrics.Snapshot()
		result.Metrics = &snap
	}

	if err := WriteOutput(cmd.OutOrStdout(), result, format, opts.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return runErr
}

func run(ctx context.Context, p *pipeline.Pipeline, seasons []int, crawl, build bool, result *OutputResult) error {
	if crawl {
		reports, err := p.Crawl(ctx, seasons)
		result.Crawl = reports
		if err != nil {
			return fmt.Errorf("crawling: %w", err)
		}
	}
	if build {
		reports, err := p.BuildAll(ctx, seasons)
		result.Builds = reports
		if err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(ExitError)
	}
}
