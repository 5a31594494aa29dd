package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pfrederiksen/nba-boxscores/internal/crawler"
	"github.com/pfrederiksen/nba-boxscores/internal/logger"
	"github.com/pfrederiksen/nba-boxscores/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	Command    string                  `json:"command"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	Seasons    []int                   `json:"seasons"`
	Crawl      []pipeline.CrawlReport  `json:"crawl,omitempty"`
	Builds     []pipeline.SeasonReport `json:"builds,omitempty"`
	Metrics    *logger.Snapshot        `json:"metrics,omitempty"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if len(result.Crawl) > 0 {
		fmt.Fprintln(w, "Crawl:")
		var total crawler.Stats
		for _, r := range result.Crawl {
			fmt.Fprintf(w, "  %d  schedule: %s  box scores: %s\n", r.Season, statsLine(r.Schedule), statsLine(r.BoxScores))
			if r.Error != "" {
				fmt.Fprintf(w, "        error: %s\n", r.Error)
			}
			total.Add(r.Schedule)
			total.Add(r.BoxScores)
		}
		if total.Unavailable > 0 {
			fmt.Fprintf(w, "  %d page(s) unavailable; run crawl again to retry them\n", total.Unavailable)
		}
	}

	if len(result.Builds) > 0 {
		fmt.Fprintln(w, "Build:")
		games, failed := 0, 0
		for _, r := range result.Builds {
			if r.Error != "" {
				fmt.Fprintf(w, "  %d  %s\n", r.Season, r.Error)
				continue
			}
			fmt.Fprintf(w, "  %d  %d games", r.Season, r.Games)
			if r.Failed > 0 {
				fmt.Fprintf(w, " (%d skipped)", r.Failed)
			}
			fmt.Fprintf(w, ", %d game rows x %d columns, %d player rows\n", r.GameRows, r.Columns, r.PlayerRows)
			games += r.Games
			failed += r.Failed
		}
		fmt.Fprintf(w, "\nTotal: %d games across %d seasons", games, len(result.Builds))
		if failed > 0 {
			fmt.Fprintf(w, ", %d skipped", failed)
		}
		fmt.Fprintln(w)
	}

	if verbose && result.Metrics != nil {
		fmt.Fprintln(w)
		writeMetrics(w, result)
	}

	return nil
}

func statsLine(s crawler.Stats) string {
	return fmt.Sprintf("%d fetched, %d skipped, %d unavailable", s.Fetched, s.Skipped, s.Unavailable)
}

// writeMetrics renders the run metrics as a table
func writeMetrics(w io.Writer, result *OutputResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Metric", "Value"})
	for _, name := range result.Metrics.CounterNames() {
		t.AppendRow(table.Row{name, result.Metrics.Counters[name]})
	}
	for _, name := range sortedKeys(result.Metrics.Gauges) {
		t.AppendRow(table.Row{name, result.Metrics.Gauges[name]})
	}

	for _, name := range sortedKeys(result.Metrics.Timings) {
		s := result.Metrics.Timings[name]
		t.AppendRow(table.Row{name, fmt.Sprintf("n=%d avg=%s max=%s", s.Count, s.Average, s.Max)})
	}

	t.AppendFooter(table.Row{"elapsed", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond).String()})
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.Render()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
