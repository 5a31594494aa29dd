package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pfrederiksen/nba-boxscores/internal/boxscore/boxscoretest"
	"github.com/pfrederiksen/nba-boxscores/internal/crawler"
	"github.com/pfrederiksen/nba-boxscores/internal/logger"
	"github.com/pfrederiksen/nba-boxscores/internal/pipeline"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	pages := map[string]string{
		"/leagues/NBA_2010_games.html": `<html><body><div id="content"><div class="filter">
<div><a href="/leagues/NBA_2010_games-october.html">October</a></div></div></div></body></html>`,
		"/leagues/NBA_2010_games-october.html": `<html><body><div id="content"><div id="all_schedule">
<table id="schedule"><tbody><tr><td><a href="/boxscores/200910270XXX.html">Box Score</a></td></tr></tbody></table>
</div></div></body></html>`,
		"/boxscores/200910270XXX.html": boxscoretest.NewGame("2010", "XXX", "YYY", 110, 105).HTML(),
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decode(t *testing.T, out string) OutputResult {
	t.Helper()
	var result OutputResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	return result
}

func TestRun_EndToEnd(t *testing.T) {
	site := newSite(t)
	dir := t.TempDir()
	db := filepath.Join(dir, "stats.db")

	out, err := runCmd(t, "run",
		"--seasons", "2010",
		"--data-dir", dir,
		"--base-url", site.URL,
		"--delay", "0",
		"--rpm", "0",
		"--sqlite", db,
		"--format", "json",
	)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}

	result := decode(t, out)
	if diff := cmp.Diff([]int{2010}, result.Seasons); diff != "" {
		t.Errorf("seasons mismatch (-want +got):\n%s", diff)
	}
	wantCrawl := []pipeline.CrawlReport{{
		Season:    2010,
		Schedule:  crawler.Stats{Fetched: 2},
		BoxScores: crawler.Stats{Fetched: 1},
	}}
	if diff := cmp.Diff(wantCrawl, result.Crawl); diff != "" {
		t.Errorf("crawl mismatch (-want +got):\n%s", diff)
	}
	wantBuild := []pipeline.SeasonReport{{
		Season:     2010,
		Pages:      1,
		Games:      1,
		GameRows:   2,
		PlayerRows: 10,
		Columns:    140,
	}}
	if diff := cmp.Diff(wantBuild, result.Builds); diff != "" {
		t.Errorf("build mismatch (-want +got):\n%s", diff)
	}

	for _, path := range []string{
		filepath.Join(dir, "season scores", "2010", "0001_200910270XXX.html"),
		filepath.Join(dir, "csv files", "games", "nba_stats_games_2010.csv"),
		filepath.Join(dir, "csv files", "players", "nba_stats_players_2010.csv"),
		db,
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s: %v", path, err)
		}
	}

	// a second crawl finds everything stored
	out, err = runCmd(t, "crawl", "--seasons", "2010", "--data-dir", dir, "--base-url", site.URL,
		"--delay", "0", "--rpm", "0", "--format", "json")
	if err != nil {
		t.Fatalf("crawl error = %v", err)
	}
	again := decode(t, out)
	if got := again.Crawl[0]; got.Schedule.Fetched+got.BoxScores.Fetched != 0 {
		t.Errorf("second crawl fetched pages: %+v", got)
	}
}

func TestBuild_ConfigFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "nba.json5")
	content := `{data_dir: "` + filepath.ToSlash(dir) + `", seasons: "2003", log_level: "error"}`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, "build", "--config", cfgPath, "--format", "json")
	if err != nil {
		t.Fatalf("build error = %v", err)
	}
	result := decode(t, out)
	if diff := cmp.Diff([]int{2003}, result.Seasons); diff != "" {
		t.Errorf("seasons from file mismatch (-want +got):\n%s", diff)
	}
	if len(result.Builds) != 1 || result.Builds[0].Error == "" {
		t.Errorf("builds = %+v, want one empty season", result.Builds)
	}

	out, err = runCmd(t, "build", "--config", cfgPath, "--seasons", "2004-2005", "--format", "json")
	if err != nil {
		t.Fatalf("build error = %v", err)
	}
	if diff := cmp.Diff([]int{2004, 2005}, decode(t, out).Seasons); diff != "" {
		t.Errorf("flag did not override file (-want +got):\n%s", diff)
	}
}

func TestExecute_InvalidInput(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"build", "--data-dir", dir, "--format", "xml"}},
		{"bad seasons", []string{"build", "--data-dir", dir, "--seasons", "next year"}},
		{"bad store", []string{"build", "--data-dir", dir, "--store", "s3"}},
		{"bad log level", []string{"build", "--data-dir", dir, "--log-level", "loud"}},
		{"missing config", []string{"build", "--config", filepath.Join(dir, "nope.json5")}},
		{"extra args", []string{"crawl", "2010"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCmd(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteOutput_Text(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	result := &OutputResult{
		Command:    "run",
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Seasons:    []int{2009, 2010},
		Crawl: []pipeline.CrawlReport{
			{Season: 2009, Schedule: crawler.Stats{Skipped: 9}, BoxScores: crawler.Stats{Fetched: 3, Unavailable: 2}},
			{Season: 2010, Error: "box scores: listing month schedules: boom"},
		},
		Builds: []pipeline.SeasonReport{
			{Season: 2009, Pages: 5, Games: 4, Failed: 1, GameRows: 8, PlayerRows: 80, Columns: 140},
			{Season: 2010, Error: "no games to assemble"},
		},
	}

	var buf bytes.Buffer
	if err := WriteOutput(&buf, result, FormatText, false); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"2009  schedule: 0 fetched, 9 skipped, 0 unavailable  box scores: 3 fetched, 0 skipped, 2 unavailable",
		"error: box scores: listing month schedules: boom",
		"2 page(s) unavailable",
		"2009  4 games (1 skipped), 8 game rows x 140 columns, 80 player rows",
		"2010  no games to assemble",
		"Total: 4 games across 2 seasons, 1 skipped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if err := WriteOutput(&buf, result, OutputFormat("yaml"), false); err == nil {
		t.Error("WriteOutput() expected error for unknown format")
	}
}

func TestWriteOutput_VerboseMetrics(t *testing.T) {
	m := logger.NewMetrics()
	m.AddCounter(logger.MetricFetchAttempts, 7)
	m.IncrCounter(logger.MetricFetchUnavailable)
	m.RecordTiming(logger.MetricFetchLatency, 250*time.Millisecond)
	snap := m.Snapshot()

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	result := &OutputResult{
		Command:    "crawl",
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Metrics:    &snap,
	}

	var buf bytes.Buffer
	if err := WriteOutput(&buf, result, FormatText, true); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"fetch.attempts", "fetch.unavailable", "n=1 avg=250ms max=250ms", "2s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "2S") {
		t.Errorf("elapsed footer was upper-cased:\n%s", out)
	}
	if strings.Index(out, "fetch.attempts") > strings.Index(out, "fetch.unavailable") {
		t.Errorf("counters not sorted:\n%s", out)
	}

	buf.Reset()
	if err := WriteOutput(&buf, result, FormatText, false); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	if strings.Contains(buf.String(), "fetch.attempts") {
		t.Errorf("metrics printed without verbose:\n%s", buf.String())
	}
}
