package crawler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pfrederiksen/nba-boxscores/internal/logger"
	"github.com/pfrederiksen/nba-boxscores/internal/storage"
)

const base = "https://example.test"

// fakeFetcher serves regions from a map keyed by url and records requests
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url, _ string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	html, ok := f.pages[url]
	return html, ok
}

func (f *fakeFetcher) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func seasonSite() *fakeFetcher {
	month := func(games ...string) string {
		html := `<div id="all_schedule"><table id="schedule"><tbody>`
		for _, g := range games {
			html += fmt.Sprintf(`<tr><th><a href="/boxscores/index.fcgi?month=10">Oct</a></th><td><a href="/teams/BOS/2010.html">Boston</a></td><td><a href="/boxscores/%s.html">Box Score</a></td></tr>`, g)
		}
		return html + `</tbody></table></div>`
	}
	return &fakeFetcher{pages: map[string]string{
		base + "/leagues/NBA_2010_games.html": `<div class="filter">
<div><a href="/leagues/NBA_2010_games-october.html">October</a></div>
<div><a href="/leagues/NBA_2010_games-november.html">November</a></div></div>`,
		base + "/leagues/NBA_2010_games-october.html":  month("200910270BOS", "200910270LAL"),
		base + "/leagues/NBA_2010_games-november.html": month("200911010NYK", "200911010MIA"),
		base + "/boxscores/200910270BOS.html":           `<div id="content">bos</div>`,
		base + "/boxscores/200910270LAL.html":           `<div id="content">lal</div>`,
		base + "/boxscores/200911010NYK.html":           `<div id="content">nyk</div>`,
		base + "/boxscores/200911010MIA.html":           `<div id="content">mia</div>`,
	}}
}

func newTestCrawler(t *testing.T, f Fetcher) (*Crawler, storage.Store) {
	t.Helper()
	store, err := storage.NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("NewDisk() error = %v", err)
	}
	c, err := New(f, store, base, WithLogger(logger.Discard()), WithMetrics(logger.NewMetrics()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, store
}

func crawl(t *testing.T, c *Crawler, season int) Stats {
	t.Helper()
	ctx := context.Background()
	var total Stats
	s, err := c.CrawlSchedule(ctx, season)
	if err != nil {
		t.Fatalf("CrawlSchedule() error = %v", err)
	}
	total.Add(s)
	s, err = c.CrawlBoxScores(ctx, season)
	if err != nil {
		t.Fatalf("CrawlBoxScores() error = %v", err)
	}
	total.Add(s)
	return total
}

func TestCrawl_StoresNumberedPages(t *testing.T) {
	site := seasonSite()
	c, store := newTestCrawler(t, site)

	stats := crawl(t, c, 2010)
	if want := (Stats{Fetched: 7}); stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}

	ctx := context.Background()
	months, err := store.List(ctx, storage.SeasonScheduleDir(2010))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	wantMonths := []string{
		"season games/2010/000_index",
		"season games/2010/001_NBA_2010_games-october.html",
		"season games/2010/002_NBA_2010_games-november.html",
	}
	if diff := cmp.Diff(wantMonths, months); diff != "" {
		t.Errorf("month keys mismatch (-want +got):\n%s", diff)
	}

	scores, err := store.List(ctx, storage.SeasonScoresDir(2010))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	wantScores := []string{
		"season scores/2010/0001_200910270BOS.html",
		"season scores/2010/0002_200910270LAL.html",
		"season scores/2010/0003_200911010NYK.html",
		"season scores/2010/0004_200911010MIA.html",
	}
	if diff := cmp.Diff(wantScores, scores); diff != "" {
		t.Errorf("box score keys mismatch (-want +got):\n%s", diff)
	}

	got, err := store.Get(ctx, wantScores[2])
	if err != nil || string(got) != `<div id="content">nyk</div>` {
		t.Errorf("stored page = %q, %v", got, err)
	}
}

func TestCrawl_Idempotent(t *testing.T) {
	site := seasonSite()
	c, _ := newTestCrawler(t, site)

	crawl(t, c, 2010)
	site.reset()

	stats := crawl(t, c, 2010)
	if len(site.calls) != 0 {
		t.Errorf("second crawl fetched %v, want nothing", site.calls)
	}
	if want := (Stats{Skipped: 7}); stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestCrawl_Resumes(t *testing.T) {
	site := seasonSite()
	c, store := newTestCrawler(t, site)
	ctx := context.Background()

	// a previous run stored the first and third box scores
	for _, key := range []string{
		storage.BoxScoreKey(2010, 1, "200910270BOS.html"),
		storage.BoxScoreKey(2010, 3, "200911010NYK.html"),
	} {
		if err := store.Put(ctx, key, []byte("old")); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	crawl(t, c, 2010)

	var boxFetches []string
	for _, u := range site.calls {
		if strings.HasPrefix(u, base+"/boxscores/") {
			boxFetches = append(boxFetches, u)
		}
	}
	want := []string{base + "/boxscores/200910270LAL.html", base + "/boxscores/200911010MIA.html"}
	if diff := cmp.Diff(want, boxFetches); diff != "" {
		t.Errorf("box score fetches mismatch (-want +got):\n%s", diff)
	}
	if got, _ := store.Get(ctx, storage.BoxScoreKey(2010, 1, "200910270BOS.html")); string(got) != "old" {
		t.Errorf("existing page overwritten: %q", got)
	}
}

func TestCrawl_UnavailableLeavesGap(t *testing.T) {
	site := seasonSite()
	delete(site.pages, base+"/boxscores/200910270LAL.html")
	c, store := newTestCrawler(t, site)
	ctx := context.Background()

	stats := crawl(t, c, 2010)
	if stats.Unavailable != 1 || stats.Fetched != 6 {
		t.Errorf("stats = %+v, want 1 unavailable and 6 fetched", stats)
	}
	if ok, _ := store.Exists(ctx, storage.BoxScoreKey(2010, 2, "200910270LAL.html")); ok {
		t.Error("unavailable page was stored")
	}
	if ok, _ := store.Exists(ctx, storage.BoxScoreKey(2010, 3, "200911010NYK.html")); !ok {
		t.Error("page after the gap lost its number")
	}

	// the page comes back and only the gap is fetched
	site.pages[base+"/boxscores/200910270LAL.html"] = `<div id="content">lal</div>`
	site.reset()
	crawl(t, c, 2010)
	if diff := cmp.Diff([]string{base + "/boxscores/200910270LAL.html"}, site.calls); diff != "" {
		t.Errorf("retry fetches mismatch (-want +got):\n%s", diff)
	}
}

func TestCrawlSchedule_IndexUnavailable(t *testing.T) {
	c, store := newTestCrawler(t, &fakeFetcher{pages: map[string]string{}})

	stats, err := c.CrawlSchedule(context.Background(), 2003)
	if err != nil {
		t.Fatalf("CrawlSchedule() error = %v", err)
	}
	if stats.Unavailable != 1 {
		t.Errorf("stats = %+v, want 1 unavailable", stats)
	}
	keys, _ := store.List(context.Background(), storage.SeasonScheduleDir(2003))
	if len(keys) != 0 {
		t.Errorf("stored keys = %v, want none", keys)
	}
}

func TestNew_RejectsRelativeBase(t *testing.T) {
	store, _ := storage.NewDisk(t.TempDir())
	if _, err := New(&fakeFetcher{}, store, "/leagues"); err == nil {
		t.Error("New() expected error for relative base url")
	}
}
