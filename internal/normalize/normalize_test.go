package normalize

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pfrederiksen/nba-boxscores/internal/boxscore"
	"github.com/pfrederiksen/nba-boxscores/internal/boxscore/boxscoretest"
	"github.com/pfrederiksen/nba-boxscores/internal/frame"
	"github.com/pfrederiksen/nba-boxscores/internal/logger"
)

func parse(t *testing.T, html string) *boxscore.Document {
	t.Helper()
	doc, err := boxscore.Parse(strings.NewReader(html))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

func newTestNormalizer(metrics *logger.Metrics, opts ...Option) *Normalizer {
	opts = append([]Option{WithLogger(logger.Discard()), WithMetrics(metrics)}, opts...)
	return New(NewSchema(), opts...)
}

func TestGame_EndToEnd(t *testing.T) {
	metrics := logger.NewMetrics()
	n := newTestNormalizer(metrics)
	doc := parse(t, boxscoretest.NewGame("2010", "XXX", "YYY", 110, 105).HTML())

	g, err := n.Game(doc, Meta{Name: "0001_200910270XXX.html", Season: 2010})
	if err != nil {
		t.Fatalf("Game() error = %v", err)
	}

	if g.Teams.Len() != 2 {
		t.Fatalf("team rows = %d, want 2", g.Teams.Len())
	}
	if g.Players.Len() != 10 {
		t.Fatalf("player rows = %d, want 10", g.Players.Len())
	}
	if len(g.Teams.Columns) != DefaultColumnCount {
		t.Errorf("team columns = %d, want %d", len(g.Teams.Columns), DefaultColumnCount)
	}
	if got := metrics.Counter(logger.MetricSchemaDrift); got != 0 {
		t.Errorf("schema drift counter = %d, want 0", got)
	}
	if g.Season != "2010" {
		t.Errorf("Season = %q, want 2010", g.Season)
	}

	teamChecks := []struct {
		row  int
		col  string
		want frame.Value
	}{
		{0, ColTeam, frame.Str("XXX")},
		{0, ColOpponent, frame.Str("YYY")},
		{0, ColHome, frame.Num(0)},
		{0, ColWon, frame.Num(1)},
		{1, ColTeam, frame.Str("YYY")},
		{1, ColOpponent, frame.Str("XXX")},
		{1, ColHome, frame.Num(1)},
		{1, ColWon, frame.Num(0)},
		{0, "pts", frame.Num(110)},
		{0, "pts_opp", frame.Num(105)},
		{0, "pts_max", frame.Num(float64(boxscoretest.PlayerPoints(0, 4)))},
		{1, "pts_max", frame.Num(float64(boxscoretest.PlayerPoints(1, 4)))},
		{0, "mp", frame.Num(240)},
		{0, ColSeason, frame.Str("2010")},
		{1, ColDate, frame.Str("2009-10-27")},
	}
	for _, c := range teamChecks {
		if got := g.Teams.Get(c.row, c.col); !got.Equal(c.want) {
			t.Errorf("team row %d %s = %v, want %v", c.row, c.col, got, c.want)
		}
	}

	for _, excluded := range []string{"bpm", "bpm_max", "+/-", "+/-_max", "bpm_opp"} {
		if g.Teams.ColumnIndex(excluded) >= 0 {
			t.Errorf("team rows carry excluded column %q", excluded)
		}
	}

	for i := 0; i < g.Players.Len(); i++ {
		team, _ := g.Players.Get(i, ColTeam).Text()
		wantWon := frame.Num(0)
		if team == "XXX" {
			wantWon = frame.Num(1)
		}
		if got := g.Players.Get(i, ColWon); !got.Equal(wantWon) {
			t.Errorf("player %s won = %v, want %v", g.Players.Label(i), got, wantWon)
		}
		if g.Players.Label(i) == boxscore.TeamTotals {
			t.Errorf("player rows include %q", boxscore.TeamTotals)
		}
	}
	if got := g.Players.Get(0, "mp"); !got.Equal(frame.Num(20.5)) {
		t.Errorf("first player mp = %v, want 20.5", got)
	}
	if g.Players.ColumnIndex("+/-") < 0 {
		t.Error("player rows lost +/-")
	}
	if g.Players.ColumnIndex("bpm") >= 0 {
		t.Error("player rows carry bpm")
	}
	if g.Players.ColumnIndex("pts_max") >= 0 {
		t.Error("player rows carry maxima")
	}
}

func TestGame_MirrorInvariant(t *testing.T) {
	n := newTestNormalizer(logger.NewMetrics())
	doc := parse(t, boxscoretest.NewGame("2004", "AAA", "BBB", 88, 97).HTML())

	g, err := n.Game(doc, Meta{Name: "0042_200401050AAA.html", Season: 2004})
	if err != nil {
		t.Fatalf("Game() error = %v", err)
	}

	checked := 0
	for _, c := range n.Schema().Teams() {
		if strings.Contains(c, ColTeam) {
			continue
		}
		for row := 0; row < 2; row++ {
			own := g.Teams.Get(row, c)
			mirrored := g.Teams.Get(1-row, c+OpponentSuffix)
			if !own.Equal(mirrored) {
				t.Errorf("row %d %s = %v, but row %d %s%s = %v", row, c, own, 1-row, c, OpponentSuffix, mirrored)
			}
		}
		checked++
	}
	if checked != 68 {
		t.Errorf("mirrored columns = %d, want 68", checked)
	}
}

func TestGame_SchemaFrozenAcrossGames(t *testing.T) {
	n := newTestNormalizer(logger.NewMetrics())

	first, err := n.Game(parse(t, boxscoretest.NewGame("2006", "XXX", "YYY", 100, 90).HTML()),
		Meta{Name: "0001_200511010XXX.html", Season: 2006})
	if err != nil {
		t.Fatalf("first Game() error = %v", err)
	}

	// a later page renames one advanced column
	drifted := strings.ReplaceAll(boxscoretest.NewGame("2006", "ZZZ", "XXX", 95, 99).HTML(), "<th>FTr</th>", "<th>GmSc</th>")
	second, err := n.Game(parse(t, drifted), Meta{Name: "0002_200511020ZZZ.html", Season: 2006})
	if err != nil {
		t.Fatalf("second Game() error = %v", err)
	}

	if diff := cmp.Diff(first.Teams.Columns, second.Teams.Columns); diff != "" {
		t.Errorf("team columns differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Players.Columns, second.Players.Columns); diff != "" {
		t.Errorf("player columns differ (-first +second):\n%s", diff)
	}
	if second.Teams.ColumnIndex("gmsc") >= 0 {
		t.Error("extra column leaked into frozen schema")
	}
	for _, c := range []string{"ftr", "ftr_max", "ftr_opp"} {
		if v := second.Teams.Get(0, c); !v.IsMissing() {
			t.Errorf("%s = %v, want missing", c, v)
		}
	}
	if v := first.Teams.Get(0, "ftr"); v.IsMissing() {
		t.Error("first game ftr is missing")
	}
}

func TestGame_SchemaDrift(t *testing.T) {
	metrics := logger.NewMetrics()
	n := newTestNormalizer(metrics, WithExpectations(Expectations{
		{From: 2011, Columns: 150},
		{To: 2010, Columns: DefaultColumnCount},
	}))
	doc := parse(t, boxscoretest.NewGame("2012", "XXX", "YYY", 100, 90).HTML())

	g, err := n.Game(doc, Meta{Name: "0001_201112250XXX.html", Season: 2012})
	if err != nil {
		t.Fatalf("Game() error = %v", err)
	}
	if g.Teams.Len() != 2 {
		t.Errorf("team rows = %d, want 2 despite drift", g.Teams.Len())
	}
	if got := metrics.Counter(logger.MetricSchemaDrift); got != 1 {
		t.Errorf("schema drift counter = %d, want 1", got)
	}
}

func TestGame_SeasonFallback(t *testing.T) {
	n := newTestNormalizer(logger.NewMetrics())
	html := strings.Replace(boxscoretest.NewGame("2010", "XXX", "YYY", 100, 90).HTML(),
		`id="bottom_nav_container"`, `id="footer"`, 1)

	g, err := n.Game(parse(t, html), Meta{Name: "0001_200911010XXX.html", Season: 2010})
	if err != nil {
		t.Fatalf("Game() error = %v", err)
	}
	if got := g.Players.Get(0, ColSeason); !got.Equal(frame.Str("2010")) {
		t.Errorf("season = %v, want 2010", got)
	}
}

func TestGame_Errors(t *testing.T) {
	good := boxscoretest.NewGame("2010", "XXX", "YYY", 100, 90).HTML()
	tests := []struct {
		name string
		html string
		file string
	}{
		{name: "no date in name", html: good, file: "0001_index.html"},
		{name: "missing advanced table", html: strings.ReplaceAll(good, "box-YYY-game-advanced", "other"), file: "0001_200911010XXX.html"},
		{name: "missing line score", html: strings.ReplaceAll(good, "line_score", "other"), file: "0001_200911010XXX.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNormalizer(logger.NewMetrics())
			if _, err := n.Game(parse(t, tt.html), Meta{Name: tt.file, Season: 2010}); err == nil {
				t.Fatal("Game() expected error")
			}
			if n.Schema().Frozen() {
				t.Error("failed game froze the schema")
			}
		})
	}
}

func TestApply(t *testing.T) {
	cols := []string{"mp", "+/-", "bpm", "unnamed: 3", "pts", "bpm_max", "+/-_max", "team"}
	p := DefaultPolicy()

	if diff := cmp.Diff([]string{"mp", "pts", "team"}, Apply(cols, p.Team)); diff != "" {
		t.Errorf("team policy mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"mp", "+/-", "pts", "+/-_max", "team"}, Apply(cols, p.Player)); diff != "" {
		t.Errorf("player policy mismatch (-want +got):\n%s", diff)
	}
}

func TestExpectations_For(t *testing.T) {
	e := Expectations{
		{From: 2000, To: 2010, Columns: 140},
		{From: 2011, Columns: 142},
	}
	tests := []struct {
		season int
		want   int
		ok     bool
	}{
		{2005, 140, true},
		{2010, 140, true},
		{2011, 142, true},
		{2024, 142, true},
		{1999, 0, false},
	}
	for _, tt := range tests {
		got, ok := e.For(tt.season)
		if got != tt.want || ok != tt.ok {
			t.Errorf("For(%d) = %d, %v, want %d, %v", tt.season, got, ok, tt.want, tt.ok)
		}
	}
}
