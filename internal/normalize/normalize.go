package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/nba-boxscores/internal/boxscore"
	"github.com/pfrederiksen/nba-boxscores/internal/frame"
	"github.com/pfrederiksen/nba-boxscores/internal/logger"
)

// Column names added by the normalizer
const (
	ColTeam     = "team"
	ColOpponent = "team_opp"
	ColHome     = "home"
	ColWon      = "won"
	ColSeason   = "season"
	ColDate     = "date"

	MaxSuffix      = "_max"
	OpponentSuffix = "_opp"
	DateLayout     = "2006-01-02"
)

// Meta identifies the stored page a document came from
type Meta struct {
	// Name is the stored file name; the game date is read from it
	Name string
	// Season is used when the page carries no season label
	Season int
}

// Game is one normalized game
type Game struct {
	Name   string
	Season string
	Date   time.Time
	// Teams has two rows: own block, tags, opponent block, season, date
	Teams *frame.Frame
	// Players is labelled by player name
	Players *frame.Frame
}

// Normalizer normalizes the games of one season batch
type Normalizer struct {
	schema  *Schema
	policy  Policy
	expect  Expectations
	log     *logger.Logger
	metrics *logger.Metrics
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithPolicy sets the column exclusion policy
func WithPolicy(p Policy) Option {
	return func(n *Normalizer) { n.policy = p }
}

// WithExpectations sets the expected merged column counts
func WithExpectations(e Expectations) Option {
	return func(n *Normalizer) { n.expect = e }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(n *Normalizer) { n.log = l }
}

// WithMetrics sets the metrics tracker
func WithMetrics(m *logger.Metrics) Option {
	return func(n *Normalizer) { n.metrics = m }
}

// New creates a Normalizer bound to schema. Pass a fresh schema per season.
func New(schema *Schema, opts ...Option) *Normalizer {
	n := &Normalizer{
		schema:  schema,
		policy:  DefaultPolicy(),
		expect:  DefaultExpectations(),
		log:     logger.Default(),
		metrics: logger.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.log = n.log.With(logger.Fields{"component": "normalize"})
	return n
}

// Schema returns the batch schema
func (n *Normalizer) Schema() *Schema {
	return n.schema
}

// teamRows is one team's rows before projection
type teamRows struct {
	players *frame.Frame
	game    *frame.Frame
}

// Game normalizes one box score
func (n *Normalizer) Game(doc *boxscore.Document, meta Meta) (*Game, error) {
	date, err := boxscore.DateFromName(meta.Name)
	if err != nil {
		return nil, err
	}
	lines, err := doc.LineScore()
	if err != nil {
		return nil, fmt.Errorf("reading line score: %w", err)
	}

	var sides [2]teamRows
	for i := range lines {
		own, opp := lines[i], lines[1-i]
		sides[i], err = n.team(doc, own, opp, i)
		if err != nil {
			return nil, err
		}
	}

	n.schema.freeze(sides[0].players.Columns, sides[0].game.Columns, n.policy)

	players := make([]*frame.Frame, 2)
	games := make([]*frame.Frame, 2)
	for i, s := range sides {
		var absent []string
		players[i], absent = s.players.Project(n.schema.players)
		n.reportAbsent(meta.Name, lines[i].Team, "player", absent)
		games[i], absent = s.game.Project(n.schema.teams)
		n.reportAbsent(meta.Name, lines[i].Team, "team", absent)
	}

	teams, err := frame.Stack(games...)
	if err != nil {
		return nil, fmt.Errorf("stacking team rows: %w", err)
	}
	opp := teams.Select(func(c string) bool { return !strings.Contains(c, ColTeam) }).Reverse()
	opp.Suffix(OpponentSuffix)
	merged, err := frame.Beside(teams, opp)
	if err != nil {
		return nil, fmt.Errorf("mirroring team rows: %w", err)
	}
	allPlayers, err := frame.Stack(players...)
	if err != nil {
		return nil, fmt.Errorf("stacking player rows: %w", err)
	}

	season := n.seasonLabel(doc, meta)
	for _, f := range []*frame.Frame{merged, allPlayers} {
		f.SetColumn(ColSeason, frame.Str(season))
		f.SetColumn(ColDate, frame.Str(date.Format(DateLayout)))
	}

	n.checkWidth(meta.Name, season, meta.Season, len(merged.Columns))

	return &Game{
		Name:    meta.Name,
		Season:  season,
		Date:    date,
		Teams:   merged,
		Players: allPlayers,
	}, nil
}

// team builds the player rows and the single team row for own
func (n *Normalizer) team(doc *boxscore.Document, own, opp boxscore.LineScore, position int) (teamRows, error) {
	basic, err := doc.Stats(own.Team, boxscore.Basic)
	if err != nil {
		return teamRows{}, err
	}
	advanced, err := doc.Stats(own.Team, boxscore.Advanced)
	if err != nil {
		return teamRows{}, err
	}

	summary := frame.Join(basic, advanced)
	summary.LowerColumns()

	totals, ok := summary.Row(boxscore.TeamTotals)
	if !ok {
		return teamRows{}, fmt.Errorf("%s: no %q row", own.Team, boxscore.TeamTotals)
	}
	players := summary.Without(boxscore.TeamTotals)

	columns := append([]string(nil), summary.Columns...)
	for _, c := range summary.Columns {
		columns = append(columns, c+MaxSuffix)
	}
	game := frame.New(columns...)
	game.Append("", append(totals, players.Max()...))

	won := 0.0
	if own.Total > opp.Total {
		won = 1
	}
	for _, f := range []*frame.Frame{players, game} {
		f.SetColumn(ColTeam, frame.Str(own.Team))
		f.SetColumn(ColOpponent, frame.Str(opp.Team))
		f.SetColumn(ColHome, frame.Num(float64(position)))
		f.SetColumn(ColWon, frame.Num(won))
	}
	return teamRows{players: players, game: game}, nil
}

func (n *Normalizer) seasonLabel(doc *boxscore.Document, meta Meta) string {
	label, err := doc.Season()
	if err == nil {
		return label
	}
	if !errors.Is(err, boxscore.ErrNoSeason) {
		n.log.Warn("reading season label", logger.Fields{"file": meta.Name, "error": err.Error()})
	}
	n.log.Debug("season label missing, using batch season", logger.Fields{"file": meta.Name, "season": meta.Season})
	return strconv.Itoa(meta.Season)
}

func (n *Normalizer) reportAbsent(name, team, kind string, absent []string) {
	if len(absent) == 0 {
		return
	}
	n.log.Debug("reference columns missing from game", logger.Fields{
		"file":    name,
		"team":    team,
		"rows":    kind,
		"columns": absent,
	})
}

// checkWidth logs schema drift. The row is kept either way.
func (n *Normalizer) checkWidth(name, label string, batch, width int) {
	season, err := strconv.Atoi(label)
	if err != nil {
		season = batch
	}
	want, ok := n.expect.For(season)
	if !ok || want == width {
		return
	}
	n.metrics.IncrCounter(logger.MetricSchemaDrift)
	n.log.Warn("unexpected team-game column count", logger.Fields{
		"file":     name,
		"season":   season,
		"columns":  width,
		"expected": want,
	})
}
