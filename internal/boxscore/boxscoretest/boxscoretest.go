// Package boxscoretest builds synthetic box score pages shaped like the
// 2000s-era basketball-reference markup, for tests of the parsing pipeline.
package boxscoretest

import (
	"fmt"
	"strings"
)

// BasicColumns are the stat headers of a basic box score table
var BasicColumns = []string{
	"MP", "FG", "FGA", "FG%", "3P", "3PA", "3P%", "FT", "FTA", "FT%",
	"ORB", "DRB", "TRB", "AST", "STL", "BLK", "TOV", "PF", "PTS", "+/-",
}

// AdvancedColumns are the stat headers of an advanced box score table
var AdvancedColumns = []string{
	"MP", "TS%", "eFG%", "3PAr", "FTr", "ORB%", "DRB%", "TRB%",
	"AST%", "STL%", "BLK%", "TOV%", "USG%", "ORtg", "DRtg", "BPM",
}

// Team is one side of a synthetic game
type Team struct {
	Abbr    string
	Total   int
	Players []string
	// DidNotPlay lists players shown with a single spanning "Did Not Play" cell
	DidNotPlay []string
}

// Game describes a synthetic box score page
type Game struct {
	// Season is the year used in the bottom navigation links
	Season string
	// Teams in line score order
	Teams [2]Team
	// LegacyIDs uses the older "box_<team>_<category>" table ids
	LegacyIDs bool
}

// Players returns n distinct player names for team abbr
func Players(abbr string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s Player %d", abbr, i+1)
	}
	return out
}

// NewGame returns a game with five players per team
func NewGame(season string, first, second string, firstTotal, secondTotal int) Game {
	return Game{
		Season: season,
		Teams: [2]Team{
			{Abbr: first, Total: firstTotal, Players: Players(first, 5)},
			{Abbr: second, Total: secondTotal, Players: Players(second, 5)},
		},
	}
}

// PlayerPoints is the PTS value written for player i of team t
func PlayerPoints(t, i int) int {
	return 10 + i + 5*t
}

// PlayerMinutes is the MP text written for player i of team t
func PlayerMinutes(t, i int) string {
	return fmt.Sprintf("%d:30", 20+i+t)
}

// HTML renders the page
func (g Game) HTML() string {
	var b strings.Builder
	b.WriteString("<html><head><title>Box Score</title></head><body><div id=\"wrap\"><div id=\"content\">\n")

	b.WriteString("<div id=\"all_line_score\" class=\"table_wrapper\"><!--\n")
	b.WriteString("<table id=\"line_score\"><thead>")
	b.WriteString("<tr class=\"over_header\"><th colspan=\"6\">Scoring</th></tr>")
	b.WriteString("<tr><th></th><th>1</th><th>2</th><th>3</th><th>4</th><th>T</th></tr></thead><tbody>")
	for _, t := range g.Teams {
		q := t.Total / 4
		fmt.Fprintf(&b, "<tr><th><a href=\"/teams/%s/%s.html\">%s</a></th><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td></tr>",
			t.Abbr, g.Season, t.Abbr, q, q, q, t.Total-3*q, t.Total)
	}
	b.WriteString("</tbody></table>\n--></div>\n")

	for ti, t := range g.Teams {
		g.writeTable(&b, ti, t, "basic", BasicColumns, false)
		g.writeTable(&b, ti, t, "advanced", AdvancedColumns, true)
	}

	b.WriteString("<div id=\"bottom_nav_container\">")
	fmt.Fprintf(&b, "<a href=\"/boxscores/\">Box Scores</a><a href=\"/teams/%s/%s_games.html\">%s Schedule</a>",
		g.Teams[0].Abbr, g.Season, g.Teams[0].Abbr)
	b.WriteString("</div>\n</div></div></body></html>\n")
	return b.String()
}

func (g Game) writeTable(b *strings.Builder, ti int, t Team, category string, cols []string, commented bool) {
	id := fmt.Sprintf("box-%s-game-%s", t.Abbr, category)
	if g.LegacyIDs {
		id = fmt.Sprintf("box_%s_%s", strings.ToLower(t.Abbr), category)
	}
	if commented {
		fmt.Fprintf(b, "<div id=\"all_%s\"><!--\n", id)
	}
	fmt.Fprintf(b, "<table id=\"%s\"><thead>", id)
	fmt.Fprintf(b, "<tr class=\"over_header\"><th></th><th colspan=\"%d\">%s Box Score Stats</th></tr>", len(cols), category)
	b.WriteString("<tr><th>Starters</th>")
	for _, c := range cols {
		fmt.Fprintf(b, "<th>%s</th>", c)
	}
	b.WriteString("</tr></thead><tbody>")

	for i, p := range t.Players {
		if i == 3 {
			b.WriteString("<tr class=\"thead\"><th>Reserves</th>")
			for _, c := range cols {
				fmt.Fprintf(b, "<th>%s</th>", c)
			}
			b.WriteString("</tr>")
		}
		fmt.Fprintf(b, "<tr><th><a href=\"/players/x/%d.html\">%s</a></th>", i, p)
		for j, c := range cols {
			fmt.Fprintf(b, "<td>%s</td>", playerCell(ti, i, j, c))
		}
		b.WriteString("</tr>")
	}
	for _, p := range t.DidNotPlay {
		fmt.Fprintf(b, "<tr><th>%s</th><td colspan=\"%d\">Did Not Play</td></tr>", p, len(cols))
	}

	b.WriteString("</tbody><tfoot><tr><th>Team Totals</th>")
	for j, c := range cols {
		fmt.Fprintf(b, "<td>%s</td>", totalsCell(ti, t, j, c))
	}
	b.WriteString("</tr></tfoot></table>\n")
	if commented {
		b.WriteString("--></div>\n")
	}
}

func playerCell(t, i, j int, col string) string {
	switch {
	case col == "MP":
		return PlayerMinutes(t, i)
	case col == "PTS":
		return fmt.Sprint(PlayerPoints(t, i))
	case col == "+/-":
		if d := i - 2 + t; d > 0 {
			return fmt.Sprintf("+%d", d)
		}
		return fmt.Sprint(i - 2 + t)
	case strings.HasSuffix(col, "%"):
		return fmt.Sprintf(".%03d", (i*37+j*11+t*5)%1000)
	default:
		return fmt.Sprint((i+1)*(j+1) + t)
	}
}

func totalsCell(ti int, t Team, j int, col string) string {
	switch {
	case col == "MP":
		return "240"
	case col == "PTS":
		return fmt.Sprint(t.Total)
	case col == "+/-" || col == "BPM":
		return ""
	case strings.HasSuffix(col, "%"):
		return fmt.Sprintf(".%03d", 400+j+ti)
	default:
		return fmt.Sprint(1000 + j + ti)
	}
}
