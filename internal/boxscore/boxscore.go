package boxscore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/nba-boxscores/internal/frame"
	"github.com/pfrederiksen/nba-boxscores/internal/htmldoc"
)

// Stat table categories
const (
	Basic    = "basic"
	Advanced = "advanced"
)

// TeamTotals labels the aggregate row of every stat table
const TeamTotals = "Team Totals"

var (
	// ErrTableNotFound means no table matched any of the candidate ids
	ErrTableNotFound = errors.New("table not found")
	// ErrNoSeason means the page has no usable season navigation link
	ErrNoSeason = errors.New("season label not found")
)

var dateRun = regexp.MustCompile(`\d{8}`)

// LineScore is one team's final score
type LineScore struct {
	Team  string
	Total float64
}

// Document is a cleaned box score page
type Document struct {
	doc *goquery.Document
}

// Parse reads and cleans a box score page
func Parse(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading box score: %w", err)
	}
	return ParseBytes(raw)
}

// ParseBytes cleans a box score page held in memory
func ParseBytes(raw []byte) (*Document, error) {
	doc, err := htmldoc.Load(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	doc.Find("tr.over_header, tr.thead").Remove()
	return &Document{doc: doc}, nil
}

// LineScore returns the two line score rows in page order. The first
// column is the team and the last is the final total.
func (d *Document) LineScore() ([]LineScore, error) {
	table := d.doc.Find("table#line_score").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("line_score: %w", ErrTableNotFound)
	}
	header, rows := readTable(table)
	if len(header) < 2 {
		return nil, fmt.Errorf("line score has %d columns", len(header))
	}
	if len(rows) != 2 {
		return nil, fmt.Errorf("line score has %d rows, want 2", len(rows))
	}

	out := make([]LineScore, 0, 2)
	for _, r := range rows {
		team := strings.TrimSpace(r[0])
		total, ok := frame.Parse(r[len(r)-1]).Float()
		if team == "" || !ok {
			return nil, fmt.Errorf("malformed line score row %q", r)
		}
		out = append(out, LineScore{Team: team, Total: total})
	}
	if out[0].Team == out[1].Team {
		return nil, fmt.Errorf("line score lists %s twice", out[0].Team)
	}
	return out, nil
}

// Stats returns one team's stat table for category, labelled by player.
// Minutes are converted to decimals and every cell is coerced to a number;
// cells that are not numbers become missing.
func (d *Document) Stats(team, category string) (*frame.Frame, error) {
	ids := []string{
		fmt.Sprintf("box-%s-game-%s", team, category),
		fmt.Sprintf("box-%s-%s", team, category),
		fmt.Sprintf("box_%s_%s", strings.ToLower(team), category),
	}
	var table *goquery.Selection
	for _, id := range ids {
		if sel := d.doc.Find(`table[id="` + id + `"]`).First(); sel.Length() > 0 {
			table = sel
			break
		}
	}
	if table == nil {
		return nil, fmt.Errorf("%s %s stats: %w", team, category, ErrTableNotFound)
	}

	header, rows := readTable(table)
	if len(header) < 2 {
		return nil, fmt.Errorf("%s %s stats: table has no stat columns", team, category)
	}

	f := frame.New(header[1:]...)
	f.IndexName = header[0]
	f.Labels = []string{}
	mp := -1
	for j, c := range f.Columns {
		if strings.EqualFold(c, "MP") {
			mp = j
			break
		}
	}
	for _, r := range rows {
		row := make([]frame.Value, len(f.Columns))
		for j := range row {
			if j+1 >= len(r) {
				break
			}
			cell := frame.Str(r[j+1])
			if j == mp {
				cell = ConvertMinutes(r[j+1])
			}
			row[j] = frame.Coerce(cell)
		}
		f.Append(strings.TrimSpace(r[0]), row)
	}
	return f, nil
}

// Season returns the season label from the page's bottom navigation: the
// base name of its second link, up to the first underscore.
func (d *Document) Season() (string, error) {
	links := htmldoc.Links(d.doc.Find("#bottom_nav_container").First(), nil)
	if len(links) < 2 {
		return "", ErrNoSeason
	}
	base := path.Base(strings.SplitN(links[1], "?", 2)[0])
	label := strings.TrimSuffix(strings.SplitN(base, "_", 2)[0], ".html")
	if label == "" || label == "." || label == "/" {
		return "", ErrNoSeason
	}
	return label, nil
}

// ConvertMinutes turns "MM:SS" into decimal minutes. Anything else is
// returned unchanged as text.
func ConvertMinutes(s string) frame.Value {
	s = strings.TrimSpace(s)
	mins, secs, found := strings.Cut(s, ":")
	if !found {
		return frame.Str(s)
	}
	m, err1 := strconv.Atoi(mins)
	sec, err2 := strconv.Atoi(secs)
	if err1 != nil || err2 != nil {
		return frame.Str(s)
	}
	return frame.Num(float64(m) + float64(sec)/60)
}

// DateFromName extracts the game date from a stored file name such as
// "0001_200910270BOS.html".
func DateFromName(name string) (time.Time, error) {
	name = path.Base(name)
	if _, slug, ok := strings.Cut(name, "_"); ok {
		name = slug
	}
	digits := dateRun.FindString(name)
	if digits == "" {
		return time.Time{}, fmt.Errorf("no date in %q", name)
	}
	t, err := time.Parse("20060102", digits)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", digits, err)
	}
	return t, nil
}

// readTable returns a table's header and body as text. The header is the
// last remaining thead row; empty header cells are named "Unnamed: i".
// Body rows come from tbody then tfoot, with colspan cells repeated.
func readTable(table *goquery.Selection) (header []string, rows [][]string) {
	head := table.Find("thead tr").Last()
	if head.Length() == 0 {
		head = table.Find("tr").First()
	}
	for i, c := range expandCells(head) {
		if c == "" {
			c = fmt.Sprintf("Unnamed: %d", i)
		}
		header = append(header, c)
	}

	body := table.Find("tbody tr, tfoot tr")
	if table.Find("thead").Length() == 0 {
		body = table.Find("tr").Slice(1, goquery.ToEnd)
	}
	body.Each(func(_ int, tr *goquery.Selection) {
		cells := expandCells(tr)
		if len(cells) == 0 {
			return
		}
		for len(cells) < len(header) {
			cells = append(cells, "")
		}
		rows = append(rows, cells[:len(header)])
	})
	return header, rows
}

func expandCells(tr *goquery.Selection) []string {
	var out []string
	tr.Children().Filter("th, td").Each(func(_ int, c *goquery.Selection) {
		text := strings.TrimSpace(c.Text())
		span := 1
		if v, ok := c.Attr("colspan"); ok {
			if n, err := strconv.Atoi(v); err == nil && n > 1 {
				span = n
			}
		}
		for i := 0; i < span; i++ {
			out = append(out, text)
		}
	})
	return out
}
