package dataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pfrederiksen/nba-boxscores/internal/frame"
)

// SQLiteSink mirrors season tables into a SQLite database as
// games_<season> and players_<season>.
type SQLiteSink struct {
	db *sqlx.DB
}

// OpenSQLite opens or creates the database at path
func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close() // nolint:errcheck
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// NewSQLiteSink wraps an open database
func NewSQLiteSink(db *sqlx.DB) *SQLiteSink {
	return &SQLiteSink{db: db}
}

// Close closes the database
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// Write implements Sink. Both tables of the season are replaced in one
// transaction.
func (s *SQLiteSink) Write(ctx context.Context, season *Season) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	if err := replaceTable(ctx, tx, fmt.Sprintf("games_%d", season.Season), season.Games, false); err != nil {
		return err
	}
	if err := replaceTable(ctx, tx, fmt.Sprintf("players_%d", season.Season), season.Players, true); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing season %d: %w", season.Season, err)
	}
	return nil
}

func replaceTable(ctx context.Context, tx *sqlx.Tx, name string, f *frame.Frame, index bool) error {
	var defs []string
	if index {
		defs = append(defs, quote(f.IndexName)+" TEXT")
	}
	for j, c := range f.Columns {
		defs = append(defs, quote(c)+" "+columnType(f, j))
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(name)); err != nil {
		return fmt.Errorf("dropping %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quote(name), strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(defs)), ", ")
	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quote(name), placeholders))
	if err != nil {
		return fmt.Errorf("preparing insert into %s: %w", name, err)
	}
	defer stmt.Close() // nolint:errcheck

	args := make([]any, len(defs))
	for i, row := range f.Rows {
		cells := args
		if index {
			args[0] = f.Label(i)
			cells = args[1:]
		}
		for j, v := range row {
			cells[j] = sqlValue(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting into %s: %w", name, err)
		}
	}
	return nil
}

// columnType is TEXT when any cell of column j is text, else REAL
func columnType(f *frame.Frame, j int) string {
	for _, row := range f.Rows {
		if row[j].Kind() == frame.Text {
			return "TEXT"
		}
	}
	return "REAL"
}

func sqlValue(v frame.Value) any {
	if n, ok := v.Float(); ok {
		return n
	}
	if s, ok := v.Text(); ok {
		return s
	}
	return nil
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
