package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pfrederiksen/nba-boxscores/internal/frame"
)

// Output directories under the data directory
var (
	GamesDir   = filepath.Join("csv files", "games")
	PlayersDir = filepath.Join("csv files", "players")
)

// CSVWriter writes season tables under a data directory
type CSVWriter struct {
	dir string
}

// NewCSVWriter creates a writer rooted at dir
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

// Paths returns the games and players file paths for season
func (w *CSVWriter) Paths(season int) (games, players string) {
	games = filepath.Join(w.dir, GamesDir, fmt.Sprintf("nba_stats_games_%d.csv", season))
	players = filepath.Join(w.dir, PlayersDir, fmt.Sprintf("nba_stats_players_%d.csv", season))
	return games, players
}

// Write implements Sink. The games table is written without an index
// column; the players table leads with the player label.
func (w *CSVWriter) Write(_ context.Context, s *Season) error {
	gamesPath, playersPath := w.Paths(s.Season)
	if err := writeFrame(gamesPath, s.Games, false); err != nil {
		return fmt.Errorf("writing games table: %w", err)
	}
	if err := writeFrame(playersPath, s.Players, true); err != nil {
		return fmt.Errorf("writing players table: %w", err)
	}
	return nil
}

func writeFrame(path string, f *frame.Frame, index bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".partial-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck

	cw := csv.NewWriter(tmp)
	header := f.Columns
	if index {
		header = append([]string{f.IndexName}, f.Columns...)
	}
	if err := cw.Write(header); err != nil {
		tmp.Close() // nolint:errcheck
		return err
	}
	record := make([]string, len(header))
	for i, row := range f.Rows {
		cells := record
		if index {
			record[0] = f.Label(i)
			cells = record[1:]
		}
		for j, v := range row {
			cells[j] = v.String()
		}
		if err := cw.Write(record); err != nil {
			tmp.Close() // nolint:errcheck
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close() // nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
