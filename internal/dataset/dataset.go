package dataset

import (
	"context"
	"errors"
	"fmt"

	"github.com/pfrederiksen/nba-boxscores/internal/frame"
	"github.com/pfrederiksen/nba-boxscores/internal/normalize"
)

// PlayerIndex names the player label column in written tables
const PlayerIndex = "Player"

// ErrNoGames means a season had nothing to assemble
var ErrNoGames = errors.New("no games to assemble")

// Season is one season's output tables
type Season struct {
	Season int
	// Games has one unlabelled row per team-game
	Games *frame.Frame
	// Players is labelled by player
	Players *frame.Frame
}

// Sink receives assembled seasons
type Sink interface {
	Write(ctx context.Context, s *Season) error
}

// Assemble stacks the games' rows in the order given
func Assemble(season int, games []*normalize.Game) (*Season, error) {
	if len(games) == 0 {
		return nil, ErrNoGames
	}
	teams := make([]*frame.Frame, len(games))
	players := make([]*frame.Frame, len(games))
	for i, g := range games {
		teams[i] = g.Teams
		players[i] = g.Players
	}

	gamesTable, err := frame.Stack(teams...)
	if err != nil {
		return nil, fmt.Errorf("stacking games: %w", err)
	}
	gamesTable.Labels = nil
	gamesTable.IndexName = ""

	playersTable, err := frame.Stack(players...)
	if err != nil {
		return nil, fmt.Errorf("stacking players: %w", err)
	}
	playersTable.IndexName = PlayerIndex

	return &Season{Season: season, Games: gamesTable, Players: playersTable}, nil
}
