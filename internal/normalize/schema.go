package normalize

import "github.com/pfrederiksen/nba-boxscores/internal/frame"

// Schema holds the reference column sets of one season batch. The zero value
// is unfrozen; the first normalized game freezes it.
type Schema struct {
	players []string
	teams   []string
	frozen  bool
}

// NewSchema returns an unfrozen schema
func NewSchema() *Schema {
	return &Schema{}
}

// Frozen reports whether the reference columns are set
func (s *Schema) Frozen() bool {
	return s.frozen
}

// Players returns the frozen player-row columns
func (s *Schema) Players() []string {
	return append([]string(nil), s.players...)
}

// Teams returns the frozen team-row columns, before the opponent block
func (s *Schema) Teams() []string {
	return append([]string(nil), s.teams...)
}

// freeze sets the reference columns from one team's rows. It is a no-op once
// the schema is frozen.
func (s *Schema) freeze(players, teams []string, p Policy) {
	if s.frozen {
		return
	}
	s.players = Apply(frame.Dedup(players), p.Player)
	s.teams = Apply(frame.Dedup(teams), p.Team)
	s.frozen = true
}
