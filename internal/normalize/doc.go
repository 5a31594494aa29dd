// Package normalize turns parsed box scores into team-game and player-game
// rows that share one column set across a whole season batch.
//
// The first game a Normalizer handles freezes the batch Schema. Every game,
// the first included, is projected onto it: extra columns are dropped,
// duplicates resolve to their first occurrence and missing columns are
// filled with missing values.
package normalize
