package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Root directories of the raw store
const (
	ScheduleRoot = "season games"
	ScoresRoot   = "season scores"
)

// ErrNotFound is returned by Get when a key has never been stored
var ErrNotFound = errors.New("key not found")

// Store persists raw pages under slash-separated keys. Exists is the
// "already materialized" predicate the crawler uses to skip finished work.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	// List returns every key beginning with prefix, sorted
	List(ctx context.Context, prefix string) ([]string, error)
}

// SeasonScheduleDir returns the key prefix holding a season's month schedules
func SeasonScheduleDir(season int) string {
	return fmt.Sprintf("%s/%d/", ScheduleRoot, season)
}

// SeasonScoresDir returns the key prefix holding a season's box scores
func SeasonScoresDir(season int) string {
	return fmt.Sprintf("%s/%d/", ScoresRoot, season)
}

// ScheduleIndexKey returns the key of a season's saved schedule index. It
// has no .html suffix so box score scans pass over it.
func ScheduleIndexKey(season int) string {
	return SeasonScheduleDir(season) + "000_index"
}

// ScheduleKey returns the key of the n-th month schedule of a season
func ScheduleKey(season, n int, slug string) string {
	return fmt.Sprintf("%s%03d_%s", SeasonScheduleDir(season), n, slug)
}

// BoxScoreKey returns the key of the n-th box score of a season
func BoxScoreKey(season, n int, slug string) string {
	return fmt.Sprintf("%s%04d_%s", SeasonScoresDir(season), n, slug)
}

// Slug derives a file name from the last path segment of a URL
func Slug(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	trimmed := strings.TrimRight(rawURL, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// Name returns the last segment of a key
func Name(key string) string {
	return path.Base(key)
}

func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return fmt.Errorf("invalid key: %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("invalid key: %q", key)
		}
	}
	return nil
}
