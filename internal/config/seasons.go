package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// First and last seasons accepted by ParseSeasons
const (
	MinSeason = 1947
	MaxSeason = 2100
)

// ParseSeasons expands a season list such as "2005", "2000-2010" or
// "2000,2003,2007-2009" into sorted, distinct years.
func ParseSeasons(s string) ([]int, error) {
	seen := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		from, to := part, part
		if a, b, ok := strings.Cut(part, "-"); ok {
			from, to = a, b
		}
		first, err := parseYear(from)
		if err != nil {
			return nil, err
		}
		last, err := parseYear(to)
		if err != nil {
			return nil, err
		}
		if last < first {
			return nil, fmt.Errorf("season range %q runs backwards", part)
		}
		for y := first; y <= last; y++ {
			seen[y] = true
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("no seasons in %q", s)
	}

	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Ints(out)
	return out, nil
}

func parseYear(s string) (int, error) {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid season %q", s)
	}
	if y < MinSeason || y > MaxSeason {
		return 0, fmt.Errorf("season %d outside %d-%d", y, MinSeason, MaxSeason)
	}
	return y, nil
}
