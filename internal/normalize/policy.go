package normalize

import "strings"

// Rule reports whether a column should be dropped from the frozen schema
type Rule func(column string) bool

// Contains drops every column whose name contains marker
func Contains(marker string) Rule {
	return func(column string) bool {
		return strings.Contains(column, marker)
	}
}

// Policy lists the exclusion rules applied when a schema is frozen
type Policy struct {
	Team   []Rule
	Player []Rule
}

// DefaultPolicy drops box plus/minus and placeholder columns everywhere, and
// plus/minus from team rows where a team total carries no information.
func DefaultPolicy() Policy {
	return Policy{
		Team:   []Rule{Contains("bpm"), Contains("+/-"), Contains("unnamed")},
		Player: []Rule{Contains("bpm"), Contains("unnamed")},
	}
}

// Apply returns the columns no rule drops, in order
func Apply(columns []string, rules []Rule) []string {
	out := make([]string, 0, len(columns))
next:
	for _, c := range columns {
		for _, drop := range rules {
			if drop(c) {
				continue next
			}
		}
		out = append(out, c)
	}
	return out
}
