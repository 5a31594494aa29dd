package normalize

// DefaultColumnCount is the merged team-game width seen on 2000s-era pages
const DefaultColumnCount = 140

// Expectation is the merged team-game column count for an inclusive season
// range. A zero bound is open.
type Expectation struct {
	From    int `json:"from"`
	To      int `json:"to"`
	Columns int `json:"columns"`
}

// Expectations are checked in order; the first matching range wins
type Expectations []Expectation

// DefaultExpectations expects DefaultColumnCount for every season
func DefaultExpectations() Expectations {
	return Expectations{{Columns: DefaultColumnCount}}
}

// For returns the expected column count for season
func (e Expectations) For(season int) (int, bool) {
	for _, x := range e {
		if x.From != 0 && season < x.From {
			continue
		}
		if x.To != 0 && season > x.To {
			continue
		}
		return x.Columns, true
	}
	return 0, false
}
