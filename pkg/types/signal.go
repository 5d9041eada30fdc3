package types

import "time"

// Direction is the side of a trade signal or position.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Sign returns +1 for long and -1 for short.
func (d Direction) Sign() float64 {
	if d == DirectionShort {
		return -1
	}
	return 1
}

// Signal is an externally produced trade candidate. It is immutable;
// the risk core only reads it.
type Signal struct {
	Symbol    string
	Sector    string
	Strategy  string
	Direction Direction
	Strength  float64 // 0..1 conviction, used by non-Kelly sizing

	// Kelly inputs: estimated win probability and payoff ratio
	// (average win / average loss). Zero values mean "not estimated".
	WinProbability float64
	PayoffRatio    float64

	Timestamp time.Time
}
