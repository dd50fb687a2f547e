package game

import "strconv"

// Score is a hand value in half points: Score(15) is seven and a half, the
// best possible hand. Working in half points keeps the wildcard arithmetic in
// integers, so scores compare exactly.
type Score int

const (
	// ScoreSeven and ScoreSevenHalf are the two totals a Matta can complete
	// a hand to.
	ScoreSeven     Score = 14
	ScoreSevenHalf Score = 15
)

// IsBust reports whether the score exceeds seven and a half.
func (s Score) IsBust() bool { return s > ScoreSevenHalf }

// Points returns the score in points.
func (s Score) Points() float64 { return float64(s) / 2 }

// String renders the score in points: "6", "7.5".
func (s Score) String() string {
	return strconv.FormatFloat(s.Points(), 'f', -1, 64)
}

// cardValue returns the half-point value of a non-Matta card: face value for
// ranks 1 through 7, half a point for the 8 and 9.
func cardValue(c Card) Score {
	if c >= 8 {
		return 1
	}
	return Score(2 * c)
}

// Hand is the ordered sequence of cards dealt to one side of the table. The
// order records the deal; the score does not depend on it.
type Hand []Card

// Score computes the hand value under the Matta rule. Plain cards sum first,
// then each Matta resolves against the running total: half a point when the
// total is zero or already at seven or more, otherwise it completes the total
// to seven when it is whole and to seven and a half when it carries a half.
//
// Each Matta step reads only the running total, never the cards that built
// it, so any reordering of the hand scores the same.
func (h Hand) Score() Score {
	var total Score
	mattas := 0
	for _, c := range h {
		if c.IsMatta() {
			mattas++
			continue
		}
		total += cardValue(c)
	}
	for i := 0; i < mattas; i++ {
		switch {
		case total == 0:
			total = 1
		case total >= ScoreSeven:
			total++
		case total%2 == 0:
			total = ScoreSeven
		default:
			total = ScoreSevenHalf
		}
	}
	return total
}

// Strings renders the hand card by card, in deal order.
func (h Hand) Strings() []string {
	out := make([]string, len(h))
	for i, c := range h {
		out[i] = c.String()
	}
	return out
}
