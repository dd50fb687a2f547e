package game

import "strconv"

// Card is one card of the forty-card Italian deck, identified by rank only;
// suits never matter. Ranks 1 through 7 are the numbered cards, 8 and 9 the
// figure cards, and rank 10 plays as the Matta wildcard.
type Card int

// Matta is the wildcard rank. On its own it is worth half a point; next to
// other cards it completes the hand to seven or seven and a half, whichever
// the running total allows. See Hand.Score.
const Matta Card = 10

// IsMatta reports whether the card is the wildcard.
func (c Card) IsMatta() bool { return c == Matta }

func (c Card) String() string {
	if c.IsMatta() {
		return "Matta"
	}
	return strconv.Itoa(int(c))
}
