package game

import (
	"errors"
	"math/rand"
	"time"
)

// DeckSize is the size of a full pack: four copies of each rank 1 through 10.
const DeckSize = 40

// ErrDeckExhausted is returned by Draw when no cards remain.
var ErrDeckExhausted = errors.New("game: deck exhausted")

// Deck is the shuffled pack a round draws from. The zero value is empty; use
// NewShuffledDeck.
type Deck struct {
	cards []Card
}

// NewShuffledDeck builds the forty-card pack and shuffles it with the given
// source. A nil rng falls back to a time-seeded one; tests pass a seeded rng
// for deterministic deals.
func NewShuffledDeck(rng *rand.Rand) *Deck {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	cards := make([]Card, 0, DeckSize)
	for rank := Card(1); rank <= Matta; rank++ {
		for i := 0; i < 4; i++ {
			cards = append(cards, rank)
		}
	}
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Deck{cards: cards}
}

// NewOrderedDeck builds a deck that deals the given cards in order, for
// replaying known deals in tests.
func NewOrderedDeck(cards ...Card) *Deck {
	stacked := make([]Card, len(cards))
	// Draw pops from the end, so store the deal order reversed.
	for i, c := range cards {
		stacked[len(cards)-1-i] = c
	}
	return &Deck{cards: stacked}
}

// Draw removes and returns the top card of the deck.
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return 0, ErrDeckExhausted
	}
	c := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return c, nil
}

// Remaining returns the number of undrawn cards.
func (d *Deck) Remaining() int { return len(d.cards) }
