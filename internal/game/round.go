package game

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrRoundSettled is returned by Hit and Stand once the round has settled.
var ErrRoundSettled = errors.New("game: round already settled")

// Status is the lifecycle state of a round.
type Status int

const (
	StatusInProgress Status = iota
	StatusSettled
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "in_progress"
	case StatusSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Round is one play cycle at the table: the deck it owns, both hands, and the
// bet it was opened with. A Round is not safe for concurrent use; the table
// service serializes access to it.
type Round struct {
	ID         uuid.UUID
	PlayerID   int64
	Bet        decimal.Decimal
	Deck       *Deck
	PlayerHand Hand
	DealerHand Hand
	Status     Status
	Outcome    *Outcome
}

// NewRound deals the opening cards from the given deck, one to the player
// and one face down to the dealer. The round takes ownership of the deck.
func NewRound(deck *Deck, playerID int64, bet decimal.Decimal) (*Round, error) {
	r := &Round{
		ID:       uuid.New(),
		PlayerID: playerID,
		Bet:      bet,
		Deck:     deck,
	}
	if err := r.deal(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Round) deal() error {
	pc, err := r.Deck.Draw()
	if err != nil {
		return err
	}
	dc, err := r.Deck.Draw()
	if err != nil {
		return err
	}
	r.PlayerHand = Hand{pc}
	r.DealerHand = Hand{dc}
	return nil
}

// Hit draws one card into the player's hand. Going past seven and a half
// settles the round on the spot as a full-bet loss; the dealer's hole card
// stays where it is. The returned Outcome is nil while the round stays open.
func (r *Round) Hit() (*Outcome, error) {
	if r.Status != StatusInProgress {
		return nil, ErrRoundSettled
	}
	c, err := r.Deck.Draw()
	if err != nil {
		return nil, err
	}
	r.PlayerHand = append(r.PlayerHand, c)
	score := r.PlayerHand.Score()
	if !score.IsBust() {
		return nil, nil
	}
	out := Outcome{
		Bust:        true,
		Delta:       r.Bet.Neg(),
		PlayerScore: score,
		DealerScore: r.DealerHand.Score(),
		Message:     bustMessage,
	}
	r.Status = StatusSettled
	r.Outcome = &out
	return &out, nil
}

// Stand fixes the player's score, plays out the dealer's hand, and settles
// the round.
func (r *Round) Stand() (*Outcome, error) {
	if r.Status != StatusInProgress {
		return nil, ErrRoundSettled
	}
	playerScore := r.PlayerHand.Score()
	if err := playDealer(r.Deck, &r.DealerHand, playerScore); err != nil {
		return nil, err
	}
	out := settle(playerScore, r.DealerHand.Score(), r.Bet)
	r.Status = StatusSettled
	r.Outcome = &out
	return &out, nil
}

// Revealed reports whether the dealer's full hand may be shown. Until the
// round settles only the hole card's existence is public.
func (r *Round) Revealed() bool { return r.Status == StatusSettled }

// CardsInPlay counts every card the round accounts for: the undrawn deck plus
// both hands. It is DeckSize for the life of the round.
func (r *Round) CardsInPlay() int {
	return r.Deck.Remaining() + len(r.PlayerHand) + len(r.DealerHand)
}
