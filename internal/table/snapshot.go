package table

import (
	"github.com/shopspring/decimal"

	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/game"
)

// Snapshot is the public view of the table, safe to render or broadcast. The
// dealer's hand stays truncated to its first card until the round settles;
// only the card count betrays the rest.
type Snapshot struct {
	Active          bool            `json:"active"`
	RoundID         string          `json:"round_id,omitempty"`
	PlayerID        int64           `json:"player_id,omitempty"`
	Bet             decimal.Decimal `json:"bet"`
	PlayerCards     []string        `json:"player_cards,omitempty"`
	PlayerScore     string          `json:"player_score,omitempty"`
	DealerCards     []string        `json:"dealer_cards,omitempty"`
	DealerCardCount int             `json:"dealer_card_count"`
	DealerScore     string          `json:"dealer_score,omitempty"`
	DeckRemaining   int             `json:"deck_remaining"`
	Settled         bool            `json:"settled"`
	PlayerWon       bool            `json:"player_won"`
	Bust            bool            `json:"bust"`
	Message         string          `json:"message,omitempty"`
}

// snapshotLocked builds the view under the service mutex.
func (s *Service) snapshotLocked() Snapshot {
	if s.round == nil {
		return Snapshot{}
	}
	r := s.round
	snap := Snapshot{
		Active:          true,
		RoundID:         r.ID.String(),
		PlayerID:        r.PlayerID,
		Bet:             r.Bet,
		PlayerCards:     r.PlayerHand.Strings(),
		PlayerScore:     r.PlayerHand.Score().String(),
		DealerCardCount: len(r.DealerHand),
		DeckRemaining:   r.Deck.Remaining(),
		Settled:         r.Status == game.StatusSettled,
	}
	if r.Revealed() {
		snap.DealerCards = r.DealerHand.Strings()
		snap.DealerScore = r.DealerHand.Score().String()
		if r.Outcome != nil {
			snap.PlayerWon = r.Outcome.PlayerWins
			snap.Bust = r.Outcome.Bust
			snap.Message = r.Outcome.Message
		}
		return snap
	}
	snap.DealerCards = r.DealerHand[:1].Strings()
	return snap
}
