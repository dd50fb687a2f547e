package game

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Table messages shown when a round settles. The bust message carries no
// banco score: the dealer never plays against a busted hand.
const (
	bustMessage      = "Hai Sballato! Vince il Banco."
	playerWinsFormat = "HAI VINTO! (Banco: %s)"
	dealerWinsFormat = "IL BANCO VINCE! (Banco: %s)"
)

// Outcome is the terminal result of a round: who took it, the bankroll delta
// for the bettor, and the message shown at the table.
type Outcome struct {
	PlayerWins  bool
	Bust        bool
	Delta       decimal.Decimal
	PlayerScore Score
	DealerScore Score
	Message     string
}

// settle compares the two final scores and produces the bankroll delta. The
// player wins only by sitting at or under seven and a half while the dealer
// busts or scores lower; every tie goes to the house. Wins and losses both
// move the full bet.
func settle(playerScore, dealerScore Score, bet decimal.Decimal) Outcome {
	if !playerScore.IsBust() && (dealerScore.IsBust() || playerScore > dealerScore) {
		return Outcome{
			PlayerWins:  true,
			Delta:       bet,
			PlayerScore: playerScore,
			DealerScore: dealerScore,
			Message:     fmt.Sprintf(playerWinsFormat, dealerScore),
		}
	}
	return Outcome{
		Delta:       bet.Neg(),
		PlayerScore: playerScore,
		DealerScore: dealerScore,
		Message:     fmt.Sprintf(dealerWinsFormat, dealerScore),
	}
}
