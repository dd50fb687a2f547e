package game

// dealerStand is the least score the dealer will sit on: six points.
const dealerStand Score = 12

// playDealer draws out the dealer's hand against the player's fixed score.
// The dealer stops at seven and a half or above, or as soon as it holds six
// points or more while level with or ahead of the player. A tie reached this
// way still settles for the house.
//
// Every pass either stops or removes a card from a finite deck, so the loop
// terminates.
func playDealer(deck *Deck, hand *Hand, playerScore Score) error {
	for {
		d := hand.Score()
		if d >= ScoreSevenHalf {
			return nil
		}
		if d >= dealerStand && d >= playerScore {
			return nil
		}
		c, err := deck.Draw()
		if err != nil {
			return err
		}
		*hand = append(*hand, c)
	}
}
