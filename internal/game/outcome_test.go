package game

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSettle(t *testing.T) {
	bet := decimal.NewFromInt(20)
	tests := []struct {
		name        string
		playerScore Score
		dealerScore Score
		wantWin     bool
		wantDelta   string
		wantMessage string
	}{
		{
			name:        "player ahead",
			playerScore: ScoreSevenHalf,
			dealerScore: ScoreSeven,
			wantWin:     true,
			wantDelta:   "20",
			wantMessage: "HAI VINTO! (Banco: 7)",
		},
		{
			name:        "dealer bust",
			playerScore: 4,
			dealerScore: 16,
			wantWin:     true,
			wantDelta:   "20",
			wantMessage: "HAI VINTO! (Banco: 8)",
		},
		{
			name:        "tie goes to the house",
			playerScore: 12,
			dealerScore: 12,
			wantWin:     false,
			wantDelta:   "-20",
			wantMessage: "IL BANCO VINCE! (Banco: 6)",
		},
		{
			name:        "dealer ahead",
			playerScore: 10,
			dealerScore: 14,
			wantWin:     false,
			wantDelta:   "-20",
			wantMessage: "IL BANCO VINCE! (Banco: 7)",
		},
		{
			// Never reached through Stand, but the comparison still holds if
			// forced.
			name:        "busted player never wins",
			playerScore: 16,
			dealerScore: 18,
			wantWin:     false,
			wantDelta:   "-20",
			wantMessage: "IL BANCO VINCE! (Banco: 9)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := settle(tt.playerScore, tt.dealerScore, bet)
			if out.PlayerWins != tt.wantWin {
				t.Errorf("PlayerWins = %v, want %v", out.PlayerWins, tt.wantWin)
			}
			if out.Delta.String() != tt.wantDelta {
				t.Errorf("Delta = %s, want %s", out.Delta, tt.wantDelta)
			}
			if out.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", out.Message, tt.wantMessage)
			}
			if out.Bust {
				t.Error("stand-path settlement must not flag a bust")
			}
		})
	}
}
