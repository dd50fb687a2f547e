package game

import (
	"errors"
	"math/rand"
	"testing"
)

func TestNewShuffledDeckComposition(t *testing.T) {
	d := NewShuffledDeck(rand.New(rand.NewSource(1)))
	if d.Remaining() != DeckSize {
		t.Fatalf("Remaining() = %d, want %d", d.Remaining(), DeckSize)
	}
	counts := make(map[Card]int)
	for {
		c, err := d.Draw()
		if err != nil {
			break
		}
		counts[c]++
	}
	for rank := Card(1); rank <= Matta; rank++ {
		if counts[rank] != 4 {
			t.Errorf("rank %v: %d copies, want 4", rank, counts[rank])
		}
	}
	if len(counts) != 10 {
		t.Errorf("deck holds %d distinct ranks, want 10", len(counts))
	}
}

func TestDeckDrawExhausted(t *testing.T) {
	d := NewOrderedDeck(5)
	if _, err := d.Draw(); err != nil {
		t.Fatalf("Draw() on one-card deck: %v", err)
	}
	if _, err := d.Draw(); !errors.Is(err, ErrDeckExhausted) {
		t.Fatalf("Draw() on empty deck = %v, want ErrDeckExhausted", err)
	}
}

func TestDeckShuffleDeterministicPerSeed(t *testing.T) {
	a := NewShuffledDeck(rand.New(rand.NewSource(42)))
	b := NewShuffledDeck(rand.New(rand.NewSource(42)))
	for a.Remaining() > 0 {
		ca, _ := a.Draw()
		cb, _ := b.Draw()
		if ca != cb {
			t.Fatal("same seed produced different shuffles")
		}
	}
}

func TestOrderedDeckDealsInOrder(t *testing.T) {
	d := NewOrderedDeck(7, 5, Matta)
	want := []Card{7, 5, Matta}
	for i, w := range want {
		c, err := d.Draw()
		if err != nil {
			t.Fatalf("Draw() %d: %v", i, err)
		}
		if c != w {
			t.Errorf("draw %d = %v, want %v", i, c, w)
		}
	}
}
