package table

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/event"
	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/game"
	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/store"
)

type fixture struct {
	svc    *Service
	store  *store.Store
	bus    *event.Bus
	player store.Player
}

// newFixture seats a table backed by an in-memory store and one registered
// player with balance 100. Each decks entry becomes the pack for one round, in
// order; once they run out, rounds fall back to shuffled packs.
func newFixture(t *testing.T, decks ...[]game.Card) *fixture {
	t.Helper()

	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	p, err := st.CreatePlayer(context.Background(), "anna", decimal.NewFromInt(100))
	require.NoError(t, err)

	var mu sync.Mutex
	next := 0
	source := func() *game.Deck {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(decks) {
			return game.NewShuffledDeck(nil)
		}
		d := game.NewOrderedDeck(decks[next]...)
		next++
		return d
	}

	bus := event.NewBus()
	svc := New(st, bus, log.New(io.Discard),
		WithClock(quartz.NewMock(t)),
		WithDeckSource(source),
	)
	return &fixture{svc: svc, store: st, bus: bus, player: p}
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	p, err := f.store.GetPlayer(context.Background(), f.player.ID)
	require.NoError(t, err)
	return p.Balance
}

func TestStartDealsOpeningCards(t *testing.T) {
	f := newFixture(t, []game.Card{7, 5})
	ctx := context.Background()

	require.NoError(t, f.svc.Start(ctx, f.player.ID, decimal.NewFromInt(20)))

	snap := f.svc.Snapshot()
	require.True(t, snap.Active)
	require.False(t, snap.Settled)
	require.Equal(t, []string{"7"}, snap.PlayerCards)
	require.Equal(t, "7", snap.PlayerScore)
	require.Equal(t, []string{"5"}, snap.DealerCards)
	require.Equal(t, 1, snap.DealerCardCount)
	require.Empty(t, snap.DealerScore, "dealer score stays hidden while in progress")
	require.True(t, f.balance(t).Equal(decimal.NewFromInt(100)), "start must not move the balance")
}

// Two tables shuffling from the same seed deal the same opening, so seeded
// runs reproduce end to end.
func TestWithRNGDealsDeterministically(t *testing.T) {
	ctx := context.Background()

	deal := func(seed int64) Snapshot {
		st, err := store.New(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
		p, err := st.CreatePlayer(ctx, "anna", decimal.NewFromInt(100))
		require.NoError(t, err)

		svc := New(st, event.NewBus(), log.New(io.Discard),
			WithRNG(rand.New(rand.NewSource(seed))))
		require.NoError(t, svc.Start(ctx, p.ID, decimal.NewFromInt(10)))
		return svc.Snapshot()
	}

	a, b := deal(42), deal(42)
	require.Equal(t, a.PlayerCards, b.PlayerCards)
	require.Equal(t, a.DealerCards, b.DealerCards)
	require.Equal(t, a.PlayerScore, b.PlayerScore)
}

func TestStartRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		playerID int64
		bet      decimal.Decimal
		wantErr  error
	}{
		{"unknown player", 999, decimal.NewFromInt(10), ErrUnknownPlayer},
		{"zero bet", 0, decimal.Zero, ErrInvalidBet},
		{"negative bet", 0, decimal.NewFromInt(-5), ErrInvalidBet},
		{"bet over balance", 0, decimal.NewFromInt(200), ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tt.playerID
			if id == 0 {
				id = f.player.ID
			}
			err := f.svc.Start(ctx, id, tt.bet)
			require.ErrorIs(t, err, tt.wantErr)
			require.False(t, f.svc.Snapshot().Active, "rejected start must leave the table empty")
		})
	}
}

func TestStartWhileRoundInProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Start(ctx, f.player.ID, decimal.NewFromInt(10)))
	err := f.svc.Start(ctx, f.player.ID, decimal.NewFromInt(10))
	require.ErrorIs(t, err, ErrRoundInProgress)
}

// New player, balance 100, bets 20 and busts on the first hit: balance 80 and
// a settled round with the bust message.
func TestHitBustSettlesImmediately(t *testing.T) {
	f := newFixture(t, []game.Card{7, 5, 3})
	ctx := context.Background()

	require.NoError(t, f.svc.Start(ctx, f.player.ID, decimal.NewFromInt(20)))
	require.NoError(t, f.svc.Hit(ctx))

	snap := f.svc.Snapshot()
	require.True(t, snap.Settled)
	require.True(t, snap.Bust)
	require.False(t, snap.PlayerWon)
	require.Equal(t, "Hai Sballato! Vince il Banco.", snap.Message)
	require.Equal(t, []string{"5"}, snap.DealerCards, "dealer never acts against a bust")
	require.True(t, f.balance(t).Equal(decimal.NewFromInt(80)), "balance = %s", f.balance(t))

	recent, err := f.store.RecentRounds(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.True(t, recent[0].Bust)
	require.False(t, recent[0].PlayerWon)
	require.Equal(t, "10", recent[0].PlayerScore)

	require.ErrorIs(t, f.svc.Hit(ctx), game.ErrRoundSettled)
	require.True(t, f.balance(t).Equal(decimal.NewFromInt(80)), "settled round must not settle twice")
}

// Player draws to 7.5 and stands. The dealer reaches a safe six but is still
// behind, so the policy forces it on until it busts: the bet comes back
// doubled.
func TestStandAtSevenAndAHalfWins(t *testing.T) {
	f := newFixture(t, []game.Card{7, 8, 10, 4, 1, 8, 7})
	ctx := context.Background()

	require.NoError(t, f.svc.Start(ctx, f.player.ID, decimal.NewFromInt(20)))
	require.NoError(t, f.svc.Hit(ctx))

	snap := f.svc.Snapshot()
	require.False(t, snap.Settled)
	require.Equal(t, "7.5", snap.PlayerScore)
	require.Equal(t, []string{"7", "Matta"}, snap.PlayerCards)

	require.NoError(t, f.svc.Stand(ctx))

	snap = f.svc.Snapshot()
	require.True(t, snap.Settled)
	require.True(t, snap.PlayerWon)
	require.Equal(t, "HAI VINTO! (Banco: 13)", snap.Message)
	require.Equal(t, []string{"8", "4", "1", "8", "7"}, snap.DealerCards)
	require.True(t, f.balance(t).Equal(decimal.NewFromInt(120)), "balance = %s", f.balance(t))
}

func TestStandTieGoesToHouse(t *testing.T) {
	f := newFixture(t, []game.Card{6, 5, 1})
	ctx := context.Background()

	require.NoError(t, f.svc.Start(ctx, f.player.ID, decimal.NewFromInt(20)))
	require.NoError(t, f.svc.Stand(ctx))

	snap := f.svc.Snapshot()
	require.True(t, snap.Settled)
	require.False(t, snap.PlayerWon)
	require.Equal(t, "IL BANCO VINCE! (Banco: 6)", snap.Message)
	require.True(t, f.balance(t).Equal(decimal.NewFromInt(80)))
}

func TestExitAbandonsWithoutSettling(t *testing.T) {
	f := newFixture(t, []game.Card{2, 5, 3})
	ctx := context.Background()

	require.NoError(t, f.svc.Start(ctx, f.player.ID, decimal.NewFromInt(20)))
	f.svc.Exit(ctx)

	require.False(t, f.svc.Snapshot().Active)
	require.True(t, f.balance(t).Equal(decimal.NewFromInt(100)), "abandoning must not move the balance")

	recent, err := f.store.RecentRounds(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, recent, "abandoned rounds leave no history")

	// Exiting an empty table is harmless.
	f.svc.Exit(ctx)
}

func TestStartReplacesSettledRound(t *testing.T) {
	f := newFixture(t, []game.Card{7, 5, 3}, []game.Card{2, 5})
	ctx := context.Background()

	require.NoError(t, f.svc.Start(ctx, f.player.ID, decimal.NewFromInt(20)))
	require.NoError(t, f.svc.Hit(ctx))
	require.True(t, f.svc.Snapshot().Settled)

	require.NoError(t, f.svc.Start(ctx, f.player.ID, decimal.NewFromInt(10)))
	snap := f.svc.Snapshot()
	require.True(t, snap.Active)
	require.False(t, snap.Settled)
	require.Equal(t, []string{"2"}, snap.PlayerCards)
}

func TestTransitionsWithoutRound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.ErrorIs(t, f.svc.Hit(ctx), ErrNoRound)
	require.ErrorIs(t, f.svc.Stand(ctx), ErrNoRound)
}

func TestHitOnExhaustedDeckAbortsRound(t *testing.T) {
	f := newFixture(t, []game.Card{2, 3})
	ctx := context.Background()

	require.NoError(t, f.svc.Start(ctx, f.player.ID, decimal.NewFromInt(20)))
	err := f.svc.Hit(ctx)
	require.ErrorIs(t, err, game.ErrDeckExhausted)
	require.False(t, f.svc.Snapshot().Active, "aborted round must free the slot")
	require.True(t, f.balance(t).Equal(decimal.NewFromInt(100)))
}

func TestSettledRoundPublishesEvent(t *testing.T) {
	f := newFixture(t, []game.Card{7, 5, 3})
	ctx := context.Background()

	settled := make(chan Snapshot, 1)
	f.bus.Subscribe(event.RoundSettled, func(payload any) {
		if snap, ok := payload.(Snapshot); ok {
			select {
			case settled <- snap:
			default:
			}
		}
	})

	require.NoError(t, f.svc.Start(ctx, f.player.ID, decimal.NewFromInt(20)))
	require.NoError(t, f.svc.Hit(ctx))

	select {
	case snap := <-settled:
		require.True(t, snap.Settled)
		require.True(t, snap.Bust)
	case <-time.After(2 * time.Second):
		t.Fatal("no settlement event published")
	}
}

func TestConcurrentStartsSeatOneRound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.svc.Start(ctx, f.player.ID, decimal.NewFromInt(10))
		}(i)
	}
	wg.Wait()

	seated := 0
	for _, err := range errs {
		if err == nil {
			seated++
			continue
		}
		require.ErrorIs(t, err, ErrRoundInProgress)
	}
	require.Equal(t, 1, seated, "exactly one start may win the slot")

	snap := f.svc.Snapshot()
	require.True(t, snap.Active)
	require.Equal(t, game.DeckSize, snap.DeckRemaining+len(snap.PlayerCards)+snap.DealerCardCount)
}

func TestConcurrentHitAndStandSettleOnce(t *testing.T) {
	f := newFixture(t, []game.Card{7, 5, 3})
	ctx := context.Background()

	require.NoError(t, f.svc.Start(ctx, f.player.ID, decimal.NewFromInt(20)))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = f.svc.Hit(ctx)
	}()
	go func() {
		defer wg.Done()
		errs[1] = f.svc.Stand(ctx)
	}()
	wg.Wait()

	// Whichever transition lost the race finds the round settled.
	settledErrs := 0
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, game.ErrRoundSettled)
			settledErrs++
		}
	}
	require.Equal(t, 1, settledErrs)

	recent, err := f.store.RecentRounds(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1, "exactly one settlement may be recorded")

	moved := f.balance(t).Sub(decimal.NewFromInt(100)).Abs()
	require.True(t, moved.Equal(decimal.NewFromInt(20)), "balance moved by %s, want 20", moved)
}
