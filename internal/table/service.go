package table

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/shopspring/decimal"

	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/event"
	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/game"
	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/monitoring"
	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/store"
)

// Rejection sentinels. A declined request leaves the table untouched; the
// caller re-renders the current view.
var (
	ErrRoundInProgress     = errors.New("table: a round is already in progress")
	ErrNoRound             = errors.New("table: no round in progress")
	ErrUnknownPlayer       = errors.New("table: unknown player")
	ErrInvalidBet          = errors.New("table: bet must be positive")
	ErrInsufficientBalance = errors.New("table: bet exceeds balance")
)

// Service owns the single table: one round slot for the whole process. Every
// transition, settlement write included, runs under one mutex, so racing
// requests can neither seat two rounds nor settle one twice.
type Service struct {
	store *store.Store
	bus   *event.Bus
	log   *log.Logger
	clock quartz.Clock

	newDeck func() *game.Deck

	mu        sync.Mutex
	round     *game.Round
	startedAt time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock substitutes the wall clock, for tests.
func WithClock(c quartz.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithRNG seeds deck shuffling. A nil rng keeps the time-seeded default.
func WithRNG(rng *rand.Rand) Option {
	return func(s *Service) {
		if rng != nil {
			s.newDeck = func() *game.Deck { return game.NewShuffledDeck(rng) }
		}
	}
}

// WithDeckSource substitutes deck creation entirely, for tests that need to
// know every card before it is dealt.
func WithDeckSource(f func() *game.Deck) Option {
	return func(s *Service) { s.newDeck = f }
}

func New(st *store.Store, bus *event.Bus, logger *log.Logger, opts ...Option) *Service {
	s := &Service{
		store:   st,
		bus:     bus,
		log:     logger.WithPrefix("table"),
		clock:   quartz.NewReal(),
		newDeck: func() *game.Deck { return game.NewShuffledDeck(nil) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start seats a new round for the given player and bet. It is rejected while
// another round is in progress, for unknown players, and for bets that are
// not positive or exceed the player's balance.
func (s *Service) Start(ctx context.Context, playerID int64, bet decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round != nil && s.round.Status == game.StatusInProgress {
		return ErrRoundInProgress
	}
	if !bet.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidBet, bet)
	}
	p, err := s.store.GetPlayer(ctx, playerID)
	if err != nil {
		if errors.Is(err, store.ErrPlayerNotFound) {
			return fmt.Errorf("%w: id %d", ErrUnknownPlayer, playerID)
		}
		return fmt.Errorf("load player: %w", err)
	}
	if bet.GreaterThan(p.Balance) {
		return fmt.Errorf("%w: bet %s, balance %s", ErrInsufficientBalance, bet, p.Balance)
	}

	r, err := game.NewRound(s.newDeck(), playerID, bet)
	if err != nil {
		return fmt.Errorf("deal: %w", err)
	}
	s.round = r
	s.startedAt = s.clock.Now().UTC()
	s.log.Info("round started", "round", r.ID, "player", p.Username, "bet", bet)
	monitoring.RoundsStarted.Inc()
	s.bus.Publish(event.RoundStarted, s.snapshotLocked())
	return nil
}

// Hit draws one card for the player. A hand past seven and a half settles on
// the spot as a loss. Hitting a settled or absent round is declined without
// touching the table.
func (s *Service) Hit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round == nil {
		return ErrNoRound
	}
	out, err := s.round.Hit()
	if err != nil {
		if errors.Is(err, game.ErrRoundSettled) {
			return err
		}
		return s.abortLocked(err)
	}
	if out == nil {
		s.log.Debug("player hits", "round", s.round.ID, "score", s.round.PlayerHand.Score())
		s.bus.Publish(event.RoundUpdated, s.snapshotLocked())
		return nil
	}
	return s.settleLocked(ctx, out)
}

// Stand fixes the player's hand, plays the dealer out, and settles.
func (s *Service) Stand(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round == nil {
		return ErrNoRound
	}
	out, err := s.round.Stand()
	if err != nil {
		if errors.Is(err, game.ErrRoundSettled) {
			return err
		}
		return s.abortLocked(err)
	}
	return s.settleLocked(ctx, out)
}

// Exit discards whatever round is seated, settled or not, without touching
// any balance. Exiting an empty table is a no-op.
func (s *Service) Exit(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round == nil {
		return
	}
	abandoned := s.round.Status == game.StatusInProgress
	s.log.Info("round discarded", "round", s.round.ID, "abandoned", abandoned)
	if abandoned {
		monitoring.RoundsAbandoned.Inc()
	}
	s.round = nil
	s.bus.Publish(event.RoundExited, s.snapshotLocked())
}

// Snapshot returns the public view of the table.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// settleLocked applies the outcome to the bettor's balance and records the
// round. Called with the mutex held.
func (s *Service) settleLocked(ctx context.Context, out *game.Outcome) error {
	r := s.round
	newBal, err := s.store.AdjustBalance(ctx, r.PlayerID, out.Delta)
	if err != nil {
		return s.abortLocked(fmt.Errorf("apply settlement: %w", err))
	}
	rec := store.RoundRecord{
		ID:          r.ID.String(),
		PlayerID:    r.PlayerID,
		Bet:         r.Bet,
		PlayerScore: out.PlayerScore.String(),
		DealerScore: out.DealerScore.String(),
		PlayerWon:   out.PlayerWins,
		Bust:        out.Bust,
		Message:     out.Message,
		StartedAt:   s.startedAt,
		SettledAt:   s.clock.Now().UTC(),
	}
	if err := s.store.RecordRound(ctx, rec); err != nil {
		// The balance is already applied; history is best effort.
		s.log.Error("record round", "round", r.ID, "error", err)
	}
	s.log.Info("round settled",
		"round", r.ID,
		"player_score", out.PlayerScore,
		"dealer_score", out.DealerScore,
		"player_won", out.PlayerWins,
		"delta", out.Delta,
		"balance", newBal,
	)
	monitoring.RoundsSettled.WithLabelValues(outcomeLabel(out)).Inc()
	s.bus.Publish(event.RoundSettled, s.snapshotLocked())
	return nil
}

func outcomeLabel(out *game.Outcome) string {
	switch {
	case out.Bust:
		return "bust"
	case out.PlayerWins:
		return "win"
	default:
		return "loss"
	}
}

// abortLocked drops a round the engine could not advance. Unreachable in a
// normal game; a forty-card pack outlasts any legal round.
func (s *Service) abortLocked(err error) error {
	s.log.Error("round aborted", "round", s.round.ID, "error", err)
	s.round = nil
	s.bus.Publish(event.RoundExited, s.snapshotLocked())
	return fmt.Errorf("table: %w", err)
}
