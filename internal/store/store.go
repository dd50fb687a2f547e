package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// --------- Data models ---------

// Player is a registered bettor at the table. Balance moves only through
// AdjustBalance, the settlement path.
type Player struct {
	ID        int64           `json:"id"`
	Username  string          `json:"username"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// RoundRecord is the persisted trace of a settled round. Live rounds never
// touch the database; only their outcomes do. Abandoned rounds leave no
// record.
type RoundRecord struct {
	ID          string          `json:"id"`
	PlayerID    int64           `json:"player_id"`
	Username    string          `json:"username"`
	Bet         decimal.Decimal `json:"bet"`
	PlayerScore string          `json:"player_score"`
	DealerScore string          `json:"dealer_score"`
	PlayerWon   bool            `json:"player_won"`
	Bust        bool            `json:"bust"`
	Message     string          `json:"message"`
	StartedAt   time.Time       `json:"started_at"`
	SettledAt   time.Time       `json:"settled_at"`
}

// --------- Errors ---------

var (
	ErrPlayerNotFound = errors.New("store: player not found")
	ErrUsernameTaken  = errors.New("store: username already taken")
)

// --------- Store ---------

type Store struct {
	db *sql.DB
}

// New opens/creates a SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // SQLite is not concurrent for writes
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping checks database reachability, for health reporting.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Reset wipes players and round history. The table keeps no bankroll across
// process restarts, so main calls this once at startup.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, q := range []string{`DELETE FROM rounds;`, `DELETE FROM players;`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// --------- Migrations ---------

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		// Players table. Balance is stored as exact decimal text.
		`CREATE TABLE IF NOT EXISTS players (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			balance TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,

		// Settled rounds, newest first for the table history view.
		`CREATE TABLE IF NOT EXISTS rounds (
			id TEXT PRIMARY KEY,
			player_id INTEGER NOT NULL,
			bet TEXT NOT NULL,
			player_score TEXT NOT NULL,
			dealer_score TEXT NOT NULL,
			player_won INTEGER NOT NULL,
			bust INTEGER NOT NULL,
			message TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			settled_at TIMESTAMP NOT NULL,
			FOREIGN KEY(player_id) REFERENCES players(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_settled ON rounds(settled_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_player ON rounds(player_id);`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// --------- Players ---------

// CreatePlayer registers a new player with the given opening balance.
func (s *Store) CreatePlayer(ctx context.Context, username string, balance decimal.Decimal) (Player, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO players(username, balance, created_at) VALUES(?, ?, ?)`,
		username, balance.String(), now)
	if err != nil {
		if isConstraintErr(err) {
			return Player{}, fmt.Errorf("%w: %s", ErrUsernameTaken, username)
		}
		return Player{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Player{}, err
	}
	return Player{ID: id, Username: username, Balance: balance, CreatedAt: now}, nil
}

// GetPlayer returns one player by id.
func (s *Store) GetPlayer(ctx context.Context, id int64) (Player, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, balance, created_at FROM players WHERE id=?`, id)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, fmt.Errorf("%w: id %d", ErrPlayerNotFound, id)
	}
	return p, err
}

// ListPlayers returns every player in registration order.
func (s *Store) ListPlayers(ctx context.Context) ([]Player, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, balance, created_at FROM players ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Leaderboard returns up to limit players ordered by balance, richest first.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Player, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, balance, created_at FROM players
		 ORDER BY CAST(balance AS REAL) DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AdjustBalance applies a settlement delta and returns the new balance. The
// read-modify-write runs in one transaction.
func (s *Store) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback()

	var balStr string
	err = tx.QueryRowContext(ctx, `SELECT balance FROM players WHERE id=?`, id).Scan(&balStr)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("%w: id %d", ErrPlayerNotFound, id)
	}
	if err != nil {
		return decimal.Zero, err
	}
	bal, err := decimal.NewFromString(balStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance %q: %w", balStr, err)
	}
	bal = bal.Add(delta)
	if _, err := tx.ExecContext(ctx, `UPDATE players SET balance=? WHERE id=?`, bal.String(), id); err != nil {
		return decimal.Zero, err
	}
	if err := tx.Commit(); err != nil {
		return decimal.Zero, err
	}
	return bal, nil
}

// --------- Rounds ---------

// RecordRound appends one settled round to the history.
func (s *Store) RecordRound(ctx context.Context, rec RoundRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rounds(id, player_id, bet, player_score, dealer_score, player_won, bust, message, started_at, settled_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.PlayerID, rec.Bet.String(), rec.PlayerScore, rec.DealerScore,
		rec.PlayerWon, rec.Bust, rec.Message, rec.StartedAt, rec.SettledAt)
	return err
}

// RecentRounds returns up to limit settled rounds, newest first.
func (s *Store) RecentRounds(ctx context.Context, limit int) ([]RoundRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.player_id, p.username, r.bet, r.player_score, r.dealer_score,
		        r.player_won, r.bust, r.message, r.started_at, r.settled_at
		 FROM rounds r
		 JOIN players p ON p.id = r.player_id
		 ORDER BY r.settled_at DESC, r.rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoundRecord
	for rows.Next() {
		var rec RoundRecord
		var betStr string
		if err := rows.Scan(&rec.ID, &rec.PlayerID, &rec.Username, &betStr, &rec.PlayerScore,
			&rec.DealerScore, &rec.PlayerWon, &rec.Bust, &rec.Message, &rec.StartedAt, &rec.SettledAt); err != nil {
			return nil, err
		}
		bet, err := decimal.NewFromString(betStr)
		if err != nil {
			return nil, fmt.Errorf("parse bet %q: %w", betStr, err)
		}
		rec.Bet = bet
		out = append(out, rec)
	}
	return out, rows.Err()
}

// --------- Helpers ---------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (Player, error) {
	var p Player
	var balStr string
	if err := row.Scan(&p.ID, &p.Username, &balStr, &p.CreatedAt); err != nil {
		return Player{}, err
	}
	bal, err := decimal.NewFromString(balStr)
	if err != nil {
		return Player{}, fmt.Errorf("parse balance %q: %w", balStr, err)
	}
	p.Balance = bal
	return p, nil
}

func isConstraintErr(err error) bool {
	// modernc sqlite returns errors with messages containing "constraint failed"
	// or "UNIQUE constraint failed". Use substring match.
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "constraint failed") || strings.Contains(msg, "unique constraint")
}
