package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/event"
	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/game"
	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/monitoring"
	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/store"
	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/table"
)

// indexData feeds the single page template: the menu when Game is nil, the
// table otherwise.
type indexData struct {
	Players     []store.Player
	Leaderboard []store.Player
	Recent      []store.RoundRecord
	Game        *gameView
}

type gameView struct {
	Player store.Player
	Snap   table.Snapshot
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snap := s.table.Snapshot()
	if snap.Active {
		p, err := s.store.GetPlayer(ctx, snap.PlayerID)
		if err == nil {
			s.render(w, indexData{Game: &gameView{Player: p, Snap: snap}})
			return
		}
		s.log.Error("load seated player", "player", snap.PlayerID, "error", err)
		// Fall through to the menu.
	}

	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		s.log.Error("list players", "error", err)
	}
	leaders, err := s.store.Leaderboard(ctx, s.leaderboardSize)
	if err != nil {
		s.log.Error("load leaderboard", "error", err)
	}
	recent, err := s.store.RecentRounds(ctx, s.recentRounds)
	if err != nil {
		s.log.Error("load round history", "error", err)
	}
	s.render(w, indexData{Players: players, Leaderboard: leaders, Recent: recent})
}

func (s *Server) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	defer redirectHome(w, r)

	if err := r.ParseForm(); err != nil {
		s.log.Warn("add player: bad form", "error", err)
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	if username == "" {
		s.log.Warn("add player: empty username")
		return
	}
	p, err := s.store.CreatePlayer(r.Context(), username, s.startingBalance)
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			s.log.Warn("add player declined", "username", username, "error", err)
		} else {
			s.log.Error("add player", "username", username, "error", err)
		}
		return
	}
	s.log.Info("player joined", "player", p.Username, "balance", p.Balance)
	monitoring.PlayersCreated.Inc()
	s.bus.Publish(event.PlayerJoined, p)
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	defer redirectHome(w, r)

	if err := r.ParseForm(); err != nil {
		s.log.Warn("start game: bad form", "error", err)
		return
	}
	playerID, err := strconv.ParseInt(r.PostFormValue("player_id"), 10, 64)
	if err != nil {
		s.log.Warn("start game: bad player id", "value", r.PostFormValue("player_id"))
		return
	}
	bet, err := decimal.NewFromString(r.PostFormValue("bet"))
	if err != nil {
		s.log.Warn("start game: bad bet", "value", r.PostFormValue("bet"))
		return
	}
	if err := s.table.Start(r.Context(), playerID, bet); err != nil {
		if isRejection(err) {
			s.log.Warn("start declined", "error", err)
		} else {
			s.log.Error("start game", "error", err)
		}
	}
}

func (s *Server) handleHit(w http.ResponseWriter, r *http.Request) {
	defer redirectHome(w, r)

	if err := s.table.Hit(r.Context()); err != nil {
		if isRejection(err) {
			s.log.Debug("hit declined", "error", err)
		} else {
			s.log.Error("hit", "error", err)
		}
	}
}

func (s *Server) handleStay(w http.ResponseWriter, r *http.Request) {
	defer redirectHome(w, r)

	if err := s.table.Stand(r.Context()); err != nil {
		if isRejection(err) {
			s.log.Debug("stay declined", "error", err)
		} else {
			s.log.Error("stay", "error", err)
		}
	}
}

func (s *Server) handleExit(w http.ResponseWriter, r *http.Request) {
	s.table.Exit(r.Context())
	redirectHome(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.Error("health: database unreachable", "error", err)
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status})
}

// Every transition answers with a redirect back to the table view; declined
// requests degrade to a plain re-render, never an error page.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// isRejection separates declined requests from genuine failures.
func isRejection(err error) bool {
	return errors.Is(err, table.ErrRoundInProgress) ||
		errors.Is(err, table.ErrNoRound) ||
		errors.Is(err, table.ErrUnknownPlayer) ||
		errors.Is(err, table.ErrInvalidBet) ||
		errors.Is(err, table.ErrInsufficientBalance) ||
		errors.Is(err, game.ErrRoundSettled)
}

// writeJSON writes a JSON response with proper headers.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
