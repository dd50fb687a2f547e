package web

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/config"
	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/event"
	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/store"
	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/table"
)

// Server handles HTTP requests: the rendered table pages, the form-post game
// transitions, and the operational endpoints.
type Server struct {
	table *table.Service
	store *store.Store
	bus   *event.Bus
	log   *log.Logger
	hub   *hub

	templates *templates

	startingBalance decimal.Decimal
	leaderboardSize int
	recentRounds    int
}

// NewServer wires the HTTP layer and subscribes the live feed to the table's
// event stream.
func NewServer(cfg *config.Config, st *store.Store, tbl *table.Service, bus *event.Bus, logger *log.Logger) (*Server, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	balance, err := cfg.StartingBalance()
	if err != nil {
		return nil, err
	}

	s := &Server{
		table:           tbl,
		store:           st,
		bus:             bus,
		log:             logger.WithPrefix("web"),
		hub:             newHub(logger.WithPrefix("live")),
		templates:       tmpl,
		startingBalance: balance,
		leaderboardSize: cfg.Game.LeaderboardSize,
		recentRounds:    cfg.Game.RecentRounds,
	}

	for _, topic := range []string{
		event.RoundStarted,
		event.RoundUpdated,
		event.RoundSettled,
		event.RoundExited,
	} {
		topic := topic
		bus.Subscribe(topic, func(payload any) {
			snap, ok := payload.(table.Snapshot)
			if !ok {
				return
			}
			s.hub.broadcast(liveMessage{Event: topic, Table: snap})
		})
	}
	return s, nil
}

// Routes sets up the HTTP routes with proper middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.countRequests)
	r.Use(middleware.Recoverer)

	// Health and monitoring endpoints
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// Live table feed; stays open, so no request timeout here.
	r.Get("/live", s.handleLive)

	// Table views and transitions
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		r.Get("/", s.handleIndex)
		r.Post("/add-player", s.handleAddPlayer)
		r.Post("/start-game", s.handleStartGame)
		r.Post("/hit", s.handleHit)
		r.Post("/stay", s.handleStay)
		r.Post("/exit", s.handleExit)
	})

	return r
}
