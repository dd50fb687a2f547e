package monitoring

import "github.com/prometheus/client_golang/prometheus"

var (
	PlayersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settemezzo_players_created_total",
			Help: "Total players registered at the table",
		},
	)

	RoundsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settemezzo_rounds_started_total",
			Help: "Total rounds dealt",
		},
	)

	RoundsSettled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settemezzo_rounds_settled_total",
			Help: "Total rounds settled, by outcome",
		},
		[]string{"outcome"},
	)

	RoundsAbandoned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settemezzo_rounds_abandoned_total",
			Help: "Total rounds discarded before settlement",
		},
	)

	HttpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settemezzo_http_requests_total",
			Help: "Total HTTP requests, by method and path",
		},
		[]string{"method", "path"},
	)
)

func Init() {
	prometheus.MustRegister(PlayersCreated)
	prometheus.MustRegister(RoundsStarted)
	prometheus.MustRegister(RoundsSettled)
	prometheus.MustRegister(RoundsAbandoned)
	prometheus.MustRegister(HttpRequests)
}
