package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WalletRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rgs_wallet_requests_total",
			Help: "Wallet calls to the remote game server by operation and result",
		},
		[]string{"op", "result"},
	)
	WalletLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rgs_wallet_request_duration_seconds",
			Help:    "Wallet call round trip time",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	Rounds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cups_rounds_total",
			Help: "Finished rounds by outcome (win, loss, recovered, failed)",
		},
		[]string{"outcome"},
	)
	ActiveBetRecoveries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cups_active_bet_recoveries_total",
			Help: "Play calls answered with an active bet error and finalized instead",
		},
	)
	AutoPlayRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cups_autoplay_runs_total",
			Help: "Auto-play runs by stop reason",
		},
		[]string{"reason"},
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cups_active_sessions",
			Help: "Player sessions currently held in memory",
		},
	)
)

func init() {
	prometheus.MustRegister(WalletRequests)
	prometheus.MustRegister(WalletLatency)
	prometheus.MustRegister(Rounds)
	prometheus.MustRegister(ActiveBetRecoveries)
	prometheus.MustRegister(AutoPlayRuns)
	prometheus.MustRegister(ActiveSessions)
}
