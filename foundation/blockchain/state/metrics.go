package state

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusBlocksMined = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_state_blocks_mined",
			Help: "Number of blocks mined and confirmed by this ledger",
		},
	)
	prometheusChainHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_state_chain_height",
			Help: "Id of the latest confirmed block",
		},
	)
	prometheusMiningDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "ledger_state_mining_duration_seconds",
			Help: "Time spent solving the proof of work of a block",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)
	prometheusTxSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_state_tx_submitted",
			Help: "Number of transfers accepted into the unconfirmed pool",
		},
	)
)
