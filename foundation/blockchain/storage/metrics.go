package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusStoreAdd     *prometheus.CounterVec
	prometheusStoreRemove  *prometheus.CounterVec
	prometheusStoreGet     *prometheus.CounterVec
	prometheusStoreAccept  prometheus.Counter
	prometheusStoreConfirm prometheus.Counter
	prometheusStoreErrors  *prometheus.CounterVec
)

func init() {
	prometheusStoreAdd = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_store_add",
			Help: "Number of rows inserted into the ledger store",
		},
		[]string{"table"},
	)
	prometheusStoreRemove = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_store_remove",
			Help: "Number of remove calls done to the ledger store",
		},
		[]string{"table"},
	)
	prometheusStoreGet = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_store_get",
			Help: "Number of read calls done to the ledger store",
		},
		[]string{"table"},
	)
	prometheusStoreAccept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_store_accept_tx",
			Help: "Number of transactions accepted into the unconfirmed pool",
		},
	)
	prometheusStoreConfirm = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_store_confirm_block",
			Help: "Number of mined blocks confirmed into the ledger",
		},
	)
	prometheusStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_store_errors",
			Help: "Number of ledger store errors",
		},
		[]string{
			"function", // function raising the error
		},
	)
}
