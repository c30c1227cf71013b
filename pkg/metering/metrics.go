package metering

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Package-level collectors, registered once per process.
var (
	consumeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datacap_consume_total",
			Help: "Total consumption requests by category and result",
		},
		[]string{"category", "result"},
	)

	consumedBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datacap_consumed_bytes_total",
			Help: "Total bytes successfully consumed by category",
		},
		[]string{"category"},
	)

	balanceBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "datacap_balance_bytes",
		Help: "Current account balance in bytes (sum of all bucket capacity)",
	})

	allotmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datacap_allotments_total",
			Help: "Total allotments added by category",
		},
		[]string{"category"},
	)
)

// consumeResult labels for the consume counter.
const (
	resultOK           = "ok"
	resultLocked       = "locked"
	resultInactive     = "inactive"
	resultInsufficient = "insufficient_balance"
)
