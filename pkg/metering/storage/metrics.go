package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Package-level collectors: the worker is a per-process singleton in
// practice, and package vars avoid duplicate registration when tests build
// multiple workers.
var (
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "datacap_persist_queue_depth",
		Help: "Number of snapshot messages waiting in the persistence queue",
	})

	queueDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "datacap_persist_dropped_total",
		Help: "Total snapshot messages dropped because the persistence queue was full",
	})

	writeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "datacap_persist_write_errors_total",
		Help: "Total snapshot writes that failed and were swallowed",
	})

	writeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "datacap_persist_write_duration_seconds",
		Help:    "Duration of durable snapshot writes in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 100µs to ~1.6s
	})

	pruneDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "datacap_usage_pruned_total",
		Help: "Total usage-history rows removed by retention pruning",
	})
)
