// Package metrics exposes Prometheus instrumentation for ingest and role grants.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestRequestsTotal counts webhook ingest requests by HTTP status and whether a record was created.
	IngestRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vipbridge",
		Subsystem: "ingest",
		Name:      "requests_total",
		Help:      "Total VIP ingest requests by HTTP status and created flag.",
	}, []string{"status", "created"})

	// IngestDuration tracks ingest handling latency.
	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vipbridge",
		Subsystem: "ingest",
		Name:      "duration_seconds",
		Help:      "VIP ingest handling duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	// GrantOutcomesTotal counts role grant invocations by terminal outcome.
	GrantOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vipbridge",
		Subsystem: "grant",
		Name:      "outcomes_total",
		Help:      "Total role grant invocations by outcome.",
	}, []string{"outcome"})

	// GrantDuration tracks role grant latency, chat platform round trips included.
	GrantDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vipbridge",
		Subsystem: "grant",
		Name:      "duration_seconds",
		Help:      "Role grant duration in seconds by outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})

	// Entitlements is the number of stored entitlement records.
	Entitlements = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vipbridge",
		Name:      "entitlements",
		Help:      "Number of stored entitlement records.",
	})
)
