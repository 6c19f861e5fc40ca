// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package link

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SweepEvictions counts records evicted by the background sweep, by bucket.
// Use RegisterMetrics to register this with a Prometheus registry.
var SweepEvictions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gateward_link_sweep_evictions_total",
		Help: "Total number of expired link records evicted by the sweeper",
	},
	[]string{"bucket"},
)

// CodesGenerated counts confirmation codes issued, by link type.
// Use RegisterMetrics to register this with a Prometheus registry.
var CodesGenerated = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gateward_link_codes_generated_total",
		Help: "Total number of link confirmation codes generated",
	},
	[]string{"link_type"},
)

// RegisterMetrics registers link package metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(SweepEvictions)
	reg.MustRegister(CodesGenerated)
}

// RegisterBucketGauges registers live-size gauges for the given buckets.
func RegisterBucketGauges(reg prometheus.Registerer, entries *EntryBucket, confirmations *ConfirmationBucket) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "gateward_link_entries_live",
			Help: "Number of live link entry requests awaiting accept/decline",
		},
		func() float64 { return float64(entries.Len()) },
	))
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "gateward_link_confirmations_live",
			Help: "Number of live code-keyed link confirmation requests",
		},
		func() float64 { return float64(confirmations.Len()) },
	))
}

func recordSweep(entries, confirmations int) {
	if entries > 0 {
		SweepEvictions.WithLabelValues("entry").Add(float64(entries))
	}
	if confirmations > 0 {
		SweepEvictions.WithLabelValues("confirmation").Add(float64(confirmations))
	}
}
