// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Resolutions counts pipeline resolutions by resolved step name.
// Use RegisterMetrics to register this with a Prometheus registry.
var Resolutions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gateward_pipeline_resolutions_total",
		Help: "Total number of pipeline resolutions by resolved step",
	},
	[]string{"step"},
)

// Prompts counts user-facing step prompts sent, by step name.
// Use RegisterMetrics to register this with a Prometheus registry.
var Prompts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gateward_pipeline_prompts_total",
		Help: "Total number of step prompts sent to players",
	},
	[]string{"step"},
)

// RegisterMetrics registers pipeline metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Resolutions)
	reg.MustRegister(Prompts)
}

// RegisterBucketGauge registers a live-size gauge for the authenticating set.
func RegisterBucketGauge(reg prometheus.Registerer, bucket *AuthenticatingBucket) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "gateward_authenticating_accounts",
			Help: "Number of accounts currently mid-pipeline",
		},
		func() float64 { return float64(bucket.Len()) },
	))
}

func recordResolution(step string) {
	Resolutions.WithLabelValues(step).Inc()
}

// RecordPrompt increments the prompt counter for a step.
func RecordPrompt(step string) {
	Prompts.WithLabelValues(step).Inc()
}
