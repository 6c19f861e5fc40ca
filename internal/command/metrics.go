// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package command

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Status labels for command execution metrics.
const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Executions counts driving-event handler executions by command and status.
// Use RegisterMetrics to register this with a Prometheus registry.
var Executions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gateward_command_executions_total",
		Help: "Total number of driving-event handler executions",
	},
	[]string{"command", "status"},
)

// RegisterMetrics registers command package metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Executions)
}

// record increments the execution counter and passes the outcome through.
func (s *Service) record(command string, o Outcome) Outcome {
	status := StatusRejected
	if o.OK {
		status = StatusAccepted
	}
	Executions.WithLabelValues(command, status).Inc()
	return o
}
