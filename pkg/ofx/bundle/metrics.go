// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bundle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchTotal counts dispatched messages by module, action and result status.
// Use RegisterMetrics to register this with a Prometheus registry.
var DispatchTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ofx_dispatch_total",
		Help: "Total number of messages dispatched to plugins",
	},
	[]string{"module", "action", "status"},
)

// DispatchDuration observes how long a dispatch took.
// Use RegisterMetrics to register this with a Prometheus registry.
var DispatchDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ofx_dispatch_duration_seconds",
		Help:    "Plugin dispatch duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"module", "action"},
)

// RegistryBuilds counts registry builds. It should never exceed one per facade.
var RegistryBuilds = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "ofx_registry_builds_total",
		Help: "Total number of plugin registry builds",
	},
)

// RegisterMetrics registers bundle metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(DispatchTotal)
	reg.MustRegister(DispatchDuration)
	reg.MustRegister(RegistryBuilds)
}

// recordDispatch records one dispatch.
func recordDispatch(module, action, status string, d time.Duration) {
	DispatchTotal.WithLabelValues(module, action, status).Inc()
	DispatchDuration.WithLabelValues(module, action).Observe(d.Seconds())
}
