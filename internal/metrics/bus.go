// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics holds the Prometheus collectors shared across packages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HubDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wabridge_event_hub_dropped_total",
		Help: "Session events dropped because a subscriber was not keeping up",
	}, []string{"kind", "reason"})

	InboxDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wabridge_inbox_depth",
		Help: "Inbound message batches queued for the receive callback",
	}, []string{"identity"})
)

// IncHubDrop records a dropped event of the given kind.
func IncHubDrop(kind, reason string) {
	if kind == "" {
		kind = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	HubDroppedTotal.WithLabelValues(kind, reason).Inc()
}
