// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wabridge_messages_sent_total",
		Help: "Outbound messages by kind and result",
	}, []string{"kind", "result"})

	MediaFallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wabridge_media_fallback_total",
		Help: "File sends that fell back to a generic document",
	}, []string{"from_kind"})

	MediaBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wabridge_media_bytes",
		Help:    "Size of resolved media payloads",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
	}, []string{"kind"})

	GroupOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wabridge_group_operations_total",
		Help: "Group operations by name and result",
	}, []string{"op", "result"})
)

// Result maps an error to the result label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveSend records one outbound message.
func ObserveSend(kind string, err error) {
	MessagesSentTotal.WithLabelValues(kind, Result(err)).Inc()
}
