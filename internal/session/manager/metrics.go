// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ManuGH/wabridge/internal/session/model"
)

var (
	fsmTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wabridge_session_transitions_total",
			Help: "Session state transitions",
		},
		[]string{"state_from", "state_to"},
	)

	reconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wabridge_session_reconnects_total",
			Help: "Reconnects after a retryable close, by disconnect reason",
		},
		[]string{"reason"},
	)

	closesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wabridge_session_closes_total",
			Help: "Sessions settled to disconnected, by disconnect reason",
		},
		[]string{"reason"},
	)

	rotationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wabridge_session_credential_saves_total",
			Help: "Credential rotation writes by result",
		},
		[]string{"result"},
	)

	qrOffersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wabridge_session_qr_offers_total",
			Help: "QR payloads offered during pairing",
		},
	)

	openSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wabridge_sessions_open",
			Help: "Sessions currently in the open state",
		},
	)
)

func recordTransition(from, to model.SessionState) {
	fsmTransitions.WithLabelValues(string(from), string(to)).Inc()
	switch {
	case from != model.StateOpen && to == model.StateOpen:
		openSessions.Inc()
	case from == model.StateOpen && to != model.StateOpen:
		openSessions.Dec()
	}
}
