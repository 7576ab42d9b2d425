// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authStoreBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wabridge_auth_store_breaker_state",
		Help: "Breaker in front of a remote auth store: 0 closed, 1 half-open, 2 open",
	}, []string{"store"})

	authStoreBreakerOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wabridge_auth_store_breaker_opened_total",
		Help: "Times a remote auth store was cut off, by cause",
	}, []string{"store", "cause"})

	authStoreBreakerRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wabridge_auth_store_breaker_rejected_total",
		Help: "Auth store calls failed fast while the store was cut off",
	}, []string{"store"})
)

var breakerStateValue = map[string]float64{
	"closed":    0,
	"half-open": 1,
	"open":      2,
}

// SetAuthStoreBreakerState publishes the breaker state of store. Unknown
// states are ignored.
func SetAuthStoreBreakerState(store, state string) {
	if v, ok := breakerStateValue[state]; ok {
		authStoreBreakerState.WithLabelValues(store).Set(v)
	}
}

// AuthStoreBreakerOpened counts one transition of store's breaker to open.
func AuthStoreBreakerOpened(store, cause string) {
	authStoreBreakerOpened.WithLabelValues(store, cause).Inc()
}

// AuthStoreBreakerRejected counts one call refused by an open breaker.
func AuthStoreBreakerRejected(store string) {
	authStoreBreakerRejected.WithLabelValues(store).Inc()
}
