package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BridgesTotal counts bridges by terminal status
	BridgesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cctp_bridges_total",
			Help: "Total number of bridge flows by final status",
		},
		[]string{"status"},
	)

	// AttestationPolls counts attestation service requests
	AttestationPolls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cctp_attestation_polls_total",
			Help: "Total number of attestation service polls",
		},
	)

	// AttestationErrors counts failed attestation polls by kind
	AttestationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cctp_attestation_errors_total",
			Help: "Total number of attestation poll errors",
		},
		[]string{"kind"},
	)

	// ActivePolls tracks the number of bridges currently polling for attestation
	ActivePolls = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cctp_active_polls",
			Help: "Number of bridges with an active attestation poll loop",
		},
	)

	// BridgeDuration tracks time from initiation to completion
	BridgeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cctp_bridge_duration_seconds",
			Help:    "Bridge flow duration from initiation to completion in seconds",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200, 1800},
		},
	)

	// BridgeAmount tracks bridged USDC amounts
	BridgeAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cctp_bridge_amount_usdc",
			Help:    "Amount of USDC bridged",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		},
	)
)
