package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	legacyUpgrades = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "auth",
			Name:      "legacy_upgrades_total",
			Help:      "Successful legacy verifier upgrades",
		},
	)
)

func recordLoginAttempt(outcome string) {
	loginAttempts.WithLabelValues(outcome).Inc()
}

func recordLegacyUpgrade() {
	legacyUpgrades.Inc()
}
