package handler

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nestlog/analytics-service/internal/core/domain"
)

var (
	SafetyChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dosing_safety_checks_total",
			Help: "Total number of dosing safety checks evaluated",
		},
		[]string{"outcome"},
	)

	SafetyViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dosing_safety_violations_total",
			Help: "Total number of dosing safety violations raised, by rule",
		},
		[]string{"rule"},
	)

	WeeklyStatisticsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weekly_statistics_requests_total",
			Help: "Total number of weekly active-time aggregations served, by category",
		},
		[]string{"category"},
	)
)

// RegisterEngineMetrics registers the engine metrics
func RegisterEngineMetrics() {
	prometheus.MustRegister(SafetyChecksTotal)
	prometheus.MustRegister(SafetyViolationsTotal)
	prometheus.MustRegister(WeeklyStatisticsTotal)
}

// observeSafetyCheck records the outcome of one safety check and every
// violation it raised
func observeSafetyCheck(result *domain.SafetyCheckResult) {
	outcome := "allowed"
	if !result.Allowed {
		outcome = "disallowed"
	}
	SafetyChecksTotal.WithLabelValues(outcome).Inc()
	for _, v := range result.Violations {
		SafetyViolationsTotal.WithLabelValues(string(v)).Inc()
	}
}
