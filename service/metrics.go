package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	alertsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "familyfinance",
		Name:      "alerts_created_total",
		Help:      "Smart alerts created, by type and severity.",
	}, []string{"type", "severity"})

	aiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "familyfinance",
		Name:      "ai_requests_total",
		Help:      "Calls to the text generation provider, by operation and outcome.",
	}, []string{"operation", "outcome"})

	aiLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "familyfinance",
		Name:      "ai_request_duration_seconds",
		Help:      "Latency of text generation calls.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
	}, []string{"operation"})

	notificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "familyfinance",
		Name:      "alert_notifications_total",
		Help:      "High severity alert notifications, by sink and outcome.",
	}, []string{"sink", "outcome"})
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
