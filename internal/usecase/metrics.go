package usecase

import (
	"ask-relay/pkg/apperr"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const outcomeSuccess = "success"

var (
	metricRetrievals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ask_relay",
		Name:      "retrievals_total",
		Help:      "Completed retrievals by outcome kind.",
	}, []string{"outcome"})
	metricRetrievalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ask_relay",
		Name:      "retrieval_duration_seconds",
		Help:      "Wall time of a retrieval, session launch through teardown.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 9),
	})
	metricActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ask_relay",
		Name:      "browser_sessions_active",
		Help:      "Browser sessions currently open.",
	})
	metricFailedAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ask_relay",
		Name:      "poll_attempts_failed_total",
		Help:      "Answer polling attempts that timed out.",
	})
)

func observeOutcome(err error, elapsed time.Duration) {
	outcome := outcomeSuccess
	if err != nil {
		outcome = string(apperr.KindOf(err))
	}

	metricRetrievals.WithLabelValues(outcome).Inc()
	metricRetrievalDuration.Observe(elapsed.Seconds())
}
