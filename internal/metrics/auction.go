package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "campus_auction"

//nolint:gochecknoglobals
var (
	bidsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bids_accepted_total",
		Help:      "Accepted bids by origin (direct or proxy).",
	}, []string{"origin"})

	bidsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bids_rejected_total",
		Help:      "Rejected bids by reason code.",
	}, []string{"reason"})

	cascadeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "autobid_cascade_failures_total",
		Help:      "Proxy bids that failed and were skipped.",
	})

	buyouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "buyouts_total",
		Help:      "Committed buyouts.",
	})

	finalizations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "finalizations_total",
		Help:      "Finalization attempts by outcome.",
	}, []string{"outcome"})

	finalizationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "finalization_failures_total",
		Help:      "Finalization attempts rolled back by an infrastructure error.",
	})

	finalizationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "finalization_duration_seconds",
		Help:      "Duration of a finalization transaction.",
		Buckets:   prometheus.DefBuckets,
	})

	ratings = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ratings_total",
		Help:      "Accepted transaction ratings.",
	})
)

func BidAccepted(proxy bool) {
	origin := "direct"
	if proxy {
		origin = "proxy"
	}
	bidsAccepted.WithLabelValues(origin).Inc()
}

func BidRejected(reason string) {
	bidsRejected.WithLabelValues(reason).Inc()
}

func CascadeFailed() {
	cascadeFailures.Inc()
}

func BuyoutCommitted() {
	buyouts.Inc()
}

func Finalized(outcome string, started time.Time) {
	finalizations.WithLabelValues(outcome).Inc()
	finalizationDuration.Observe(time.Since(started).Seconds())
}

func FinalizationFailed() {
	finalizationFailures.Inc()
}

func RatingAccepted() {
	ratings.Inc()
}
