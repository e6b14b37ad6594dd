package retrieval

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	retrieveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clinicore_retrieve_duration_seconds",
		Help:    "Wall time of symptom-based history retrieval calls.",
		Buckets: prometheus.DefBuckets,
	})
	retrieveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinicore_retrieve_total",
		Help: "History retrieval calls by outcome.",
	}, []string{"outcome"})
	retrieveCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clinicore_retrieve_candidate_texts",
		Help:    "Number of texts sent to the encoder per retrieval.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
	})
)

func observeRetrieve(d time.Duration, failed bool) {
	retrieveDuration.Observe(d.Seconds())
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	retrieveTotal.WithLabelValues(outcome).Inc()
}

func observeRetrieveCandidates(n int) {
	retrieveCandidates.Observe(float64(n))
}
