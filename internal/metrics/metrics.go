package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeCached  = "cached"
)

var (
	urlsAnalyzedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keywordanalyzer_urls_analyzed_total",
			Help: "Total number of analyzed URLs by outcome",
		},
		[]string{"outcome"},
	)

	fetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "keywordanalyzer_fetch_duration_seconds",
			Help:    "Duration of resource fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	responseBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keywordanalyzer_response_bytes_total",
			Help: "Total response body bytes read",
		},
	)

	decodedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keywordanalyzer_decoded_total",
			Help: "Decoded resources by encoding and resolution method",
		},
		[]string{"encoding", "method"},
	)

	keywordMatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keywordanalyzer_keyword_matches_total",
			Help: "Total whole-word keyword matches",
		},
		[]string{"keyword"},
	)
)

func init() {
	prometheus.MustRegister(urlsAnalyzedTotal, fetchDuration, responseBytes, decodedTotal, keywordMatchesTotal)
}

func ObserveURL(outcome string) {
	urlsAnalyzedTotal.WithLabelValues(outcome).Inc()
}

func ObserveFetch(d time.Duration, bytes int) {
	fetchDuration.Observe(d.Seconds())
	responseBytes.Add(float64(bytes))
}

func ObserveDecode(encoding, method string) {
	decodedTotal.WithLabelValues(encoding, method).Inc()
}

func ObserveKeyword(keyword string, matches int) {
	if matches > 0 {
		keywordMatchesTotal.WithLabelValues(keyword).Add(float64(matches))
	}
}
