package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(qualityScore, lowQualityTotal, verificationFailuresTotal) }

var (
	qualityScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "translation_quality_score",
			Help:    "Advisory quality scores returned by the verifier.",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	lowQualityTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "translation_low_quality_total",
			Help: "Translations scored below the acceptance threshold.",
		},
	)

	verificationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "translation_verification_failures_total",
			Help: "Verifier calls that produced no usable score.",
		},
	)
)

func ObserveQualityScore(score float64, belowThreshold bool) {
	qualityScore.Observe(score)
	if belowThreshold {
		lowQualityTotal.Inc()
	}
}

func IncVerificationFailure() { verificationFailuresTotal.Inc() }
