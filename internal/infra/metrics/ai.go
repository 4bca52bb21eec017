package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		aiRequestsTotal,
		aiTokensIn,
		aiTokensOut,
		aiCallsLatencyMs,
	)
}

var (
	aiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "AI provider calls by provider, model and outcome (ok or failure kind).",
		},
		[]string{"provider", "model", "outcome"},
	)

	aiTokensIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_in",
			Help: "Sum of prompt (input) tokens per provider/model.",
		},
		[]string{"provider", "model"},
	)

	aiTokensOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_out",
			Help: "Sum of completion (output) tokens per provider/model.",
		},
		[]string{"provider", "model"},
	)

	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "AI call latency distribution in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000, 16000, 32000, 64000, 120000},
		},
		[]string{"provider", "model", "success"},
	)
)

func ObserveAICall(provider, model, outcome string, tokensIn, tokensOut int, latencyMs int64) {
	success := outcome == "ok"
	aiRequestsTotal.WithLabelValues(norm(provider), norm(model), norm(outcome)).Inc()
	if success {
		aiTokensIn.WithLabelValues(norm(provider), norm(model)).Add(float64(tokensIn))
		aiTokensOut.WithLabelValues(norm(provider), norm(model)).Add(float64(tokensOut))
	}
	aiCallsLatencyMs.WithLabelValues(norm(provider), norm(model), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}
