package ai

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyforge_ai_requests_total",
			Help: "Total number of AI provider requests.",
		},
		[]string{"provider", "model", "kind", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyforge_ai_request_duration_seconds",
			Help:    "Latency of AI provider requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "model", "kind"},
	)
	aiTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyforge_ai_tokens_total",
			Help: "Tokens consumed by AI requests.",
		},
		[]string{"provider", "model", "direction"},
	)
	aiEstimatedCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyforge_ai_estimated_cost_usd_total",
			Help: "Estimated total cost of AI requests in USD.",
		},
		[]string{"provider", "model"},
	)
)

const (
	kindText  = "text"
	kindImage = "image"
)

func observeFailure(provider, model, kind, status string, took time.Duration) {
	aiRequestsTotal.With(prometheus.Labels{"provider": provider, "model": model, "kind": kind, "status": status}).Inc()
	aiRequestDuration.With(prometheus.Labels{"provider": provider, "model": model, "kind": kind}).Observe(took.Seconds())
}

func observeSuccess(kind string, u Usage) {
	aiRequestsTotal.With(prometheus.Labels{"provider": u.Provider, "model": u.Model, "kind": kind, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"provider": u.Provider, "model": u.Model, "kind": kind}).Observe(u.Latency.Seconds())
	aiTokensTotal.With(prometheus.Labels{"provider": u.Provider, "model": u.Model, "direction": "prompt"}).Add(float64(u.PromptTokens))
	aiTokensTotal.With(prometheus.Labels{"provider": u.Provider, "model": u.Model, "direction": "completion"}).Add(float64(u.CompletionTokens))
	if cost, _ := u.EstimatedCostUSD.Float64(); cost > 0 {
		aiEstimatedCostUSD.With(prometheus.Labels{"provider": u.Provider, "model": u.Model}).Add(cost)
	}
}
