// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AssistantTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_total",
			Help: "Total number of conversation turns processed, by parsed intent",
		},
		[]string{"intent"},
	)

	AssistantTurnErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turn_errors_total",
			Help: "Total number of turns that failed at the request level",
		},
		[]string{"error_code"},
	)

	ActionResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_action_results_total",
			Help: "Total number of action results produced by the dispatcher",
		},
		[]string{"type"},
	)

	ModelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assistant_model_call_duration_seconds",
			Help: "Duration of completion-capability calls in seconds",
		},
		[]string{"operation"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assistant_turn_duration_seconds",
			Help: "Duration of whole-turn processing in seconds",
		},
		[]string{"status"},
	)
)
