package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesProcessed counts processed messages by outcome.
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expensebot_messages_processed_total",
			Help: "The total number of messages processed, by outcome.",
		},
		[]string{"outcome"},
	)

	// ModelCalls counts chat-completion calls by component and status.
	ModelCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expensebot_model_calls_total",
			Help: "The total number of model calls, by component and status.",
		},
		[]string{"component", "status"},
	)

	// RequestDuration is a histogram of HTTP request handling time.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "expensebot_request_duration_seconds",
			Help:    "A histogram of HTTP request duration.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	// ExpensesRecorded counts expenses persisted, by category.
	ExpensesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expensebot_expenses_recorded_total",
			Help: "The total number of expenses persisted, by category.",
		},
		[]string{"category"},
	)

	// ToolInvocations counts query-agent tool executions.
	ToolInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expensebot_tool_invocations_total",
			Help: "The total number of agent tool invocations, by tool.",
		},
		[]string{"tool"},
	)
)
