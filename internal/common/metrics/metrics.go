// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OracleRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_oracle_requests_total",
			Help: "Total number of oracle completion calls",
		},
		[]string{"call_site", "outcome"},
	)

	DirectorySearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_directory_searches_total",
			Help: "Total number of directory list queries",
		},
		[]string{"strategy", "status"},
	)

	DetailFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_detail_fetches_total",
			Help: "Total number of subsidy detail lookups",
		},
		[]string{"status"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "chat_search_duration_seconds",
			Help: "Duration of a full multi-strategy search",
		},
	)

	SessionSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_session_saves_total",
			Help: "Total number of session persistence attempts",
		},
		[]string{"status"},
	)
)
