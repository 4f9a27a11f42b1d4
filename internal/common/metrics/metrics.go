// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_submissions_total",
			Help: "Total number of application submissions by remote result",
		},
		[]string{"result"},
	)

	SnapshotRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_snapshot_refreshes_total",
			Help: "Total number of remote snapshot refresh attempts by result",
		},
		[]string{"result"},
	)

	HistorySearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_history_searches_total",
			Help: "Total number of history searches by scope",
		},
		[]string{"scope"},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_auth_failures_total",
			Help: "Total number of rejected history authentications by scope",
		},
		[]string{"scope"},
	)

	RemoteCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assistant_remote_call_duration_seconds",
			Help: "Duration of remote sheet endpoint calls in seconds",
		},
		[]string{"operation"},
	)
)
