package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ApprovalRequests counts approval requests created, labelled by subject kind.
	ApprovalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accesskeep_approval_requests_total",
			Help: "Total number of approval requests created",
		},
		[]string{"kind"},
	)

	// ApprovalGrants counts recorded grants, labelled by subject kind.
	ApprovalGrants = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accesskeep_approval_grants_total",
			Help: "Total number of approval grants recorded",
		},
		[]string{"kind"},
	)

	// AccessDecisions counts authorization evaluations and their outcome (granted|denied).
	AccessDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accesskeep_access_decisions_total",
			Help: "Total number of access authorization decisions",
		},
		[]string{"kind", "result"},
	)

	// NotificationsSent counts user notifications appended to the feed.
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accesskeep_notifications_sent_total",
			Help: "Total number of user notifications sent",
		},
		[]string{"type"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "accesskeep_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
