// Package metrics declares the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dentaheal"

// GateRedirectsTotal counts anonymous requests redirected to login.
// Label prefix is the registry entry that matched.
var GateRedirectsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_redirects_total",
		Help:      "Anonymous requests to protected paths redirected to login.",
	},
	[]string{"prefix", "source"},
)

// AuthzDecisionsTotal counts role checks by outcome
// (allow, unauthenticated, forbidden, self_target).
var AuthzDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_decisions_total",
		Help:      "Role authorization decisions by outcome.",
	},
	[]string{"outcome"},
)

// SessionResolutionsTotal counts identity resolution results
// (cookie, bearer, anonymous, rejected).
var SessionResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_resolutions_total",
		Help:      "Identity resolution attempts by result.",
	},
	[]string{"result"},
)

// AuditWritesTotal counts audit entries by result (ok, failed, dropped).
var AuditWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_writes_total",
		Help:      "Audit entry write attempts by result.",
	},
	[]string{"result"},
)

// LoginAttemptsTotal counts login attempts by result (success, failure, locked).
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Login attempts by result.",
	},
	[]string{"result"},
)

var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method, route template and status.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)
