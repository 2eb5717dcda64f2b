package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
	AuthRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rejections_total",
			Help: "Total number of unauthorized requests",
		},
		[]string{"reason"},
	)

	ChallengeJoins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_joins_total",
			Help: "Successful challenge joins by difficulty",
		},
		[]string{"difficulty"},
	)
	ChallengeLeaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_leaves_total",
			Help: "Challenge leaves, split into pre-start cancellations and withdrawals",
		},
		[]string{"kind"},
	)
	ProgressEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_progress_evaluations_total",
			Help: "Persisted progress evaluations by goal type",
		},
		[]string{"goal_type"},
	)
	WorkerPassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "challenge_progress_worker_pass_seconds",
			Help:    "Duration of one periodic re-evaluation pass",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register adds every collector to reg. Call once from main.go.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AuthRejections,
		ChallengeJoins,
		ChallengeLeaves,
		ProgressEvaluations,
		WorkerPassDuration,
	)
}
