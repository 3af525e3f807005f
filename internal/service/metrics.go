package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticktock_auth_attempts_total",
			Help: "Register, login and logout attempts by outcome",
		},
		[]string{"op", "status"},
	)

	taskOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticktock_task_operations_total",
			Help: "Task repository operations by outcome",
		},
		[]string{"op", "status"},
	)

	taskOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticktock_task_operation_duration_seconds",
			Help:    "Duration of task operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	pushOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticktock_push_subscription_operations_total",
			Help: "Push subscription operations by outcome",
		},
		[]string{"op", "status"},
	)

	sessionsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticktock_sessions_purged_total",
			Help: "Expired sessions removed by the purge job",
		},
	)
)

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
