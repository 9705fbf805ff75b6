package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docufold", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docufold", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	DocOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docufold", Name: "doc_operations_total", Help: "Number of document operations by kind and outcome."},
		[]string{"op", "outcome"},
	)
	StorageErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docufold", Name: "storage_errors_total", Help: "Number of object-store call failures by call."},
		[]string{"call"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(DocOperations)
	reg.MustRegister(StorageErrors)
}
