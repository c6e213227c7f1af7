package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	OwnershipTransfers *prometheus.CounterVec
	ApprovalsSet       prometheus.Counter
	QuotaOperations    *prometheus.CounterVec
	Orders             *prometheus.CounterVec
	RemoteFailures     prometheus.Counter
}

// Outcome labels used with the CounterVecs.
const (
	OutcomeOK     = "ok"
	OutcomeDenied = "denied"
	OutcomeError  = "error"
)

// New creates and registers all Prometheus metrics on the default registerer.
func New() *Metrics {
	return &Metrics{
		OwnershipTransfers: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "namereg_ownership_transfers_total",
			Help: "Ownership transfers by kind (direct, delegated) and outcome.",
		}, []string{"kind", "outcome"}),
		ApprovalsSet: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namereg_approvals_set_total",
			Help: "Total approvals set or cleared by owners.",
		}),
		QuotaOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "namereg_quota_operations_total",
			Help: "Quota ledger operations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		Orders: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "namereg_orders_total",
			Help: "Registration orders by phase (placed, committed, cancelled, rejected).",
		}, []string{"phase"}),
		RemoteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namereg_remote_failures_total",
			Help: "Failed calls to remote collaborators (payment ledger).",
		}),
	}
}
