package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AdminMetrics counts back-office mutations and authorization denials.
type AdminMetrics struct {
	mutations *prometheus.CounterVec
	denials   *prometheus.CounterVec
}

// NewAdminMetrics registers the admin metrics on the provided registerer.
func NewAdminMetrics(reg prometheus.Registerer) *AdminMetrics {
	if reg == nil {
		return &AdminMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_mutations_total",
		Help: "Admin mutations by operation and outcome.",
	}, []string{"operation", "outcome"})
	denials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_auth_denials_total",
		Help: "Rejected admin requests by reason.",
	}, []string{"reason"})
	reg.MustRegister(mutations, denials)
	return &AdminMetrics{mutations: mutations, denials: denials}
}

// Mutation records the outcome of an admin write; err == nil counts as success.
func (a *AdminMetrics) Mutation(operation string, err error) {
	if a == nil || a.mutations == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	a.mutations.WithLabelValues(normalizeLabel(operation), outcome).Inc()
}

// Denied records a 401/403 from the admin gate.
func (a *AdminMetrics) Denied(reason string) {
	if a == nil || a.denials == nil {
		return
	}
	a.denials.WithLabelValues(normalizeLabel(reason)).Inc()
}
