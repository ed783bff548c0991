package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the platform's Prometheus collectors. A nil *Metrics is
// valid and records nothing, which keeps wiring optional in tests.
type Metrics struct {
	TenantsCreated     prometheus.Counter
	TenantsDeleted     prometheus.Counter
	ResolutionOutcomes *prometheus.CounterVec
	ResolutionDuration prometheus.Histogram
}

// New registers the collectors on the default registry.
func New() *Metrics {
	return &Metrics{
		TenantsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coreline_tenants_created_total",
			Help: "Total number of tenants created",
		}),
		TenantsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coreline_tenants_deleted_total",
			Help: "Total number of tenants deleted",
		}),
		ResolutionOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coreline_tenant_resolutions_total",
			Help: "Tenant resolution attempts by outcome",
		}, []string{"outcome"}),
		ResolutionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "coreline_tenant_resolution_duration_seconds",
			Help:    "Duration of tenant resolution including database open (request critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncTenantCreated() {
	if m == nil {
		return
	}
	m.TenantsCreated.Inc()
}

func (m *Metrics) IncTenantDeleted() {
	if m == nil {
		return
	}
	m.TenantsDeleted.Inc()
}

func (m *Metrics) ObserveResolution(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.ResolutionOutcomes.WithLabelValues(outcome).Inc()
	m.ResolutionDuration.Observe(time.Since(start).Seconds())
}
