package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors registered on the default registry, exposed via /metrics when
// enabled in config.
var (
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockd_mutations_total",
		Help: "Committed stock mutations by ledger kind.",
	}, []string{"kind"})

	MutationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockd_mutation_failures_total",
		Help: "Rejected stock mutations by reason.",
	}, []string{"reason"})

	AutoOrdersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockd_auto_orders_total",
		Help: "Auto-generated purchase orders created.",
	})

	SweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockd_sweep_runs_total",
		Help: "Reconciliation sweep executions.",
	})

	EventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockd_events_dropped_total",
		Help: "Notification events dropped because the dispatch queue was full.",
	})
)
