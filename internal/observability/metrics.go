// Package observability exposes Prometheus metrics for the ledger.
package observability

import (
	"net/http"

	"carbon-ledger/internal/ledger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "carbon_ledger"

// EventsTotal counts committed lifecycle events by type.
var EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "events_total",
	Help:      "Total committed ledger events by type.",
}, []string{"type"})

// IssuedTons tracks tons of CO2e minted as credits.
var IssuedTons = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "issued_tons_total",
	Help:      "Total tons of CO2e issued as credits.",
})

// RetiredTons tracks tons consumed by retirement.
var RetiredTons = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "retired_tons_total",
	Help:      "Total tons of CO2e retired.",
})

// EmissionsTons tracks self-reported emissions.
var EmissionsTons = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "emissions_reported_tons_total",
	Help:      "Total tons of CO2e reported as emitted.",
})

// OutstandingTons is issued minus retired.
var OutstandingTons = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "outstanding_tons",
	Help:      "Tons of CO2e held in active credits.",
})

// Organizations is the number of registered organizations.
var Organizations = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "organizations",
	Help:      "Number of registered organizations.",
})

// JournalFailures counts commits rejected by the journal.
var JournalFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "journal",
	Name:      "failures_total",
	Help:      "Total journal commits that failed and aborted a mutation.",
})

// NotifyFailures counts events a sink failed to deliver.
var NotifyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "notify",
	Name:      "failures_total",
	Help:      "Total event deliveries that failed, by sink.",
}, []string{"sink"})

// LedgerMetrics is a ledger.Notifier that keeps the ledger metrics current.
type LedgerMetrics struct{}

func (LedgerMetrics) Notify(e ledger.Event) {
	EventsTotal.WithLabelValues(string(e.Type)).Inc()
	switch e.Type {
	case ledger.EventOrganizationRegistered:
		Organizations.Inc()
	case ledger.EventCarbonCreditIssued:
		IssuedTons.Add(float64(e.Amount))
		OutstandingTons.Add(float64(e.Amount))
	case ledger.EventCarbonCreditRetired:
		RetiredTons.Add(float64(e.Amount))
		OutstandingTons.Sub(float64(e.Amount))
	case ledger.EventEmissionsReported:
		EmissionsTons.Add(float64(e.Amount))
	}
}

// Seed sets the gauges from restored state.
func Seed(stats ledger.Stats, organizations int) {
	OutstandingTons.Set(float64(stats.Outstanding))
	Organizations.Set(float64(organizations))
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
