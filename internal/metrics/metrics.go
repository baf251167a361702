// Package metrics exposes simulator activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "netsim"

// Collector is a prometheus.Collector for simulator activity. A nil
// *Collector is valid and records nothing.
type Collector struct {
	devices         prometheus.Gauge
	cables          prometheus.Gauge
	cliCommands     *prometheus.CounterVec
	pings           *prometheus.CounterVec
	historyOps      *prometheus.CounterVec
	connectFailures *prometheus.CounterVec
	consoleSessions prometheus.Gauge
}

// NewCollector returns a new Collector.
func NewCollector() *Collector {
	return &Collector{
		devices: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "devices",
				Help:      "The number of devices in the topology.",
			},
		),
		cables: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "cables",
				Help:      "The number of cables in the topology.",
			},
		),
		cliCommands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "cli_commands_total",
				Help:      "The number of CLI lines submitted.",
			}, []string{"device_kind"},
		),
		pings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "pings_total",
				Help:      "The number of pings run, by outcome.",
			}, []string{"outcome"},
		),
		historyOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "history_operations_total",
				Help:      "The number of undo and redo operations applied.",
			}, []string{"op"},
		),
		connectFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "connect_failures_total",
				Help:      "The number of rejected connect requests, by reason.",
			}, []string{"reason"},
		),
		consoleSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "console_sessions",
				Help:      "The number of open SSH console sessions.",
			},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.devices.Describe(ch)
	c.cables.Describe(ch)
	c.cliCommands.Describe(ch)
	c.pings.Describe(ch)
	c.historyOps.Describe(ch)
	c.connectFailures.Describe(ch)
	c.consoleSessions.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.devices.Collect(ch)
	c.cables.Collect(ch)
	c.cliCommands.Collect(ch)
	c.pings.Collect(ch)
	c.historyOps.Collect(ch)
	c.connectFailures.Collect(ch)
	c.consoleSessions.Collect(ch)
}

// SetTopologySize records the current device and cable counts
func (c *Collector) SetTopologySize(devices, cables int) {
	if c == nil {
		return
	}
	c.devices.Set(float64(devices))
	c.cables.Set(float64(cables))
}

// CLICommand counts one submitted CLI line
func (c *Collector) CLICommand(kind string) {
	if c == nil {
		return
	}
	c.cliCommands.WithLabelValues(kind).Inc()
}

// Ping counts one ping by outcome
func (c *Collector) Ping(outcome string) {
	if c == nil {
		return
	}
	c.pings.WithLabelValues(outcome).Inc()
}

// HistoryOp counts one applied undo or redo
func (c *Collector) HistoryOp(op string) {
	if c == nil {
		return
	}
	c.historyOps.WithLabelValues(op).Inc()
}

// ConnectFailure counts one rejected connect request
func (c *Collector) ConnectFailure(reason string) {
	if c == nil {
		return
	}
	c.connectFailures.WithLabelValues(reason).Inc()
}

// SessionOpened increments the live console session gauge
func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.consoleSessions.Inc()
}

// SessionClosed decrements the live console session gauge
func (c *Collector) SessionClosed() {
	if c == nil {
		return
	}
	c.consoleSessions.Dec()
}
