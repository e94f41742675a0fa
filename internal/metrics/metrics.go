package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector tracks routing and retry decision counters. It is optional
// everywhere it is consumed; decision results never depend on it.
type Collector struct {
	routeMatched   *prometheus.CounterVec
	routeMissed    prometheus.Counter
	redirects      prometheus.Counter
	retryDecisions *prometheus.CounterVec
}

// NewCollector creates a collector and registers its metrics.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		routeMatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "router_route_matched_total",
			Help: "Requests matched to a forwarding route, by virtual host and virtual cluster.",
		}, []string{"virtual_host", "virtual_cluster"}),
		routeMissed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "router_route_missed_total",
			Help: "Requests that matched no virtual host or no route.",
		}),
		redirects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "router_redirect_total",
			Help: "Requests answered with a redirect route.",
		}),
		retryDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "router_retry_decisions_total",
			Help: "Retry decisions by outcome (yes, no, no_overflow).",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(c.routeMatched, c.routeMissed, c.redirects, c.retryDecisions)
	}
	return c
}

// RecordMatch records a request matched to a forwarding route.
func (c *Collector) RecordMatch(virtualHost, virtualCluster string) {
	if c == nil {
		return
	}
	c.routeMatched.WithLabelValues(virtualHost, virtualCluster).Inc()
}

// RecordMiss records a request that could not be routed.
func (c *Collector) RecordMiss() {
	if c == nil {
		return
	}
	c.routeMissed.Inc()
}

// RecordRedirect records a request answered with a redirect.
func (c *Collector) RecordRedirect() {
	if c == nil {
		return
	}
	c.redirects.Inc()
}

// RecordRetryDecision records one retry decision outcome.
func (c *Collector) RecordRetryDecision(outcome string) {
	if c == nil {
		return
	}
	c.retryDecisions.WithLabelValues(outcome).Inc()
}
