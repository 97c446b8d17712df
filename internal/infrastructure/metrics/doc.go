// Package metrics publishes taskflow's counters and gauges through expvar
// and renders them in the Prometheus text exposition format for the
// server's /metrics endpoint.
package metrics
