// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics counts result cache activity on a private registry. A nil
// *CacheMetrics is valid and records nothing.
type CacheMetrics struct {
	registry *prometheus.Registry

	Hits          prometheus.Counter
	Misses        prometheus.Counter
	Expired       prometheus.Counter
	Writes        prometheus.Counter
	WriteFailures prometheus.Counter
	Entries       prometheus.Gauge
}

func NewCacheMetrics() *CacheMetrics {
	registry := prometheus.NewRegistry()

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "photoctl",
			Subsystem: "cache",
			Name:      name,
			Help:      help,
		})
	}

	m := &CacheMetrics{
		registry:      registry,
		Hits:          counter("hits_total", "Lookups answered from the cache."),
		Misses:        counter("misses_total", "Lookups with no live entry."),
		Expired:       counter("expired_total", "Entries dropped because they outlived the TTL."),
		Writes:        counter("durable_writes_total", "Full serializations written to the durable slot."),
		WriteFailures: counter("durable_write_failures_total", "Durable slot writes that failed."),
		Entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "photoctl",
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Entries currently held in memory.",
		}),
	}

	registry.MustRegister(m.Hits, m.Misses, m.Expired, m.Writes, m.WriteFailures, m.Entries)
	return m
}

// Registry exposes the registry for gathering.
func (m *CacheMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile dumps the current values in the node-exporter textfile
// collector format.
func (m *CacheMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *CacheMetrics) Hit() {
	if m != nil {
		m.Hits.Inc()
	}
}

func (m *CacheMetrics) Miss() {
	if m != nil {
		m.Misses.Inc()
	}
}

func (m *CacheMetrics) Expire(n int) {
	if m != nil && n > 0 {
		m.Expired.Add(float64(n))
	}
}

func (m *CacheMetrics) Write(err error) {
	if m == nil {
		return
	}
	m.Writes.Inc()
	if err != nil {
		m.WriteFailures.Inc()
	}
}

func (m *CacheMetrics) SetEntries(n int) {
	if m != nil {
		m.Entries.Set(float64(n))
	}
}
