// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package egdb

import "github.com/prometheus/client_golang/prometheus"

// metricsCollector adapts Driver.GetStats into a prometheus.Collector
// (SPEC_FULL.md's domain stack: "purely additive over GetStats(), never
// required to use the driver"). It is a thin const-metric exporter, not a
// registered global: callers Register() it on whatever registry they use.
type metricsCollector struct {
	d *Driver

	requestsDesc      *prometheus.Desc
	lruHitsDesc       *prometheus.Desc
	loadsDesc         *prometheus.Desc
	evictionsDesc     *prometheus.Desc
	autoloadBytesDesc *prometheus.Desc
}

// MetricsCollector returns a prometheus.Collector exposing egdb_requests_total,
// egdb_lru_hits_total, egdb_loads_total, egdb_evictions_total, and
// egdb_autoload_bytes as process metrics.
func (d *Driver) MetricsCollector() prometheus.Collector {
	return &metricsCollector{
		d: d,
		requestsDesc: prometheus.NewDesc(
			"egdb_requests_total", "Total lookups that reached the block cache.", nil, nil),
		lruHitsDesc: prometheus.NewDesc(
			"egdb_lru_hits_total", "Lookups satisfied by an already-resident cache block.", nil, nil),
		loadsDesc: prometheus.NewDesc(
			"egdb_loads_total", "Cache blocks read from disk.", nil, nil),
		evictionsDesc: prometheus.NewDesc(
			"egdb_evictions_total", "Cache blocks evicted to make room for a load.", nil, nil),
		autoloadBytesDesc: prometheus.NewDesc(
			"egdb_autoload_bytes", "Bytes held in autoloaded (never-evicted) file buffers.", nil, nil),
	}
}

func (c *metricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.requestsDesc
	ch <- c.lruHitsDesc
	ch <- c.loadsDesc
	ch <- c.evictionsDesc
	ch <- c.autoloadBytesDesc
}

func (c *metricsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.d.GetStats()
	ch <- prometheus.MustNewConstMetric(c.requestsDesc, prometheus.CounterValue, float64(s.Requests))
	ch <- prometheus.MustNewConstMetric(c.lruHitsDesc, prometheus.CounterValue, float64(s.LRUHits))
	ch <- prometheus.MustNewConstMetric(c.loadsDesc, prometheus.CounterValue, float64(s.Loads))
	ch <- prometheus.MustNewConstMetric(c.evictionsDesc, prometheus.CounterValue, float64(s.Evictions))
	ch <- prometheus.MustNewConstMetric(c.autoloadBytesDesc, prometheus.GaugeValue, float64(c.d.autoloadBytes()))
}
