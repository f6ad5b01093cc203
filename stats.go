// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package egdb

import (
	"bytes"
	"strconv"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"

	"github.com/eygilbert/egdb-go/cache"
)

func itoa(v int64) string   { return strconv.FormatInt(v, 10) }
func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

// lookupLatencyHistogram tracks microsecond lookup latencies from 1us to
// 10s, matching the dynamic range a positioned read plus decode can fall
// into (a resident hit is sub-microsecond; a cold autoload read under I/O
// contention can stretch into seconds). Three significant figures is the
// precision hdrhistogram-go's own examples use for latency histograms and
// is more than enough resolution for p50/p99/p999 reporting.
func newLookupLatencyHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(1, 10_000_000, 3)
}

// Stats is a point-in-time snapshot of a Driver's counters: the cache
// counters spec.md §6 names (db_requests, lru_hits, …) plus the
// lookup-latency percentiles SPEC_FULL.md's domain stack adds on top.
type Stats struct {
	cache.Stats
	LatencyP50Micros  int64
	LatencyP99Micros  int64
	LatencyP999Micros int64
}

// statsTracker owns the mutable state GetStats/ResetStats/StatsReport read:
// the cache already keeps its own counters under its own lock, so this only
// needs to guard the latency histogram and the hit-rate history StatsReport
// plots.
type statsTracker struct {
	mu             sync.Mutex
	hist           *hdrhistogram.Histogram
	hitRateHistory []float64
}

func newStatsTracker() *statsTracker {
	return &statsTracker{hist: newLookupLatencyHistogram()}
}

// pushHitRate appends a StatsReport sample to the rolling history, keeping
// at most 120 points (about the width of a terminal-sized sparkline).
func (t *statsTracker) pushHitRate(pct float64) []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hitRateHistory = append(t.hitRateHistory, pct)
	if len(t.hitRateHistory) > 120 {
		t.hitRateHistory = t.hitRateHistory[len(t.hitRateHistory)-120:]
	}
	out := make([]float64, len(t.hitRateHistory))
	copy(out, t.hitRateHistory)
	return out
}

func (t *statsTracker) record(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.hist.RecordValue(d.Microseconds())
}

func (t *statsTracker) snapshot() (p50, p99, p999 int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hist.ValueAtQuantile(50), t.hist.ValueAtQuantile(99), t.hist.ValueAtQuantile(99.9)
}

func (t *statsTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hist.Reset()
}

// GetStats returns a snapshot of this Driver's counters (spec.md §6
// "egdb_get_stats").
func (d *Driver) GetStats() Stats {
	p50, p99, p999 := d.stats.snapshot()
	return Stats{
		Stats:             d.cache.Stats(),
		LatencyP50Micros:  p50,
		LatencyP99Micros:  p99,
		LatencyP999Micros: p999,
	}
}

// ResetStats zeroes the lookup-latency histogram (spec.md §6
// "egdb_reset_stats"). The cache's own hit/miss/eviction counters are
// cumulative for the lifetime of the driver, matching the teacher's own
// metrics style of never resetting a Prometheus counter mid-process; only
// the latency distribution, which is meaningful as a rolling window, resets.
func (d *Driver) ResetStats() {
	d.stats.reset()
}

// StatsReport renders GetStats() as a human-readable table plus a
// cache-hit-rate sparkline, for a caller to hand to its own logger (spec.md
// §7's log_fn is the only sink this driver writes to; StatsReport produces a
// string, not output).
func (d *Driver) StatsReport() string {
	s := d.GetStats()
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"metric", "value"})
	hitRate := 0.0
	if s.Requests > 0 {
		hitRate = float64(s.LRUHits) / float64(s.Requests) * 100
	}
	table.Append([]string{"requests", itoa(s.Requests)})
	table.Append([]string{"lru_hits", itoa(s.LRUHits)})
	table.Append([]string{"hit_rate_pct", ftoa(hitRate)})
	table.Append([]string{"loads", itoa(s.Loads)})
	table.Append([]string{"evictions", itoa(s.Evictions)})
	table.Append([]string{"latency_p50_us", itoa(s.LatencyP50Micros)})
	table.Append([]string{"latency_p99_us", itoa(s.LatencyP99Micros)})
	table.Append([]string{"latency_p999_us", itoa(s.LatencyP999Micros)})
	table.Render()

	history := d.stats.pushHitRate(hitRate)
	if len(history) > 1 {
		buf.WriteString("\n")
		buf.WriteString(asciigraph.Plot(history,
			asciigraph.Height(8),
			asciigraph.Caption("cache hit rate % (recent StatsReport calls)")))
		buf.WriteString("\n")
	}
	return buf.String()
}
