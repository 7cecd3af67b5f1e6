// Package metrics exposes a slab.Context's point-in-time statistics as
// Prometheus gauges. gcsfuse pulls in github.com/prometheus/client_golang
// transitively through its OpenTelemetry Prometheus exporter; this
// package uses it directly, the more common shape for a library that
// wants to be scraped without also carrying an OTel pipeline.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zhnt/slabmem/internal/memctx"
	"github.com/zhnt/slabmem/internal/slab"
)

// Source is the subset of *slab.Context the collector depends on, kept
// narrow so callers can wrap a test double without depending on the
// concrete slab.Context type.
type Source interface {
	Stats(sink io.Writer, totals *memctx.StatsTotals, toStderr bool) slab.Snapshot
	Counters() slab.Counters
}

// Collector implements prometheus.Collector over one named Source,
// polling its Stats() on every scrape rather than caching — spec.md's
// Stats walk is O(blocks), cheap enough to run per-scrape, and this
// avoids a second goroutine pushing into Go gauge vars.
type Collector struct {
	name string
	ctx  Source

	blocks     *prometheus.Desc
	bytesTotal *prometheus.Desc
	bytesFree  *prometheus.Desc
	chunksFree *prometheus.Desc
	liveObjs   *prometheus.Desc
	failures   *prometheus.Desc
}

// NewCollector builds a Collector for ctx, labeled name in every
// exported metric.
func NewCollector(name string, ctx Source) *Collector {
	constLabels := prometheus.Labels{"context": name}
	return &Collector{
		name: name,
		ctx:  ctx,
		blocks: prometheus.NewDesc(
			"slab_blocks_total", "Number of blocks currently owned by the context.",
			nil, constLabels),
		bytesTotal: prometheus.NewDesc(
			"slab_bytes_allocated", "Total bytes obtained from the system allocator.",
			nil, constLabels),
		bytesFree: prometheus.NewDesc(
			"slab_bytes_free", "Bytes currently free across all blocks.",
			nil, constLabels),
		chunksFree: prometheus.NewDesc(
			"slab_free_chunks", "Number of free chunk slots across all blocks.",
			nil, constLabels),
		liveObjs: prometheus.NewDesc(
			"slab_live_objects", "Number of chunks currently allocated and not yet freed.",
			nil, constLabels),
		failures: prometheus.NewDesc(
			"slab_allocation_failures_total", "Allocations that failed because the system allocator refused a new block.",
			nil, constLabels),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.blocks
	ch <- c.bytesTotal
	ch <- c.bytesFree
	ch <- c.chunksFree
	ch <- c.liveObjs
	ch <- c.failures
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.ctx.Stats(nil, nil, false)
	counters := c.ctx.Counters()

	ch <- prometheus.MustNewConstMetric(c.blocks, prometheus.GaugeValue, float64(snap.Blocks))
	ch <- prometheus.MustNewConstMetric(c.bytesTotal, prometheus.GaugeValue, float64(snap.TotalSpace))
	ch <- prometheus.MustNewConstMetric(c.bytesFree, prometheus.GaugeValue, float64(snap.FreeSpace))
	ch <- prometheus.MustNewConstMetric(c.chunksFree, prometheus.GaugeValue, float64(snap.FreeChunks))
	ch <- prometheus.MustNewConstMetric(c.liveObjs, prometheus.GaugeValue, float64(counters.LiveObjects()))
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.GaugeValue, float64(counters.AllocationFailures))
}
