package slab

import (
	"fmt"
	"io"

	"github.com/zhnt/slabmem/internal/memctx"
)

// Snapshot is the result of walking every bucket once, the Go shape of
// spec.md §4.7's Stats algorithm and original_source/slab.c's
// SlabStats(): block count, total bytes (including the conceptual
// header), free bytes, and free-chunk count.
type Snapshot struct {
	Blocks     uint64
	TotalSpace uint64
	FreeSpace  uint64
	FreeChunks uint64
}

// UsedSpace is TotalSpace minus FreeSpace.
func (s Snapshot) UsedSpace() uint64 {
	return s.TotalSpace - s.FreeSpace
}

func (s Snapshot) line(name string) string {
	return fmt.Sprintf("%s: %d total in %d blocks; %d free (%d chunks); %d used",
		name, s.TotalSpace, s.Blocks, s.FreeSpace, s.FreeChunks, s.UsedSpace())
}

// Counters are cumulative, incrementally-maintained allocation
// statistics — spec.md's core Stats() is a point-in-time geometry walk
// (Snapshot above), but the ambient metrics/CLI surfaces also want
// running totals across the context's lifetime, the same shape as
// _examples/zhnt-aql/internal/gc/allocator_stats.go's SizeClassStats,
// scoped down to one size class.
type Counters struct {
	Allocations        uint64
	Deallocations      uint64
	BytesAllocated     uint64
	BytesFreed         uint64
	AllocationFailures uint64
}

// LiveObjects returns the number of chunks currently allocated and not
// yet freed, derived rather than separately tracked so it can never
// drift out of sync with Allocations/Deallocations.
func (c Counters) LiveObjects() uint64 {
	return c.Allocations - c.Deallocations
}

// Stats walks every bucket (spec.md §4.7) and either formats a single
// line into sink, folds into totals, or both. Either argument may be
// nil. toStderr has no effect beyond being threaded through to match
// the memctx.Operations.Stats signature (spec.md §6.1); this port has
// no separate elog(LOG)-vs-stderr distinction to make, so sink is
// always exactly what the caller supplied.
func (c *Context) Stats(sink io.Writer, totals *memctx.StatsTotals, toStderr bool) Snapshot {
	snap := Snapshot{TotalSpace: uint64(c.headerSize)}

	for k := uint32(0); k <= c.chunksPerBlock; k++ {
		for b := c.buckets[k].head; b != nil; b = b.next {
			snap.Blocks++
			snap.TotalSpace += uint64(c.blockSize)
			snap.FreeSpace += uint64(c.fullChunkSize) * uint64(b.nfree)
			snap.FreeChunks += uint64(b.nfree)
		}
	}

	if sink != nil {
		fmt.Fprintln(sink, snap.line(c.name))
	}
	if totals != nil {
		totals.Add(memctx.StatsTotals{
			Blocks:     snap.Blocks,
			FreeChunks: snap.FreeChunks,
			TotalSpace: snap.TotalSpace,
			FreeSpace:  snap.FreeSpace,
		})
	}

	return snap
}

// Report renders Counters and the current Snapshot as a short
// multi-line human-readable string, used by the CLI demo.
func (c *Context) Report() string {
	snap := c.Stats(nil, nil, false)
	return fmt.Sprintf(
		"%s\nallocations=%d deallocations=%d live=%d bytesAllocated=%d bytesFreed=%d failures=%d",
		snap.line(c.name),
		c.counters.Allocations, c.counters.Deallocations, c.counters.LiveObjects(),
		c.counters.BytesAllocated, c.counters.BytesFreed, c.counters.AllocationFailures,
	)
}
