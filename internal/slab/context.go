// Package slab implements a fixed-size-chunk slab allocator: a memory
// pool that hands out and reclaims objects all of the same byte size,
// backed by larger blocks carved into equal chunks. See SPEC_FULL.md
// and original_source/slab.c (PostgreSQL's SlabContext, which this
// package ports) for the full design rationale.
//
// A Context is single-owner and does no internal locking — callers
// sharing one across goroutines must synchronize externally.
package slab

import (
	"unsafe"

	"github.com/rs/zerolog"
	"github.com/zhnt/slabmem/internal/memctx"
)

// Context is a slab memory context: one allocator for one fixed chunk
// size, per spec.md §3.1.
type Context struct {
	name string

	chunkSize      uintptr // raised to at least 4, so the free-list link fits
	fullChunkSize  uintptr // header + max-aligned payload
	blockSize      uintptr
	headerSize     uintptr // conceptual context-header size, for Stats accounting
	chunksPerBlock uint32
	minFreeChunks  uint32 // 0 means no block currently has a free chunk
	nblocks        uint32
	memAllocated   uint64

	buckets []bucketList // index 0..chunksPerBlock

	hooks    DebugHooks
	logger   zerolog.Logger
	registry *memctx.Registry
	parent   memctx.Context
	counters Counters
}

// Option configures a Context at creation time.
type Option func(*Context)

// WithDebugHooks overrides the default hook set (see debughooks.go).
func WithDebugHooks(h DebugHooks) Option {
	return func(c *Context) { c.hooks = h }
}

// WithLogger sets the zerolog.Logger used for IntegrityWarning and
// WritePastChunkEnd (spec.md §7). The zero zerolog.Logger value
// discards everything, so a Context is safe to use without this.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Context) { c.logger = l }
}

// WithRegistry links the new context into registry under parent,
// mirroring original_source/slab.c's call into MemoryContextCreate.
// Either argument may be nil.
func WithRegistry(registry *memctx.Registry, parent memctx.Context) Option {
	return func(c *Context) {
		c.registry = registry
		c.parent = parent
	}
}

// NewContext creates a slab context for chunks of chunkSize bytes,
// backed by blocks of blockSize bytes (spec.md §4.1). It returns a
// *FatalError, never panics, matching "raised before any mutation".
func NewContext(name string, blockSize, chunkSize uintptr, opts ...Option) (*Context, error) {
	if chunkSize < 4 {
		chunkSize = 4
	}
	fullChunkSize := chunkHeaderSize + alignUp(chunkSize)

	if blockSize < blockHeaderSize+fullChunkSize {
		return nil, fatalGeometry(blockSize, chunkSize)
	}
	chunksPerBlock := uint32((blockSize - blockHeaderSize) / fullChunkSize)

	c := &Context{
		name:           name,
		chunkSize:      chunkSize,
		fullChunkSize:  fullChunkSize,
		blockSize:      blockSize,
		headerSize:     blockHeaderSize + uintptr(chunksPerBlock+1)*unsafe.Sizeof(bucketList{}),
		chunksPerBlock: chunksPerBlock,
		minFreeChunks:  0,
		nblocks:        0,
		buckets:        make([]bucketList, chunksPerBlock+1),
		hooks:          defaultDebugHooks(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.registry != nil {
		c.registry.Register(c.parent, c)
	}

	return c, nil
}

// Name implements memctx.Context.
func (c *Context) Name() string { return c.name }

// Kind implements memctx.Context.
func (c *Context) Kind() memctx.Kind { return memctx.KindSlab }

// ChunkSize returns the effective (possibly raised-to-4) chunk size.
func (c *Context) ChunkSize() uintptr { return c.chunkSize }

// FullChunkSize returns the true per-slot stride, header plus padding.
func (c *Context) FullChunkSize() uintptr { return c.fullChunkSize }

// Allocate returns a chunk of exactly size bytes, or nil if the system
// allocator could not supply a new block (spec.md §4.2, §7
// BlockAllocFailed — the only non-fatal failure path). A mismatched
// size panics with *FatalError{Kind: ErrUnexpectedAllocSize}.
func (c *Context) Allocate(size uintptr) unsafe.Pointer {
	if size != c.chunkSize {
		panic(fatalUnexpectedSize(size, c.chunkSize))
	}

	if c.minFreeChunks == 0 {
		b, ok := c.allocateBlock()
		if !ok {
			c.counters.AllocationFailures++
			return nil
		}
		c.buckets[c.chunksPerBlock].pushFront(b)
		c.minFreeChunks = c.chunksPerBlock
		c.nblocks++
		c.memAllocated += uint64(c.blockSize)
	}

	b := c.buckets[c.minFreeChunks].head
	idx := b.popFree()

	c.buckets[c.minFreeChunks].remove(b)
	c.buckets[b.nfree].pushFront(b)
	c.minFreeChunks = uint32(b.nfree)

	if c.minFreeChunks == 0 {
		c.minFreeChunks = c.rescanMinFree()
	}

	chunk := b.chunkAt(c, idx)
	hdr := (*chunkHeader)(chunk)
	if c.hooks.MarkDefined != nil {
		c.hooks.MarkDefined(chunk, chunkHeaderSize)
	}
	hdr.set(b, uint32(alignUp(size)), memctx.KindSlab)

	payload := hdr.pointer()
	if c.hooks.MarkUndefined != nil {
		c.hooks.MarkUndefined(payload, size)
	}

	slack := c.fullChunkSize - chunkHeaderSize - size
	if slack > 0 {
		if c.hooks.SetSentinel != nil {
			c.hooks.SetSentinel(payload, size)
		}
		if c.hooks.MarkNoAccess != nil {
			c.hooks.MarkNoAccess(unsafe.Pointer(uintptr(payload)+size), slack)
		}
	}

	c.counters.Allocations++
	c.counters.BytesAllocated += uint64(size)

	return payload
}

// allocateBlock requests a new block from the system allocator,
// reporting failure as (nil, false) rather than panicking: a panic
// raised while building the block (for example make rejecting an
// impossible length) is recovered and turned into the non-fatal
// BlockAllocFailed result spec.md §5/§7 describe. True memory
// exhaustion is a fatal runtime error in Go that recover cannot catch,
// so that case ends the process instead of returning (nil, false).
func (c *Context) allocateBlock() (b *block, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b, ok = nil, false
		}
	}()
	return newBlock(c), true
}

// rescanMinFree implements spec.md §4.2 step 5: scan buckets upward
// from 1 for the first non-empty one. The final guard against landing
// on chunksPerBlock is defense in depth per spec.md §9's Open Question
// — invariant 5 (no fully-empty block survives) means it should be
// unreachable except when no blocks exist, but the guard is kept
// exactly as original_source/slab.c keeps it, without inferring a
// deeper design intent from it.
func (c *Context) rescanMinFree() uint32 {
	for idx := uint32(1); idx <= c.chunksPerBlock; idx++ {
		if !c.buckets[idx].empty() {
			if idx == c.chunksPerBlock {
				return 0
			}
			return idx
		}
	}
	return 0
}

// Free returns a chunk previously obtained from Allocate to the
// context, per spec.md §4.3.
func (c *Context) Free(ptr unsafe.Pointer) {
	hdr := headerFromPointer(ptr)
	b := hdr.block

	// Sentinel and wipe extents are derived from the context's own
	// chunkSize, not the per-chunk header field: every live chunk in a
	// slab shares the same configured size, exactly like
	// original_source/slab.c's SlabFree uses slab->chunkSize rather
	// than anything stored on the chunk.
	if c.hooks.CheckSentinel != nil && c.chunkSize < c.fullChunkSize-chunkHeaderSize {
		if !c.hooks.CheckSentinel(ptr, c.chunkSize) {
			c.logger.Warn().
				Str("context", c.name).
				Msg("detected write past chunk end")
		}
	}

	idx := b.chunkIndex(c, hdr)

	if c.hooks.WipeMemory != nil {
		c.hooks.WipeMemory(ptr, c.chunkSize)
	}

	b.pushFree(idx)

	c.buckets[b.nfree-1].remove(b)

	if c.minFreeChunks == uint32(b.nfree-1) && c.buckets[c.minFreeChunks].empty() {
		if uint32(b.nfree) == c.chunksPerBlock {
			c.minFreeChunks = 0
		} else {
			c.minFreeChunks++
		}
	} else if uint32(b.nfree) != c.chunksPerBlock && (c.minFreeChunks == 0 || uint32(b.nfree) < c.minFreeChunks) {
		// original_source/slab.c only resyncs minFreeChunks when the
		// vacated bucket was the tracked one. That misses a block freed
		// from bucket 0 (never the tracked minimum) landing below the
		// current minimum, or landing in bucket 1 while other full blocks
		// keep the cursor at 0. spec.md P5 requires the cursor to always
		// equal the true smallest non-empty bucket, so catch that case
		// directly instead of waiting for the next full-drain rescan.
		c.minFreeChunks = uint32(b.nfree)
	}

	if uint32(b.nfree) == c.chunksPerBlock {
		c.nblocks--
		c.memAllocated -= uint64(c.blockSize)
		// Drop every reference so the backing array becomes
		// collectible — the Go-runtime equivalent of returning the
		// block to the system allocator (spec.md §4.3 step 7).
		b.raw = nil
		b.ctx = nil
	} else {
		c.buckets[b.nfree].pushFront(b)
	}

	c.counters.Deallocations++
	c.counters.BytesFreed += uint64(hdr.size)
}

// Reset frees every block (spec.md §4.4). It does not free the context
// itself — there is no separate header allocation to release in this
// port, since Context is an ordinary Go value; Delete exists anyway to
// keep the vtable shape (§4.5) and to unregister from memctx.
func (c *Context) Reset() {
	for k := uint32(0); k <= c.chunksPerBlock; k++ {
		for b := c.buckets[k].head; b != nil; {
			next := b.next
			b.raw = nil
			b.ctx = nil
			b.prev, b.next = nil, nil
			b = next
		}
		c.buckets[k].head = nil
	}
	c.minFreeChunks = 0
	c.nblocks = 0
	c.memAllocated = 0
}

// Delete resets the context and unregisters it from memctx (spec.md
// §4.5).
func (c *Context) Delete() {
	c.Reset()
	if c.registry != nil {
		c.registry.Unregister(c)
	}
}

// Realloc is a pass-through only: same size returns the same pointer,
// any other size panics with *FatalError{Kind: ErrReallocUnsupported}
// (spec.md §4.6).
func (c *Context) Realloc(ptr unsafe.Pointer, size uintptr) unsafe.Pointer {
	if size == c.chunkSize {
		return ptr
	}
	panic(fatalReallocUnsupported(size, c.chunkSize))
}

// GetChunkContext recovers the owning Context from a live chunk
// pointer (spec.md §4.7).
func GetChunkContext(ptr unsafe.Pointer) *Context {
	return headerFromPointer(ptr).block.ctx
}

// GetChunkSpace returns the true per-chunk space cost, including header
// and alignment padding (spec.md §4.7).
func (c *Context) GetChunkSpace(unsafe.Pointer) uintptr {
	return c.fullChunkSize
}

// IsEmpty reports whether the context currently owns zero blocks
// (spec.md §4.7).
func (c *Context) IsEmpty() bool {
	return c.nblocks == 0
}

// NBlocks returns the number of blocks currently owned by the context.
func (c *Context) NBlocks() uint32 { return c.nblocks }

// MemAllocated returns mem_allocated, spec.md invariant 4
// (== nblocks * blockSize, always).
func (c *Context) MemAllocated() uint64 { return c.memAllocated }

// MinFreeChunks exposes the cached cursor for tests (spec.md P5).
func (c *Context) MinFreeChunks() uint32 { return c.minFreeChunks }

// HeaderSize returns the conceptual context-header size Stats folds
// into TotalSpace (spec.md §4.7: "header_size + nblocks * block_size").
func (c *Context) HeaderSize() uint64 { return uint64(c.headerSize) }

// Counters returns a copy of the cumulative allocation counters.
func (c *Context) Counters() Counters { return c.counters }
