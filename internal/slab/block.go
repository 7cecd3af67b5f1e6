package slab

import "unsafe"

// blockHeaderLayout exists purely to size blockHeaderSize — the number
// of bytes spec.md's block-layout table (§3.1) reserves at offset 0 of
// every block for the intrusive list node, free count, first-free
// index, and context back-pointer. Go cannot place a struct containing
// pointers and slices inside a raw byte buffer and keep it GC-safe, so
// the real per-block bookkeeping lives in the ordinary heap-allocated
// *block below; blockHeaderSize only has to match the byte accounting
// spec.md's invariant 4 (mem_allocated == nblocks * block_size) and the
// chunks_per_block formula expect.
type blockHeaderLayout struct {
	node      [2]uintptr
	nfree     int32
	firstFree uint32
	ctx       uintptr
}

const blockHeaderSize = uintptr(unsafe.Sizeof(blockHeaderLayout{}))

// block is one contiguous region "obtained from the system allocator"
// (spec.md §3.1). In this Go port the system allocator is simply Go's
// own runtime allocator: raw is a make([]byte, ...) slice, and eager
// reclaim (spec.md §4.3 step 7) means dropping the last reference to
// it so the garbage collector reclaims the memory, rather than an
// explicit free() call — there is no free-standing heap to hand bytes
// back to outside of Go's own runtime.
type block struct {
	prev, next *block // intrusive doubly-linked bucket membership
	nfree      int32
	firstFree  uint32 // index of first free chunk, or chunksPerBlock: end of list
	ctx        *Context

	raw  []byte         // backing allocation, length >= blockSize
	base unsafe.Pointer // max-aligned address of chunk slot 0 within raw
}

// newBlock allocates a fresh block sized for chunksPerBlock chunks of
// fullChunkSize bytes each, with every chunk initially free and threaded
// into the in-place free list (spec.md §4.2 step 1).
func newBlock(ctx *Context) *block {
	// Slack of maxAlign covers the worst case of raw's backing array
	// starting at an address that isn't already max-aligned.
	raw := make([]byte, int(ctx.blockSize+maxAlign))

	base := alignUp(uintptr(unsafe.Pointer(&raw[0])) + blockHeaderSize)

	b := &block{
		ctx:       ctx,
		raw:       raw,
		base:      unsafe.Pointer(base),
		nfree:     int32(ctx.chunksPerBlock),
		firstFree: 0,
	}

	for idx := uint32(0); idx < ctx.chunksPerBlock; idx++ {
		b.setFreeLink(idx, idx+1)
	}

	return b
}

// chunkAt returns the address of chunk slot idx within the block.
func (b *block) chunkAt(ctx *Context, idx uint32) unsafe.Pointer {
	return unsafe.Pointer(uintptr(b.base) + uintptr(idx)*ctx.fullChunkSize)
}

// freeLinkAt returns a pointer to the 4-byte free-list link stored in
// the (currently unused) payload of chunk idx, immediately after its
// ChunkHeader — spec.md §3.1's "unused chunk payloads are repurposed to
// hold an integer index".
func (b *block) freeLinkAt(ctx *Context, idx uint32) *uint32 {
	addr := uintptr(b.chunkAt(ctx, idx)) + chunkHeaderSize
	return (*uint32)(unsafe.Pointer(addr))
}

func (b *block) setFreeLink(idx, next uint32) {
	*b.freeLinkAt(b.ctx, idx) = next
}

func (b *block) getFreeLink(idx uint32) uint32 {
	return *b.freeLinkAt(b.ctx, idx)
}

// popFree removes and returns the index at the head of the in-place
// free list, per spec.md §4.2 steps 2–3.
func (b *block) popFree() uint32 {
	idx := b.firstFree
	b.firstFree = b.getFreeLink(idx)
	b.nfree--
	return idx
}

// pushFree returns idx to the head of the in-place free list, per
// spec.md §4.3 step 4.
func (b *block) pushFree(idx uint32) {
	b.setFreeLink(idx, b.firstFree)
	b.firstFree = idx
	b.nfree++
}

// chunkIndex recovers the slot index of a chunk header within this block,
// the inverse of chunkAt, used by Free (spec.md §4.3 step 3).
func (b *block) chunkIndex(ctx *Context, h *chunkHeader) uint32 {
	offset := uintptr(unsafe.Pointer(h)) - uintptr(b.base)
	return uint32(offset / ctx.fullChunkSize)
}
