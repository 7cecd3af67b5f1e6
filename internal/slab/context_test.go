package slab

import (
	"testing"
	"unsafe"
)

func mustContext(t *testing.T, blockSize, chunkSize uintptr) *Context {
	t.Helper()
	c, err := NewContext("test", blockSize, chunkSize)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return c
}

// Scenario 1: a single allocate/free round-trip leaves the context
// empty again.
func TestAllocateFreeRoundTrip(t *testing.T) {
	c := mustContext(t, 1024, 32)

	p := c.Allocate(32)
	if p == nil {
		t.Fatal("Allocate returned nil")
	}
	if c.IsEmpty() {
		t.Fatal("context should own a block after one allocation")
	}

	c.Free(p)

	if !c.IsEmpty() {
		t.Fatal("context should be empty after freeing its only chunk")
	}
	if c.MemAllocated() != 0 {
		t.Fatalf("memAllocated = %d, want 0", c.MemAllocated())
	}
}

// Scenario 2: filling a block exactly, then freeing everything, should
// reclaim the block (invariant 5).
func TestFullBlockReclaimed(t *testing.T) {
	c := mustContext(t, 512, 16)

	var ptrs []unsafe.Pointer
	for {
		p := c.Allocate(16)
		if p == nil {
			t.Fatal("unexpected allocation failure")
		}
		ptrs = append(ptrs, p)
		if c.NBlocks() > 1 {
			t.Fatal("allocated into a second block before first was full")
		}
		if c.MinFreeChunks() == 0 {
			break
		}
	}

	for _, p := range ptrs {
		c.Free(p)
	}

	if !c.IsEmpty() {
		t.Fatalf("expected 0 blocks after freeing all chunks, got %d", c.NBlocks())
	}
}

// Scenario 4: a mismatched allocation size panics with FatalError.
func TestAllocateWrongSizePanics(t *testing.T) {
	c := mustContext(t, 1024, 32)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic for mismatched chunk size")
		}
		fe, ok := r.(*FatalError)
		if !ok {
			t.Fatalf("expected *FatalError, got %T", r)
		}
		if fe.Kind != ErrUnexpectedAllocSize {
			t.Fatalf("Kind = %v, want ErrUnexpectedAllocSize", fe.Kind)
		}
	}()

	c.Allocate(64)
}

// Scenario 5: a geometry that can't fit even one chunk is rejected at
// construction time, never panics.
func TestNewContextRejectsImpossibleGeometry(t *testing.T) {
	_, err := NewContext("test", 8, 64)
	if err == nil {
		t.Fatal("expected an error for a block too small to hold one chunk")
	}
	fe, ok := err.(*FatalError)
	if !ok {
		t.Fatalf("expected *FatalError, got %T", err)
	}
	if fe.Kind != ErrGeometryInvalid {
		t.Fatalf("Kind = %v, want ErrGeometryInvalid", fe.Kind)
	}
}

// Scenario 6: Realloc is only a no-op pass-through for the same size;
// anything else panics.
func TestReallocSameSizePassthrough(t *testing.T) {
	c := mustContext(t, 1024, 32)
	p := c.Allocate(32)

	got := c.Realloc(p, 32)
	if got != p {
		t.Fatal("Realloc with the same size should return the same pointer")
	}
}

func TestReallocDifferentSizePanics(t *testing.T) {
	c := mustContext(t, 1024, 32)
	p := c.Allocate(32)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic for a resizing Realloc")
		}
		fe, ok := r.(*FatalError)
		if !ok {
			t.Fatalf("expected *FatalError, got %T", r)
		}
		if fe.Kind != ErrReallocUnsupported {
			t.Fatalf("Kind = %v, want ErrReallocUnsupported", fe.Kind)
		}
	}()

	c.Realloc(p, 64)
}

// P1: chunk sizes smaller than the free-list link width are still
// usable; the context silently raises them to 4 bytes internally.
func TestTinyChunkSizeRaisedToLinkWidth(t *testing.T) {
	c := mustContext(t, 256, 1)
	if c.ChunkSize() != 4 {
		t.Fatalf("ChunkSize() = %d, want 4", c.ChunkSize())
	}

	p := c.Allocate(4)
	if p == nil {
		t.Fatal("Allocate returned nil")
	}
	c.Free(p)
}

// P2/P4: every pointer returned by Allocate is distinct and maps back
// to the owning context via GetChunkContext.
func TestDistinctPointersMapBackToContext(t *testing.T) {
	c := mustContext(t, 2048, 24)

	seen := make(map[unsafe.Pointer]bool)
	var ptrs []unsafe.Pointer
	for i := 0; i < 8; i++ {
		p := c.Allocate(24)
		if p == nil {
			t.Fatal("unexpected allocation failure")
		}
		if seen[p] {
			t.Fatal("Allocate returned the same pointer twice")
		}
		seen[p] = true
		ptrs = append(ptrs, p)

		if got := GetChunkContext(p); got != c {
			t.Fatal("GetChunkContext did not recover the owning context")
		}
	}

	for _, p := range ptrs {
		c.Free(p)
	}
}

// Scenario 3: fullest-first ordering. With block A at two free chunks
// and block B at three, the next Allocate must draw from block A (the
// fullest non-full block), moving it to one free chunk, rather than
// touching block B.
func TestAllocateDrawsFromFullestBlock(t *testing.T) {
	c := mustContext(t, 512, 16)
	n := c.chunksPerBlock
	if n < 4 {
		t.Fatalf("chunksPerBlock = %d, want at least 4 for this scenario", n)
	}

	// Fill block A completely.
	var ptrsA []unsafe.Pointer
	for i := uint32(0); i < n; i++ {
		p := c.Allocate(16)
		if p == nil {
			t.Fatal("unexpected allocation failure filling block A")
		}
		ptrsA = append(ptrsA, p)
	}
	if c.MinFreeChunks() != 0 {
		t.Fatalf("MinFreeChunks() = %d, want 0 after filling block A", c.MinFreeChunks())
	}
	if c.NBlocks() != 1 {
		t.Fatalf("NBlocks() = %d, want 1", c.NBlocks())
	}

	// Allocate once more: block A is full, so this creates block B and
	// immediately draws one chunk from it (minFreeChunks == n-1).
	if p := c.Allocate(16); p == nil {
		t.Fatal("unexpected allocation failure creating block B")
	}
	if c.NBlocks() != 2 {
		t.Fatalf("NBlocks() = %d, want 2", c.NBlocks())
	}

	// Drain block B down to nfree==3, leaving block A untouched and
	// fully allocated.
	for c.MinFreeChunks() > 3 {
		if p := c.Allocate(16); p == nil {
			t.Fatal("unexpected allocation failure draining block B")
		}
	}
	if c.MinFreeChunks() != 3 {
		t.Fatalf("MinFreeChunks() = %d, want 3 (block B)", c.MinFreeChunks())
	}
	if c.NBlocks() != 2 {
		t.Fatalf("NBlocks() = %d, want 2 (draining block B should not create a third)", c.NBlocks())
	}

	// Free two chunks from block A, bringing it to nfree==2 while block
	// B still sits at nfree==3 — two blocks, two different non-empty
	// buckets, the precondition for fullest-first ordering.
	c.Free(ptrsA[0])
	c.Free(ptrsA[1])
	if c.MinFreeChunks() != 2 {
		t.Fatalf("MinFreeChunks() = %d, want 2 (block A, the fuller block)", c.MinFreeChunks())
	}
	if c.NBlocks() != 2 {
		t.Fatalf("NBlocks() = %d, want 2", c.NBlocks())
	}

	// The next Allocate must draw from block A (nfree 2->1), not block B.
	p := c.Allocate(16)
	if p == nil {
		t.Fatal("unexpected allocation failure")
	}
	if GetChunkContext(p) != c {
		t.Fatal("GetChunkContext did not recover the owning context")
	}
	if c.MinFreeChunks() != 1 {
		t.Fatalf("MinFreeChunks() = %d, want 1 after drawing from the fuller block", c.MinFreeChunks())
	}
	if c.NBlocks() != 2 {
		t.Fatalf("NBlocks() = %d, want 2 (no new block should have been created)", c.NBlocks())
	}
}

// P6: mem_allocated always equals nblocks * blockSize.
func TestMemAllocatedInvariant(t *testing.T) {
	c := mustContext(t, 256, 16)

	var ptrs []unsafe.Pointer
	for i := 0; i < 40; i++ {
		p := c.Allocate(16)
		if p == nil {
			break
		}
		ptrs = append(ptrs, p)
		if c.MemAllocated() != uint64(c.NBlocks())*uint64(256) {
			t.Fatalf("memAllocated invariant broken: %d blocks, %d allocated", c.NBlocks(), c.MemAllocated())
		}
	}

	for _, p := range ptrs {
		c.Free(p)
		if c.MemAllocated() != uint64(c.NBlocks())*uint64(256) {
			t.Fatalf("memAllocated invariant broken after free: %d blocks, %d allocated", c.NBlocks(), c.MemAllocated())
		}
	}
}
