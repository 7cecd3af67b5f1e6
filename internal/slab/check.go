//go:build slabdebug

package slab

// Check walks every bucket and block, verifying the invariants
// original_source/slab.c's SlabCheck() asserts under
// MEMORY_CONTEXT_CHECKING: each block sits in the bucket matching its
// own nfree, its free list has exactly nfree links and they all land on
// distinct, in-range indices, every non-free slot's header points back
// at the block that owns it, and the context-wide nblocks/memAllocated
// bookkeeping agrees with what was actually walked. Violations are
// logged, never fatal — this is a diagnostic, not a repair.
func (c *Context) Check() {
	var walkedBlocks uint32
	var walkedBytes uint64

	for k := uint32(0); k <= c.chunksPerBlock; k++ {
		for b := c.buckets[k].head; b != nil; b = b.next {
			walkedBlocks++
			walkedBytes += uint64(c.blockSize)

			if uint32(b.nfree) != k {
				c.logger.Warn().
					Str("context", c.name).
					Uint32("bucket", k).
					Int32("nfree", b.nfree).
					Msg("block nfree does not match its bucket")
			}

			if b.ctx != c {
				c.logger.Warn().
					Str("context", c.name).
					Msg("block context back-pointer mismatch")
			}

			free := make([]bool, c.chunksPerBlock)
			var seen int32
			idx := b.firstFree
			for ; seen < b.nfree; seen++ {
				if idx >= c.chunksPerBlock {
					c.logger.Warn().
						Str("context", c.name).
						Uint32("index", idx).
						Msg("free list index out of range")
					break
				}
				if free[idx] {
					c.logger.Warn().
						Str("context", c.name).
						Uint32("index", idx).
						Msg("free list visits the same chunk twice")
					break
				}
				free[idx] = true
				idx = b.getFreeLink(idx)
			}
			if seen == b.nfree && idx != c.chunksPerBlock {
				c.logger.Warn().
					Str("context", c.name).
					Uint32("index", idx).
					Msg("free list does not end after nfree entries")
			}

			var freeCount int32
			for _, f := range free {
				if f {
					freeCount++
				}
			}
			if freeCount != b.nfree {
				c.logger.Warn().
					Str("context", c.name).
					Int32("want", b.nfree).
					Int32("got", freeCount).
					Msg("free list length does not match nfree")
			}

			for idx := uint32(0); idx < c.chunksPerBlock; idx++ {
				if free[idx] {
					continue
				}
				chunk := b.chunkAt(c, idx)
				hdr := (*chunkHeader)(chunk)
				if hdr.block != b {
					c.logger.Warn().
						Str("context", c.name).
						Uint32("index", idx).
						Msg("live chunk header back-pointer mismatch")
				}
				if hdr.kind != 0 && hdr.kind != c.Kind() {
					c.logger.Warn().
						Str("context", c.name).
						Uint32("index", idx).
						Msg("live chunk header kind mismatch")
				}
				if c.hooks.CheckSentinel != nil && c.chunkSize < c.fullChunkSize-chunkHeaderSize {
					if !c.hooks.CheckSentinel(hdr.pointer(), c.chunkSize) {
						c.logger.Warn().
							Str("context", c.name).
							Uint32("index", idx).
							Msg("sentinel overwritten")
					}
				}
			}
		}
	}

	if walkedBlocks != c.nblocks {
		c.logger.Warn().
			Str("context", c.name).
			Uint32("want", c.nblocks).
			Uint32("got", walkedBlocks).
			Msg("nblocks does not match blocks walked")
	}
	if walkedBytes != c.memAllocated {
		c.logger.Warn().
			Str("context", c.name).
			Uint64("want", c.memAllocated).
			Uint64("got", walkedBytes).
			Msg("memAllocated does not match bytes walked")
	}
}
