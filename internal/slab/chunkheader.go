package slab

import (
	"unsafe"

	"github.com/zhnt/slabmem/internal/memctx"
)

// chunkHeader is the fixed, max-aligned record immediately preceding
// every live user chunk (spec.md §3.1). It carries just enough to
// recover the owning block from a raw user pointer in O(1), and the
// tag of the context kind that owns it, per spec.md §3.1's external
// guarantee.
//
// chunkHeaderSize is required to itself be a multiple of maxAlign, so
// that the payload immediately following it starts at a max-aligned
// offset into the block.
type chunkHeader struct {
	block *block
	size  uint32
	kind  memctx.Kind
	_     [3]byte // pad to keep the struct's size a multiple of maxAlign
}

const chunkHeaderSize = unsafe.Sizeof(chunkHeader{})

func init() {
	if chunkHeaderSize%maxAlign != 0 {
		panic("slab: chunkHeader size is not max-aligned")
	}
}

// headerFromPointer recovers the chunkHeader immediately preceding a
// user pointer previously returned by Context.Allocate.
func headerFromPointer(ptr unsafe.Pointer) *chunkHeader {
	return (*chunkHeader)(unsafe.Pointer(uintptr(ptr) - chunkHeaderSize))
}

// pointer returns the user-visible payload address for this header.
func (h *chunkHeader) pointer() unsafe.Pointer {
	return unsafe.Pointer(uintptr(unsafe.Pointer(h)) + chunkHeaderSize)
}

// set initializes the header for a freshly allocated chunk.
func (h *chunkHeader) set(b *block, size uint32, kind memctx.Kind) {
	h.block = b
	h.size = size
	h.kind = kind
}
