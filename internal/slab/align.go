package slab

import "unsafe"

// maxAlignment is a struct whose alignment requirement equals the
// platform's maximum scalar alignment ("max-align" in spec.md): the
// widest of the scalar kinds a payload following a ChunkHeader might
// need to hold. Deriving it from unsafe.Alignof rather than hardcoding
// 8 or 16 keeps the allocator portable across architectures, the same
// way _examples/cloudfly-readgo/runtime/msize.go derives its size-class
// alignment from a loop instead of a literal.
type maxAlignment struct {
	_ uint64
	_ unsafe.Pointer
	_ float64
	_ complex64
}

const maxAlign = uintptr(unsafe.Alignof(maxAlignment{}))

// alignUp rounds size up to the next multiple of maxAlign.
func alignUp(size uintptr) uintptr {
	return (size + maxAlign - 1) &^ (maxAlign - 1)
}
