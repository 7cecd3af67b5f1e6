package slab

import "unsafe"

// DebugHooks is the small, isolated interface the three optional
// instrumentation services plug into (spec.md §1 "Out of scope", §6.2,
// §9 "Debug hooks"): uninitialized-memory marking, a wipe-on-free, and
// a past-end sentinel. None of them affect allocator correctness; every
// call site treats a nil func field as a no-op.
type DebugHooks struct {
	// MarkUndefined marks the payload of a just-allocated chunk as
	// undefined (the Valgrind/MSan "uninitialized" state).
	MarkUndefined func(ptr unsafe.Pointer, size uintptr)
	// MarkNoAccess marks the padding past a chunk's requested size (but
	// still inside fullChunkSize) as inaccessible.
	MarkNoAccess func(ptr unsafe.Pointer, size uintptr)
	// MarkDefined marks the chunk header's own bytes as defined right
	// before Context writes to them.
	MarkDefined func(ptr unsafe.Pointer, size uintptr)
	// WipeMemory overwrites a chunk's payload on free, excluding the
	// leading free-list link, matching CLOBBER_FREED_MEMORY in
	// original_source/slab.c.
	WipeMemory func(ptr unsafe.Pointer, size uintptr)
	// SetSentinel writes a marker byte just past the live region of a
	// chunk whose chunkSize is smaller than fullChunkSize's payload.
	SetSentinel func(ptr unsafe.Pointer, liveSize uintptr)
	// CheckSentinel reports whether a previously-set sentinel is intact.
	// Returns true when no sentinel was set (nothing to check).
	CheckSentinel func(ptr unsafe.Pointer, liveSize uintptr) bool
}

// noopDebugHooks returns an all-nil-safe set of hooks: every call site
// in context.go already nil-checks before invoking a hook, so the zero
// value of DebugHooks is itself a valid no-op set. This constructor
// exists so call sites read naturally (hooks := noopDebugHooks()).
func noopDebugHooks() DebugHooks {
	return DebugHooks{}
}
