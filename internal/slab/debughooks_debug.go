//go:build slabdebug

package slab

import "unsafe"

// sentinelByte is written past a chunk's live region when chunkSize
// leaves slack before fullChunkSize, matching original_source/slab.c's
// set_sentinel()/sentinel_ok() pair (0x7F there; the exact value has no
// meaning beyond "not a plausible payload byte").
const sentinelByte = 0x7F

// defaultDebugHooks is the instrumented hooks set used under the
// slabdebug build tag: it wipes freed payloads and maintains a past-end
// sentinel byte. There is still no real Valgrind/ASan integration —
// MarkUndefined/MarkNoAccess/MarkDefined remain no-ops, since wiring an
// actual memory detector is out of scope per spec.md §1.
func defaultDebugHooks() DebugHooks {
	return DebugHooks{
		WipeMemory: func(ptr unsafe.Pointer, size uintptr) {
			if size <= 4 {
				return
			}
			// Don't clobber the 4-byte free-list link at the front of
			// the payload — see original_source/slab.c's comment "XXX
			// don't wipe the int32 index, used for block-level
			// freelist".
			b := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr)+4)), size-4)
			for i := range b {
				b[i] = 0xDF
			}
		},
		SetSentinel: func(ptr unsafe.Pointer, liveSize uintptr) {
			*(*byte)(unsafe.Pointer(uintptr(ptr) + liveSize)) = sentinelByte
		},
		CheckSentinel: func(ptr unsafe.Pointer, liveSize uintptr) bool {
			return *(*byte)(unsafe.Pointer(uintptr(ptr) + liveSize)) == sentinelByte
		},
	}
}
