package slab

import (
	"io"
	"unsafe"

	"github.com/zhnt/slabmem/internal/memctx"
)

// Ops adapts c to the memctx.Operations vtable (spec.md §6.1). This is
// the recovery boundary mentioned in context.go's Allocate/Realloc docs:
// their panic(*FatalError) is the Go analog of elog(ERROR)'s longjmp,
// and here is where it gets caught and turned back into a plain error,
// the same shape every other memctx.Context kind's Allocate returns.
func (c *Context) Ops() memctx.Operations {
	return memctx.Operations{
		Allocate: func(size uintptr) (ptr unsafe.Pointer, err error) {
			defer func() {
				if r := recover(); r != nil {
					fe, ok := r.(*FatalError)
					if !ok {
						panic(r)
					}
					ptr, err = nil, fe
				}
			}()
			return c.Allocate(size), nil
		},
		Free: c.Free,
		Realloc: func(ptrIn unsafe.Pointer, size uintptr) (ptr unsafe.Pointer, err error) {
			defer func() {
				if r := recover(); r != nil {
					fe, ok := r.(*FatalError)
					if !ok {
						panic(r)
					}
					ptr, err = nil, fe
				}
			}()
			return c.Realloc(ptrIn, size), nil
		},
		Reset:  c.Reset,
		Delete: c.Delete,
		GetChunkContext: func(ptr unsafe.Pointer) memctx.Context {
			return GetChunkContext(ptr)
		},
		GetChunkSpace: c.GetChunkSpace,
		IsEmpty:       c.IsEmpty,
		Stats: func(sink io.Writer, totals *memctx.StatsTotals, toStderr bool) {
			c.Stats(sink, totals, toStderr)
		},
		Check: c.Check,
	}
}
