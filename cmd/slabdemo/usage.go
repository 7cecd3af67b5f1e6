package main

import (
	"fmt"
	"unsafe"

	"github.com/spf13/cobra"

	"github.com/zhnt/slabmem/internal/slab"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Basic allocate/free usage demonstration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUsageDemo()
	},
}

// newDemoContext builds a context from the loaded flags/config. The
// Debug toggle doesn't change which hooks run — that's fixed at compile
// time by the slabdebug build tag, per spec.md §9 "never let them
// affect non-debug control flow" — it just makes runUsageDemo/
// runMonitorDemo call Check() and report what it finds.
func newDemoContext(name string) (*slab.Context, error) {
	logger := newLogger()
	return slab.NewContext(name, uintptr(loadedConfig.BlockSize), uintptr(loadedConfig.ChunkSize), slab.WithLogger(logger))
}

func runUsageDemo() error {
	ctx, err := newDemoContext("usage-demo")
	if err != nil {
		return err
	}

	fmt.Printf("created context: block size %d, chunk size %d, full chunk stride %d\n",
		loadedConfig.BlockSize, loadedConfig.ChunkSize, ctx.FullChunkSize())

	var live []unsafe.Pointer
	for i := 0; i < 5; i++ {
		p := ctx.Allocate(uintptr(loadedConfig.ChunkSize))
		if p == nil {
			fmt.Println("allocation failed: system allocator refused a new block")
			continue
		}
		live = append(live, p)
	}
	fmt.Println(ctx.Report())
	if loadedConfig.Debug {
		ctx.Check()
	}

	for i := len(live) - 1; i >= 0; i-- {
		ctx.Free(live[i])
	}
	fmt.Println("after freeing everything:")
	fmt.Println(ctx.Report())
	if loadedConfig.Debug {
		ctx.Check()
	}

	return nil
}
