package main

import (
	"fmt"
	"math/rand"
	"net/http"
	"time"
	"unsafe"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/zhnt/slabmem/internal/metrics"
	"github.com/zhnt/slabmem/internal/slab"
)

func newMonitorCollector(ctx *slab.Context) *metrics.Collector {
	return metrics.NewCollector("monitor-demo", ctx)
}

var monitorAddr string

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run a randomized allocation workload while serving Prometheus metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitorDemo()
	},
}

func init() {
	monitorCmd.Flags().StringVar(&monitorAddr, "listen", ":9400", "address to serve /metrics on")
}

func runMonitorDemo() error {
	ctx, err := newDemoContext("monitor-demo")
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(newMonitorCollector(ctx))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: monitorAddr, Handler: mux}

	go func() {
		fmt.Printf("serving metrics on http://%s/metrics\n", monitorAddr)
		_ = server.ListenAndServe()
	}()
	defer server.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var live []unsafe.Pointer

	for i := 0; i < 200; i++ {
		if len(live) == 0 || rng.Intn(2) == 0 {
			p := ctx.Allocate(uintptr(loadedConfig.ChunkSize))
			if p != nil {
				live = append(live, p)
			}
		} else {
			idx := rng.Intn(len(live))
			ctx.Free(live[idx])
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]
		}
		if loadedConfig.Debug && i%20 == 0 {
			ctx.Check()
		}
		time.Sleep(5 * time.Millisecond)
	}

	for _, p := range live {
		ctx.Free(p)
	}
	if loadedConfig.Debug {
		ctx.Check()
	}

	fmt.Println(ctx.Report())
	return nil
}
