package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/zhnt/slabmem/internal/slab"
)

func TestCollectorExportsBlockCount(t *testing.T) {
	ctx, err := slab.NewContext("demo", 1024, 32)
	require.NoError(t, err)

	p := ctx.Allocate(32)
	require.NotNil(t, p)

	c := NewCollector("demo", ctx)

	ch := make(chan prometheus.Metric, 8)
	c.Collect(ch)
	close(ch)

	var blocks float64
	var found bool
	for m := range ch {
		var d dto.Metric
		require.NoError(t, m.Write(&d))
		if m.Desc() == c.blocks {
			blocks = d.GetGauge().GetValue()
			found = true
		}
	}

	require.True(t, found, "expected slab_blocks_total metric")
	require.Equal(t, float64(1), blocks)
}
