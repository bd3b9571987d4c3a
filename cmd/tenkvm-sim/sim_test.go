package main

import (
	"context"
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mathext/prng"
)

func newTestSimulator(t *testing.T, seed uint64) *simulator {
	t.Helper()
	m, err := newMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	src := prng.NewMT19937()
	src.Seed(seed)
	return newSimulator(zap.NewNop(), m, src, memdb.New())
}

func TestRunDrawsFullCollection(t *testing.T) {
	require := require.New(t)
	sim := newTestSimulator(t, 42)

	report, err := sim.runDraws(context.Background(), drawConfig{Size: 500, PerBatch: 3})
	require.NoError(err)
	require.Len(report.Drawn, 500)
	require.Zero(report.Remaining)
	require.NoError(checkPermutation(report.Drawn, 500))
	require.InDelta(500, testutil.ToFloat64(sim.metrics.draws.WithLabelValues("tokens")), 0)

	// Only the header survives once every slot was consumed.
	require.Equal(1, countEntries(sim.tokens))
}

func TestRunDrawsIsReproducible(t *testing.T) {
	require := require.New(t)
	cfg := drawConfig{Size: 64, Count: 20, PerBatch: 4}

	a, err := newTestSimulator(t, 7).runDraws(context.Background(), cfg)
	require.NoError(err)
	b, err := newTestSimulator(t, 7).runDraws(context.Background(), cfg)
	require.NoError(err)
	require.Equal(a.Drawn, b.Drawn)
	require.Equal(uint64(44), a.Remaining)
}

func TestRunDrawsAbortRestoresPool(t *testing.T) {
	require := require.New(t)
	sim := newTestSimulator(t, 3)

	report, err := sim.runDraws(context.Background(), drawConfig{Size: 30, Count: 10, PerBatch: 5, Abort: true})
	require.NoError(err)
	require.Equal(uint64(20), report.Remaining)
	require.Equal(uint64(5), report.Aborted)
	require.InDelta(1, testutil.ToFloat64(sim.metrics.aborts), 0)
}

func TestRunAirdropPages(t *testing.T) {
	require := require.New(t)
	sim := newTestSimulator(t, 11)

	pages, err := sim.runAirdrop(context.Background(), airdropConfig{Size: 100, MaxWinners: 99, PageSize: 10})
	require.NoError(err)
	require.Len(pages, 10)
	require.Len(pages[9], 9)

	seen := make(map[uint32]struct{})
	for _, page := range pages {
		for _, w := range page {
			require.Less(w, uint32(100))
			seen[w] = struct{}{}
		}
	}
	require.Len(seen, 99)
	require.InDelta(1, testutil.ToFloat64(sim.metrics.remaining.WithLabelValues("airdrop")), 0)
}

func TestCheckPermutation(t *testing.T) {
	require.NoError(t, checkPermutation([]uint64{2, 0, 1}, 3))
	require.ErrorIs(t, checkPermutation([]uint64{2, 2, 1}, 3), errNotPermutation)
	require.ErrorIs(t, checkPermutation([]uint64{0, 1}, 3), errNotPermutation)
	require.ErrorIs(t, checkPermutation([]uint64{0, 1, 3}, 3), errNotPermutation)
}
