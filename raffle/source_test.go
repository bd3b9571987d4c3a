package raffle

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntropySourceDeterministic(t *testing.T) {
	require := require.New(t)

	a := NewEntropySource(seedOf(1))
	b := NewEntropySource(seedOf(1))
	c := NewEntropySource(seedOf(2))

	seen := make(map[uint64]struct{})
	for i := 0; i < 64; i++ {
		wa := a.Uint64()
		require.Equal(wa, b.Uint64())
		require.NotEqual(wa, c.Uint64())
		seen[wa] = struct{}{}
	}
	require.Len(seen, 64)
}

func TestRotatingSourceWords(t *testing.T) {
	require := require.New(t)

	seed := seedOf(0)
	src := NewRotatingSource(seed)
	require.Equal(binary.LittleEndian.Uint64(seed[0:8]), src.Uint64())
	require.Equal(binary.LittleEndian.Uint64(seed[1:9]), src.Uint64())

	for i := 2; i < len(seed); i++ {
		src.Uint64()
	}
	require.Equal(binary.LittleEndian.Uint64(seed[0:8]), src.Uint64())
}

func TestRotatingSourceWrapsSeed(t *testing.T) {
	seed := seedOf(0)
	src := NewRotatingSource(seed)
	for i := 0; i < 30; i++ {
		src.Uint64()
	}
	want := []byte{seed[30], seed[31], seed[0], seed[1], seed[2], seed[3], seed[4], seed[5]}
	require.Equal(t, binary.LittleEndian.Uint64(want), src.Uint64())
}
