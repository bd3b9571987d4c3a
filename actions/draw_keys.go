package actions

import (
	"github.com/ava-labs/hypersdk/examples/tenkvm/raffle"
	"github.com/ava-labs/hypersdk/examples/tenkvm/storage"
	"github.com/ava-labs/hypersdk/state"
)

var randomnessModes = []uint8{storage.RandomnessIndependent, storage.RandomnessRotating}

// declareDraws adds the slots touched by count draws on a pool of length to
// keys. The randomness mode lives in state, so slots for every mode are
// declared.
func declareDraws(keys state.Keys, seed [32]byte, length uint64, count int, slotKey func(uint64) []byte) {
	for _, mode := range randomnessModes {
		// A short plan still covers every draw that can run before the pool
		// empties.
		steps, _ := raffle.Plan(length, count, drawSource(mode, seed))
		for _, step := range steps {
			keys[string(slotKey(step.Index))] = state.All
			keys[string(slotKey(step.Last))] = state.All
		}
	}
}
