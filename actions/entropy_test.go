package actions

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/examples/tenkvm/raffle"
	"github.com/ava-labs/hypersdk/examples/tenkvm/storage"
)

func TestDeriveDrawSeedPreimageLayout(t *testing.T) {
	require := require.New(t)
	var actionID ids.ID
	for i := range actionID {
		actionID[i] = byte(i + 1)
	}
	var actor codec.Address
	for i := range actor {
		actor[i] = byte(0x80 + i)
	}
	const remaining = uint64(9_997)

	preimage := make([]byte, 0, len(drawDomainTag)+ids.IDLen+codec.AddressLen+8)
	preimage = append(preimage, drawDomainTag...)
	preimage = append(preimage, actionID[:]...)
	preimage = append(preimage, actor[:]...)
	preimage = binary.BigEndian.AppendUint64(preimage, remaining)

	require.Equal(sha256.Sum256(preimage), deriveDrawSeed(actionID, actor, remaining))
	require.NotEqual(deriveDrawSeed(actionID, actor, remaining), deriveDrawSeed(actionID, actor, remaining-1))
	require.NotEqual(deriveDrawSeed(actionID, actor, remaining), deriveDrawSeed(actionID, minter, remaining))
}

func TestDrawSourceMode(t *testing.T) {
	require := require.New(t)
	seed := deriveDrawSeed(ids.Empty, codec.Address{}, 10)
	require.IsType(&raffle.EntropySource{}, drawSource(storage.RandomnessIndependent, seed))
	require.IsType(&raffle.RotatingSource{}, drawSource(storage.RandomnessRotating, seed))
}

func TestStateKeysCoverEveryMode(t *testing.T) {
	require := require.New(t)
	action := &MintTokens{Count: 3, Remaining: 1_000}
	actionID := ids.GenerateTestID()
	keys := action.StateKeys(owner, actionID)
	seed := deriveDrawSeed(actionID, owner, action.Remaining)

	for _, mode := range randomnessModes {
		steps, err := raffle.Plan(action.Remaining, int(action.Count), drawSource(mode, seed))
		require.NoError(err)
		for _, step := range steps {
			for _, index := range []uint64{step.Index, step.Last} {
				require.Contains(keys, string(storage.TokenSlotKey(index)), "mode %d slot %d", mode, index)
			}
		}
	}
	for i := uint64(0); i < uint64(action.Count); i++ {
		require.Contains(keys, string(storage.MintRecordKey(action.Remaining-1-i)))
	}
}
