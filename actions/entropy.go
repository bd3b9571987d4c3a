package actions

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/examples/tenkvm/raffle"
	"github.com/ava-labs/hypersdk/examples/tenkvm/storage"
)

const drawDomainTag = "TENK_DRAW_V1"

// deriveDrawSeed binds a draw to the action that requested it and the pool
// length it expects, so the touched slots are known before execution.
//
// Every input is chosen or observed by the submitter before the transaction is
// signed. A minter can therefore regrind the transaction offline until the
// seed lands on a preferred token id, and the resulting assignment is only as
// unpredictable as the pool length at inclusion time. Block data such as the
// timestamp cannot be mixed in: StateKeys sees only the actor and action id,
// and must name every slot the draws touch.
func deriveDrawSeed(actionID ids.ID, actor codec.Address, remaining uint64) [32]byte {
	preimage := make([]byte, 0, len(drawDomainTag)+ids.IDLen+codec.AddressLen+8)
	preimage = append(preimage, drawDomainTag...)
	preimage = append(preimage, actionID[:]...)
	preimage = append(preimage, actor[:]...)
	var rem [8]byte
	binary.BigEndian.PutUint64(rem[:], remaining)
	preimage = append(preimage, rem[:]...)
	return sha256.Sum256(preimage)
}

func drawSource(mode uint8, seed [32]byte) raffle.Source {
	if mode == storage.RandomnessRotating {
		return raffle.NewRotatingSource(seed)
	}
	return raffle.NewEntropySource(seed)
}
