package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/examples/tenkvm/storage"
	"github.com/ava-labs/hypersdk/state"

	mconsts "github.com/ava-labs/hypersdk/examples/tenkvm/consts"
)

const (
	DrawAirdropWinnerComputeUnits = 2
	MaxDrawAirdropWinnerSize      = 32
)

var (
	ErrUnmarshalEmptyDrawAirdropWinner              = errors.New("cannot unmarshal empty bytes as draw airdrop winner")
	_                                  chain.Action = (*DrawAirdropWinner)(nil)
)

// DrawAirdropWinner draws one airdrop entrant. Remaining and NumWinners are the
// airdrop counters the caller observed.
type DrawAirdropWinner struct {
	Remaining  uint32 `serialize:"true" json:"remaining"`
	NumWinners uint32 `serialize:"true" json:"num_winners"`
}

func (*DrawAirdropWinner) GetTypeID() uint8 {
	return mconsts.DrawAirdropWinnerID
}

func (d *DrawAirdropWinner) StateKeys(actor codec.Address, actionID ids.ID) state.Keys {
	keys := state.Keys{
		string(storage.CollectionKey()):               state.Read,
		string(storage.AirdropKey()):                  state.Read | state.Write,
		string(storage.AirdropWinnerKey(d.NumWinners)): state.All,
	}
	declareDraws(keys, deriveDrawSeed(actionID, actor, uint64(d.Remaining)), uint64(d.Remaining), 1, func(index uint64) []byte {
		return storage.AirdropSlotKey(uint32(index))
	})
	return keys
}

func (d *DrawAirdropWinner) Bytes() []byte {
	p := &wrappers.Packer{
		Bytes:   make([]byte, 0, MaxDrawAirdropWinnerSize),
		MaxSize: MaxDrawAirdropWinnerSize,
	}
	p.PackByte(mconsts.DrawAirdropWinnerID)
	if err := codec.LinearCodec.MarshalInto(d, p); err != nil {
		panic(err)
	}
	return p.Bytes
}

func UnmarshalDrawAirdropWinner(bytes []byte) (chain.Action, error) {
	d := &DrawAirdropWinner{}
	if len(bytes) == 0 {
		return nil, ErrUnmarshalEmptyDrawAirdropWinner
	}
	if bytes[0] != mconsts.DrawAirdropWinnerID {
		return nil, fmt.Errorf("unexpected draw airdrop winner typeID: %d != %d", bytes[0], mconsts.DrawAirdropWinnerID)
	}
	if err := codec.LinearCodec.UnmarshalFrom(
		&wrappers.Packer{Bytes: bytes[1:]},
		d,
	); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DrawAirdropWinner) Execute(
	ctx context.Context,
	_ chain.Rules,
	mu state.Mutable,
	_ int64,
	actor codec.Address,
	actionID ids.ID,
) ([]byte, error) {
	collection, err := storage.GetCollection(ctx, mu)
	if err != nil {
		return nil, err
	}
	if collection.Owner != actor {
		return nil, storage.ErrUnauthorized
	}
	airdrop, err := storage.GetAirdrop(ctx, mu)
	if err != nil {
		return nil, err
	}
	if airdrop.Len() != d.Remaining {
		return nil, fmt.Errorf("%w: expected=%d actual=%d", storage.ErrStaleRemaining, d.Remaining, airdrop.Len())
	}
	if airdrop.NumWinners() != d.NumWinners {
		return nil, fmt.Errorf("%w: expected=%d actual=%d", storage.ErrStaleWinners, d.NumWinners, airdrop.NumWinners())
	}

	src := drawSource(collection.Randomness, deriveDrawSeed(actionID, actor, uint64(d.Remaining)))
	winner, drawn, err := airdrop.Draw(ctx, storage.RaffleState(mu), src)
	if err != nil {
		return nil, err
	}
	if drawn {
		if err := storage.PutAirdrop(ctx, mu, airdrop); err != nil {
			return nil, err
		}
	}
	result := &DrawAirdropWinnerResult{
		Winner:     winner,
		Drawn:      drawn,
		Remaining:  airdrop.Len(),
		NumWinners: airdrop.NumWinners(),
	}
	return result.Bytes(), nil
}

func (*DrawAirdropWinner) ComputeUnits(chain.Rules) uint64 {
	return DrawAirdropWinnerComputeUnits
}

func (*DrawAirdropWinner) ValidRange(chain.Rules) (int64, int64) {
	return -1, -1
}

var _ codec.Typed = (*DrawAirdropWinnerResult)(nil)

// DrawAirdropWinnerResult reports Drawn == false once the winner cap was
// reached; Winner is meaningless then.
type DrawAirdropWinnerResult struct {
	Winner     uint32 `serialize:"true" json:"winner"`
	Drawn      bool   `serialize:"true" json:"drawn"`
	Remaining  uint32 `serialize:"true" json:"remaining"`
	NumWinners uint32 `serialize:"true" json:"num_winners"`
}

func (*DrawAirdropWinnerResult) GetTypeID() uint8 {
	return mconsts.DrawAirdropWinnerID
}

func (r *DrawAirdropWinnerResult) Bytes() []byte {
	p := &wrappers.Packer{
		Bytes:   make([]byte, 0, MaxDrawAirdropWinnerSize),
		MaxSize: MaxDrawAirdropWinnerSize,
	}
	p.PackByte(mconsts.DrawAirdropWinnerID)
	_ = codec.LinearCodec.MarshalInto(r, p)
	return p.Bytes
}

func UnmarshalDrawAirdropWinnerResult(b []byte) (codec.Typed, error) {
	r := &DrawAirdropWinnerResult{}
	if err := codec.LinearCodec.UnmarshalFrom(
		&wrappers.Packer{Bytes: b[1:]},
		r,
	); err != nil {
		return nil, err
	}
	return r, nil
}
