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
	InitAirdropComputeUnits = 1
	MaxInitAirdropSize      = 32
)

var (
	ErrUnmarshalEmptyInitAirdrop              = errors.New("cannot unmarshal empty bytes as init airdrop")
	_                            chain.Action = (*InitAirdrop)(nil)
)

// InitAirdrop opens the airdrop raffle over entrant indices [0, Size). At most
// MaxWinners entrants are ever drawn.
type InitAirdrop struct {
	Size       uint32 `serialize:"true" json:"size"`
	MaxWinners uint32 `serialize:"true" json:"max_winners"`
}

func (*InitAirdrop) GetTypeID() uint8 {
	return mconsts.InitAirdropID
}

func (*InitAirdrop) StateKeys(codec.Address, ids.ID) state.Keys {
	return state.Keys{
		string(storage.CollectionKey()): state.Read,
		string(storage.AirdropKey()):    state.All,
	}
}

func (a *InitAirdrop) Bytes() []byte {
	p := &wrappers.Packer{
		Bytes:   make([]byte, 0, MaxInitAirdropSize),
		MaxSize: MaxInitAirdropSize,
	}
	p.PackByte(mconsts.InitAirdropID)
	if err := codec.LinearCodec.MarshalInto(a, p); err != nil {
		panic(err)
	}
	return p.Bytes
}

func UnmarshalInitAirdrop(bytes []byte) (chain.Action, error) {
	a := &InitAirdrop{}
	if len(bytes) == 0 {
		return nil, ErrUnmarshalEmptyInitAirdrop
	}
	if bytes[0] != mconsts.InitAirdropID {
		return nil, fmt.Errorf("unexpected init airdrop typeID: %d != %d", bytes[0], mconsts.InitAirdropID)
	}
	if err := codec.LinearCodec.UnmarshalFrom(
		&wrappers.Packer{Bytes: bytes[1:]},
		a,
	); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *InitAirdrop) Execute(
	ctx context.Context,
	_ chain.Rules,
	mu state.Mutable,
	_ int64,
	actor codec.Address,
	_ ids.ID,
) ([]byte, error) {
	if err := requireOwner(ctx, mu, actor); err != nil {
		return nil, err
	}
	if a.Size == 0 {
		return nil, fmt.Errorf("%w: size must be > 0", storage.ErrInvalidAirdrop)
	}
	_, err := storage.GetAirdrop(ctx, mu)
	switch {
	case err == nil:
		return nil, storage.ErrAirdropExists
	case !errors.Is(err, storage.ErrAirdropNotFound):
		return nil, err
	}
	if err := storage.PutAirdrop(ctx, mu, storage.NewAirdrop(a.Size, a.MaxWinners)); err != nil {
		return nil, err
	}
	result := &InitAirdropResult{
		Size:       a.Size,
		MaxWinners: a.MaxWinners,
	}
	return result.Bytes(), nil
}

func (*InitAirdrop) ComputeUnits(chain.Rules) uint64 {
	return InitAirdropComputeUnits
}

func (*InitAirdrop) ValidRange(chain.Rules) (int64, int64) {
	return -1, -1
}

func requireOwner(ctx context.Context, im state.Immutable, actor codec.Address) error {
	collection, err := storage.GetCollection(ctx, im)
	if err != nil {
		return err
	}
	if collection.Owner != actor {
		return storage.ErrUnauthorized
	}
	return nil
}

var _ codec.Typed = (*InitAirdropResult)(nil)

type InitAirdropResult struct {
	Size       uint32 `serialize:"true" json:"size"`
	MaxWinners uint32 `serialize:"true" json:"max_winners"`
}

func (*InitAirdropResult) GetTypeID() uint8 {
	return mconsts.InitAirdropID
}

func (r *InitAirdropResult) Bytes() []byte {
	p := &wrappers.Packer{
		Bytes:   make([]byte, 0, MaxInitAirdropSize),
		MaxSize: MaxInitAirdropSize,
	}
	p.PackByte(mconsts.InitAirdropID)
	_ = codec.LinearCodec.MarshalInto(r, p)
	return p.Bytes
}

func UnmarshalInitAirdropResult(b []byte) (codec.Typed, error) {
	r := &InitAirdropResult{}
	if err := codec.LinearCodec.UnmarshalFrom(
		&wrappers.Packer{Bytes: b[1:]},
		r,
	); err != nil {
		return nil, err
	}
	return r, nil
}
