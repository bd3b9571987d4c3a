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
	MintAirdropTokenComputeUnits = 1
	MaxMintAirdropTokenSize      = 64
)

var (
	ErrUnmarshalEmptyMintAirdropToken              = errors.New("cannot unmarshal empty bytes as mint airdrop token")
	_                                 chain.Action = (*MintAirdropToken)(nil)
)

// MintAirdropToken awards the airdrop token of a drawn entrant to Owner.
// Position is where TokenID sits in the winner log; each winner is awarded
// once.
type MintAirdropToken struct {
	Owner    codec.Address `serialize:"true" json:"owner"`
	TokenID  uint32        `serialize:"true" json:"token_id"`
	Position uint32        `serialize:"true" json:"position"`
}

func (*MintAirdropToken) GetTypeID() uint8 {
	return mconsts.MintAirdropTokenID
}

func (m *MintAirdropToken) StateKeys(codec.Address, ids.ID) state.Keys {
	return state.Keys{
		string(storage.CollectionKey()):              state.Read,
		string(storage.AirdropKey()):                 state.Read,
		string(storage.AirdropWinnerKey(m.Position)): state.Read,
		string(storage.AirdropAwardKey(m.TokenID)):   state.All,
		string(storage.OwnerCountKey(m.Owner)):       state.All,
	}
}

func (m *MintAirdropToken) Bytes() []byte {
	p := &wrappers.Packer{
		Bytes:   make([]byte, 0, MaxMintAirdropTokenSize),
		MaxSize: MaxMintAirdropTokenSize,
	}
	p.PackByte(mconsts.MintAirdropTokenID)
	if err := codec.LinearCodec.MarshalInto(m, p); err != nil {
		panic(err)
	}
	return p.Bytes
}

func UnmarshalMintAirdropToken(bytes []byte) (chain.Action, error) {
	m := &MintAirdropToken{}
	if len(bytes) == 0 {
		return nil, ErrUnmarshalEmptyMintAirdropToken
	}
	if bytes[0] != mconsts.MintAirdropTokenID {
		return nil, fmt.Errorf("unexpected mint airdrop token typeID: %d != %d", bytes[0], mconsts.MintAirdropTokenID)
	}
	if err := codec.LinearCodec.UnmarshalFrom(
		&wrappers.Packer{Bytes: bytes[1:]},
		m,
	); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MintAirdropToken) Execute(
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
	airdrop, err := storage.GetAirdrop(ctx, mu)
	if err != nil {
		return nil, err
	}
	if m.Position >= airdrop.NumWinners() {
		return nil, fmt.Errorf("%w: position=%d winners=%d", storage.ErrAirdropWinnerNotFound, m.Position, airdrop.NumWinners())
	}
	winner, err := airdrop.Winner(ctx, storage.RaffleView(mu), m.Position)
	if err != nil {
		return nil, err
	}
	if winner != m.TokenID {
		return nil, fmt.Errorf("%w: position=%d winner=%d token=%d", storage.ErrAirdropWinnerMismatch, m.Position, winner, m.TokenID)
	}
	_, err = storage.GetAirdropAward(ctx, mu, m.TokenID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: token=%d", storage.ErrAirdropAwarded, m.TokenID)
	case !errors.Is(err, storage.ErrAirdropAwardNotFound):
		return nil, err
	}
	if err := storage.PutAirdropAward(ctx, mu, m.TokenID, m.Owner); err != nil {
		return nil, err
	}
	owned, err := storage.AddOwnerCount(ctx, mu, m.Owner, 1)
	if err != nil {
		return nil, err
	}

	result := &MintAirdropTokenResult{
		TokenID: m.TokenID,
		Owner:   m.Owner,
		Owned:   owned,
	}
	return result.Bytes(), nil
}

func (*MintAirdropToken) ComputeUnits(chain.Rules) uint64 {
	return MintAirdropTokenComputeUnits
}

func (*MintAirdropToken) ValidRange(chain.Rules) (int64, int64) {
	return -1, -1
}

var _ codec.Typed = (*MintAirdropTokenResult)(nil)

type MintAirdropTokenResult struct {
	TokenID uint32        `serialize:"true" json:"token_id"`
	Owner   codec.Address `serialize:"true" json:"owner"`
	Owned   uint64        `serialize:"true" json:"owned"`
}

func (*MintAirdropTokenResult) GetTypeID() uint8 {
	return mconsts.MintAirdropTokenID
}

func (r *MintAirdropTokenResult) Bytes() []byte {
	p := &wrappers.Packer{
		Bytes:   make([]byte, 0, MaxMintAirdropTokenSize),
		MaxSize: MaxMintAirdropTokenSize,
	}
	p.PackByte(mconsts.MintAirdropTokenID)
	_ = codec.LinearCodec.MarshalInto(r, p)
	return p.Bytes
}

func UnmarshalMintAirdropTokenResult(b []byte) (codec.Typed, error) {
	r := &MintAirdropTokenResult{}
	if err := codec.LinearCodec.UnmarshalFrom(
		&wrappers.Packer{Bytes: b[1:]},
		r,
	); err != nil {
		return nil, err
	}
	return r, nil
}
