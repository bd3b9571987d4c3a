package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/consts"
	"github.com/ava-labs/hypersdk/examples/tenkvm/storage"
	"github.com/ava-labs/hypersdk/state"

	mconsts "github.com/ava-labs/hypersdk/examples/tenkvm/consts"
)

const (
	MintTokensBaseComputeUnits    = 1
	MintTokensPerDrawComputeUnits = 1
	MaxMintTokensSize             = 64
	MaxMintTokensResultSize       = 1 + consts.Uint32Len + 258*consts.Uint64Len
)

var (
	ErrUnmarshalEmptyMintTokens              = errors.New("cannot unmarshal empty bytes as mint tokens")
	_                           chain.Action = (*MintTokens)(nil)
)

// MintTokens draws Count token ids from the collection raffle and assigns them
// to the actor. Remaining is the raffle length the caller observed; it seeds
// the draws and must match state.
type MintTokens struct {
	Count     uint8  `serialize:"true" json:"count"`
	Remaining uint64 `serialize:"true" json:"remaining"`
}

func (*MintTokens) GetTypeID() uint8 {
	return mconsts.MintTokensID
}

func (m *MintTokens) StateKeys(actor codec.Address, actionID ids.ID) state.Keys {
	keys := state.Keys{
		string(storage.CollectionKey()):      state.Read,
		string(storage.TokenRaffleKey()):     state.Read | state.Write,
		string(storage.OwnerCountKey(actor)): state.All,
	}
	count := uint64(m.Count)
	if count > m.Remaining {
		count = m.Remaining
	}
	for i := uint64(0); i < count; i++ {
		keys[string(storage.MintRecordKey(m.Remaining-1-i))] = state.All
	}
	declareDraws(keys, deriveDrawSeed(actionID, actor, m.Remaining), m.Remaining, int(count), storage.TokenSlotKey)
	return keys
}

func (m *MintTokens) Bytes() []byte {
	p := &wrappers.Packer{
		Bytes:   make([]byte, 0, MaxMintTokensSize),
		MaxSize: MaxMintTokensSize,
	}
	p.PackByte(mconsts.MintTokensID)
	if err := codec.LinearCodec.MarshalInto(m, p); err != nil {
		panic(err)
	}
	return p.Bytes
}

func UnmarshalMintTokens(bytes []byte) (chain.Action, error) {
	m := &MintTokens{}
	if len(bytes) == 0 {
		return nil, ErrUnmarshalEmptyMintTokens
	}
	if bytes[0] != mconsts.MintTokensID {
		return nil, fmt.Errorf("unexpected mint tokens typeID: %d != %d", bytes[0], mconsts.MintTokensID)
	}
	if err := codec.LinearCodec.UnmarshalFrom(
		&wrappers.Packer{Bytes: bytes[1:]},
		m,
	); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MintTokens) Execute(
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
	if m.Count == 0 || m.Count > collection.MaxMintPerTx {
		return nil, fmt.Errorf("%w: count=%d max=%d", storage.ErrInvalidMintCount, m.Count, collection.MaxMintPerTx)
	}
	pool, err := storage.GetTokenRaffle(ctx, mu)
	if err != nil {
		return nil, err
	}
	if pool.Len() != m.Remaining {
		return nil, fmt.Errorf("%w: expected=%d actual=%d", storage.ErrStaleRemaining, m.Remaining, pool.Len())
	}

	src := drawSource(collection.Randomness, deriveDrawSeed(actionID, actor, m.Remaining))
	slots := storage.RaffleState(mu)
	tokenIDs := make([]uint64, 0, m.Count)
	for i := uint8(0); i < m.Count; i++ {
		tokenID, err := pool.Draw(ctx, slots, src)
		if err != nil {
			return nil, fmt.Errorf("draw %d of %d: %w", i+1, m.Count, err)
		}
		if err := storage.PutMintRecord(ctx, mu, pool.Len(), storage.MintRecord{
			TokenID: tokenID,
			Owner:   actor,
		}); err != nil {
			return nil, err
		}
		tokenIDs = append(tokenIDs, tokenID)
	}
	if err := storage.PutTokenRaffle(ctx, mu, pool); err != nil {
		return nil, err
	}
	owned, err := storage.AddOwnerCount(ctx, mu, actor, uint64(len(tokenIDs)))
	if err != nil {
		return nil, err
	}

	result := &MintTokensResult{
		TokenIDs:  tokenIDs,
		Remaining: pool.Len(),
		Owned:     owned,
	}
	return result.Bytes(), nil
}

func (m *MintTokens) ComputeUnits(chain.Rules) uint64 {
	return MintTokensBaseComputeUnits + uint64(m.Count)*MintTokensPerDrawComputeUnits
}

func (*MintTokens) ValidRange(chain.Rules) (int64, int64) {
	return -1, -1
}

var _ codec.Typed = (*MintTokensResult)(nil)

type MintTokensResult struct {
	TokenIDs  []uint64 `serialize:"true" json:"token_ids"`
	Remaining uint64   `serialize:"true" json:"remaining"`
	Owned     uint64   `serialize:"true" json:"owned"`
}

func (*MintTokensResult) GetTypeID() uint8 {
	return mconsts.MintTokensID
}

func (r *MintTokensResult) Bytes() []byte {
	p := &wrappers.Packer{
		Bytes:   make([]byte, 0, 64),
		MaxSize: MaxMintTokensResultSize,
	}
	p.PackByte(mconsts.MintTokensID)
	_ = codec.LinearCodec.MarshalInto(r, p)
	return p.Bytes
}

func UnmarshalMintTokensResult(b []byte) (codec.Typed, error) {
	r := &MintTokensResult{}
	if err := codec.LinearCodec.UnmarshalFrom(
		&wrappers.Packer{Bytes: b[1:]},
		r,
	); err != nil {
		return nil, err
	}
	return r, nil
}
