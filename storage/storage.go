package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/consts"
	"github.com/ava-labs/hypersdk/examples/tenkvm/raffle"
	"github.com/ava-labs/hypersdk/state"
	"github.com/ava-labs/hypersdk/state/metadata"

	smath "github.com/ava-labs/avalanchego/utils/math"
)

type ReadState func(context.Context, [][]byte) ([][]byte, []error)

const (
	balancePrefix       byte = metadata.DefaultMinimumPrefix
	collectionPrefix    byte = metadata.DefaultMinimumPrefix + 1
	raffleHeaderPrefix  byte = metadata.DefaultMinimumPrefix + 2
	raffleSlotPrefix    byte = metadata.DefaultMinimumPrefix + 3
	mintRecordPrefix    byte = metadata.DefaultMinimumPrefix + 4
	ownerCountPrefix    byte = metadata.DefaultMinimumPrefix + 5
	airdropHeaderPrefix byte = metadata.DefaultMinimumPrefix + 6
	airdropSlotPrefix   byte = metadata.DefaultMinimumPrefix + 7
	airdropAwardPrefix  byte = metadata.DefaultMinimumPrefix + 8
)

const (
	BalanceChunks       uint16 = 1
	CollectionChunks    uint16 = 4
	RaffleHeaderChunks  uint16 = 1
	RaffleSlotChunks    uint16 = 1
	MintRecordChunks    uint16 = 1
	OwnerCountChunks    uint16 = 1
	AirdropHeaderChunks uint16 = 1
	AirdropAwardChunks  uint16 = 1
)

const (
	RandomnessIndependent uint8 = 0
	RandomnessRotating    uint8 = 1
)

const (
	MaxNameLen   = 64
	MaxSymbolLen = 16
)

var (
	tokenRaffleNamespace = []byte{raffleSlotPrefix}
	airdropNamespace     = []byte{airdropSlotPrefix}
)

type Collection struct {
	Owner        codec.Address
	Name         string
	Symbol       string
	Size         uint64
	MaxMintPerTx uint8
	Randomness   uint8
}

type MintRecord struct {
	TokenID uint64
	Owner   codec.Address
}

func withChunks(k []byte, chunks uint16) []byte {
	out := make([]byte, 0, len(k)+consts.Uint16Len)
	out = append(out, k...)
	return binary.BigEndian.AppendUint16(out, chunks)
}

func singletonKey(prefix byte, chunks uint16) []byte {
	return withChunks([]byte{prefix}, chunks)
}

// ========== Balance ==========

func BalanceKey(addr codec.Address) (k []byte) {
	k = make([]byte, 1+codec.AddressLen+consts.Uint16Len)
	k[0] = balancePrefix
	copy(k[1:], addr[:])
	binary.BigEndian.PutUint16(k[1+codec.AddressLen:], BalanceChunks)
	return
}

func GetBalance(ctx context.Context, im state.Immutable, addr codec.Address) (uint64, error) {
	_, bal, _, err := getBalance(ctx, im, addr)
	return bal, err
}

func getBalance(ctx context.Context, im state.Immutable, addr codec.Address) ([]byte, uint64, bool, error) {
	k := BalanceKey(addr)
	bal, exists, err := innerGetUint64(im.GetValue(ctx, k))
	return k, bal, exists, err
}

func GetBalanceFromState(ctx context.Context, f ReadState, addr codec.Address) (uint64, error) {
	k := BalanceKey(addr)
	values, errs := f(ctx, [][]byte{k})
	bal, _, err := innerGetUint64(values[0], errs[0])
	return bal, err
}

func innerGetUint64(v []byte, err error) (uint64, bool, error) {
	if errors.Is(err, database.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	val, err := database.ParseUInt64(v)
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

func setUint64(ctx context.Context, mu state.Mutable, key []byte, v uint64) error {
	return mu.Insert(ctx, key, binary.BigEndian.AppendUint64(nil, v))
}

func SetBalance(ctx context.Context, mu state.Mutable, addr codec.Address, balance uint64) error {
	return setUint64(ctx, mu, BalanceKey(addr), balance)
}

func AddBalance(ctx context.Context, mu state.Mutable, addr codec.Address, amount uint64) (uint64, error) {
	key, bal, _, err := getBalance(ctx, mu, addr)
	if err != nil {
		return 0, err
	}
	nbal, err := smath.Add(bal, amount)
	if err != nil {
		return 0, fmt.Errorf("%w: could not add balance (bal=%d, addr=%v, amount=%d)", ErrInvalidBalance, bal, addr, amount)
	}
	return nbal, setUint64(ctx, mu, key, nbal)
}

func SubBalance(ctx context.Context, mu state.Mutable, addr codec.Address, amount uint64) (uint64, error) {
	key, bal, ok, err := getBalance(ctx, mu, addr)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: could not subtract (bal=%d, addr=%v, amount=%d)", ErrInvalidBalance, 0, addr, amount)
	}
	nbal, err := smath.Sub(bal, amount)
	if err != nil {
		return 0, fmt.Errorf("%w: could not subtract balance (bal=%d < amount=%d, gap=%d, addr=%v)", ErrInvalidBalance, bal, amount, amount-bal, addr)
	}
	if nbal == 0 {
		return 0, mu.Remove(ctx, key)
	}
	return nbal, setUint64(ctx, mu, key, nbal)
}

// ========== Collection ==========

func CollectionKey() []byte {
	return singletonKey(collectionPrefix, CollectionChunks)
}

func ValidateCollection(c Collection) error {
	var zero codec.Address
	switch {
	case c.Owner == zero:
		return fmt.Errorf("%w: owner must be set", ErrInvalidCollection)
	case c.Size == 0:
		return fmt.Errorf("%w: size must be > 0", ErrInvalidCollection)
	case c.MaxMintPerTx == 0:
		return fmt.Errorf("%w: maxMintPerTx must be > 0", ErrInvalidCollection)
	case c.Randomness != RandomnessIndependent && c.Randomness != RandomnessRotating:
		return fmt.Errorf("%w: unknown randomness mode %d", ErrInvalidCollection, c.Randomness)
	case len(c.Name) > MaxNameLen || len(c.Symbol) > MaxSymbolLen:
		return fmt.Errorf("%w: name or symbol too long", ErrInvalidCollection)
	}
	return nil
}

func PutCollection(ctx context.Context, mu state.Mutable, c Collection) error {
	if err := ValidateCollection(c); err != nil {
		return err
	}
	p := &wrappers.Packer{
		Bytes:   make([]byte, 0, codec.AddressLen+consts.Uint64Len+2+MaxNameLen+MaxSymbolLen+4),
		MaxSize: int(CollectionChunks) * 64,
	}
	p.PackFixedBytes(c.Owner[:])
	p.PackLong(c.Size)
	p.PackByte(c.MaxMintPerTx)
	p.PackByte(c.Randomness)
	p.PackStr(c.Name)
	p.PackStr(c.Symbol)
	if p.Err != nil {
		return p.Err
	}
	return mu.Insert(ctx, CollectionKey(), p.Bytes)
}

func GetCollection(ctx context.Context, im state.Immutable) (Collection, error) {
	return parseCollection(im.GetValue(ctx, CollectionKey()))
}

func GetCollectionFromState(ctx context.Context, f ReadState) (Collection, error) {
	values, errs := f(ctx, [][]byte{CollectionKey()})
	return parseCollection(values[0], errs[0])
}

func parseCollection(v []byte, err error) (Collection, error) {
	if errors.Is(err, database.ErrNotFound) {
		return Collection{}, ErrCollectionNotFound
	}
	if err != nil {
		return Collection{}, err
	}
	p := &wrappers.Packer{Bytes: v}
	var c Collection
	copy(c.Owner[:], p.UnpackFixedBytes(codec.AddressLen))
	c.Size = p.UnpackLong()
	c.MaxMintPerTx = p.UnpackByte()
	c.Randomness = p.UnpackByte()
	c.Name = p.UnpackStr()
	c.Symbol = p.UnpackStr()
	if p.Err != nil {
		return Collection{}, fmt.Errorf("%w: %w", ErrInvalidCollection, p.Err)
	}
	return c, nil
}

// ========== Token raffle ==========

func TokenRaffleKey() []byte {
	return singletonKey(raffleHeaderPrefix, RaffleHeaderChunks)
}

// TokenSlotKey is the state key of the token raffle slot at index.
func TokenSlotKey(index uint64) []byte {
	return withChunks(raffle.New(tokenRaffleNamespace, 0).SlotKey(index), RaffleSlotChunks)
}

// NewTokenRaffle returns the token raffle for a fresh collection of size ids.
func NewTokenRaffle(size uint64) *raffle.Pool {
	return raffle.New(tokenRaffleNamespace, size)
}

func PutTokenRaffle(ctx context.Context, mu state.Mutable, p *raffle.Pool) error {
	return setUint64(ctx, mu, TokenRaffleKey(), p.Len())
}

func GetTokenRaffle(ctx context.Context, im state.Immutable) (*raffle.Pool, error) {
	return parseTokenRaffle(im.GetValue(ctx, TokenRaffleKey()))
}

func GetTokenRaffleFromState(ctx context.Context, f ReadState) (*raffle.Pool, error) {
	values, errs := f(ctx, [][]byte{TokenRaffleKey()})
	return parseTokenRaffle(values[0], errs[0])
}

func parseTokenRaffle(v []byte, err error) (*raffle.Pool, error) {
	length, ok, err := innerGetUint64(v, err)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRaffleNotFound
	}
	return raffle.New(tokenRaffleNamespace, length), nil
}

// ========== Ledger ==========

// MintRecordKey keys a mint by the raffle position it was drawn at, that is
// the number of ids still in the raffle after the draw. Positions count down
// from size-1, so serial = size - 1 - position.
func MintRecordKey(position uint64) []byte {
	k := make([]byte, 1+consts.Uint64Len+consts.Uint16Len)
	k[0] = mintRecordPrefix
	binary.BigEndian.PutUint64(k[1:], position)
	binary.BigEndian.PutUint16(k[1+consts.Uint64Len:], MintRecordChunks)
	return k
}

func OwnerCountKey(addr codec.Address) []byte {
	k := make([]byte, 1+codec.AddressLen+consts.Uint16Len)
	k[0] = ownerCountPrefix
	copy(k[1:], addr[:])
	binary.BigEndian.PutUint16(k[1+codec.AddressLen:], OwnerCountChunks)
	return k
}

func PutMintRecord(ctx context.Context, mu state.Mutable, position uint64, record MintRecord) error {
	v := make([]byte, 0, consts.Uint64Len+codec.AddressLen)
	v = binary.BigEndian.AppendUint64(v, record.TokenID)
	v = append(v, record.Owner[:]...)
	return mu.Insert(ctx, MintRecordKey(position), v)
}

func GetMintRecord(ctx context.Context, im state.Immutable, position uint64) (MintRecord, error) {
	return parseMintRecord(im.GetValue(ctx, MintRecordKey(position)))
}

func GetMintRecordFromState(ctx context.Context, f ReadState, position uint64) (MintRecord, error) {
	values, errs := f(ctx, [][]byte{MintRecordKey(position)})
	return parseMintRecord(values[0], errs[0])
}

func parseMintRecord(v []byte, err error) (MintRecord, error) {
	if errors.Is(err, database.ErrNotFound) {
		return MintRecord{}, ErrMintRecordNotFound
	}
	if err != nil {
		return MintRecord{}, err
	}
	if len(v) != consts.Uint64Len+codec.AddressLen {
		return MintRecord{}, fmt.Errorf("%w: mint record length %d", ErrInvalidRecord, len(v))
	}
	r := MintRecord{TokenID: binary.BigEndian.Uint64(v[:consts.Uint64Len])}
	copy(r.Owner[:], v[consts.Uint64Len:])
	return r, nil
}

func GetOwnerCount(ctx context.Context, im state.Immutable, addr codec.Address) (uint64, error) {
	count, _, err := innerGetUint64(im.GetValue(ctx, OwnerCountKey(addr)))
	return count, err
}

func GetOwnerCountFromState(ctx context.Context, f ReadState, addr codec.Address) (uint64, error) {
	values, errs := f(ctx, [][]byte{OwnerCountKey(addr)})
	count, _, err := innerGetUint64(values[0], errs[0])
	return count, err
}

func AddOwnerCount(ctx context.Context, mu state.Mutable, addr codec.Address, amount uint64) (uint64, error) {
	key := OwnerCountKey(addr)
	count, _, err := innerGetUint64(mu.GetValue(ctx, key))
	if err != nil {
		return 0, err
	}
	next, err := smath.Add(count, amount)
	if err != nil {
		return 0, err
	}
	return next, setUint64(ctx, mu, key, next)
}

// ========== Airdrop raffle ==========

func AirdropKey() []byte {
	return singletonKey(airdropHeaderPrefix, AirdropHeaderChunks)
}

func AirdropSlotKey(index uint32) []byte {
	return withChunks(raffle.NewHistoryPool(airdropNamespace, 0, 0).SlotKey(index), RaffleSlotChunks)
}

func AirdropWinnerKey(position uint32) []byte {
	return withChunks(raffle.NewHistoryPool(airdropNamespace, 0, 0).WinnerKey(position), RaffleSlotChunks)
}

func NewAirdrop(size uint32, maxWinners uint32) *raffle.HistoryPool {
	return raffle.NewHistoryPool(airdropNamespace, size, maxWinners)
}

func PutAirdrop(ctx context.Context, mu state.Mutable, h *raffle.HistoryPool) error {
	v := make([]byte, 0, 3*consts.Uint32Len)
	v = binary.BigEndian.AppendUint32(v, h.Len())
	v = binary.BigEndian.AppendUint32(v, h.NumWinners())
	v = binary.BigEndian.AppendUint32(v, h.MaxDraws())
	return mu.Insert(ctx, AirdropKey(), v)
}

func GetAirdrop(ctx context.Context, im state.Immutable) (*raffle.HistoryPool, error) {
	return parseAirdrop(im.GetValue(ctx, AirdropKey()))
}

func GetAirdropFromState(ctx context.Context, f ReadState) (*raffle.HistoryPool, error) {
	values, errs := f(ctx, [][]byte{AirdropKey()})
	return parseAirdrop(values[0], errs[0])
}

func parseAirdrop(v []byte, err error) (*raffle.HistoryPool, error) {
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrAirdropNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(v) != 3*consts.Uint32Len {
		return nil, fmt.Errorf("%w: header length %d", ErrInvalidAirdrop, len(v))
	}
	return raffle.RestoreHistoryPool(
		airdropNamespace,
		binary.BigEndian.Uint32(v[0:4]),
		binary.BigEndian.Uint32(v[4:8]),
		binary.BigEndian.Uint32(v[8:12]),
	), nil
}

// GetAirdropWinnersFromState pages through the airdrop winner log.
func GetAirdropWinnersFromState(ctx context.Context, f ReadState, offset uint32, limit uint32) ([]uint32, error) {
	h, err := GetAirdropFromState(ctx, f)
	if err != nil {
		return nil, err
	}
	return h.History(ctx, RaffleView(StateView(f)), offset, limit)
}

// AirdropAwardKey keys the recipient of the airdrop token awarded for entrant
// tokenID.
func AirdropAwardKey(tokenID uint32) []byte {
	k := make([]byte, 1+consts.Uint32Len+consts.Uint16Len)
	k[0] = airdropAwardPrefix
	binary.BigEndian.PutUint32(k[1:], tokenID)
	binary.BigEndian.PutUint16(k[1+consts.Uint32Len:], AirdropAwardChunks)
	return k
}

func PutAirdropAward(ctx context.Context, mu state.Mutable, tokenID uint32, owner codec.Address) error {
	return mu.Insert(ctx, AirdropAwardKey(tokenID), owner[:])
}

func GetAirdropAward(ctx context.Context, im state.Immutable, tokenID uint32) (codec.Address, error) {
	return parseAirdropAward(im.GetValue(ctx, AirdropAwardKey(tokenID)))
}

func GetAirdropAwardFromState(ctx context.Context, f ReadState, tokenID uint32) (codec.Address, error) {
	values, errs := f(ctx, [][]byte{AirdropAwardKey(tokenID)})
	return parseAirdropAward(values[0], errs[0])
}

func parseAirdropAward(v []byte, err error) (codec.Address, error) {
	if errors.Is(err, database.ErrNotFound) {
		return codec.Address{}, ErrAirdropAwardNotFound
	}
	if err != nil {
		return codec.Address{}, err
	}
	if len(v) != codec.AddressLen {
		return codec.Address{}, fmt.Errorf("%w: award length %d", ErrInvalidRecord, len(v))
	}
	var owner codec.Address
	copy(owner[:], v)
	return owner, nil
}
