package storage

import (
	"context"
	"testing"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/examples/tenkvm/raffle"
)

func testAddress(b byte) codec.Address {
	var addr codec.Address
	for i := range addr {
		addr[i] = b
	}
	return addr
}

func readStateOf(db database.KeyValueReader) ReadState {
	return func(_ context.Context, keys [][]byte) ([][]byte, []error) {
		values := make([][]byte, len(keys))
		errs := make([]error, len(keys))
		for i, k := range keys {
			values[i], errs[i] = db.Get(k)
		}
		return values, errs
	}
}

type countingSource struct{ n uint64 }

func (c *countingSource) Uint64() uint64 {
	c.n++
	return c.n * 7919
}

func TestBalance(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db := memdb.New()
	mu := NewDatabaseState(db)
	addr := testAddress(1)

	bal, err := GetBalance(ctx, mu, addr)
	require.NoError(err)
	require.Zero(bal)

	_, err = SubBalance(ctx, mu, addr, 1)
	require.ErrorIs(err, ErrInvalidBalance)

	bal, err = AddBalance(ctx, mu, addr, 10)
	require.NoError(err)
	require.Equal(uint64(10), bal)

	_, err = SubBalance(ctx, mu, addr, 11)
	require.ErrorIs(err, ErrInvalidBalance)

	bal, err = SubBalance(ctx, mu, addr, 10)
	require.NoError(err)
	require.Zero(bal)
	has, err := db.Has(BalanceKey(addr))
	require.NoError(err)
	require.False(has)

	require.NoError(SetBalance(ctx, mu, addr, 42))
	bal, err = GetBalanceFromState(ctx, readStateOf(db), addr)
	require.NoError(err)
	require.Equal(uint64(42), bal)
}

func TestBalanceHandler(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	mu := NewDatabaseState(memdb.New())
	addr := testAddress(2)
	h := &BalanceHandler{}

	require.Contains(h.SponsorStateKeys(addr), string(BalanceKey(addr)))
	require.NoError(h.AddBalance(ctx, addr, mu, 5))
	require.NoError(h.CanDeduct(ctx, addr, mu, 5))
	require.ErrorIs(h.CanDeduct(ctx, addr, mu, 6), ErrInvalidBalance)
	require.NoError(h.Deduct(ctx, addr, mu, 3))
	bal, err := h.GetBalance(ctx, addr, mu)
	require.NoError(err)
	require.Equal(uint64(2), bal)
}

func TestCollection(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db := memdb.New()
	mu := NewDatabaseState(db)

	_, err := GetCollection(ctx, mu)
	require.ErrorIs(err, ErrCollectionNotFound)

	c := Collection{
		Owner:        testAddress(3),
		Name:         "Ten Thousand",
		Symbol:       "TENK",
		Size:         10_000,
		MaxMintPerTx: 3,
		Randomness:   RandomnessRotating,
	}
	require.NoError(PutCollection(ctx, mu, c))
	got, err := GetCollectionFromState(ctx, readStateOf(db))
	require.NoError(err)
	require.Equal(c, got)
}

func TestValidateCollection(t *testing.T) {
	valid := Collection{Owner: testAddress(1), Size: 1, MaxMintPerTx: 1}
	tests := []struct {
		name   string
		mutate func(*Collection)
	}{
		{name: "no owner", mutate: func(c *Collection) { c.Owner = codec.Address{} }},
		{name: "empty collection", mutate: func(c *Collection) { c.Size = 0 }},
		{name: "zero per tx", mutate: func(c *Collection) { c.MaxMintPerTx = 0 }},
		{name: "unknown randomness", mutate: func(c *Collection) { c.Randomness = 9 }},
		{name: "long symbol", mutate: func(c *Collection) { c.Symbol = "ABCDEFGHIJKLMNOPQ" }},
	}
	require.NoError(t, ValidateCollection(valid))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			require.ErrorIs(t, ValidateCollection(c), ErrInvalidCollection)
		})
	}
}

func TestTokenRaffleSlotKeys(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db := memdb.New()
	mu := NewDatabaseState(db)

	_, err := GetTokenRaffle(ctx, mu)
	require.ErrorIs(err, ErrRaffleNotFound)

	p := NewTokenRaffle(10)
	require.NoError(PutTokenRaffle(ctx, mu, p))
	_, err = p.SwapRemove(ctx, RaffleState(mu), 2)
	require.NoError(err)
	require.NoError(PutTokenRaffle(ctx, mu, p))

	has, err := db.Has(TokenSlotKey(2))
	require.NoError(err)
	require.True(has)

	restored, err := GetTokenRaffleFromState(ctx, readStateOf(db))
	require.NoError(err)
	require.Equal(uint64(9), restored.Len())
	v, err := restored.Get(ctx, RaffleView(mu), 2)
	require.NoError(err)
	require.Equal(uint64(9), v)
}

func TestMintLedger(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db := memdb.New()
	mu := NewDatabaseState(db)
	owner := testAddress(4)

	_, err := GetMintRecord(ctx, mu, 7)
	require.ErrorIs(err, ErrMintRecordNotFound)

	require.NoError(PutMintRecord(ctx, mu, 7, MintRecord{TokenID: 1234, Owner: owner}))
	r, err := GetMintRecordFromState(ctx, readStateOf(db), 7)
	require.NoError(err)
	require.Equal(MintRecord{TokenID: 1234, Owner: owner}, r)

	require.NoError(mu.Insert(ctx, MintRecordKey(8), []byte{1}))
	_, err = GetMintRecord(ctx, mu, 8)
	require.ErrorIs(err, ErrInvalidRecord)

	count, err := AddOwnerCount(ctx, mu, owner, 2)
	require.NoError(err)
	require.Equal(uint64(2), count)
	count, err = AddOwnerCount(ctx, mu, owner, 1)
	require.NoError(err)
	require.Equal(uint64(3), count)
	count, err = GetOwnerCountFromState(ctx, readStateOf(db), owner)
	require.NoError(err)
	require.Equal(uint64(3), count)
}

func TestAirdropHistoryFromState(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db := memdb.New()
	mu := NewDatabaseState(db)

	_, err := GetAirdropWinnersFromState(ctx, readStateOf(db), 0, 10)
	require.ErrorIs(err, ErrAirdropNotFound)

	h := NewAirdrop(20, 5)
	src := &countingSource{}
	var winners []uint32
	for {
		w, ok, err := h.Draw(ctx, RaffleState(mu), src)
		require.NoError(err)
		if !ok {
			break
		}
		winners = append(winners, w)
	}
	require.NoError(PutAirdrop(ctx, mu, h))

	restored, err := GetAirdrop(ctx, mu)
	require.NoError(err)
	require.Equal(h.Len(), restored.Len())
	require.Equal(uint32(5), restored.NumWinners())
	require.Equal(uint32(5), restored.MaxDraws())

	has, err := db.Has(AirdropWinnerKey(4))
	require.NoError(err)
	require.True(has)

	page, err := GetAirdropWinnersFromState(ctx, readStateOf(db), 1, 3)
	require.NoError(err)
	require.Equal(winners[1:4], page)
}

func TestBatch(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	base := memdb.New()
	db := prefixdb.New([]byte("tenk"), base)
	addr := testAddress(5)

	b := NewBatch(db)
	_, err := AddBalance(ctx, b, addr, 9)
	require.NoError(err)
	b.Abort()
	bal, err := GetBalance(ctx, NewDatabaseState(db), addr)
	require.NoError(err)
	require.Zero(bal)

	b = NewBatch(db)
	p := raffle.New([]byte{0x01}, 4)
	_, err = p.Draw(ctx, RaffleState(b), &countingSource{})
	require.NoError(err)
	_, err = AddBalance(ctx, b, addr, 9)
	require.NoError(err)
	require.NoError(b.Commit())

	bal, err = GetBalance(ctx, NewDatabaseState(db), addr)
	require.NoError(err)
	require.Equal(uint64(9), bal)
	has, err := base.Has(BalanceKey(addr))
	require.NoError(err)
	require.False(has)
}
