package storage

import (
	"context"
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/stretchr/testify/require"
)

func TestMintedPages(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db := memdb.New()
	mu := NewDatabaseState(db)
	f := readStateOf(db)
	owner := testAddress(9)

	require.NoError(PutCollection(ctx, mu, Collection{Owner: owner, Size: 6, MaxMintPerTx: 3}))
	pool := NewTokenRaffle(6)
	var want []MintedToken
	src := &countingSource{}
	for serial := uint64(0); serial < 4; serial++ {
		tokenID, err := pool.Draw(ctx, RaffleState(mu), src)
		require.NoError(err)
		require.NoError(PutMintRecord(ctx, mu, pool.Len(), MintRecord{TokenID: tokenID, Owner: owner}))
		want = append(want, MintedToken{Serial: serial, TokenID: tokenID, Owner: owner})
	}
	require.NoError(PutTokenRaffle(ctx, mu, pool))

	_, minted, err := GetMintedCountFromState(ctx, f)
	require.NoError(err)
	require.Equal(uint64(4), minted)

	all, err := GetMintedFromState(ctx, f, 0, 100)
	require.NoError(err)
	require.Equal(want, all)

	page, err := GetMintedFromState(ctx, f, 1, 2)
	require.NoError(err)
	require.Equal(want[1:3], page)

	empty, err := GetMintedFromState(ctx, f, 4, 10)
	require.NoError(err)
	require.Empty(empty)

	token, err := GetMintedTokenFromState(ctx, f, 3)
	require.NoError(err)
	require.Equal(want[3], token)

	_, err = GetMintedTokenFromState(ctx, f, 4)
	require.ErrorIs(err, ErrMintRecordNotFound)
}
