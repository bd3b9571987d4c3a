package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hypersdk/examples/tenkvm/raffle"
	"github.com/ava-labs/hypersdk/examples/tenkvm/storage"
)

func drawWinner(t *testing.T, mu *storage.DatabaseState, remaining uint32, numWinners uint32) (*DrawAirdropWinnerResult, error) {
	t.Helper()
	out, err := execute(t, mu, &DrawAirdropWinner{Remaining: remaining, NumWinners: numWinners}, owner)
	if err != nil {
		return nil, err
	}
	r, err := UnmarshalDrawAirdropWinnerResult(out)
	require.NoError(t, err)
	return r.(*DrawAirdropWinnerResult), nil
}

func TestInitAirdrop(t *testing.T) {
	require := require.New(t)
	_, mu := newCollectionState(t, 10, storage.RandomnessIndependent)

	_, err := execute(t, mu, &InitAirdrop{Size: 20, MaxWinners: 5}, minter)
	require.ErrorIs(err, storage.ErrUnauthorized)

	_, err = execute(t, mu, &InitAirdrop{Size: 0, MaxWinners: 5}, owner)
	require.ErrorIs(err, storage.ErrInvalidAirdrop)

	out, err := execute(t, mu, &InitAirdrop{Size: 20, MaxWinners: 5}, owner)
	require.NoError(err)
	r, err := UnmarshalInitAirdropResult(out)
	require.NoError(err)
	require.Equal(&InitAirdropResult{Size: 20, MaxWinners: 5}, r)

	_, err = execute(t, mu, &InitAirdrop{Size: 20, MaxWinners: 5}, owner)
	require.ErrorIs(err, storage.ErrAirdropExists)
}

func TestDrawAirdropWinnersUntilCap(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db, mu := newCollectionState(t, 10, storage.RandomnessIndependent)

	_, err := drawWinner(t, mu, 20, 0)
	require.ErrorIs(err, storage.ErrAirdropNotFound)

	_, err = execute(t, mu, &InitAirdrop{Size: 20, MaxWinners: 5}, owner)
	require.NoError(err)

	var winners []uint32
	remaining, numWinners := uint32(20), uint32(0)
	for {
		r, err := drawWinner(t, mu, remaining, numWinners)
		require.NoError(err)
		if !r.Drawn {
			require.Equal(remaining, r.Remaining)
			require.Equal(numWinners, r.NumWinners)
			break
		}
		require.Less(r.Winner, uint32(20))
		require.NotContains(winners, r.Winner)
		winners = append(winners, r.Winner)
		remaining, numWinners = r.Remaining, r.NumWinners
	}
	require.Len(winners, 5)
	require.Equal(uint32(15), remaining)

	history, err := storage.GetAirdropWinnersFromState(ctx, readStateOf(db), 0, 100)
	require.NoError(err)
	require.Equal(winners, history)
}

func TestDrawAirdropWinnerRejects(t *testing.T) {
	require := require.New(t)
	_, mu := newCollectionState(t, 10, storage.RandomnessRotating)
	_, err := execute(t, mu, &InitAirdrop{Size: 2, MaxWinners: 10}, owner)
	require.NoError(err)

	_, err = execute(t, mu, &DrawAirdropWinner{Remaining: 2}, minter)
	require.ErrorIs(err, storage.ErrUnauthorized)

	_, err = drawWinner(t, mu, 3, 0)
	require.ErrorIs(err, storage.ErrStaleRemaining)

	_, err = drawWinner(t, mu, 2, 1)
	require.ErrorIs(err, storage.ErrStaleWinners)

	r, err := drawWinner(t, mu, 2, 0)
	require.NoError(err)
	require.True(r.Drawn)
	r, err = drawWinner(t, mu, 1, 1)
	require.NoError(err)
	require.True(r.Drawn)

	_, err = drawWinner(t, mu, 0, 2)
	require.ErrorIs(err, raffle.ErrEmptyPool)
}

func TestMintAirdropToken(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db, mu := newCollectionState(t, 10, storage.RandomnessIndependent)

	_, err := execute(t, mu, &MintAirdropToken{Owner: minter}, owner)
	require.ErrorIs(err, storage.ErrAirdropNotFound)

	_, err = execute(t, mu, &InitAirdrop{Size: 5, MaxWinners: 2}, owner)
	require.NoError(err)
	first, err := drawWinner(t, mu, 5, 0)
	require.NoError(err)
	second, err := drawWinner(t, mu, 4, 1)
	require.NoError(err)

	_, err = execute(t, mu, &MintAirdropToken{Owner: minter, TokenID: first.Winner}, minter)
	require.ErrorIs(err, storage.ErrUnauthorized)

	_, err = execute(t, mu, &MintAirdropToken{Owner: minter, TokenID: first.Winner, Position: 2}, owner)
	require.ErrorIs(err, storage.ErrAirdropWinnerNotFound)

	_, err = execute(t, mu, &MintAirdropToken{Owner: minter, TokenID: second.Winner, Position: 0}, owner)
	require.ErrorIs(err, storage.ErrAirdropWinnerMismatch)

	out, err := execute(t, mu, &MintAirdropToken{Owner: minter, TokenID: first.Winner, Position: 0}, owner)
	require.NoError(err)
	r, err := UnmarshalMintAirdropTokenResult(out)
	require.NoError(err)
	require.Equal(&MintAirdropTokenResult{TokenID: first.Winner, Owner: minter, Owned: 1}, r)

	_, err = execute(t, mu, &MintAirdropToken{Owner: owner, TokenID: first.Winner, Position: 0}, owner)
	require.ErrorIs(err, storage.ErrAirdropAwarded)

	_, err = execute(t, mu, &MintAirdropToken{Owner: minter, TokenID: second.Winner, Position: 1}, owner)
	require.NoError(err)

	for _, tokenID := range []uint32{first.Winner, second.Winner} {
		got, err := storage.GetAirdropAwardFromState(ctx, readStateOf(db), tokenID)
		require.NoError(err)
		require.Equal(minter, got)
	}
	owned, err := storage.GetOwnerCountFromState(ctx, readStateOf(db), minter)
	require.NoError(err)
	require.Equal(uint64(2), owned)
	owned, err = storage.GetOwnerCountFromState(ctx, readStateOf(db), owner)
	require.NoError(err)
	require.Zero(owned)
}
