package actions

import (
	"context"
	"testing"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/examples/tenkvm/storage"
	"github.com/ava-labs/hypersdk/state"
)

var (
	owner  = testAddress(1)
	minter = testAddress(2)
)

func testAddress(b byte) codec.Address {
	var addr codec.Address
	for i := range addr {
		addr[i] = b
	}
	return addr
}

// scopedState fails the test when an action touches a key it did not
// declare with the needed permission.
type scopedState struct {
	t    *testing.T
	mu   state.Mutable
	keys state.Keys
}

func (s *scopedState) require(key []byte, perm state.Permissions) {
	declared, ok := s.keys[string(key)]
	require.True(s.t, ok, "undeclared key %x", key)
	require.Equal(s.t, perm, declared&perm, "key %x lacks permission %d", key, perm)
}

func (s *scopedState) GetValue(ctx context.Context, key []byte) ([]byte, error) {
	s.require(key, state.Read)
	return s.mu.GetValue(ctx, key)
}

func (s *scopedState) Insert(ctx context.Context, key []byte, value []byte) error {
	s.require(key, state.Write)
	return s.mu.Insert(ctx, key, value)
}

func (s *scopedState) Remove(ctx context.Context, key []byte) error {
	s.require(key, state.Write)
	return s.mu.Remove(ctx, key)
}

func readStateOf(db database.KeyValueReader) storage.ReadState {
	return func(_ context.Context, keys [][]byte) ([][]byte, []error) {
		values := make([][]byte, len(keys))
		errs := make([]error, len(keys))
		for i, k := range keys {
			values[i], errs[i] = db.Get(k)
		}
		return values, errs
	}
}

func newCollectionState(t *testing.T, size uint64, randomness uint8) (database.Database, *storage.DatabaseState) {
	t.Helper()
	ctx := context.Background()
	db := memdb.New()
	mu := storage.NewDatabaseState(db)
	require.NoError(t, storage.PutCollection(ctx, mu, storage.Collection{
		Owner:        owner,
		Name:         "Test",
		Symbol:       "TST",
		Size:         size,
		MaxMintPerTx: 3,
		Randomness:   randomness,
	}))
	require.NoError(t, storage.PutTokenRaffle(ctx, mu, storage.NewTokenRaffle(size)))
	return db, mu
}

func execute(t *testing.T, mu state.Mutable, action chain.Action, actor codec.Address) ([]byte, error) {
	t.Helper()
	actionID := ids.GenerateTestID()
	scoped := &scopedState{t: t, mu: mu, keys: action.StateKeys(actor, actionID)}
	return action.Execute(context.Background(), nil, scoped, 0, actor, actionID)
}
