package storage

import (
	"context"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/versiondb"

	"github.com/ava-labs/hypersdk/state"
)

var (
	_ state.Mutable   = (*DatabaseState)(nil)
	_ state.Immutable = readStateView(nil)
	_ state.Mutable   = chunkedState{}
)

// DatabaseState exposes an avalanchego key-value store as chain state. It lets
// raffles run off chain, for instance in the simulator and in tests.
type DatabaseState struct {
	db database.KeyValueReaderWriterDeleter
}

func NewDatabaseState(db database.KeyValueReaderWriterDeleter) *DatabaseState {
	return &DatabaseState{db: db}
}

func (d *DatabaseState) GetValue(_ context.Context, key []byte) ([]byte, error) {
	return d.db.Get(key)
}

func (d *DatabaseState) Insert(_ context.Context, key []byte, value []byte) error {
	return d.db.Put(key, value)
}

func (d *DatabaseState) Remove(_ context.Context, key []byte) error {
	return d.db.Delete(key)
}

// Batch buffers writes over a database until Commit. Abort discards every
// write made through the batch, so a failed multi-draw leaves no trace.
type Batch struct {
	*DatabaseState
	vdb *versiondb.Database
}

func NewBatch(db database.Database) *Batch {
	vdb := versiondb.New(db)
	return &Batch{
		DatabaseState: NewDatabaseState(vdb),
		vdb:           vdb,
	}
}

func (b *Batch) Commit() error {
	return b.vdb.Commit()
}

func (b *Batch) Abort() {
	b.vdb.Abort()
}

// StateView adapts a ReadState callback, as served by the VM API, to
// state.Immutable.
func StateView(f ReadState) state.Immutable {
	return readStateView(f)
}

type readStateView ReadState

func (f readStateView) GetValue(ctx context.Context, key []byte) ([]byte, error) {
	values, errs := f(ctx, [][]byte{key})
	return values[0], errs[0]
}

// RaffleState maps raffle slot keys onto chain keys by appending the slot
// chunk count.
func RaffleState(mu state.Mutable) state.Mutable {
	return chunkedState{chunkedView: chunkedView{im: mu, chunks: RaffleSlotChunks}, mu: mu}
}

// RaffleView is the read-only counterpart of RaffleState.
func RaffleView(im state.Immutable) state.Immutable {
	return chunkedView{im: im, chunks: RaffleSlotChunks}
}

type chunkedView struct {
	im     state.Immutable
	chunks uint16
}

func (c chunkedView) GetValue(ctx context.Context, key []byte) ([]byte, error) {
	return c.im.GetValue(ctx, withChunks(key, c.chunks))
}

type chunkedState struct {
	chunkedView
	mu state.Mutable
}

func (c chunkedState) Insert(ctx context.Context, key []byte, value []byte) error {
	return c.mu.Insert(ctx, withChunks(key, c.chunks), value)
}

func (c chunkedState) Remove(ctx context.Context, key []byte) error {
	return c.mu.Remove(ctx, withChunks(key, c.chunks))
}
