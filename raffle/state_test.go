package raffle

import (
	"context"
	"errors"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
)

// memState is chain state over memdb that remembers every key it was asked
// about.
type memState struct {
	db      database.Database
	touched map[string]struct{}
}

func newMemState(db database.Database) *memState {
	if db == nil {
		db = memdb.New()
	}
	return &memState{db: db, touched: make(map[string]struct{})}
}

func (m *memState) GetValue(_ context.Context, key []byte) ([]byte, error) {
	m.touched[string(key)] = struct{}{}
	return m.db.Get(key)
}

func (m *memState) Insert(_ context.Context, key []byte, value []byte) error {
	m.touched[string(key)] = struct{}{}
	return m.db.Put(key, value)
}

func (m *memState) Remove(_ context.Context, key []byte) error {
	m.touched[string(key)] = struct{}{}
	return m.db.Delete(key)
}

func (m *memState) entries() int {
	it := m.db.NewIterator()
	defer it.Release()
	n := 0
	for it.Next() {
		n++
	}
	return n
}

func (m *memState) reset() {
	m.touched = make(map[string]struct{})
}

// fixedSource replays a fixed list of words.
type fixedSource struct {
	words []uint64
	next  int
}

func (f *fixedSource) Uint64() uint64 {
	w := f.words[f.next]
	f.next++
	return w
}

func seedOf(b byte) [32]byte {
	var seed [32]byte
	for i := range seed {
		seed[i] = b + byte(i)
	}
	return seed
}

var errInsertFailed = errors.New("insert failed")

// failingInserts rejects every write to the wrapped state.
type failingInserts struct {
	*memState
}

func (failingInserts) Insert(context.Context, []byte, []byte) error {
	return errInsertFailed
}
