// Package raffle draws token identities uniformly at random without
// replacement from a pool kept in chain state.
//
// A pool of length n logically holds the dense array [0, n). Only slots that a
// draw has perturbed are ever written: an index with no stored entry holds its
// own value. Each draw picks a random index, returns its effective value and
// moves the last value into the freed slot.
package raffle

import (
	"context"

	"github.com/ava-labs/hypersdk/consts"
	"github.com/ava-labs/hypersdk/state"
)

// Pool is the remaining set of 64-bit identities. Slot keys are the namespace
// followed by the little-endian index.
type Pool struct {
	slots  slots[uint64]
	length uint64
}

// New returns a pool holding [0, length). Nothing is written to state.
func New(namespace []byte, length uint64) *Pool {
	return &Pool{
		slots:  newSlots[uint64](namespace, consts.Uint64Len),
		length: length,
	}
}

// Len returns the number of identities not yet drawn.
func (p *Pool) Len() uint64 {
	return p.length
}

func (p *Pool) IsEmpty() bool {
	return p.length == 0
}

// Namespace returns the key prefix of the pool's slots.
func (p *Pool) Namespace() []byte {
	return p.slots.namespace
}

// SlotKey returns the state key of the slot at index.
func (p *Pool) SlotKey(index uint64) []byte {
	return p.slots.key(index)
}

// Draw removes one identity chosen with a single word from src and returns it.
// Drawing from an empty pool fails with ErrEmptyPool; callers must check Len
// first.
func (p *Pool) Draw(ctx context.Context, mu state.Mutable, src Source) (uint64, error) {
	if p.IsEmpty() {
		return 0, ErrEmptyPool
	}
	return p.SwapRemove(ctx, mu, pickIndex(src, p.length))
}

// SwapRemove removes the identity at index, replacing it with the last one.
func (p *Pool) SwapRemove(ctx context.Context, mu state.Mutable, index uint64) (uint64, error) {
	v, err := swapRemove(ctx, mu, p.slots, p.length, index)
	if err != nil {
		return 0, err
	}
	p.length--
	return v, nil
}

// Get returns the identity currently held at index without modifying the pool.
func (p *Pool) Get(ctx context.Context, im state.Immutable, index uint64) (uint64, error) {
	if index >= p.length {
		return 0, ErrIndexOutOfBounds
	}
	v, _, err := p.slots.get(ctx, im, index)
	return v, err
}
