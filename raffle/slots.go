package raffle

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/hypersdk/consts"
	"github.com/ava-labs/hypersdk/state"
)

type id interface {
	~uint32 | ~uint64
}

// slots is the index -> value mapping behind a pool. An index with no stored
// entry holds itself, so a pool of any size starts with zero writes.
type slots[T id] struct {
	namespace []byte
	width     int
}

func newSlots[T id](namespace []byte, width int) slots[T] {
	return slots[T]{
		namespace: append([]byte(nil), namespace...),
		width:     width,
	}
}

func (s slots[T]) key(index T) []byte {
	return appendLE(append(make([]byte, 0, len(s.namespace)+s.width), s.namespace...), uint64(index), s.width)
}

func (s slots[T]) encode(v T) []byte {
	return appendLE(make([]byte, 0, s.width), uint64(v), s.width)
}

func (s slots[T]) decode(b []byte) (T, error) {
	if len(b) != s.width {
		return 0, fmt.Errorf("%w: slot value has %d bytes, want %d", ErrInconsistentState, len(b), s.width)
	}
	if s.width == consts.Uint32Len {
		return T(binary.LittleEndian.Uint32(b)), nil
	}
	return T(binary.LittleEndian.Uint64(b)), nil
}

// get returns the effective value at index and whether it was stored.
func (s slots[T]) get(ctx context.Context, im state.Immutable, index T) (T, bool, error) {
	v, err := im.GetValue(ctx, s.key(index))
	if errors.Is(err, database.ErrNotFound) {
		return index, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	val, err := s.decode(v)
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

// take returns the effective value at index and clears its slot.
func (s slots[T]) take(ctx context.Context, mu state.Mutable, index T) (T, error) {
	val, stored, err := s.get(ctx, mu, index)
	if err != nil {
		return 0, err
	}
	if !stored {
		return val, nil
	}
	return val, mu.Remove(ctx, s.key(index))
}

// replace writes value at index and returns the effective value it shadowed.
func (s slots[T]) replace(ctx context.Context, mu state.Mutable, index T, value T) (T, error) {
	prev, _, err := s.get(ctx, mu, index)
	if err != nil {
		return 0, err
	}
	return prev, mu.Insert(ctx, s.key(index), s.encode(value))
}

// swapRemove removes the value at index from the dense range [0, length),
// moving the last value into the freed slot. The caller shrinks its length
// only once this succeeds.
func swapRemove[T id](ctx context.Context, mu state.Mutable, s slots[T], length T, index T) (T, error) {
	if index >= length {
		return 0, fmt.Errorf("%w: index=%d len=%d", ErrIndexOutOfBounds, index, length)
	}
	last := length - 1
	lastValue, err := s.take(ctx, mu, last)
	if err != nil {
		return 0, err
	}
	if index == last {
		return lastValue, nil
	}
	return s.replace(ctx, mu, index, lastValue)
}

func appendLE(b []byte, v uint64, width int) []byte {
	if width == consts.Uint32Len {
		return binary.LittleEndian.AppendUint32(b, uint32(v))
	}
	return binary.LittleEndian.AppendUint64(b, v)
}
