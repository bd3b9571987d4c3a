package raffle

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/hypersdk/consts"
	"github.com/ava-labs/hypersdk/state"
)

// winnersSuffix is appended to a pool namespace to form its winner log
// namespace.
const winnersSuffix byte = 100

// HistoryPool draws 32-bit identities like Pool, stops awarding after
// maxDraws successful draws and records every drawn value in an append-only
// log in draw order.
type HistoryPool struct {
	slots    slots[uint32]
	log      slots[uint32]
	length   uint32
	winners  uint32
	maxDraws uint32
}

// NewHistoryPool returns a pool holding [0, length) that awards at most
// maxDraws identities. Nothing is written to state.
func NewHistoryPool(namespace []byte, length uint32, maxDraws uint32) *HistoryPool {
	return RestoreHistoryPool(namespace, length, 0, maxDraws)
}

// RestoreHistoryPool rebuilds a pool from its persisted counters.
func RestoreHistoryPool(namespace []byte, length uint32, winners uint32, maxDraws uint32) *HistoryPool {
	logNamespace := make([]byte, 0, len(namespace)+1)
	logNamespace = append(logNamespace, namespace...)
	logNamespace = append(logNamespace, winnersSuffix)
	return &HistoryPool{
		slots:    newSlots[uint32](namespace, consts.Uint32Len),
		log:      newSlots[uint32](logNamespace, consts.Uint32Len),
		length:   length,
		winners:  winners,
		maxDraws: maxDraws,
	}
}

func (h *HistoryPool) Len() uint32 {
	return h.length
}

func (h *HistoryPool) IsEmpty() bool {
	return h.length == 0
}

// NumWinners returns the number of successful draws.
func (h *HistoryPool) NumWinners() uint32 {
	return h.winners
}

func (h *HistoryPool) MaxDraws() uint32 {
	return h.maxDraws
}

// CapReached reports whether no further identities will be awarded.
func (h *HistoryPool) CapReached() bool {
	return h.winners >= h.maxDraws
}

func (h *HistoryPool) Namespace() []byte {
	return h.slots.namespace
}

func (h *HistoryPool) SlotKey(index uint32) []byte {
	return h.slots.key(index)
}

// WinnerKey returns the state key of the log entry at position.
func (h *HistoryPool) WinnerKey(position uint32) []byte {
	return h.log.key(position)
}

// Draw awards one identity and appends it to the winner log. It returns
// ok == false, with no state change, once maxDraws identities were awarded even
// if the pool still holds more. Drawing from an empty pool fails with
// ErrEmptyPool.
func (h *HistoryPool) Draw(ctx context.Context, mu state.Mutable, src Source) (uint32, bool, error) {
	if h.IsEmpty() {
		return 0, false, ErrEmptyPool
	}
	if h.CapReached() {
		return 0, false, nil
	}
	index := uint32(pickIndex(src, uint64(h.length)))
	value, err := swapRemove(ctx, mu, h.slots, h.length, index)
	if err != nil {
		return 0, false, err
	}
	if err := mu.Insert(ctx, h.log.key(h.winners), h.log.encode(value)); err != nil {
		return 0, false, err
	}
	h.length--
	h.winners++
	return value, true, nil
}

// Winner returns the identity drawn at position in the winner log.
func (h *HistoryPool) Winner(ctx context.Context, im state.Immutable, position uint32) (uint32, error) {
	if position >= h.winners {
		return 0, fmt.Errorf("%w: position=%d winners=%d", ErrIndexOutOfBounds, position, h.winners)
	}
	it := h.Winners(position, 1)
	if !it.Next(ctx, im) {
		return 0, it.Error()
	}
	return it.Value(), nil
}

// History returns up to limit winners in draw order, skipping the first
// offset.
func (h *HistoryPool) History(ctx context.Context, im state.Immutable, offset uint32, limit uint32) ([]uint32, error) {
	it := h.Winners(offset, limit)
	out := make([]uint32, 0, it.remaining())
	for it.Next(ctx, im) {
		out = append(out, it.Value())
	}
	return out, it.Error()
}

// Winners returns an iterator over a slice of the winner log. An offset past
// the end yields nothing.
func (h *HistoryPool) Winners(offset uint32, limit uint32) *WinnerIterator {
	end := h.winners
	if offset > end {
		offset = end
	}
	if limit < end-offset {
		end = offset + limit
	}
	return &WinnerIterator{log: h.log, start: offset, next: offset, end: end}
}

// WinnerIterator walks a fixed range of the winner log. It can be restarted
// with Reset.
type WinnerIterator struct {
	log   slots[uint32]
	start uint32
	next  uint32
	end   uint32
	value uint32
	err   error
}

// Next advances to the next entry, reading it from im.
func (it *WinnerIterator) Next(ctx context.Context, im state.Immutable) bool {
	if it.err != nil || it.next >= it.end {
		return false
	}
	v, err := im.GetValue(ctx, it.log.key(it.next))
	if errors.Is(err, database.ErrNotFound) {
		it.err = fmt.Errorf("%w: missing winner %d", ErrInconsistentState, it.next)
		return false
	}
	if err != nil {
		it.err = err
		return false
	}
	value, err := it.log.decode(v)
	if err != nil {
		it.err = err
		return false
	}
	it.value = value
	it.next++
	return true
}

func (it *WinnerIterator) Value() uint32 {
	return it.value
}

func (it *WinnerIterator) Error() error {
	return it.err
}

// Reset rewinds the iterator to the start of its range.
func (it *WinnerIterator) Reset() {
	it.next = it.start
	it.value = 0
	it.err = nil
}

func (it *WinnerIterator) remaining() uint32 {
	return it.end - it.next
}
