package raffle

import (
	"crypto/sha256"
	"encoding/binary"
)

// Source produces the random words consumed by draws. It matches the shape of
// avalanchego's sampler.Source so any of its generators can be plugged in.
type Source interface {
	// Uint64 returns a random number in [0, MaxUint64] and advances the
	// source.
	Uint64() uint64
}

var (
	_ Source = (*EntropySource)(nil)
	_ Source = (*RotatingSource)(nil)
)

// EntropySource yields an independent word per call by hashing the seed with
// a call counter.
type EntropySource struct {
	seed    [32]byte
	counter uint64
}

func NewEntropySource(seed [32]byte) *EntropySource {
	return &EntropySource{seed: seed}
}

func (s *EntropySource) Uint64() uint64 {
	preimage := make([]byte, 0, len(s.seed)+8)
	preimage = append(preimage, s.seed[:]...)
	preimage = binary.LittleEndian.AppendUint64(preimage, s.counter)
	s.counter++
	digest := sha256.Sum256(preimage)
	return binary.LittleEndian.Uint64(digest[:8])
}

// RotatingSource reuses one seed for every call, reading it rotated left by
// the call number. Successive words share most of their entropy; it exists to
// reproduce collections minted under the legacy behavior.
type RotatingSource struct {
	seed  [32]byte
	shift int
}

func NewRotatingSource(seed [32]byte) *RotatingSource {
	return &RotatingSource{seed: seed}
}

func (s *RotatingSource) Uint64() uint64 {
	var word [8]byte
	for i := range word {
		word[i] = s.seed[(s.shift+i)%len(s.seed)]
	}
	s.shift = (s.shift + 1) % len(s.seed)
	return binary.LittleEndian.Uint64(word[:])
}

// pickIndex reduces one word from src to an index in [0, length). Every draw
// consumes exactly one word, so the i-th draw always sees the i-th word. The
// modulo bias is negligible for any collection size.
func pickIndex(src Source, length uint64) uint64 {
	return src.Uint64() % length
}

// Step is the pair of slots one draw touches.
type Step struct {
	Index uint64
	Last  uint64
}

// Plan previews the slots touched by count draws on a pool of the given
// length, consuming src exactly as the draws would. It fails with
// ErrEmptyPool if the pool runs out first.
func Plan(length uint64, count int, src Source) ([]Step, error) {
	steps := make([]Step, 0, count)
	for i := 0; i < count; i++ {
		if length == 0 {
			return steps, ErrEmptyPool
		}
		steps = append(steps, Step{
			Index: pickIndex(src, length),
			Last:  length - 1,
		})
		length--
	}
	return steps, nil
}
