package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

// Source is the randomness capability threaded through every roll.
// Injecting it keeps combat reproducible: the same seed and the same
// sequence of calls always resolve the same way.
type Source interface {
	// Int returns a uniform integer in [min, max]. When max < min it returns min.
	Int(min, max int) int

	// Float returns a uniform float in [0, 1).
	Float() float64
}

// seededSource wraps a math/rand generator
type seededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource creates a deterministic source for the given seed
func NewSource(seed int64) Source {
	return &seededSource{rng: rand.New(rand.NewSource(seed))}
}

// NewRandomSource creates a source seeded from crypto/rand
func NewRandomSource() Source {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a fixed seed
		return NewSource(1)
	}
	return NewSource(int64(binary.LittleEndian.Uint64(b[:])))
}

// Int implements Source.Int
func (s *seededSource) Int(min, max int) int {
	if max <= min {
		return min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + s.rng.Intn(max-min+1)
}

// Float implements Source.Float
func (s *seededSource) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}
