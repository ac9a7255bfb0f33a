package mockdice

import (
	"sync"
)

// ManualMockSource implements dice.Source for testing with predetermined results.
// Once the queue runs dry Int returns min and Float returns 0.99, so an
// unexpected extra roll never opens a probabilistic window by accident.
type ManualMockSource struct {
	mu         sync.Mutex
	ints       []int
	intIndex   int
	floats     []float64
	floatIndex int
	misses     int
}

// NewManualMockSource creates a new mock source
func NewManualMockSource() *ManualMockSource {
	return &ManualMockSource{}
}

// SetInts sets the integer results returned in order
func (m *ManualMockSource) SetInts(ints ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ints = ints
	m.intIndex = 0
}

// AddInts appends integer results to the queue
func (m *ManualMockSource) AddInts(ints ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ints = append(m.ints, ints...)
}

// SetFloats sets the float results returned in order
func (m *ManualMockSource) SetFloats(floats ...float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.floats = floats
	m.floatIndex = 0
}

// Reset clears all queued results
func (m *ManualMockSource) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ints = nil
	m.intIndex = 0
	m.floats = nil
	m.floatIndex = 0
	m.misses = 0
}

// RemainingInts reports how many queued integers have not been consumed
func (m *ManualMockSource) RemainingInts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ints) - m.intIndex
}

// Misses reports how many calls found an empty queue
func (m *ManualMockSource) Misses() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.misses
}

// Int implements dice.Source.Int, clamping queued values into [min, max]
func (m *ManualMockSource) Int(min, max int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.intIndex >= len(m.ints) {
		m.misses++
		return min
	}

	v := m.ints[m.intIndex]
	m.intIndex++
	if v < min {
		return min
	}
	if max >= min && v > max {
		return max
	}
	return v
}

// Float implements dice.Source.Float
func (m *ManualMockSource) Float() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.floatIndex >= len(m.floats) {
		m.misses++
		return 0.99
	}

	v := m.floats[m.floatIndex]
	m.floatIndex++
	return v
}
