// Package rng provides the shared, seedable random source used for every
// randomized decision in the engine: jitter factors, pool coin flips,
// distractor shuffles and fact-set load order.
package rng

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source is a concurrency-safe random source.
type Source struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a Source seeded with seed. The same seed always produces the
// same sequence.
func New(seed uint64) *Source {
	return &Source{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewTimeSeeded returns a Source seeded from the wall clock.
func NewTimeSeeded() *Source {
	return New(uint64(time.Now().UnixNano()))
}

// Float64 returns a value in [0.0, 1.0).
func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// IntN returns a value in [0, n). Panics if n <= 0.
func (s *Source) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// Bool returns true with probability p.
func (s *Source) Bool(p float64) bool {
	return s.Float64() < p
}

// Shuffle randomizes the order of n elements using swap.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Shuffle(n, swap)
}
