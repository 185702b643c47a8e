// Package randutil centralises rng construction so deck shuffles, judge
// selection and auto-play card picks are reproducible from a single seed.
package randutil

import (
	"math/rand"
	"time"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from the provided
// int64. Seeds are mixed first so adjacent inputs don't produce correlated
// sequences.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(int64(mix(uint64(seed) + goldenRatio64))))
}

// NewFromTime returns a *rand.Rand seeded from the current time. Used
// where reproducibility doesn't matter, like production shuffles.
func NewFromTime() *rand.Rand {
	return New(time.Now().UnixNano())
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
