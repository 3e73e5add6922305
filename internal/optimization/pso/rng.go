package pso

import (
	"math/rand"
	"time"
)

// resolveSeed picks the base seed of a run. An injected source wins, then an
// explicit seed; zero means "seed from the clock".
func resolveSeed(seed int64, injected *rand.Rand) int64 {
	if injected != nil {
		return injected.Int63()
	}
	if seed == 0 {
		return time.Now().UnixNano()
	}
	return seed
}

// deriveSeed mixes a base seed with a stream id (SplitMix64 finalizer) so
// that neighbouring particle ids get uncorrelated streams.
func deriveSeed(base int64, stream uint64) int64 {
	x := uint64(base) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}

// particleRand returns the private random stream of particle id.
func particleRand(base int64, id int) *rand.Rand {
	return rand.New(rand.NewSource(deriveSeed(base, uint64(id))))
}
