package pso

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVelocity(t *testing.T) {
	var v Velocity
	assert.Zero(t, v.Len())

	v.Add(3, 0, 2, 0.5)
	v.Add(1, 2, 1, 0.25)
	assert.Equal(t, 2, v.Len())

	ops := v.Operators()
	assert.Equal(t, SwapOperator{Vertex: 3, Origin: 0, Correct: 2, Coefficient: 0.5}, ops[0])
	ops[0].Vertex = 9
	assert.Equal(t, 3, int(v.Operators()[0].Vertex), "Operators returns a copy")

	v.Reset()
	assert.Zero(t, v.Len())
	assert.Empty(t, v.Operators())
}

func TestDeriveSeed(t *testing.T) {
	assert.Equal(t, deriveSeed(42, 7), deriveSeed(42, 7))

	seen := map[int64]struct{}{}
	for id := uint64(0); id < 1000; id++ {
		seen[deriveSeed(42, id)] = struct{}{}
	}
	assert.Len(t, seen, 1000, "stream seeds collide")
	assert.NotEqual(t, deriveSeed(1, 0), deriveSeed(2, 0))

	a, b := particleRand(5, 3), particleRand(5, 3)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Int63(), b.Int63())
	}
}
