package pso

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/tspswarm/internal/optimization"
)

func TestNewParticleCopiesPersonalBest(t *testing.T) {
	g := unitSquare(t)
	tr := makeTour(g, 0, 2, 1, 3)
	p := NewParticle(0, tr, rand.New(rand.NewSource(1)))

	require.True(t, p.best.Equal(p.actual))
	assert.NotSame(t, p.best, p.actual)
	assert.Equal(t, p.ActualCost(), p.BestCost())
}

func TestApplySwap(t *testing.T) {
	g := unitSquare(t)

	t.Run("improvement updates personal best", func(t *testing.T) {
		p := NewParticle(0, makeTour(g, 0, 2, 1, 3), rand.New(rand.NewSource(1)))
		require.NoError(t, p.ApplySwap(1, 2, g))
		assert.Equal(t, []int{0, 1, 2, 3}, ids(p.PersonalBest().Vertices()))
		assert.InDelta(t, 4.0, p.BestCost().Value, 1e-12)

		// later moves of the actual tour must not leak into the stored best
		require.NoError(t, p.ApplySwap(0, 2, g))
		assert.Equal(t, []int{0, 1, 2, 3}, ids(p.PersonalBest().Vertices()))
		assert.Equal(t, []int{2, 1, 0, 3}, ids(p.Actual().Vertices()))
	})

	t.Run("worse tour keeps personal best", func(t *testing.T) {
		p := NewParticle(0, makeTour(g, 0, 1, 2, 3), rand.New(rand.NewSource(1)))
		require.NoError(t, p.ApplySwap(1, 2, g))
		assert.Equal(t, []int{0, 2, 1, 3}, ids(p.Actual().Vertices()))
		assert.Equal(t, []int{0, 1, 2, 3}, ids(p.PersonalBest().Vertices()))
	})

	t.Run("equal cost keeps personal best", func(t *testing.T) {
		p := NewParticle(0, makeTour(g, 0, 1, 2, 3), rand.New(rand.NewSource(1)))
		// reversing the cycle keeps the cost at 4
		require.NoError(t, p.ApplySwap(1, 3, g))
		assert.Equal(t, []int{0, 3, 2, 1}, ids(p.Actual().Vertices()))
		assert.Equal(t, []int{0, 1, 2, 3}, ids(p.PersonalBest().Vertices()))
	})

	t.Run("out of range", func(t *testing.T) {
		p := NewParticle(0, makeTour(g, 0, 2, 1, 3), rand.New(rand.NewSource(1)))
		err := p.ApplySwap(0, 9, g)
		require.Error(t, err)
		assert.True(t, errors.Is(err, optimization.ErrInvalidIndex))
		assert.Equal(t, []int{0, 2, 1, 3}, ids(p.Actual().Vertices()))
	})
}

func TestBuildVelocity(t *testing.T) {
	g := unitSquare(t)

	t.Run("global best pulls only", func(t *testing.T) {
		p := NewParticle(0, makeTour(g, 0, 2, 1, 3), rand.New(rand.NewSource(1)))
		require.NoError(t, p.BuildVelocity(makeTour(g, 0, 1, 2, 3), 0.3, 0.7))
		assert.Equal(t, []SwapOperator{
			{Vertex: 1, Origin: 2, Correct: 1, Coefficient: 0.7},
			{Vertex: 2, Origin: 1, Correct: 2, Coefficient: 0.7},
		}, p.Velocity())
	})

	t.Run("personal and global pulls interleave", func(t *testing.T) {
		p := NewParticle(0, makeTour(g, 0, 1, 2, 3), rand.New(rand.NewSource(1)))
		p.best = makeTour(g, 1, 0, 2, 3)
		require.NoError(t, p.BuildVelocity(makeTour(g, 0, 1, 3, 2), 0.3, 0.7))
		assert.Equal(t, []SwapOperator{
			{Vertex: 1, Origin: 0, Correct: 1, Coefficient: 0.3},
			{Vertex: 0, Origin: 1, Correct: 0, Coefficient: 0.3},
			{Vertex: 3, Origin: 3, Correct: 2, Coefficient: 0.7},
			{Vertex: 2, Origin: 2, Correct: 3, Coefficient: 0.7},
		}, p.Velocity())
	})

	t.Run("both pulls at one index", func(t *testing.T) {
		p := NewParticle(0, makeTour(g, 0, 1, 2, 3), rand.New(rand.NewSource(1)))
		p.best = makeTour(g, 2, 1, 0, 3)
		require.NoError(t, p.BuildVelocity(makeTour(g, 3, 1, 2, 0), 0.5, 0.5))
		ops := p.Velocity()
		require.Len(t, ops, 4)
		assert.Equal(t, SwapOperator{Vertex: 2, Origin: 0, Correct: 2, Coefficient: 0.5}, ops[0])
		assert.Equal(t, SwapOperator{Vertex: 3, Origin: 3, Correct: 0, Coefficient: 0.5}, ops[1])
	})

	t.Run("already aligned", func(t *testing.T) {
		p := NewParticle(0, makeTour(g, 0, 1, 2, 3), rand.New(rand.NewSource(1)))
		require.NoError(t, p.BuildVelocity(makeTour(g, 0, 1, 2, 3), 1, 1))
		assert.Empty(t, p.Velocity())
		assert.Equal(t, 0, p.Move(g))
	})

	t.Run("rebuilding discards previous operators", func(t *testing.T) {
		p := NewParticle(0, makeTour(g, 0, 2, 1, 3), rand.New(rand.NewSource(1)))
		require.NoError(t, p.BuildVelocity(makeTour(g, 0, 1, 2, 3), 0.5, 0.5))
		require.NoError(t, p.BuildVelocity(makeTour(g, 0, 1, 2, 3), 0.5, 0.5))
		assert.Len(t, p.Velocity(), 2)
	})

	t.Run("length mismatch", func(t *testing.T) {
		p := NewParticle(0, makeTour(g, 0, 2, 1, 3), rand.New(rand.NewSource(1)))
		err := p.BuildVelocity(makeTour(g, 0, 1, 2), 0.5, 0.5)
		require.Error(t, err)
		assert.True(t, errors.Is(err, optimization.ErrInvalidIndex))
		assert.Empty(t, p.Velocity())
	})
}

func TestMove(t *testing.T) {
	g := unitSquare(t)

	t.Run("certain swaps with idempotence guard", func(t *testing.T) {
		p := NewParticle(0, makeTour(g, 0, 2, 1, 3), rand.New(rand.NewSource(1)))
		require.NoError(t, p.BuildVelocity(makeTour(g, 0, 1, 2, 3), 1, 1))

		// the first operator fixes both positions, the second is skipped
		assert.Equal(t, 1, p.Move(g))
		assert.Equal(t, []int{0, 1, 2, 3}, ids(p.Actual().Vertices()))
		assert.InDelta(t, 4.0, p.BestCost().Value, 1e-12)
		assert.Empty(t, p.Velocity(), "velocity is cleared after use")
	})

	t.Run("zero coefficients never swap", func(t *testing.T) {
		p := NewParticle(0, makeTour(g, 0, 2, 1, 3), rand.New(rand.NewSource(1)))
		require.NoError(t, p.BuildVelocity(makeTour(g, 0, 1, 2, 3), 0, 0))
		assert.Equal(t, 0, p.Move(g))
		assert.Equal(t, []int{0, 2, 1, 3}, ids(p.Actual().Vertices()))
	})

	t.Run("personal best operators are inert", func(t *testing.T) {
		p := NewParticle(0, makeTour(g, 0, 2, 1, 3), rand.New(rand.NewSource(3)))
		p.best = makeTour(g, 0, 1, 2, 3)
		require.NoError(t, p.BuildVelocity(makeTour(g, 0, 2, 1, 3), 1, 1))
		require.NotEmpty(t, p.Velocity())
		for _, op := range p.Velocity() {
			assert.Equal(t, 1.0, op.Coefficient)
		}

		// each operator targets the slot the vertex already occupies
		assert.Equal(t, 0, p.Move(g))
		assert.Equal(t, []int{0, 2, 1, 3}, ids(p.Actual().Vertices()))
	})

	t.Run("one draw per operator", func(t *testing.T) {
		p := NewParticle(0, makeTour(g, 0, 1, 2, 3), rand.New(rand.NewSource(42)))
		p.best = makeTour(g, 1, 0, 2, 3)
		require.NoError(t, p.BuildVelocity(makeTour(g, 0, 1, 3, 2), 0.5, 0.5))
		n := len(p.Velocity())
		p.Move(g)

		ref := rand.New(rand.NewSource(42))
		for i := 0; i < n; i++ {
			ref.Float64()
		}
		assert.Equal(t, ref.Float64(), p.rng.Float64())
	})
}

func TestComparators(t *testing.T) {
	g := unitSquare(t)
	good := NewParticle(0, makeTour(g, 0, 1, 2, 3), rand.New(rand.NewSource(1)))
	bad := NewParticle(1, makeTour(g, 0, 2, 1, 3), rand.New(rand.NewSource(1)))

	assert.True(t, ByBestCost(good, bad))
	assert.False(t, ByBestCost(bad, good))
	assert.False(t, ByBestCost(good, good))
	assert.True(t, ByActualCost(good, bad))

	// the actual tour can drift away from the personal best
	require.NoError(t, good.ApplySwap(1, 2, g))
	assert.False(t, ByActualCost(good, bad))
	assert.False(t, ByActualCost(bad, good))
	assert.True(t, ByBestCost(good, bad))
}
