package pso

import (
	"math/rand"

	"github.com/copyleftdev/tspswarm/internal/optimization"
	"github.com/copyleftdev/tspswarm/internal/optimization/graph"
	"github.com/copyleftdev/tspswarm/internal/optimization/tour"
)

// Particle is one candidate tour, the best tour it has ever held and the
// velocity it builds for the current iteration. A particle owns its random
// stream so particles can move concurrently without sharing state.
type Particle struct {
	id       int
	actual   *tour.Tour
	best     *tour.Tour
	velocity Velocity
	rng      *rand.Rand
}

// NewParticle wraps t. The personal best starts as an independent copy of t.
func NewParticle(id int, t *tour.Tour, rng *rand.Rand) *Particle {
	return &Particle{
		id:     id,
		actual: t,
		best:   t.Clone(),
		rng:    rng,
	}
}

// ID returns the position of the particle in its population.
func (p *Particle) ID() int {
	return p.id
}

// Actual returns a copy of the current tour.
func (p *Particle) Actual() *tour.Tour {
	return p.actual.Clone()
}

// PersonalBest returns a copy of the best tour seen by this particle.
func (p *Particle) PersonalBest() *tour.Tour {
	return p.best.Clone()
}

// ActualCost returns the cost of the current tour.
func (p *Particle) ActualCost() tour.Cost {
	return p.actual.Cost()
}

// BestCost returns the cost of the personal best.
func (p *Particle) BestCost() tour.Cost {
	return p.best.Cost()
}

// Velocity returns the operators currently pending.
func (p *Particle) Velocity() []SwapOperator {
	return p.velocity.Operators()
}

// ByBestCost orders particles by personal-best cost.
func ByBestCost(a, b *Particle) bool {
	return a.best.Cost().Less(b.best.Cost())
}

// ByActualCost orders particles by current cost.
func ByActualCost(a, b *Particle) bool {
	return a.actual.Cost().Less(b.actual.Cost())
}

// ApplySwap swaps positions i and j of the current tour and records a deep
// copy as the personal best when it strictly improves on it. Out-of-range
// positions leave the particle untouched and are reported.
func (p *Particle) ApplySwap(i, j int, g *graph.Graph) error {
	if err := p.actual.Swap(i, j, g); err != nil {
		return err
	}
	if p.actual.Cost().Less(p.best.Cost()) {
		p.best = p.actual.Clone()
	}
	return nil
}

// BuildVelocity replaces the velocity with the swaps that pull the current
// tour toward the personal best (weight c1) and toward gbest (weight c2).
// Both pulls may emit an operator for the same position.
func (p *Particle) BuildVelocity(gbest *tour.Tour, c1, c2 float64) error {
	p.velocity.Reset()

	n := p.actual.Len()
	if p.best.Len() != n || gbest.Len() != n {
		return optimization.NewErrorf(optimization.ErrInvalidIndex,
			"tour lengths differ: actual %d, personal best %d, global best %d",
			n, p.best.Len(), gbest.Len()).
			WithComponent("particle").WithOperation("BuildVelocity")
	}

	for i := 0; i < n; i++ {
		v := p.actual.At(i)

		if pv := p.best.At(i); v != pv {
			pos, err := p.actual.PositionOf(pv)
			if err != nil {
				return optimization.WrapErrorf(err, "particle %d personal best", p.id)
			}
			p.velocity.Add(pv, i, pos, c1)
		}

		if gv := gbest.At(i); v != gv {
			pos, err := p.actual.PositionOf(gv)
			if err != nil {
				return optimization.WrapErrorf(err, "particle %d global best", p.id)
			}
			p.velocity.Add(gv, pos, i, c2)
		}
	}
	return nil
}

// Move applies the pending velocity in emission order and clears it. Each
// operator consumes exactly one draw from the particle's stream; it fires
// when the draw is below its coefficient and its vertex is not already at
// the correct position. It returns the number of swaps performed.
func (p *Particle) Move(g *graph.Graph) int {
	swaps := 0
	n := p.actual.Len()
	for _, op := range p.velocity.operators {
		draw := p.rng.Float64()
		if draw >= op.Coefficient {
			continue
		}
		if op.Correct < 0 || op.Correct >= n || p.actual.At(op.Correct) == op.Vertex {
			continue
		}
		// An out-of-range origin is a no-op.
		if err := p.ApplySwap(op.Origin, op.Correct, g); err == nil {
			swaps++
		}
	}
	p.velocity.Reset()
	return swaps
}

// Step builds a velocity against gbest and applies it.
func (p *Particle) Step(gbest *tour.Tour, c1, c2 float64, g *graph.Graph) (int, error) {
	if err := p.BuildVelocity(gbest, c1, c2); err != nil {
		p.velocity.Reset()
		return 0, err
	}
	return p.Move(g), nil
}
