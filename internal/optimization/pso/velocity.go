package pso

import (
	"github.com/copyleftdev/tspswarm/internal/optimization/graph"
)

// SwapOperator says: Vertex should end up at Correct; exchange the contents
// of Origin and Correct with probability Coefficient.
type SwapOperator struct {
	Vertex      graph.Vertex
	Origin      int
	Correct     int
	Coefficient float64
}

// Velocity is the discrete analogue of a PSO velocity: an ordered edit script
// of swap operators. It is rebuilt every iteration and never carries over.
type Velocity struct {
	operators []SwapOperator
}

// Add appends an operator.
func (v *Velocity) Add(vertex graph.Vertex, origin, correct int, coefficient float64) {
	v.operators = append(v.operators, SwapOperator{
		Vertex:      vertex,
		Origin:      origin,
		Correct:     correct,
		Coefficient: coefficient,
	})
}

// Len returns the number of operators.
func (v *Velocity) Len() int {
	return len(v.operators)
}

// Operators returns a copy of the operators in emission order.
func (v *Velocity) Operators() []SwapOperator {
	return append([]SwapOperator(nil), v.operators...)
}

// Reset empties the velocity, keeping its backing storage.
func (v *Velocity) Reset() {
	v.operators = v.operators[:0]
}
