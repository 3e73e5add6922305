package pso

import (
	"time"

	"github.com/copyleftdev/tspswarm/internal/optimization"
	"github.com/copyleftdev/tspswarm/internal/optimization/tour"
)

// Result is the outcome of a finished run.
type Result struct {
	Best       *tour.Tour
	Cost       tour.Cost
	Iterations int
	History    []optimization.Evaluation
	Elapsed    time.Duration
}

// String renders the winning tour.
func (r *Result) String() string {
	return r.Best.String()
}

// OptimizationResult converts r to the solver-independent result type.
func (r *Result) OptimizationResult() *optimization.OptimizationResult {
	vs := r.Best.Vertices()
	ids := make([]int, len(vs))
	for i, v := range vs {
		ids[i] = int(v)
	}
	return &optimization.OptimizationResult{
		BestSolution: &optimization.Solution{
			Tour:  ids,
			Value: r.Cost.Raw(),
		},
		History:    r.History,
		Iterations: r.Iterations,
		Elapsed:    r.Elapsed,
	}
}
