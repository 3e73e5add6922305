package optimization

import (
	"context"
	"time"
)

// Optimizer is the solver-independent view of a run: optimize to the end of
// the budget and report the evaluation history.
type Optimizer interface {
	// Optimize runs the optimization process until its budget is spent or ctx
	// is cancelled.
	Optimize(ctx context.Context) (*OptimizationResult, error)

	// GetHistory returns the history of evaluations recorded so far
	GetHistory() []Evaluation
}

// Solution is a closed tour and its cost.
type Solution struct {
	Tour  []int
	Value float64
}

// Evaluation records the global-best cost seen at the start of an iteration.
// The final entry of a finished run has Iteration equal to the budget.
type Evaluation struct {
	Iteration int
	BestCost  float64
}

// OptimizationResult contains the result of an optimization run
type OptimizationResult struct {
	BestSolution *Solution
	History      []Evaluation
	Iterations   int
	Elapsed      time.Duration
}
