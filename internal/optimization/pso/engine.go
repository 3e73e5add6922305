// Package pso solves the symmetric TSP with a discrete particle swarm.
//
// Positions are tours and velocities are ordered lists of probabilistic swaps
// (see Velocity). Each iteration freezes the global best, lets every particle
// build and apply its swaps against that snapshot, then joins before the next
// snapshot is taken. Particles only read the graph and the snapshot and only
// write themselves, so the per-particle step runs in parallel without locks.
package pso

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/copyleftdev/tspswarm/internal/optimization"
	"github.com/copyleftdev/tspswarm/internal/optimization/graph"
	"github.com/copyleftdev/tspswarm/internal/optimization/tour"
)

// Snapshot is handed to an Observer after every iteration.
type Snapshot struct {
	// Iteration is the number of completed iterations, 0 before the first.
	Iteration int
	// Budget is the configured number of iterations.
	Budget int
	// GlobalBest is the cost of the best personal best after the iteration.
	GlobalBest tour.Cost
	// Tours holds copies of every particle's current tour in population order.
	Tours []*tour.Tour
}

// Observer receives a snapshot after each iteration. It runs on the
// goroutine calling Run, after all particles have moved.
type Observer func(Snapshot)

// Recorder receives run metrics.
type Recorder interface {
	IterationCompleted()
	RunFinished(outcome string, elapsed time.Duration, best float64)
}

// Run outcomes reported to a Recorder.
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The engine logs under the "pso" name.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger.Named("pso")
		}
	}
}

// WithObserver installs a per-iteration observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithRand injects the random source the run seed is drawn from. It takes
// precedence over Config.Seed.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.injected = rng
	}
}

// WithRecorder installs a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// Engine is a swarm bound to one graph. It is not safe for concurrent use;
// call Run from one goroutine at a time.
type Engine struct {
	graph     *graph.Graph
	cfg       Config
	seed      int64
	particles []*Particle
	history   []optimization.Evaluation
	completed int

	logger   *zap.Logger
	observer Observer
	recorder Recorder
	injected *rand.Rand
}

// NewEngine validates g and cfg and builds the initial population of random
// tours. Nothing is returned when validation fails.
func NewEngine(g *graph.Graph, cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if g == nil {
		return nil, optimization.NewError(optimization.ErrInvalidGraph, "graph is nil").
			WithComponent("pso").WithOperation("NewEngine")
	}
	if err := g.Validate(); err != nil {
		return nil, optimization.WrapError(err, "pso: NewEngine")
	}

	e := &Engine{
		graph:  g,
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.seed = resolveSeed(cfg.Seed, e.injected)
	e.particles = e.initPopulation()
	e.history = make([]optimization.Evaluation, 0, cfg.Iterations+1)

	e.logger.Debug("Swarm initialized",
		zap.Int("population", cfg.PopulationSize),
		zap.Int("vertices", g.Order()),
		zap.Int64("seed", e.seed),
		zap.Float64("initial_best", e.particles[e.bestIndex()].BestCost().Raw()),
	)
	return e, nil
}

// initPopulation gives every particle its own stream and lets it shuffle
// its own random permutation of the vertex set.
func (e *Engine) initPopulation() []*Particle {
	vertices := e.graph.Vertices()
	particles := make([]*Particle, e.cfg.PopulationSize)
	for i := range particles {
		rng := particleRand(e.seed, i)
		perm := append([]graph.Vertex(nil), vertices...)
		rng.Shuffle(len(perm), func(a, b int) {
			perm[a], perm[b] = perm[b], perm[a]
		})
		particles[i] = NewParticle(i, tour.FromVertices(perm, e.graph), rng)
	}
	return particles
}

// bestIndex returns the first particle with the lowest personal-best cost.
func (e *Engine) bestIndex() int {
	best := 0
	for i := 1; i < len(e.particles); i++ {
		if ByBestCost(e.particles[i], e.particles[best]) {
			best = i
		}
	}
	return best
}

// Run performs the configured number of iterations and returns the best tour
// found. Cancellation is checked between iterations; a cancelled run returns
// ctx.Err() and Best still reports the best tour reached so far. Calling Run
// again continues from the current population.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	e.logger.Info("Starting swarm run",
		zap.Int("population", e.cfg.PopulationSize),
		zap.Int("iterations", e.cfg.Iterations),
		zap.Float64("c1", e.cfg.C1),
		zap.Float64("c2", e.cfg.C2),
		zap.Int("workers", e.cfg.Workers),
	)

	for it := 0; it < e.cfg.Iterations; it++ {
		select {
		case <-ctx.Done():
			e.finish(OutcomeCancelled, start)
			return nil, ctx.Err()
		default:
		}

		gbest := e.particles[e.bestIndex()].best.Clone()
		e.history = append(e.history, optimization.Evaluation{
			Iteration: e.completed,
			BestCost:  gbest.Cost().Raw(),
		})

		swaps, err := e.step(gbest)
		if err != nil {
			e.finish(OutcomeFailed, start)
			return nil, optimization.WrapErrorf(err, "iteration %d", e.completed)
		}
		e.completed++

		if e.recorder != nil {
			e.recorder.IterationCompleted()
		}
		if e.observer != nil {
			e.observer(e.Snapshot())
		}
		e.logger.Debug("Iteration completed",
			zap.Int("iteration", e.completed),
			zap.Float64("snapshot_best", gbest.Cost().Raw()),
			zap.Int("swaps", swaps),
		)
	}

	best := e.Best()
	e.history = append(e.history, optimization.Evaluation{
		Iteration: e.completed,
		BestCost:  best.Cost().Raw(),
	})
	elapsed := e.finish(OutcomeCompleted, start)

	return &Result{
		Best:       best,
		Cost:       best.Cost(),
		Iterations: e.completed,
		History:    e.GetHistory(),
		Elapsed:    elapsed,
	}, nil
}

// step moves every particle against the frozen snapshot gbest and waits for
// all of them. It returns the number of swaps performed.
func (e *Engine) step(gbest *tour.Tour) (int, error) {
	swaps := make([]int, len(e.particles))

	if e.cfg.Workers <= 1 {
		for i, p := range e.particles {
			n, err := p.Step(gbest, e.cfg.C1, e.cfg.C2, e.graph)
			if err != nil {
				return 0, err
			}
			swaps[i] = n
		}
		return sum(swaps), nil
	}

	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for i, p := range e.particles {
		i, p := i, p
		g.Go(func() error {
			n, err := p.Step(gbest, e.cfg.C1, e.cfg.C2, e.graph)
			swaps[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return sum(swaps), nil
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

// Snapshot copies the current state of the swarm. It must not be called
// while Run is executing.
func (e *Engine) Snapshot() Snapshot {
	tours := make([]*tour.Tour, len(e.particles))
	for i, p := range e.particles {
		tours[i] = p.Actual()
	}
	return Snapshot{
		Iteration:  e.completed,
		Budget:     e.cfg.Iterations,
		GlobalBest: e.particles[e.bestIndex()].BestCost(),
		Tours:      tours,
	}
}

func (e *Engine) finish(outcome string, start time.Time) time.Duration {
	elapsed := time.Since(start)
	best := e.particles[e.bestIndex()].BestCost().Raw()
	if e.recorder != nil {
		e.recorder.RunFinished(outcome, elapsed, best)
	}
	e.logger.Info("Swarm run finished",
		zap.String("outcome", outcome),
		zap.Int("iterations", e.completed),
		zap.Float64("best_cost", best),
		zap.Duration("elapsed", elapsed),
	)
	return elapsed
}

// Best returns a copy of the lowest-cost personal best in the population.
func (e *Engine) Best() *tour.Tour {
	return e.particles[e.bestIndex()].PersonalBest()
}

// Particles returns the population in order. The particles must not be
// touched while Run is executing.
func (e *Engine) Particles() []*Particle {
	return append([]*Particle(nil), e.particles...)
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Seed returns the seed the population was derived from. Rebuilding an
// engine with this seed reproduces the run.
func (e *Engine) Seed() int64 {
	return e.seed
}

// Graph returns the graph being optimized.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// GetHistory returns the global-best cost recorded at the start of every
// iteration, followed by the final best of each completed run.
func (e *Engine) GetHistory() []optimization.Evaluation {
	return append([]optimization.Evaluation(nil), e.history...)
}

// Optimize runs the engine and converts the result to the generic
// optimization result.
func (e *Engine) Optimize(ctx context.Context) (*optimization.OptimizationResult, error) {
	res, err := e.Run(ctx)
	if err != nil {
		return nil, err
	}
	return res.OptimizationResult(), nil
}

var _ optimization.Optimizer = (*Engine)(nil)
