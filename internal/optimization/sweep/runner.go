package sweep

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/copyleftdev/tspswarm/internal/optimization"
	"github.com/copyleftdev/tspswarm/internal/optimization/graph"
	"github.com/copyleftdev/tspswarm/internal/optimization/pso"
)

// Row is the outcome of one grid combination.
type Row struct {
	PopulationSize int           `json:"population"`
	Iterations     int           `json:"iterations"`
	C1             float64       `json:"c1"`
	C2             float64       `json:"c2"`
	BestResult     float64       `json:"best_result"`
	TimeElapsed    time.Duration `json:"time_elapsed"`
}

type options struct {
	logger   *zap.Logger
	recorder pso.Recorder
	progress func(done, total int)
}

// Option configures Run.
type Option func(*options)

// WithLogger sets the logger used for the sweep and handed to every engine.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder hands r to every engine of the sweep.
func WithRecorder(r pso.Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithProgress is called after every finished combination.
func WithProgress(fn func(done, total int)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// Run solves g once per grid combination, in Configs order. It stops at the
// first failing combination or when ctx is cancelled and returns the rows
// finished so far together with the error.
func Run(ctx context.Context, g *graph.Graph, grid Grid, opts ...Option) ([]Row, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.Named("sweep")

	if err := grid.Validate(); err != nil {
		return nil, err
	}

	cfgs := grid.Configs()
	rows := make([]Row, 0, len(cfgs))
	logger.Info("Starting sweep", zap.Int("combinations", len(cfgs)))

	for i, cfg := range cfgs {
		engineOpts := []pso.Option{pso.WithLogger(o.logger)}
		if o.recorder != nil {
			engineOpts = append(engineOpts, pso.WithRecorder(o.recorder))
		}

		start := time.Now()
		engine, err := pso.NewEngine(g, cfg, engineOpts...)
		if err != nil {
			return rows, optimization.WrapErrorf(err, "sweep: combination %d", i)
		}
		res, err := engine.Run(ctx)
		if err != nil {
			return rows, optimization.WrapErrorf(err, "sweep: combination %d", i)
		}

		row := Row{
			PopulationSize: cfg.PopulationSize,
			Iterations:     cfg.Iterations,
			C1:             cfg.C1,
			C2:             cfg.C2,
			BestResult:     res.Cost.Raw(),
			TimeElapsed:    time.Since(start),
		}
		rows = append(rows, row)

		logger.Debug("Combination finished",
			zap.Int("index", i),
			zap.Int("population", row.PopulationSize),
			zap.Int("iterations", row.Iterations),
			zap.Float64("c1", row.C1),
			zap.Float64("c2", row.C2),
			zap.Float64("best", row.BestResult),
			zap.Duration("elapsed", row.TimeElapsed),
		)
		if o.progress != nil {
			o.progress(len(rows), len(cfgs))
		}
	}

	logger.Info("Sweep finished", zap.Int("rows", len(rows)))
	return rows, nil
}
