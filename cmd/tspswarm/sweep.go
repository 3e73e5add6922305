package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/copyleftdev/tspswarm/internal/optimization/graph"
	"github.com/copyleftdev/tspswarm/internal/optimization/sweep"
)

// runSweep runs the grid in opts.sweep over g. Rows go to opts.csv, or to
// stdout when no file is given; the summary is always printed to stdout
// after the rows.
func runSweep(ctx context.Context, opts *options, g *graph.Graph, stdout io.Writer, logger *zap.Logger) error {
	f, err := os.Open(opts.sweep)
	if err != nil {
		return err
	}
	grid, err := sweep.LoadGrid(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", opts.sweep, err)
	}

	rows, runErr := sweep.Run(ctx, g, grid,
		sweep.WithLogger(logger),
		sweep.WithProgress(func(done, total int) {
			logger.Info("Sweep progress", zap.Int("done", done), zap.Int("total", total))
		}),
	)
	// Rows finished before a failure are still written.
	if err := writeRows(opts.csv, rows, stdout); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	s := sweep.Summarize(rows)
	_, err = fmt.Fprintf(stdout, "runs=%d mean=%.4f stddev=%.4f min=%.4f max=%.4f best=(population=%d iterations=%d c1=%g c2=%g)\n",
		s.Runs, s.Mean, s.StdDev, s.Min, s.Max,
		s.Best.PopulationSize, s.Best.Iterations, s.Best.C1, s.Best.C2)
	return err
}

func writeRows(path string, rows []sweep.Row, stdout io.Writer) error {
	if path == "" {
		return sweep.WriteCSV(stdout, rows)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sweep.WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
