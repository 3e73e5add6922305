// Command tspswarm reads cities from standard input and prints the best tour
// found by the particle swarm. With -sweep it runs a hyperparameter grid
// instead and writes one CSV row per combination.
//
// Input is the city count followed by one "x y" pair per city:
//
//	4
//	0 0
//	0 1
//	1 1
//	1 0
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/copyleftdev/tspswarm/internal/logging"
	"github.com/copyleftdev/tspswarm/internal/optimization/graph"
	"github.com/copyleftdev/tspswarm/internal/optimization/pso"
	"github.com/copyleftdev/tspswarm/internal/optimization/tsp"
)

type options struct {
	cfg      pso.Config
	verbose  bool
	sweep    string
	csv      string
	plot     string
	logLevel string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{cfg: pso.DefaultConfig()}

	fs := flag.NewFlagSet("tspswarm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&opts.cfg.PopulationSize, "population", opts.cfg.PopulationSize, "number of particles")
	fs.IntVar(&opts.cfg.Iterations, "iterations", opts.cfg.Iterations, "number of iterations")
	fs.Float64Var(&opts.cfg.C1, "c1", opts.cfg.C1, "probability of a swap toward the personal best")
	fs.Float64Var(&opts.cfg.C2, "c2", opts.cfg.C2, "probability of a swap toward the global best")
	fs.Int64Var(&opts.cfg.Seed, "seed", 0, "random seed (0 seeds from the clock)")
	fs.IntVar(&opts.cfg.Workers, "workers", opts.cfg.Workers, "goroutines moving particles")
	fs.BoolVar(&opts.verbose, "verbose", false, "print every particle's tour, initial population included")
	fs.StringVar(&opts.sweep, "sweep", "", "YAML grid file; runs a parameter sweep")
	fs.StringVar(&opts.csv, "csv", "", "sweep CSV output file (default stdout)")
	fs.StringVar(&opts.plot, "plot", "", "write the best tour as plot JSON to this file")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintf(os.Stderr, "tspswarm: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  opts.logLevel,
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cities, err := tsp.ReadCities(stdin)
	if err != nil {
		return err
	}
	g, err := tsp.CompleteGraph(cities)
	if err != nil {
		return err
	}
	logger.Debug("Cities loaded", zap.Int("cities", len(cities)))

	if opts.sweep != "" {
		return runSweep(ctx, opts, g, stdout, logger)
	}
	return solve(ctx, opts, g, cities, stdout, logger)
}

func solve(ctx context.Context, opts *options, g *graph.Graph, cities []tsp.City, stdout io.Writer, logger *zap.Logger) error {
	engineOpts := []pso.Option{pso.WithLogger(logger)}
	if opts.verbose {
		engineOpts = append(engineOpts, pso.WithObserver(printParticles(stdout)))
	}
	engine, err := pso.NewEngine(g, opts.cfg, engineOpts...)
	if err != nil {
		return err
	}
	if opts.verbose {
		printParticles(stdout)(engine.Snapshot())
	}

	res, err := engine.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("Solved",
		zap.Float64("cost", res.Cost.Raw()),
		zap.Int64("seed", engine.Seed()),
		zap.Duration("elapsed", res.Elapsed),
	)
	if _, err := fmt.Fprintln(stdout, tsp.Render(res.Best)); err != nil {
		return err
	}

	if opts.plot != "" {
		return writePlot(opts.plot, cities, res)
	}
	return nil
}

// printParticles writes the actual tour of every particle. Iteration 0 is
// the initial population.
func printParticles(w io.Writer) pso.Observer {
	return func(snap pso.Snapshot) {
		fmt.Fprintf(w, "iteration %d/%d best %v\n", snap.Iteration, snap.Budget, snap.GlobalBest)
		for i, t := range snap.Tours {
			fmt.Fprintf(w, "  particle %d: %s\n", i, tsp.Render(t))
		}
	}
}

func writePlot(path string, cities []tsp.City, res *pso.Result) error {
	plot, err := tsp.PlotData(cities, res.Best)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plot); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
