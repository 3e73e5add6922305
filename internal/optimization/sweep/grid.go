// Package sweep runs the swarm over a grid of hyperparameters and reports
// one row per combination.
package sweep

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/tspswarm/internal/optimization"
	"github.com/copyleftdev/tspswarm/internal/optimization/pso"
)

// Grid lists the values tried for each hyperparameter. Seed and Workers are
// shared by every run.
type Grid struct {
	PopulationSizes []int     `json:"population" yaml:"population" validate:"required,min=1,dive,gt=0"`
	Iterations      []int     `json:"iterations" yaml:"iterations" validate:"required,min=1,dive,gte=0"`
	C1              []float64 `json:"c1" yaml:"c1" validate:"required,min=1,dive,gte=0,lte=1"`
	C2              []float64 `json:"c2" yaml:"c2" validate:"required,min=1,dive,gte=0,lte=1"`
	Seed            int64     `json:"seed" yaml:"seed"`
	Workers         int       `json:"workers" yaml:"workers" validate:"gte=0"`
}

// DefaultGrid is a small grid around the default configuration.
func DefaultGrid() Grid {
	return Grid{
		PopulationSizes: []int{10, 50, 100},
		Iterations:      []int{15, 50},
		C1:              []float64{0.25, 0.5, 0.75},
		C2:              []float64{0.25, 0.5, 0.75},
		Workers:         1,
	}
}

var validate = validator.New()

// Validate checks that every list is non-empty and every value is usable.
func (g Grid) Validate() error {
	if err := validate.Struct(g); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return optimization.WrapError(err, "sweep: validate grid")
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s fails %s", fe.Namespace(), fe.Tag()))
		}
		return optimization.NewError(optimization.ErrInvalidConfig, strings.Join(msgs, "; ")).
			WithComponent("sweep").WithOperation("Grid.Validate")
	}
	return nil
}

// Size returns the number of combinations.
func (g Grid) Size() int {
	return len(g.PopulationSizes) * len(g.Iterations) * len(g.C1) * len(g.C2)
}

// Configs expands the grid in population, iterations, c1, c2 order, the
// last one varying fastest.
func (g Grid) Configs() []pso.Config {
	cfgs := make([]pso.Config, 0, g.Size())
	for _, p := range g.PopulationSizes {
		for _, it := range g.Iterations {
			for _, c1 := range g.C1 {
				for _, c2 := range g.C2 {
					cfgs = append(cfgs, pso.Config{
						PopulationSize: p,
						Iterations:     it,
						C1:             c1,
						C2:             c2,
						Seed:           g.Seed,
						Workers:        g.Workers,
					})
				}
			}
		}
	}
	return cfgs
}

// LoadGrid decodes and validates a YAML grid. Unknown keys are rejected.
func LoadGrid(r io.Reader) (Grid, error) {
	var g Grid
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&g); err != nil {
		return Grid{}, optimization.NewErrorf(optimization.ErrInvalidConfig, "decode grid: %v", err).
			WithComponent("sweep").WithOperation("LoadGrid")
	}
	if err := g.Validate(); err != nil {
		return Grid{}, err
	}
	return g, nil
}
